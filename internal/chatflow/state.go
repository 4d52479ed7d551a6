package chatflow

import "fmt"

type State int

const (
	StateGreeting State = iota
	StateAwaitingAnswer
	StateGenerating
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateGenerating:
		return "generating"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st := StateGreeting; st <= StateComplete; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// transitions lists every edge the session may take.
var transitions = map[State][]State{
	StateGreeting:       {StateAwaitingAnswer},
	StateAwaitingAnswer: {StateAwaitingAnswer, StateGenerating},
	StateGenerating:     {StateComplete},
	StateComplete:       {},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
