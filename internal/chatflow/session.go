package chatflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/logging"
)

// Apology is appended in place of a generated reply when every provider failed.
const Apology = "I apologize, but I encountered an error generating your response. Please try again or contact support if the issue persists."

// Generator produces the final text for a finished question flow or a revision request.
type Generator interface {
	Generate(ctx context.Context, tool *domain.Tool, transcript []domain.Message, document string) (string, error)
}

// DocumentReader turns an attached file into plain text.
type DocumentReader interface {
	Extract(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// Sink receives the transcript when a session is torn down.
type Sink interface {
	Save(ctx context.Context, rec *domain.ChatSession) error
}

// Attachment is a document supplied with a single turn. Text, when set, is
// used as-is and Data is not read.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
	Text     string
	Size     int64
}

func (a *Attachment) descriptor() *domain.FileDescriptor {
	if a == nil {
		return nil
	}
	size := a.Size
	if size == 0 {
		size = int64(len(a.Data))
	}
	return &domain.FileDescriptor{Name: a.Name, Size: size}
}

type Config struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ProjectID     *uuid.UUID
	Tool          *domain.Tool
	Generator     Generator
	Documents     DocumentReader
	Sink          Sink
	GreetingDelay time.Duration
	QuestionDelay time.Duration
	Clock         func() time.Time
}

// View is a point-in-time copy of a session.
type View struct {
	ID               uuid.UUID        `json:"id"`
	ToolID           uuid.UUID        `json:"toolId"`
	ToolTitle        string           `json:"toolTitle"`
	ProjectID        *uuid.UUID       `json:"projectId,omitempty"`
	State            State            `json:"state"`
	Cursor           int              `json:"cursor"`
	QuestionCount    int              `json:"questionCount"`
	Thinking         bool             `json:"thinking"`
	GenerationFailed bool             `json:"generationFailed"`
	Transcript       []domain.Message `json:"transcript"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type Session struct {
	id            uuid.UUID
	userID        uuid.UUID
	tool          *domain.Tool
	questions     []domain.Question
	gen           Generator
	docs          DocumentReader
	sink          Sink
	greetingDelay time.Duration
	questionDelay time.Duration
	now           func() time.Time
	createdAt     time.Time

	// turn is held for the whole of Start, Submit and Retry so a second
	// submission while one is in flight is rejected instead of queued.
	turn sync.Mutex

	mu           sync.Mutex
	state        State
	started      bool
	closed       bool
	thinking     bool
	failed       bool
	cursor       int
	projectID    *uuid.UUID
	transcript   []domain.Message
	lastActivity time.Time
	subs         map[int]chan Event
	nextSub      int
}

func New(cfg Config) *Session {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	created := now()
	return &Session{
		id:            id,
		userID:        cfg.UserID,
		tool:          cfg.Tool,
		questions:     SortQuestions(cfg.Tool.Questions),
		gen:           cfg.Generator,
		docs:          cfg.Documents,
		sink:          cfg.Sink,
		greetingDelay: cfg.GreetingDelay,
		questionDelay: cfg.QuestionDelay,
		now:           now,
		createdAt:     created,
		state:         StateGreeting,
		projectID:     cfg.ProjectID,
		lastActivity:  created,
		subs:          make(map[int]chan Event),
	}
}

func (s *Session) ID() uuid.UUID     { return s.id }
func (s *Session) UserID() uuid.UUID { return s.userID }
func (s *Session) Tool() *domain.Tool {
	return s.tool
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Closed reports whether Teardown has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// SetProject files the session under a project. Only the value at teardown is persisted.
func (s *Session) SetProject(projectID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
}

// Transcript returns a copy of the messages appended so far.
func (s *Session) Transcript() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:               s.id,
		ToolID:           s.tool.ID,
		ToolTitle:        s.tool.Title,
		ProjectID:        s.projectID,
		State:            s.state,
		Cursor:           s.cursor,
		QuestionCount:    len(s.questions),
		Thinking:         s.thinking,
		GenerationFailed: s.failed,
		Transcript:       slices.Clone(s.transcript),
		CreatedAt:        s.createdAt,
	}
}

// Subscribe returns a channel of events and a function that cancels the subscription.
// Slow subscribers miss events rather than stall the session; Transcript is authoritative.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Greeting is the first assistant message of a session.
func Greeting(title string, questions []domain.Question) string {
	if q, ok := NextQuestion(questions, 0); ok {
		return fmt.Sprintf("Hello! I'm ready to help you with %s. %s", title, q.Label)
	}
	return fmt.Sprintf("Hello! I'm ready to help you with %s. How can I assist you today?", title)
}

// Start waits out the greeting delay and appends the greeting. Calling it again is a no-op.
func (s *Session) Start(ctx context.Context) error {
	if !s.turn.TryLock() {
		return domain.ErrSessionBusy
	}
	defer s.turn.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.setThinkingLocked(true)
	s.mu.Unlock()

	if err := sleep(ctx, s.greetingDelay); err != nil {
		s.mu.Lock()
		s.started = false
		s.setThinkingLocked(false)
		s.mu.Unlock()
		return fmt.Errorf("greeting delay: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.appendLocked(domain.RoleAssistant, Greeting(s.tool.Title, s.questions), nil)
	s.setThinkingLocked(false)
	s.transitionLocked(StateAwaitingAnswer)
	return nil
}

// Submit records a user turn. While questions remain it asks the next one;
// once they are exhausted, and for every turn after completion, it calls the
// generator. Generation failures are reported in the transcript, not returned.
func (s *Session) Submit(ctx context.Context, text string, att *Attachment) error {
	if strings.TrimSpace(text) == "" && att == nil {
		return fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	if !s.turn.TryLock() {
		return domain.ErrSessionBusy
	}
	defer s.turn.Unlock()

	ctx = logging.WithAttrs(ctx, slog.String("session_id", s.id.String()))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state == StateGreeting || s.state == StateGenerating {
		s.mu.Unlock()
		return domain.ErrSessionBusy
	}

	revision := s.state == StateComplete
	s.appendLocked(domain.RoleUser, text, att.descriptor())

	if !revision {
		if s.cursor < len(s.questions) {
			s.cursor++
		}
		if q, ok := NextQuestion(s.questions, s.cursor); ok {
			s.setThinkingLocked(true)
			s.mu.Unlock()

			// The pause is cosmetic; a cancelled context only cuts it short.
			_ = sleep(ctx, s.questionDelay)

			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return nil
			}
			s.appendLocked(domain.RoleAssistant, q.Label, nil)
			s.setThinkingLocked(false)
			return nil
		}
		s.transitionLocked(StateGenerating)
	}

	s.setThinkingLocked(true)
	transcript := slices.Clone(s.transcript)
	s.mu.Unlock()

	// Generation outlives the caller: a dropped request or a bot shutdown
	// must not turn an in-flight answer into the apology.
	genCtx := context.WithoutCancel(ctx)
	document := s.readDocument(genCtx, att)
	reply, err := s.gen.Generate(genCtx, s.tool, transcript, document)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		slog.DebugContext(ctx, "discarding generation result for closed session")
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "tool_id", s.tool.ID, "revision", revision, "error", err)
		reply = Apology
	}
	s.failed = err != nil
	s.appendLocked(domain.RoleAssistant, reply, nil)
	s.setThinkingLocked(false)
	if !revision {
		s.transitionLocked(StateComplete)
	}
	return nil
}

// Retry re-sends the most recent user turn as a revision request.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateComplete {
		s.mu.Unlock()
		return domain.ErrNothingToRetry
	}
	var last string
	for i := len(s.transcript) - 1; i >= 0; i-- {
		if s.transcript[i].Role == domain.RoleUser {
			last = s.transcript[i].Text
			break
		}
	}
	s.mu.Unlock()

	if strings.TrimSpace(last) == "" {
		return domain.ErrNothingToRetry
	}
	return s.Submit(ctx, last, nil)
}

// Teardown closes the session and hands the transcript to the sink if it holds
// more than the greeting. It reports whether a save was attempted; only the
// first call can do so.
func (s *Session) Teardown(ctx context.Context) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	rec := &domain.ChatSession{
		ID:        s.id,
		UserID:    s.userID,
		ToolID:    s.tool.ID,
		ToolTitle: s.tool.Title,
		Messages:  slices.Clone(s.transcript),
		ProjectID: s.projectID,
		CreatedAt: s.createdAt,
		UpdatedAt: s.now(),
	}
	s.publishLocked(Event{Kind: EventClosed, State: s.state})
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	if len(rec.Messages) <= 1 || s.sink == nil {
		return false
	}
	if err := s.sink.Save(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "save session transcript", "session_id", s.id, "error", err)
	}
	return true
}

func (s *Session) readDocument(ctx context.Context, att *Attachment) string {
	if att == nil {
		return ""
	}
	if att.Text != "" {
		return att.Text
	}
	if s.docs == nil || len(att.Data) == 0 {
		return ""
	}
	text, err := s.docs.Extract(ctx, att.Name, att.MimeType, att.Data)
	if err != nil {
		slog.WarnContext(ctx, "attached document ignored", "file", att.Name, "error", err)
		return ""
	}
	return text
}

func (s *Session) appendLocked(role domain.Role, text string, file *domain.FileDescriptor) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		File:      file,
		CreatedAt: s.now(),
	}
	s.transcript = append(s.transcript, msg)
	s.lastActivity = msg.CreatedAt
	s.publishLocked(Event{Kind: EventMessage, Message: &msg, State: s.state})
}

func (s *Session) transitionLocked(to State) {
	if !canTransition(s.state, to) {
		panic(fmt.Sprintf("chatflow: invalid transition %s -> %s", s.state, to))
	}
	if s.state == to {
		return
	}
	s.state = to
	s.publishLocked(Event{Kind: EventState, State: to})
}

func (s *Session) setThinkingLocked(v bool) {
	if s.thinking == v {
		return
	}
	s.thinking = v
	s.publishLocked(Event{Kind: EventThinking, State: s.state, Thinking: v})
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
