package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/logging"
)

// ToolSource resolves the tool a session runs.
type ToolSource interface {
	GetActiveTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error)
}

// ProjectChecker confirms a user owns a project.
type ProjectChecker interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Project, error)
}

type SessionOptions struct {
	GreetingDelay time.Duration
	QuestionDelay time.Duration
	IdleTTL       time.Duration
}

// SessionManager is the in-process registry of live sessions.
type SessionManager struct {
	tools    ToolSource
	projects ProjectChecker
	gen      chatflow.Generator
	docs     chatflow.DocumentReader
	sink     chatflow.Sink
	opts     SessionOptions
	now      func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*chatflow.Session
	current  map[uuid.UUID]uuid.UUID
}

func NewSessionManager(tools ToolSource, projects ProjectChecker, gen chatflow.Generator, docs chatflow.DocumentReader, sink chatflow.Sink, opts SessionOptions) *SessionManager {
	return &SessionManager{
		tools:    tools,
		projects: projects,
		gen:      gen,
		docs:     docs,
		sink:     sink,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*chatflow.Session),
		current:  make(map[uuid.UUID]uuid.UUID),
	}
}

// Activate opens a session on an active tool and waits for its greeting.
func (m *SessionManager) Activate(ctx context.Context, userID, toolID uuid.UUID, projectID *uuid.UUID) (*chatflow.Session, error) {
	tool, err := m.tools.GetActiveTool(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if projectID != nil {
		if _, err := m.projects.Get(ctx, userID, *projectID); err != nil {
			return nil, err
		}
	}

	s := chatflow.New(chatflow.Config{
		UserID:        userID,
		ProjectID:     projectID,
		Tool:          tool,
		Generator:     m.gen,
		Documents:     m.docs,
		Sink:          m.sink,
		GreetingDelay: m.opts.GreetingDelay,
		QuestionDelay: m.opts.QuestionDelay,
		Clock:         m.now,
	})

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.current[userID] = s.ID()
	m.mu.Unlock()

	ctx = logging.WithAttrs(ctx, slog.String("session_id", s.ID().String()))
	slog.InfoContext(ctx, "session activated", "tool_id", tool.ID, "user_id", userID)

	if err := s.Start(ctx); err != nil {
		m.remove(s)
		s.Teardown(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

// Get returns a live session owned by userID.
func (m *SessionManager) Get(userID, id uuid.UUID) (*chatflow.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.UserID() != userID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Current is the user's most recently activated session, if still live.
func (m *SessionManager) Current(userID uuid.UUID) (*chatflow.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.current[userID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[id]
	return s, ok
}

func (m *SessionManager) Submit(ctx context.Context, userID, id uuid.UUID, text string, att *chatflow.Attachment) (*chatflow.Session, error) {
	s, err := m.Get(userID, id)
	if err != nil {
		return nil, err
	}
	return s, s.Submit(WithActor(ctx, userID), text, att)
}

func (m *SessionManager) Retry(ctx context.Context, userID, id uuid.UUID) (*chatflow.Session, error) {
	s, err := m.Get(userID, id)
	if err != nil {
		return nil, err
	}
	return s, s.Retry(WithActor(ctx, userID))
}

// Teardown closes a session and reports whether its transcript was handed to persistence.
func (m *SessionManager) Teardown(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	s, err := m.Get(userID, id)
	if err != nil {
		return false, err
	}
	m.remove(s)
	return s.Teardown(context.WithoutCancel(ctx)), nil
}

// Sweep tears down sessions idle for longer than the configured TTL.
func (m *SessionManager) Sweep(ctx context.Context) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var idle []*chatflow.Session
	for _, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.remove(s)
		saved := s.Teardown(ctx)
		slog.InfoContext(ctx, "idle session closed", "session_id", s.ID(), "saved", saved)
	}
	return len(idle)
}

// Close tears down every live session, saving transcripts.
func (m *SessionManager) Close(ctx context.Context) {
	m.mu.Lock()
	all := make([]*chatflow.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[uuid.UUID]*chatflow.Session)
	m.current = make(map[uuid.UUID]uuid.UUID)
	m.mu.Unlock()

	for _, s := range all {
		s.Teardown(ctx)
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) remove(s *chatflow.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, s.ID())
	if m.current[s.UserID()] == s.ID() {
		delete(m.current, s.UserID())
	}
}
