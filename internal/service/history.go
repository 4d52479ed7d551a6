package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

// SavedNotifier is told about every transcript written by a live session.
type SavedNotifier interface {
	SessionSaved(ctx context.Context, rec *domain.ChatSession)
}

// HistoryService stores finished transcripts and serves them back to their owner.
// It is the persistence sink for live sessions.
type HistoryService struct {
	store    repository.SessionStore
	catalog  repository.CatalogStore
	projects *ProjectService
	notifier SavedNotifier
}

func NewHistoryService(store repository.SessionStore, catalog repository.CatalogStore, projects *ProjectService) *HistoryService {
	return &HistoryService{store: store, catalog: catalog, projects: projects}
}

func (s *HistoryService) SetNotifier(n SavedNotifier) {
	s.notifier = n
}

// Save implements the live-session sink.
func (s *HistoryService) Save(ctx context.Context, rec *domain.ChatSession) error {
	if err := s.store.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.notifier != nil {
		s.notifier.SessionSaved(ctx, rec)
	}
	return nil
}

func (s *HistoryService) List(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) ([]domain.ChatSession, error) {
	return s.store.ListSessions(ctx, userID, projectID)
}

func (s *HistoryService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.ChatSession, error) {
	cs, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return cs, nil
}

type SessionInput struct {
	ToolID    uuid.UUID        `json:"toolId"`
	ToolTitle *string          `json:"toolTitle"`
	Messages  []domain.Message `json:"messages"`
	ProjectID *uuid.UUID       `json:"projectId"`
}

// Create stores a transcript assembled by the client.
func (s *HistoryService) Create(ctx context.Context, userID uuid.UUID, in SessionInput) (*domain.ChatSession, error) {
	if in.ToolTitle == nil || strings.TrimSpace(*in.ToolTitle) == "" {
		return nil, fmt.Errorf("%w: toolTitle is required", domain.ErrInvalidInput)
	}
	if _, err := s.catalog.GetTool(ctx, in.ToolID); err != nil {
		return nil, err
	}
	if in.ProjectID != nil {
		if _, err := s.projects.Get(ctx, userID, *in.ProjectID); err != nil {
			return nil, err
		}
	}
	msgs := in.Messages
	if msgs == nil {
		msgs = []domain.Message{}
	}
	now := time.Now()
	cs := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		ToolID:    in.ToolID,
		ToolTitle: strings.TrimSpace(*in.ToolTitle),
		Messages:  msgs,
		ProjectID: in.ProjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveSession(ctx, cs); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return cs, nil
}

func (s *HistoryService) Update(ctx context.Context, userID, id uuid.UUID, in SessionInput) (*domain.ChatSession, error) {
	cs, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.ToolTitle != nil {
		title := strings.TrimSpace(*in.ToolTitle)
		if title == "" {
			return nil, fmt.Errorf("%w: toolTitle is empty", domain.ErrInvalidInput)
		}
		cs.ToolTitle = title
	}
	if in.Messages != nil {
		cs.Messages = in.Messages
	}
	if in.ProjectID != nil {
		if _, err := s.projects.Get(ctx, userID, *in.ProjectID); err != nil {
			return nil, err
		}
		cs.ProjectID = in.ProjectID
	}
	cs.UpdatedAt = time.Now()
	if err := s.store.SaveSession(ctx, cs); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return cs, nil
}

func (s *HistoryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, id)
}
