package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedLog struct {
	saved []*domain.ChatSession
}

func (l *savedLog) SessionSaved(_ context.Context, rec *domain.ChatSession) {
	l.saved = append(l.saved, rec)
}

func TestHistoryOwnership(t *testing.T) {
	store := newStore(t)
	users := NewUserService(store)
	catalog := NewCatalogService(store)
	projects := NewProjectService(store)
	history := NewHistoryService(store, store, projects)
	ctx := context.Background()

	owner := newUser(t, users, 1)
	other := newUser(t, users, 2)
	tool := newTool(t, catalog)
	project, err := projects.Create(ctx, owner.ID, "Launch", []string{"q4", " q4 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"q4"}, project.Tags)

	title := "Ad Writer"
	cs, err := history.Create(ctx, owner.ID, SessionInput{ToolID: tool.ID, ToolTitle: &title, ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = history.Create(ctx, other.ID, SessionInput{ToolID: tool.ID, ToolTitle: &title, ProjectID: &project.ID})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = history.Get(ctx, other.ID, cs.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, history.Delete(ctx, other.ID, cs.ID), domain.ErrSessionNotFound)

	list, err := history.List(ctx, owner.ID, &project.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := history.Update(ctx, owner.ID, cs.ID, SessionInput{
		Messages: []domain.Message{{ID: "1", Role: domain.RoleUser, Text: "hi"}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Messages, 1)

	_, err = history.Create(ctx, owner.ID, SessionInput{ToolID: uuid.New(), ToolTitle: &title})
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestHistorySaveNotifies(t *testing.T) {
	store := newStore(t)
	users := NewUserService(store)
	history := NewHistoryService(store, store, NewProjectService(store))
	log := &savedLog{}
	history.SetNotifier(log)

	u := newUser(t, users, 3)
	rec := &domain.ChatSession{ID: uuid.New(), UserID: u.ID, ToolID: uuid.New(), ToolTitle: "T"}
	require.NoError(t, history.Save(context.Background(), rec))
	assert.Len(t, log.saved, 1)
}

func TestProjectDeleteRequiresOwner(t *testing.T) {
	store := newStore(t)
	users := NewUserService(store)
	projects := NewProjectService(store)
	ctx := context.Background()

	owner := newUser(t, users, 1)
	other := newUser(t, users, 2)
	p, err := projects.Create(ctx, owner.ID, "Launch", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, projects.Delete(ctx, other.ID, p.ID), domain.ErrProjectNotFound)
	name := "Relaunch"
	renamed, err := projects.Update(ctx, owner.ID, p.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", renamed.Name)
	require.NoError(t, projects.Delete(ctx, owner.ID, p.ID))
}
