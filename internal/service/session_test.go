package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerFixture struct {
	manager  *SessionManager
	history  *HistoryService
	users    *UserService
	catalog  *CatalogService
	projects *ProjectService
	provider *stubProvider
}

func newManagerFixture(t *testing.T, ttl time.Duration) *managerFixture {
	t.Helper()
	store := newStore(t)
	catalog := NewCatalogService(store)
	projects := NewProjectService(store)
	history := NewHistoryService(store, store, projects)
	provider := answering(domain.ModelClaude, "Here is your ad")
	gateway := NewGateway([]llm.Provider{provider}, nil, store)
	manager := NewSessionManager(catalog, projects, gateway, document.NewReader(), history, SessionOptions{IdleTTL: ttl})
	return &managerFixture{
		manager:  manager,
		history:  history,
		users:    NewUserService(store),
		catalog:  catalog,
		projects: projects,
		provider: provider,
	}
}

// slowProvider answers after delay unless its context ends first.
type slowProvider struct {
	name  domain.ModelName
	delay time.Duration
	text  string
}

func (p slowProvider) Name() domain.ModelName { return p.name }

func (p slowProvider) Complete(ctx context.Context, _ llm.Request) llm.Result {
	select {
	case <-time.After(p.delay):
		return llm.Result{Text: p.text}
	case <-ctx.Done():
		return llm.Result{Failure: &llm.Failure{Kind: llm.FailureTransport, Detail: "aborted", Err: ctx.Err()}}
	}
}

func TestSubmitSurvivesCancelledRequest(t *testing.T) {
	store := newStore(t)
	catalog := NewCatalogService(store)
	projects := NewProjectService(store)
	history := NewHistoryService(store, store, projects)
	gateway := NewGateway([]llm.Provider{slowProvider{name: domain.ModelClaude, delay: 200 * time.Millisecond, text: "Here is your ad"}}, nil, store)
	manager := NewSessionManager(catalog, projects, gateway, document.NewReader(), history, SessionOptions{})
	users := NewUserService(store)

	user := newUser(t, users, 7)
	tool := newTool(t, catalog, "Product?")
	s, err := manager.Activate(context.Background(), user.ID, tool.ID, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = manager.Submit(ctx, user.ID, s.ID(), "Sneakers", nil)
	require.NoError(t, err)

	assert.Equal(t, chatflow.StateComplete, s.State())
	tr := s.Transcript()
	assert.Equal(t, "Here is your ad", tr[len(tr)-1].Text)
	assert.NotEqual(t, chatflow.Apology, tr[len(tr)-1].Text)
}

func TestSessionManagerLifecycle(t *testing.T) {
	f := newManagerFixture(t, time.Hour)
	ctx := context.Background()
	user := newUser(t, f.users, 1)
	tool := newTool(t, f.catalog, "Product?", "Audience?")

	s, err := f.manager.Activate(ctx, user.ID, tool.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, chatflow.StateAwaitingAnswer, s.State())

	cur, ok := f.manager.Current(user.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID(), cur.ID())

	_, err = f.manager.Submit(ctx, user.ID, s.ID(), "Sneakers", nil)
	require.NoError(t, err)
	_, err = f.manager.Submit(ctx, user.ID, s.ID(), "Runners", &chatflow.Attachment{Name: "brief.txt", Data: []byte("Fast shoes")})
	require.NoError(t, err)
	assert.Equal(t, chatflow.StateComplete, s.State())
	assert.Contains(t, f.provider.last.Document, "Fast shoes")

	_, err = f.manager.Submit(ctx, uuid.New(), s.ID(), "hijack", nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	saved, err := f.manager.Teardown(ctx, user.ID, s.ID())
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 0, f.manager.Len())

	list, err := f.history.List(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Messages, 5)

	_, err = f.manager.Teardown(ctx, user.ID, s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManagerRejectsInactiveToolAndForeignProject(t *testing.T) {
	f := newManagerFixture(t, time.Hour)
	ctx := context.Background()
	owner := newUser(t, f.users, 1)
	other := newUser(t, f.users, 2)
	tool := newTool(t, f.catalog)

	p, err := f.projects.Create(ctx, owner.ID, "Launch", nil)
	require.NoError(t, err)
	_, err = f.manager.Activate(ctx, other.ID, tool.ID, &p.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	off := false
	_, err = f.catalog.UpdateTool(ctx, tool.ID, ToolInput{Active: &off})
	require.NoError(t, err)
	_, err = f.manager.Activate(ctx, owner.ID, tool.ID, nil)
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
	assert.Equal(t, 0, f.manager.Len())
}

func TestSessionManagerSweep(t *testing.T) {
	f := newManagerFixture(t, time.Minute)
	ctx := context.Background()
	user := newUser(t, f.users, 1)
	tool := newTool(t, f.catalog)

	now := time.Now()
	f.manager.now = func() time.Time { return now }

	fresh, err := f.manager.Activate(ctx, user.ID, tool.ID, nil)
	require.NoError(t, err)
	_, err = f.manager.Submit(ctx, user.ID, fresh.ID(), "Write it", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, f.manager.Sweep(ctx))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, f.manager.Sweep(ctx))
	assert.True(t, fresh.Closed())

	list, err := f.history.List(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionManagerClose(t *testing.T) {
	f := newManagerFixture(t, 0)
	ctx := context.Background()
	user := newUser(t, f.users, 1)
	tool := newTool(t, f.catalog)

	s, err := f.manager.Activate(ctx, user.ID, tool.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.manager.Sweep(ctx), "sweep disabled without a TTL")

	f.manager.Close(ctx)
	assert.True(t, s.Closed())
	_, ok := f.manager.Current(user.ID)
	assert.False(t, ok)
}
