package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/document"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/llm"
	"github.com/set-night/copydesk/internal/repository/sqlite"
	"github.com/set-night/copydesk/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeProvider struct {
	name domain.ModelName
	text string
}

func (p fakeProvider) Name() domain.ModelName { return p.name }

func (p fakeProvider) Complete(_ context.Context, req llm.Request) llm.Result {
	return llm.Result{Text: p.text + " / " + req.Document, Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5}}
}

type apiFixture struct {
	e       *echo.Echo
	catalog *service.CatalogService
	users   *service.UserService
}

func newAPI(t *testing.T, providers ...llm.Provider) *apiFixture {
	t.Helper()
	migrations, err := fs.Sub(copydesk.MigrationsFS, "migrations/sqlite")
	require.NoError(t, err)
	store, err := sqlite.Open(":memory:", migrations)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		JWTSecret:   testSecret,
		MaxFileSize: 1 << 20,
		UploadDir:   t.TempDir(),
	}

	reader := document.NewReader()
	users := service.NewUserService(store)
	catalog := service.NewCatalogService(store)
	projects := service.NewProjectService(store)
	history := service.NewHistoryService(store, store, projects)
	gateway := service.NewGateway(providers, nil, store)
	sessions := service.NewSessionManager(catalog, projects, gateway, reader, history, service.SessionOptions{})
	t.Cleanup(func() { sessions.Close(context.Background()) })

	h := NewHandler(Deps{
		Cfg:      cfg,
		Users:    users,
		Catalog:  catalog,
		Sessions: sessions,
		History:  history,
		Projects: projects,
		Files:    service.NewFileService(store, reader, cfg.UploadDir, cfg.MaxFileSize),
		Gateway:  gateway,
		Stats:    service.NewStatsService(store),
	})
	return &apiFixture{e: NewServer(h), catalog: catalog, users: users}
}

func (f *apiFixture) tool(t *testing.T, questions ...string) *domain.Tool {
	t.Helper()
	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, "Ads "+uuid.NewString()[:8], nil)
	require.NoError(t, err)
	in := service.ToolInput{
		Title:              "Ad Writer",
		CategoryID:         cat.ID,
		PrimaryModel:       domain.ModelClaude,
		PromptInstructions: "Write an ad",
	}
	for _, q := range questions {
		in.Questions = append(in.Questions, service.QuestionInput{Label: q})
	}
	tool, err := f.catalog.CreateTool(ctx, in)
	require.NoError(t, err)
	return tool
}

func token(t *testing.T, sub uuid.UUID, email, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Email: email,
		Name:  "Tester",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path, tok string, body any) (int, response) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return f.serve(t, req, tok)
}

func (f *apiFixture) serve(t *testing.T, req *http.Request, tok string) (int, response) {
	t.Helper()
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestPublicCatalog(t *testing.T) {
	f := newAPI(t)
	tool := f.tool(t, "Product?")

	code, resp := f.do(t, http.MethodGet, "/v1/tools", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	tools := decode[[]domain.Tool](t, resp.Data)
	require.Len(t, tools, 1)
	assert.Equal(t, tool.ID, tools[0].ID)
	assert.Len(t, tools[0].Questions, 1)

	code, _ = f.do(t, http.MethodGet, "/v1/tools?search=nothing-like-this", "", nil)
	assert.Equal(t, http.StatusOK, code)

	inactive := false
	_, err := f.catalog.UpdateTool(context.Background(), tool.ID, service.ToolInput{
		Title:        tool.Title,
		CategoryID:   tool.CategoryID,
		PrimaryModel: tool.PrimaryModel,
		Active:       &inactive,
	})
	require.NoError(t, err)

	code, resp = f.do(t, http.MethodGet, "/v1/tools/"+tool.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "tool not found", resp.Error)

	code, _ = f.do(t, http.MethodGet, "/v1/tools/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = f.do(t, http.MethodGet, "/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	cats := decode[[]domain.Category](t, resp.Data)
	require.Len(t, cats, 1)
	assert.Equal(t, 0, cats[0].ToolCount)
}

func TestAuthentication(t *testing.T) {
	f := newAPI(t)

	code, _ := f.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = f.do(t, http.MethodGet, "/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Email:            "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	bad, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	code, _ = f.do(t, http.MethodGet, "/v1/auth/me", bad, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	id := uuid.New()
	code, resp := f.do(t, http.MethodGet, "/v1/auth/me", token(t, id, "Writer@Example.com", "user"), nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[domain.User](t, resp.Data)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "writer@example.com", me.Email)
	assert.Equal(t, domain.RoleUserAccount, me.Role)

	active := false
	_, err = f.users.Update(context.Background(), id, service.UserUpdate{Active: &active})
	require.NoError(t, err)
	code, _ = f.do(t, http.MethodGet, "/v1/auth/me", token(t, id, "writer@example.com", "user"), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminGuard(t *testing.T) {
	f := newAPI(t)
	user := token(t, uuid.New(), "user@example.com", "USER")
	admin := token(t, uuid.New(), "admin@example.com", "ADMIN")

	code, _ := f.do(t, http.MethodGet, "/v1/admin/stats", user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := f.do(t, http.MethodGet, "/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[domain.Stats](t, resp.Data)
	assert.Equal(t, 2, stats.ActiveUsers)
}

func TestAdminCategories(t *testing.T) {
	f := newAPI(t)
	admin := token(t, uuid.New(), "admin@example.com", "ADMIN")

	var ids []uuid.UUID
	for i, name := range []string{"Ads", "Email", "Social"} {
		code, resp := f.do(t, http.MethodPost, "/v1/admin/categories", admin, map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, code)
		cat := decode[domain.Category](t, resp.Data)
		assert.Equal(t, i+1, cat.DisplayOrder)
		ids = append(ids, cat.ID)
	}

	code, resp := f.do(t, http.MethodPost, "/v1/admin/categories", admin, map[string]any{"name": "Ads"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "category already exists", resp.Error)

	code, resp = f.do(t, http.MethodPut, "/v1/admin/categories/order", admin, map[string]any{
		"categoryIds": []uuid.UUID{ids[2], ids[0], ids[1]},
	})
	require.Equal(t, http.StatusOK, code)
	cats := decode[[]domain.Category](t, resp.Data)
	require.Len(t, cats, 3)
	assert.Equal(t, "Social", cats[0].Name)
	assert.Equal(t, "Ads", cats[1].Name)

	code, _ = f.do(t, http.MethodPost, "/v1/admin/tools", admin, map[string]any{
		"title":        "Bad",
		"categoryId":   ids[0],
		"primaryModel": "Llama",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLiveSessionFlow(t *testing.T) {
	f := newAPI(t, fakeProvider{name: domain.ModelClaude, text: "Buy now"})
	tool := f.tool(t, "Product?", "Audience?")
	tok := token(t, uuid.New(), "writer@example.com", "USER")

	code, resp := f.do(t, http.MethodPost, "/v1/sessions", tok, map[string]any{"toolId": tool.ID})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	view := decode[map[string]any](t, resp.Data)
	assert.Equal(t, "awaiting_answer", view["state"])
	sessionPath := "/v1/sessions/" + view["id"].(string)

	code, _ = f.do(t, http.MethodPost, sessionPath+"/messages", tok, map[string]any{"text": "Sneakers"})
	require.Equal(t, http.StatusOK, code)

	// Second answer arrives as multipart with a brief attached.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "Runners"))
	fw, err := mw.CreateFormFile("file", "brief.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Lightweight trail shoes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, sessionPath+"/messages", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	code, resp = f.serve(t, req, tok)
	require.Equal(t, http.StatusOK, code, resp.Error)

	view = decode[map[string]any](t, resp.Data)
	assert.Equal(t, "complete", view["state"])
	transcript := view["transcript"].([]any)
	require.Len(t, transcript, 5)
	last := transcript[4].(map[string]any)
	assert.Equal(t, "Buy now / Lightweight trail shoes", last["text"])
	withFile := transcript[3].(map[string]any)
	assert.Equal(t, "brief.txt", withFile["file"].(map[string]any)["name"])

	code, _ = f.do(t, http.MethodPost, sessionPath+"/retry", tok, nil)
	require.Equal(t, http.StatusOK, code)

	other := token(t, uuid.New(), "other@example.com", "USER")
	code, _ = f.do(t, http.MethodGet, sessionPath, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = f.do(t, http.MethodDelete, sessionPath, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]bool{"saved": true}, decode[map[string]bool](t, resp.Data))

	code, resp = f.do(t, http.MethodGet, "/v1/chat/sessions", tok, nil)
	require.Equal(t, http.StatusOK, code)
	saved := decode[[]domain.ChatSession](t, resp.Data)
	require.Len(t, saved, 1)
	assert.Len(t, saved[0].Messages, 7)
	assert.Equal(t, tool.Title, saved[0].ToolTitle)

	code, _ = f.do(t, http.MethodGet, "/v1/chat/sessions", other, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, "/v1/chat/sessions/"+saved[0].ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionWithoutAnswersIsNotSaved(t *testing.T) {
	f := newAPI(t, fakeProvider{name: domain.ModelClaude, text: "x"})
	tool := f.tool(t, "Product?")
	tok := token(t, uuid.New(), "writer@example.com", "USER")

	code, resp := f.do(t, http.MethodPost, "/v1/sessions", tok, map[string]any{"toolId": tool.ID})
	require.Equal(t, http.StatusCreated, code)
	id := decode[map[string]any](t, resp.Data)["id"].(string)

	code, resp = f.do(t, http.MethodDelete, "/v1/sessions/"+id, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]bool{"saved": false}, decode[map[string]bool](t, resp.Data))

	code, _ = f.do(t, http.MethodPost, "/v1/sessions/"+id+"/messages", tok, map[string]any{"text": "late"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionEventsWebsocket(t *testing.T) {
	f := newAPI(t, fakeProvider{name: domain.ModelClaude, text: "Buy now"})
	tool := f.tool(t, "Product?")
	tok := token(t, uuid.New(), "writer@example.com", "USER")

	code, resp := f.do(t, http.MethodPost, "/v1/sessions", tok, map[string]any{"toolId": tool.ID})
	require.Equal(t, http.StatusCreated, code)
	sessionPath := "/v1/sessions/" + decode[map[string]any](t, resp.Data)["id"].(string)

	srv := httptest.NewServer(f.e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + sessionPath + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var snap snapshotEvent
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "snapshot", snap.Kind)
	assert.Len(t, snap.Session.Transcript, 1)

	code, _ = f.do(t, http.MethodPost, sessionPath+"/messages", tok, map[string]any{"text": "Sneakers"})
	require.Equal(t, http.StatusOK, code)

	var reply *domain.Message
	for reply == nil {
		var ev chatflow.Event
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Kind == chatflow.EventMessage && ev.Message.Role == domain.RoleAssistant {
			reply = ev.Message
		}
	}
	assert.Equal(t, "Buy now / ", reply.Text)

	code, _ = f.do(t, http.MethodDelete, sessionPath, tok, nil)
	require.Equal(t, http.StatusOK, code)
	for {
		var ev chatflow.Event
		if err := conn.ReadJSON(&ev); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			break
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Run("no provider configured", func(t *testing.T) {
		f := newAPI(t)
		tool := f.tool(t)
		tok := token(t, uuid.New(), "writer@example.com", "USER")

		code, resp := f.do(t, http.MethodPost, "/v1/ai/generate", tok, map[string]any{
			"toolId":   tool.ID,
			"messages": []map[string]string{{"role": "user", "text": "hi"}},
		})
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, chatflow.Apology, resp.Error)

		code, resp = f.do(t, http.MethodGet, "/v1/ai/models/status", tok, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, map[string]bool{"ChatGPT": false, "Claude": false, "Grok": false, "Gemini": false},
			decode[map[string]bool](t, resp.Data))
	})

	t.Run("knowledge base reaches provider", func(t *testing.T) {
		f := newAPI(t, fakeProvider{name: domain.ModelClaude, text: "Draft"})
		tool := f.tool(t)
		tok := token(t, uuid.New(), "writer@example.com", "USER")

		code, resp := f.do(t, http.MethodPost, "/v1/ai/generate", tok, map[string]any{
			"toolId":        tool.ID,
			"messages":      []map[string]string{{"role": "user", "text": "hi"}},
			"knowledgeBase": "Brand voice: playful",
		})
		require.Equal(t, http.StatusOK, code, resp.Error)
		assert.Equal(t, map[string]string{"response": "Draft / Brand voice: playful"}, decode[map[string]string](t, resp.Data))

		code, _ = f.do(t, http.MethodPost, "/v1/ai/generate", tok, map[string]any{
			"toolId":   tool.ID,
			"messages": []map[string]string{{"role": "system", "text": "hi"}},
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestFiles(t *testing.T) {
	f := newAPI(t)
	tok := token(t, uuid.New(), "writer@example.com", "USER")

	upload := func(name string, data []byte) (int, response) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/v1/files/upload", &buf)
		req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
		return f.serve(t, req, tok)
	}

	code, resp := upload("notes.md", []byte("# Brand\nPlayful tone"))
	require.Equal(t, http.StatusCreated, code, resp.Error)
	file := decode[map[string]any](t, resp.Data)
	assert.Equal(t, "notes.md", file["filename"])
	assert.Equal(t, "# Brand\nPlayful tone", file["contentPreview"])
	path := "/v1/files/" + file["id"].(string)

	req := httptest.NewRequest(http.MethodGet, path+"/download", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Brand\nPlayful tone", rec.Body.String())

	code, _ = upload("virus.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = upload("big.txt", bytes.Repeat([]byte("a"), 1<<20+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	other := token(t, uuid.New(), "other@example.com", "USER")
	code, _ = f.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodDelete, path, tok, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodGet, path, tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProjects(t *testing.T) {
	f := newAPI(t)
	tok := token(t, uuid.New(), "writer@example.com", "USER")

	code, resp := f.do(t, http.MethodPost, "/v1/projects", tok, map[string]any{"name": "Spring launch", "tags": []string{"ads", "ads", " "}})
	require.Equal(t, http.StatusCreated, code)
	p := decode[domain.Project](t, resp.Data)
	assert.Equal(t, []string{"ads"}, p.Tags)

	code, _ = f.do(t, http.MethodPost, "/v1/projects", tok, map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = f.do(t, http.MethodPut, "/v1/projects/"+p.ID.String(), tok, map[string]any{"name": "Summer launch"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Summer launch", decode[domain.Project](t, resp.Data).Name)

	other := token(t, uuid.New(), "other@example.com", "USER")
	code, _ = f.do(t, http.MethodDelete, "/v1/projects/"+p.ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = f.do(t, http.MethodGet, "/v1/projects", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.Project](t, resp.Data), 1)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrToolNotFound, http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrSessionBusy, http.StatusConflict},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&domain.GenerationError{Attempted: []domain.ModelName{domain.ModelClaude}}, http.StatusBadGateway},
		{&domain.GenerationError{}, http.StatusServiceUnavailable},
		{echo.NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}

	_, msg := statusFor(io.ErrUnexpectedEOF)
	assert.Equal(t, "internal server error", msg)
}
