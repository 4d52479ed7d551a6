// Package httpapi exposes the catalog, live sessions, history, projects,
// files and admin operations over HTTP.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/logging"
	"github.com/set-night/copydesk/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	cfg      *config.Config
	users    *service.UserService
	catalog  *service.CatalogService
	sessions *service.SessionManager
	history  *service.HistoryService
	projects *service.ProjectService
	files    *service.FileService
	gateway  *service.Gateway
	stats    *service.StatsService
	upgrader websocket.Upgrader
}

type Deps struct {
	Cfg      *config.Config
	Users    *service.UserService
	Catalog  *service.CatalogService
	Sessions *service.SessionManager
	History  *service.HistoryService
	Projects *service.ProjectService
	Files    *service.FileService
	Gateway  *service.Gateway
	Stats    *service.StatsService
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		cfg:      deps.Cfg,
		users:    deps.Users,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		history:  deps.History,
		projects: deps.Projects,
		files:    deps.Files,
		gateway:  deps.Gateway,
		stats:    deps.Stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers every route with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	// Public catalog
	e.GET("/v1/tools", h.ListTools)
	e.GET("/v1/tools/:id", h.GetTool)
	e.GET("/v1/categories", h.ListCategories)
	e.GET("/v1/categories/:id", h.GetCategory)

	api := e.Group("/v1", Authenticate(h.users, []byte(h.cfg.JWTSecret)))
	api.GET("/auth/me", h.Me)

	// Live sessions
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.POST("/sessions/:id/messages", h.SubmitMessage)
	api.POST("/sessions/:id/retry", h.RetrySession)
	api.DELETE("/sessions/:id", h.EndSession)
	api.GET("/sessions/:id/ws", h.SessionEvents)

	// Saved history
	api.GET("/chat/sessions", h.ListSavedSessions)
	api.GET("/chat/sessions/:id", h.GetSavedSession)
	api.POST("/chat/sessions", h.CreateSavedSession)
	api.PUT("/chat/sessions/:id", h.UpdateSavedSession)
	api.DELETE("/chat/sessions/:id", h.DeleteSavedSession)

	// Projects
	api.GET("/projects", h.ListProjects)
	api.POST("/projects", h.CreateProject)
	api.GET("/projects/:id", h.GetProject)
	api.PUT("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)

	// Generation
	api.POST("/ai/generate", h.Generate)
	api.GET("/ai/models/status", h.ModelsStatus)

	// Files
	api.POST("/files/upload", h.UploadFile)
	api.GET("/files/:id", h.GetFile)
	api.GET("/files/:id/download", h.DownloadFile)
	api.DELETE("/files/:id", h.DeleteFile)

	admin := api.Group("/admin", RequireAdmin)
	admin.GET("/categories", h.AdminListCategories)
	admin.POST("/categories", h.AdminCreateCategory)
	admin.PUT("/categories/order", h.AdminReorderCategories)
	admin.PUT("/categories/:id", h.AdminUpdateCategory)
	admin.DELETE("/categories/:id", h.AdminDeleteCategory)
	admin.GET("/tools", h.AdminListTools)
	admin.POST("/tools", h.AdminCreateTool)
	admin.PUT("/tools/:id", h.AdminUpdateTool)
	admin.DELETE("/tools/:id", h.AdminDeleteTool)
	admin.GET("/users", h.AdminListUsers)
	admin.POST("/users", h.AdminInviteUser)
	admin.PUT("/users/:id", h.AdminUpdateUser)
	admin.DELETE("/users/:id", h.AdminDeleteUser)
	admin.GET("/stats", h.AdminStats)
}

// NewServer builds the echo instance with the middleware stack and routes.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.WarnContext(ctx, "request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.InfoContext(ctx, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	// Uploads are capped by the file service; this only leaves room for multipart framing.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", h.cfg.MaxFileSize/1024+1024)))

	h.RegisterRoutes(e)
	return e
}

// requestContext attaches the request id to every log record of the request.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logging.WithAttrs(c.Request().Context(), slog.String("request_id", id))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"sessions": h.sessions.Len(),
		"time":     time.Now().UTC(),
	})
}

func (h *Handler) Me(c echo.Context) error {
	return ok(c, http.StatusOK, currentUser(c))
}
