package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/chatflow"
	"github.com/set-night/copydesk/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// statusFor maps a service error to the status and message the client sees.
// Unknown errors become a bare 500; their detail stays in the log.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	switch {
	case errors.Is(err, domain.ErrToolNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidModel),
		errors.Is(err, domain.ErrUnsupportedDocument),
		errors.Is(err, domain.ErrCannotDeleteSelf):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, rootMessage(err)
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, rootMessage(err)
	case errors.Is(err, domain.ErrCategoryExists),
		errors.Is(err, domain.ErrSessionBusy),
		errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrNothingToRetry):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, domain.ErrNoProviderConfigured):
		return http.StatusServiceUnavailable, chatflow.Apology
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway, chatflow.Apology
	}
	return http.StatusInternalServerError, "internal server error"
}

// rootMessage strips wrapping context so only the sentinel text reaches the client.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// errorHandler renders every error returned by a route in the API's error shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
	}
	if err := fail(c, status, msg); err != nil {
		slog.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
