package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/logging"
	"github.com/set-night/copydesk/internal/service"
)

const userKey = "user"

// TokenClaims is the access token payload. Tokens are issued elsewhere and
// only verified here.
type TokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns its identity claims.
func ParseToken(raw string, secret []byte) (service.Claims, error) {
	var tc TokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return service.Claims{}, fmt.Errorf("parse token: %w", err)
	}

	id, err := uuid.Parse(tc.Subject)
	if err != nil {
		return service.Claims{}, fmt.Errorf("parse token subject: %w", err)
	}
	return service.Claims{
		UserID: id,
		Email:  tc.Email,
		Name:   tc.Name,
		Role:   domain.UserRole(strings.ToUpper(tc.Role)),
	}, nil
}

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for websocket upgrades where headers cannot be set.
func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.QueryParam("token")
}

// Authenticate verifies the bearer token and loads the caller, creating the
// account the first time a subject is seen.
func Authenticate(users *service.UserService, secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return fail(c, http.StatusUnauthorized, "missing bearer token")
			}
			if len(secret) == 0 {
				return fail(c, http.StatusUnauthorized, "authentication is not configured")
			}

			claims, err := ParseToken(raw, secret)
			if err != nil {
				slog.DebugContext(c.Request().Context(), "rejected token", "error", err)
				return fail(c, http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			user, err := users.EnsureFromClaims(ctx, claims)
			if err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					return fail(c, http.StatusForbidden, "account is deactivated")
				}
				if errors.Is(err, domain.ErrInvalidInput) {
					return fail(c, http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			ctx = service.WithActor(ctx, user.ID)
			ctx = logging.WithAttrs(ctx, slog.String("user_id", user.ID.String()))
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers without the ADMIN role. It must run after Authenticate.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := currentUser(c)
		if u == nil || !u.IsAdmin() {
			return fail(c, http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userKey).(*domain.User)
	return u
}
