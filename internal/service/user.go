package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
	"github.com/set-night/copydesk/internal/repository"
)

type UserService struct {
	store repository.UserStore
}

func NewUserService(store repository.UserStore) *UserService {
	return &UserService{store: store}
}

// TelegramEmail is the placeholder address given to users who arrive through the bot.
func TelegramEmail(telegramID int64) string {
	return fmt.Sprintf("tg-%d@telegram.local", telegramID)
}

// FindOrCreateByTelegram returns the user bound to telegramID, creating one on first contact.
// isAdmin promotes the user; it never demotes.
func (s *UserService) FindOrCreateByTelegram(ctx context.Context, telegramID int64, name string, isAdmin bool) (*domain.User, bool, error) {
	u, err := s.store.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		if isAdmin && !u.IsAdmin() {
			u.Role = domain.RoleAdmin
			u.UpdatedAt = time.Now()
			if err := s.store.UpdateUser(ctx, u); err != nil {
				return nil, false, fmt.Errorf("promote user: %w", err)
			}
		}
		return u, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	role := domain.RoleUserAccount
	if isAdmin {
		role = domain.RoleAdmin
	}
	now := time.Now()
	u = &domain.User{
		ID:         uuid.New(),
		Email:      TelegramEmail(telegramID),
		Name:       name,
		Role:       role,
		Active:     true,
		TelegramID: &telegramID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "user registered", "user_id", u.ID, "telegram_id", telegramID)
	return u, true, nil
}

// Claims are the identity fields carried by an access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   domain.UserRole
}

// EnsureFromClaims loads the token's user, creating it on first sight.
// Deactivated users are rejected.
func (s *UserService) EnsureFromClaims(ctx context.Context, c Claims) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, c.UserID)
	switch {
	case err == nil:
		if !u.Active {
			return nil, domain.ErrForbidden
		}
		return u, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("get user: %w", err)
	}

	if c.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", domain.ErrInvalidInput)
	}
	role := c.Role
	if !role.Valid() {
		role = domain.RoleUserAccount
	}
	now := time.Now()
	u = &domain.User{
		ID:        c.UserID,
		Email:     strings.ToLower(c.Email),
		Name:      c.Name,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

// Invite creates a user ahead of their first sign-in.
func (s *UserService) Invite(ctx context.Context, email, name string, role domain.UserRole, active *bool) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || len(strings.TrimSpace(name)) < 2 {
		return nil, fmt.Errorf("%w: valid email and name are required", domain.ErrInvalidInput)
	}
	if role == "" {
		role = domain.RoleUserAccount
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidInput, role)
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user already exists", domain.ErrInvalidInput)
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		Active:    active == nil || *active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

type UserUpdate struct {
	Name   *string          `json:"name"`
	Role   *domain.UserRole `json:"role"`
	Active *bool            `json:"active"`
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, fmt.Errorf("%w: name too short", domain.ErrInvalidInput)
		}
		u.Name = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidInput, *in.Role)
		}
		u.Role = *in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	u.UpdatedAt = time.Now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user. Admins cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return domain.ErrCannotDeleteSelf
	}
	return s.store.DeleteUser(ctx, id)
}
