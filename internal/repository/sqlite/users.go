package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/copydesk/internal/domain"
)

type userRow struct {
	ID         uuid.UUID     `db:"id"`
	Email      string        `db:"email"`
	Name       string        `db:"name"`
	Role       string        `db:"role"`
	Active     bool          `db:"active"`
	TelegramID sql.NullInt64 `db:"telegram_id"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      domain.UserRole(r.Role),
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.TelegramID.Valid {
		id := r.TelegramID.Int64
		u.TelegramID = &id
	}
	return u
}

func telegramIDColumn(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

const userColumns = "id, email, name, role, active, telegram_id, created_at, updated_at"

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+cond, arg); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.getUserWhere(ctx, "telegram_id = ?", telegramID)
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, string(u.Role), u.Active, telegramIDColumn(u.TelegramID),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, name = ?, role = ?, active = ?, telegram_id = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.Name, string(u.Role), u.Active, telegramIDColumn(u.TelegramID), u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}
