package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/set-night/copydesk/internal/domain"
)

type userRow struct {
	ID         uuid.UUID          `db:"id"`
	Email      string             `db:"email"`
	Name       string             `db:"name"`
	Role       string             `db:"role"`
	Active     bool               `db:"active"`
	TelegramID pgtype.Int8        `db:"telegram_id"`
	CreatedAt  pgtype.Timestamptz `db:"created_at"`
	UpdatedAt  pgtype.Timestamptz `db:"updated_at"`
}

// rowToUser converts a scanned row to a domain.User.
func rowToUser(r userRow) domain.User {
	return domain.User{
		ID:         r.ID,
		Email:      r.Email,
		Name:       r.Name,
		Role:       domain.UserRole(r.Role),
		Active:     r.Active,
		TelegramID: pgInt8ToPtr(r.TelegramID),
		CreatedAt:  pgTimestamptzToTime(r.CreatedAt),
		UpdatedAt:  pgTimestamptzToTime(r.UpdatedAt),
	}
}

const userColumns = "id, email, name, role, active, telegram_id, created_at, updated_at"

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	urs, err := pgx.CollectRows(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	out := make([]domain.User, len(urs))
	for i, r := range urs {
		out[i] = rowToUser(r)
	}
	return out, nil
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, arg)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	u := rowToUser(r)
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = $1", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email = $1", email)
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.getUserWhere(ctx, "telegram_id = $1", telegramID)
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, string(u.Role), u.Active, ptrToPgInt8(u.TelegramID),
		timeToPgTimestamptz(u.CreatedAt), timeToPgTimestamptz(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET email = $2, name = $3, role = $4, active = $5, telegram_id = $6, updated_at = $7
		WHERE id = $1`,
		u.ID, u.Email, u.Name, string(u.Role), u.Active, ptrToPgInt8(u.TelegramID), timeToPgTimestamptz(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
