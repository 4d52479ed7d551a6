package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleUserAccount UserRole = "USER"
	RoleAdmin       UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	return r == RoleUserAccount || r == RoleAdmin
}

type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       UserRole  `json:"role"`
	Active     bool      `json:"active"`
	TelegramID *int64    `json:"telegramId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
