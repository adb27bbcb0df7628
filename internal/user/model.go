package user

import (
	"time"

	"github.com/sumisonnn/MEDICO/internal/auth"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         auth.Role `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateInput carries the admin-editable fields. Nil means unchanged.
type UpdateInput struct {
	Username *string
	Email    *string
	Role     *string
}
