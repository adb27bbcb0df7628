package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumisonnn/MEDICO/internal/apperr"
	"github.com/sumisonnn/MEDICO/internal/auth"
)

const minPasswordLength = 6

type Service interface {
	Register(ctx context.Context, username, email, password string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateInput) (*User, error)
	DeleteUser(ctx context.Context, callerID, id int64) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

type service struct {
	repo Repository
	cost int
}

func NewService(repo Repository) Service {
	return &service{repo: repo, cost: bcrypt.DefaultCost}
}

func (s *service) Register(ctx context.Context, username, email, password string) (*User, error) {
	u := &User{
		Username: strings.TrimSpace(username),
		Email:    normalizeEmail(email),
		Role:     auth.RoleUser,
	}
	if u.Username == "" {
		return nil, apperr.Validation("username is required")
	}
	if err := validateEmail(u.Email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.hashInto(u, password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			log.Warn().Str("email", u.Email).Msg("service: registration with existing email")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Msg("service: user registered")
	return u, nil
}

// Authenticate never reveals whether the email or the password was wrong.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		log.Error().Err(err).Msg("service: failed to get user by email in repository")
		return nil, fmt.Errorf("service: failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		log.Warn().Int64("user_id", u.ID).Msg("service: invalid password")
		return nil, apperr.ErrUnauthorized
	}
	return u, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id %d: %w", id, err)
	}
	return u, nil
}

func (s *service) UpdateUser(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		u.Username = strings.TrimSpace(*input.Username)
		if u.Username == "" {
			return nil, apperr.Validation("username is required")
		}
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if email != u.Email {
			taken, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && taken.ID != u.ID:
				return nil, apperr.Conflict("email already exists")
			case err != nil && !errors.Is(err, apperr.ErrNotFound):
				return nil, fmt.Errorf("service: failed to check email: %w", err)
			}
		}
		u.Email = email
	}
	if input.Role != nil {
		role := auth.Role(strings.ToLower(strings.TrimSpace(*input.Role)))
		if !role.Valid() {
			return nil, apperr.Validation(`role must be "user" or "admin"`)
		}
		u.Role = role
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to update user")
		return nil, fmt.Errorf("service: failed to update user %d: %w", id, err)
	}
	return u, nil
}

func (s *service) DeleteUser(ctx context.Context, callerID, id int64) error {
	if callerID == id {
		return apperr.Validation("cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrConflict) {
			return err
		}
		log.Error().Err(err).Int64("user_id", id).Msg("service: failed to delete user")
		return fmt.Errorf("service: failed to delete user %d: %w", id, err)
	}

	log.Info().Int64("user_id", id).Int64("deleted_by", callerID).Msg("service: user deleted")
	return nil
}

// EnsureAdmin creates the bootstrap admin account, or promotes the existing
// account with that email. The password of an existing account is kept.
func (s *service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == auth.RoleAdmin {
			return nil
		}
		existing.Role = auth.RoleAdmin
		if err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("service: failed to promote admin: %w", err)
		}
		log.Info().Int64("user_id", existing.ID).Msg("service: existing user promoted to admin")
		return nil
	case !errors.Is(err, apperr.ErrNotFound):
		return fmt.Errorf("service: failed to look up admin: %w", err)
	}

	admin := &User{Username: "admin", Email: email, Role: auth.RoleAdmin}
	if err := s.hashInto(admin, password); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("service: failed to create admin: %w", err)
	}

	log.Info().Int64("user_id", admin.ID).Msg("service: admin account created")
	return nil
}

func (s *service) hashInto(u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate hash password")
		return fmt.Errorf("service: failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("email is invalid")
	}
	return nil
}
