// Package user implements account registration and credential checks for
// the identities that mark attendance.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Roles accepted at registration. Teachers and admins can mark attendance;
// the role gate lives in the auth middleware.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	// ErrNotFound signals a lookup that matched nothing.
	ErrNotFound = errors.New("user: not found")
	// ErrExists signals a registration with an email already taken.
	ErrExists = errors.New("user: email already registered")
	// ErrInvalidCredentials signals a failed login without revealing which
	// part was wrong.
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	// ErrInvalidInput signals a rejected registration field.
	ErrInvalidInput = errors.New("user: invalid input")
)

// User is one account. PasswordHash is a bcrypt hash, never the password.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

// Service wraps the store with hashing and credential checks.
type Service struct {
	store Store
}

// NewService creates a user service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, name, email, password, role string) (User, error) {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
	case "":
		role = RoleTeacher
	default:
		return User{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}
	if name == "" || email == "" {
		return User{}, fmt.Errorf("%w: name and email required", ErrInvalidInput)
	}
	if len(password) < 6 {
		return User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(email),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate verifies a password against the stored hash.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// DisplayName resolves an account id to its name; falls back to the raw id
// for identities this store does not know.
func (s *Service) DisplayName(ctx context.Context, id string) string {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return id
	}
	return u.Name
}
