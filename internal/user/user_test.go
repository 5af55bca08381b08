package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Prof. Kumar", "Kumar@College.edu", "secret1", RoleTeacher)
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "kumar@college.edu", u.Email)
	require.Equal(t, RoleTeacher, u.Role)
	require.NotEqual(t, "secret1", u.PasswordHash)

	// Login is case-insensitive on email.
	got, err := svc.Authenticate(ctx, "KUMAR@college.edu", "secret1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "kumar@college.edu", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@college.edu", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name                   string
		uname, email, pw, role string
	}{
		{"missing name", "", "a@b.edu", "secret1", RoleTeacher},
		{"missing email", "A", "", "secret1", RoleTeacher},
		{"short password", "A", "a@b.edu", "abc", RoleTeacher},
		{"unknown role", "A", "a@b.edu", "secret1", "principal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.uname, tt.email, tt.pw, tt.role)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDefaultsToTeacher(t *testing.T) {
	svc := NewService(NewMemoryStore())
	u, err := svc.Register(context.Background(), "A", "a@b.edu", "secret1", "")
	require.NoError(t, err)
	require.Equal(t, RoleTeacher, u.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "a@b.edu", "secret1", RoleTeacher)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "B", "a@b.edu", "secret2", RoleAdmin)
	require.True(t, errors.Is(err, ErrExists))
}

func TestDisplayName(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Prof. Kumar", "k@b.edu", "secret1", RoleTeacher)
	require.NoError(t, err)

	require.Equal(t, "Prof. Kumar", svc.DisplayName(ctx, u.ID))
	require.Equal(t, "unknown-id", svc.DisplayName(ctx, "unknown-id"))
}
