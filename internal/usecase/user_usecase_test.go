package usecase

import (
	"context"
	"testing"

	"shoplit/internal/domain"
	"shoplit/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	uc := NewUserUseCase(memory.NewStore(), newTestLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		phone    string
		password string
		wantKind domain.ErrorKind
	}{
		{name: "valid", email: "Ada@Example.com", phone: "+2348012345678", password: "Secret123"},
		{name: "duplicate email", email: "ada@example.com", password: "Secret123", wantKind: domain.KindConflict},
		{name: "bad email", email: "ada.example.com", password: "Secret123", wantKind: domain.KindValidation},
		{name: "short password", email: "bob@example.com", password: "Ab1", wantKind: domain.KindValidation},
		{name: "no digit", email: "bob@example.com", password: "Secretttt", wantKind: domain.KindValidation},
		{name: "bad phone", email: "bob@example.com", phone: "0801", password: "Secret123", wantKind: domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := uc.RegisterUser(ctx, "Ada", tt.email, tt.phone, tt.password)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", user.Email)
			assert.NotEqual(t, tt.password, user.PasswordHash)
		})
	}
}

func TestAuthenticateUser(t *testing.T) {
	uc := NewUserUseCase(memory.NewStore(), newTestLogger())
	ctx := context.Background()
	user, err := uc.RegisterUser(ctx, "Ada", "ada@example.com", "", "Secret123")
	require.NoError(t, err)

	res, err := uc.AuthenticateUser(ctx, "ADA@example.com", "Secret123")
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
	assert.Equal(t, user.ID, res.UserID)
	assert.NotEmpty(t, res.Token)

	res, err = uc.AuthenticateUser(ctx, "ada@example.com", "Wrong1234")
	require.NoError(t, err)
	assert.False(t, res.Authenticated)

	res, err = uc.AuthenticateUser(ctx, "nobody@example.com", "Secret123")
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
}
