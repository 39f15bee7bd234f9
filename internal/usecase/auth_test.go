//go:build unit

package usecase_test

import (
	"context"
	"testing"
	"time"

	"nyumbani/internal/infra"
	"nyumbani/internal/pkg/jwt"
	"nyumbani/internal/pkg/password"
	"nyumbani/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyumbani/internal/pkg/errs"
)

type fakeUserRepo struct {
	users map[string]*usecase.UserSnapshot
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*usecase.UserSnapshot, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}
	return u, nil
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := password.Hash("s3cret-password")
	require.NoError(t, err)

	userID := uuid.New()
	users := &fakeUserRepo{users: map[string]*usecase.UserSnapshot{
		"guest@example.com": {
			ID:           userID,
			Email:        "guest@example.com",
			PasswordHash: hash,
			Role:         "guest",
		},
	}}

	jwtService := jwt.NewService("test-secret", time.Hour)
	uc := usecase.NewAuthUseCase(users, jwtService)

	t.Run("valid credentials return a verifiable token", func(t *testing.T) {
		result, err := uc.Login(ctx, "guest@example.com", "s3cret-password")
		require.NoError(t, err)

		assert.Equal(t, userID, result.UserID)
		assert.Equal(t, "guest", result.Role)

		claims, err := jwtService.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "guest", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := uc.Login(ctx, "guest@example.com", "wrong")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := uc.Login(ctx, "nobody@example.com", "s3cret-password")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})
}
