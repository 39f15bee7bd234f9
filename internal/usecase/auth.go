package usecase

import (
	"context"

	"nyumbani/internal/infra"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/pkg/jwt"
	"nyumbani/internal/pkg/password"

	"github.com/google/uuid"
)

type LoginResult struct {
	Token  string
	UserID uuid.UUID
	Role   string
}

type AuthUseCase interface {
	Login(ctx context.Context, email, rawPassword string) (*LoginResult, error)
}

type authUseCaseImpl struct {
	users UserRepository
	jwt   *jwt.Service
}

func NewAuthUseCase(users UserRepository, jwtService *jwt.Service) AuthUseCase {
	return &authUseCaseImpl{users: users, jwt: jwtService}
}

func (a *authUseCaseImpl) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Same response as a bad password so probes cannot tell which.
			return nil, errs.ErrInvalidCredentials
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	token, err := a.jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate token")
	}

	return &LoginResult{Token: token, UserID: user.ID, Role: user.Role}, nil
}
