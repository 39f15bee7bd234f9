package repository

import (
	"context"

	"nyumbani/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*usecase.UserSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role FROM users WHERE email = $1`, email)

	var snapshot usecase.UserSnapshot
	if err := row.Scan(&snapshot.ID, &snapshot.Email, &snapshot.PasswordHash, &snapshot.Role); err != nil {
		return nil, classify("failed to find user by email", err)
	}
	return &snapshot, nil
}
