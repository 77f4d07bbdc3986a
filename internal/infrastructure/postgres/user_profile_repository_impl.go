package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

type UserProfileRepository struct {
	pool *pgxpool.Pool
}

func NewUserProfileRepository(pool *pgxpool.Pool) *UserProfileRepository {
	return &UserProfileRepository{pool: pool}
}

func (r *UserProfileRepository) GetByUID(ctx context.Context, uid string) (*entity.UserProfile, error) {
	p := &entity.UserProfile{}
	var role string
	row := r.pool.QueryRow(ctx, `
		SELECT uid, role, created_at, updated_at
		FROM user_profiles
		WHERE uid = $1
	`, uid)
	if err := row.Scan(&p.UID, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	p.Role = entity.Role(role)
	return p, nil
}

// Upsert creates the profile if absent, otherwise overwrites its role.
func (r *UserProfileRepository) Upsert(ctx context.Context, uid string, role entity.Role) (*entity.UserProfile, error) {
	p := &entity.UserProfile{}
	var stored string
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (uid, role)
		VALUES ($1, $2)
		ON CONFLICT (uid) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		RETURNING uid, role, created_at, updated_at
	`, uid, string(role))
	if err := row.Scan(&p.UID, &stored, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = entity.Role(stored)
	return p, nil
}

var _ repository.UserProfileRepository = (*UserProfileRepository)(nil)
