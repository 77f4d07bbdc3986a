package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, e entity.AuditEntry) error {
	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_audit_logs (actor_uid, target_uid, action, role, outcome, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ActorUID, e.TargetUID, e.Action, string(e.Role), e.Outcome, errText)
	return err
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
