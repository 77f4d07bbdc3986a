package repository

import (
	"context"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

// UserProfileRepository stores the local role projection.
type UserProfileRepository interface {
	GetByUID(ctx context.Context, uid string) (*entity.UserProfile, error)
	Upsert(ctx context.Context, uid string, role entity.Role) (*entity.UserProfile, error)
}

// AuditRepository records role assignment attempts.
type AuditRepository interface {
	Insert(ctx context.Context, e entity.AuditEntry) error
}
