package repository

import (
	"context"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

// ClaimStore is the identity provider's side of a user's role.
type ClaimStore interface {
	SetRoleClaim(ctx context.Context, uid string, role entity.Role) error
	GetAccount(ctx context.Context, uid string) (*entity.Account, error)
}
