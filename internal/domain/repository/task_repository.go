package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

// ErrNotFound is returned when no record matches the given key and scope.
var ErrNotFound = errors.New("not found")

// TaskRepository defines the interface for task persistence.
// An empty ownerUID means "any owner".
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	List(ctx context.Context, ownerUID string) ([]*entity.Task, error)
	Get(ctx context.Context, id, ownerUID string) (*entity.Task, error)
	Update(ctx context.Context, id, ownerUID string, patch entity.TaskPatch) (*entity.Task, error)
	Delete(ctx context.Context, id string) error
}
