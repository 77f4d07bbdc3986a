package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

const taskColumns = `id::text, title, description, completed, owner_uid, created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	t := &entity.Task{}
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.OwnerUID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// validID keeps malformed ids away from the uuid column; they can never match.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *TaskRepository) Create(ctx context.Context, t *entity.Task) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, completed, owner_uid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, t.Title, t.Description, t.Completed, t.OwnerUID, t.CreatedAt, t.UpdatedAt)

	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepository) List(ctx context.Context, ownerUID string) ([]*entity.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE ($1::text = '' OR owner_uid = $1::text)
		ORDER BY created_at DESC, id ASC
	`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Get(ctx context.Context, id, ownerUID string) (*entity.Task, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND ($2::text = '' OR owner_uid = $2::text)
	`, id, ownerUID)
	return scanTask(row)
}

// Update merges the non-nil patch fields into the task matching id and scope.
func (r *TaskRepository) Update(ctx context.Context, id, ownerUID string, patch entity.TaskPatch) (*entity.Task, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = COALESCE($3::text, title),
		    description = COALESCE($4::text, description),
		    completed = COALESCE($5::boolean, completed),
		    updated_at = now()
		WHERE id = $1 AND ($2::text = '' OR owner_uid = $2::text)
		RETURNING `+taskColumns+`
	`, id, ownerUID, patch.Title, patch.Description, patch.Completed)
	return scanTask(row)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TaskRepository = (*TaskRepository)(nil)
