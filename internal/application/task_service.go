package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

// TaskIndexer keeps a searchable copy of tasks. Implementations are best effort.
type TaskIndexer interface {
	Index(ctx context.Context, t *entity.Task) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q, ownerUID string, size int) ([]*entity.Task, error)
}

// ObjectUploader stores an object and returns its URL.
type ObjectUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type TaskService struct {
	Repo     repo.TaskRepository
	Index    TaskIndexer
	Uploader ObjectUploader
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewTaskService(r repo.TaskRepository, idx TaskIndexer, up ObjectUploader, logger *logrus.Logger) *TaskService {
	return &TaskService{Repo: r, Index: idx, Uploader: up, Logger: logger, Now: time.Now}
}

type CreateTaskInput struct {
	Title       string
	Description string
}

// UpdateTaskInput is the raw partial update. OwnerUID is only carried so it can be rejected.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
	OwnerUID    *string
}

type ExportResult struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// scope returns the owner filter for the caller: empty for admins.
func scope(caller entity.Identity) string {
	if caller.IsAdmin() {
		return ""
	}
	return caller.UID
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TaskService) Create(ctx context.Context, caller entity.Identity, in CreateTaskInput) (*entity.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := s.now()
	t := &entity.Task{
		Title:       title,
		Description: in.Description,
		OwnerUID:    caller.UID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		s.logError("create task failed", err, logrus.Fields{"uid": caller.UID})
		return nil, Dependency("Failed to create task", err)
	}
	s.index(ctx, t)
	return t, nil
}

func (s *TaskService) List(ctx context.Context, caller entity.Identity) ([]*entity.Task, error) {
	tasks, err := s.Repo.List(ctx, scope(caller))
	if err != nil {
		s.logError("list tasks failed", err, logrus.Fields{"uid": caller.UID})
		return nil, Dependency("Failed to fetch tasks", err)
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, caller entity.Identity, id string, in UpdateTaskInput) (*entity.Task, error) {
	if in.OwnerUID != nil {
		return nil, ErrOwnerImmutable
	}
	patch := entity.TaskPatch{Description: in.Description, Completed: in.Completed}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		patch.Title = &title
	}

	var (
		t   *entity.Task
		err error
	)
	if patch.IsEmpty() {
		t, err = s.Repo.Get(ctx, id, scope(caller))
	} else {
		t, err = s.Repo.Update(ctx, id, scope(caller), patch)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		s.logError("update task failed", err, logrus.Fields{"uid": caller.UID, "task_id": id})
		return nil, Dependency("Failed to update task", err)
	}
	if !patch.IsEmpty() {
		s.index(ctx, t)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, caller entity.Identity, id string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	err := s.Repo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		s.logError("delete task failed", err, logrus.Fields{"uid": caller.UID, "task_id": id})
		return Dependency("Failed to delete task", err)
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.logWarn("search index remove failed; document is dropped at the next search hit", err, logrus.Fields{"uid": caller.UID, "task_id": id})
		}
	}
	return nil
}

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// Search runs a full-text query scoped the same way as List. Hits are
// confirmed against the task store, so the index never returns a task the
// store no longer holds; stale documents found this way are removed.
func (s *TaskService) Search(ctx context.Context, caller entity.Identity, q string, size int) ([]*entity.Task, error) {
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	q = strings.TrimSpace(q)
	if s.Index == nil || q == "" {
		return []*entity.Task{}, nil
	}
	hits, err := s.Index.Search(ctx, q, scope(caller), size)
	if err != nil {
		s.logError("search tasks failed", err, logrus.Fields{"uid": caller.UID})
		return nil, Dependency("Failed to search tasks", err)
	}

	tasks := make([]*entity.Task, 0, len(hits))
	for _, h := range hits {
		t, err := s.Repo.Get(ctx, h.ID, scope(caller))
		if errors.Is(err, repo.ErrNotFound) {
			s.dropStale(ctx, h.ID)
			continue
		}
		if err != nil {
			s.logError("confirm search hit failed", err, logrus.Fields{"uid": caller.UID, "task_id": h.ID})
			return nil, Dependency("Failed to search tasks", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *TaskService) dropStale(ctx context.Context, id string) {
	if err := s.Index.Remove(ctx, id); err != nil {
		s.logWarn("stale search document not removed", err, logrus.Fields{"task_id": id})
		return
	}
	if s.Logger != nil {
		s.Logger.WithField("task_id", id).Info("removed stale search document")
	}
}

// Export writes every task to object storage as one JSON document. Admin only.
func (s *TaskService) Export(ctx context.Context, caller entity.Identity) (*ExportResult, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.Uploader == nil {
		return nil, ErrExportNotReady
	}
	tasks, err := s.Repo.List(ctx, "")
	if err != nil {
		return nil, Dependency("Failed to fetch tasks", err)
	}
	at := s.now()
	b, err := json.Marshal(map[string]any{
		"exportedAt": at,
		"exportedBy": caller.UID,
		"tasks":      tasks,
	})
	if err != nil {
		return nil, Dependency("Failed to encode export", err)
	}
	path := "exports/tasks-" + at.Format("20060102T150405Z") + "-" + uuid.NewString()[:8] + ".json"
	url, err := s.Uploader.Upload(ctx, path, "application/json", bytes.NewReader(b))
	if err != nil {
		s.logError("export upload failed", err, logrus.Fields{"uid": caller.UID, "path": path})
		return nil, Dependency("Failed to export tasks", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"uid": caller.UID, "path": path, "count": len(tasks)}).Info("tasks exported")
	}
	return &ExportResult{URL: url, Count: len(tasks)}, nil
}

func (s *TaskService) index(ctx context.Context, t *entity.Task) {
	if s.Index == nil || t == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil {
		s.logWarn("search index failed", err, logrus.Fields{"task_id": t.ID})
	}
}

func (s *TaskService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Error(msg)
	}
}

func (s *TaskService) logWarn(msg string, err error, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}
