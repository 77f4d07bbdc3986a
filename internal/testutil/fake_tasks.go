// Package testutil provides in-memory fakes of the stores and external
// services used by the application layer.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

// FakeTaskRepo is an in-memory repository.TaskRepository.
type FakeTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]entity.Task

	// Error injection for testing
	CreateErr error
	ListErr   error
	GetErr    error
	UpdateErr error
	DeleteErr error
}

var _ repo.TaskRepository = (*FakeTaskRepo)(nil)

func NewFakeTaskRepo() *FakeTaskRepo {
	return &FakeTaskRepo{tasks: make(map[string]entity.Task)}
}

// Seed stores tasks as-is, assigning ids and timestamps that are missing.
func (r *FakeTaskRepo) Seed(tasks ...entity.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		r.tasks[t.ID] = t
	}
}

// Len returns the number of stored tasks.
func (r *FakeTaskRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *FakeTaskRepo) Create(_ context.Context, t *entity.Task) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.NewString()
	r.tasks[t.ID] = *t
	return nil
}

func (r *FakeTaskRepo) List(_ context.Context, ownerUID string) ([]*entity.Task, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if ownerUID != "" && t.OwnerUID != ownerUID {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func (r *FakeTaskRepo) Get(_ context.Context, id, ownerUID string) (*entity.Task, error) {
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.inScope(id, ownerUID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &t, nil
}

func (r *FakeTaskRepo) Update(_ context.Context, id, ownerUID string, p entity.TaskPatch) (*entity.Task, error) {
	if r.UpdateErr != nil {
		return nil, r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.inScope(id, ownerUID)
	if !ok {
		return nil, repo.ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	r.tasks[id] = t
	return &t, nil
}

func (r *FakeTaskRepo) Delete(_ context.Context, id string) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *FakeTaskRepo) inScope(id, ownerUID string) (entity.Task, bool) {
	t, ok := r.tasks[id]
	if !ok || (ownerUID != "" && t.OwnerUID != ownerUID) {
		return entity.Task{}, false
	}
	return t, true
}

// FakeIndex is an in-memory application.TaskIndexer matching on substrings.
type FakeIndex struct {
	mu   sync.RWMutex
	docs map[string]entity.Task

	IndexErr  error
	RemoveErr error
	SearchErr error
}

func NewFakeIndex() *FakeIndex {
	return &FakeIndex{docs: make(map[string]entity.Task)}
}

func (x *FakeIndex) Index(_ context.Context, t *entity.Task) error {
	if x.IndexErr != nil {
		return x.IndexErr
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[t.ID] = *t
	return nil
}

func (x *FakeIndex) Remove(_ context.Context, id string) error {
	if x.RemoveErr != nil {
		return x.RemoveErr
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

func (x *FakeIndex) Search(_ context.Context, q, ownerUID string, size int) ([]*entity.Task, error) {
	if x.SearchErr != nil {
		return nil, x.SearchErr
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	q = strings.ToLower(q)
	out := []*entity.Task{}
	for _, t := range x.docs {
		if ownerUID != "" && t.OwnerUID != ownerUID {
			continue
		}
		if !strings.Contains(strings.ToLower(t.Title+" "+t.Description), q) {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// Has reports whether id is indexed.
func (x *FakeIndex) Has(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.docs[id]
	return ok
}
