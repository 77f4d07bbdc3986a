package testutil

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

// FakeProfileRepo is an in-memory repository.UserProfileRepository.
type FakeProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]entity.UserProfile
	Upserts  int

	GetErr    error
	UpsertErr error
}

var _ repo.UserProfileRepository = (*FakeProfileRepo)(nil)

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{profiles: make(map[string]entity.UserProfile)}
}

func (r *FakeProfileRepo) GetByUID(_ context.Context, uid string) (*entity.UserProfile, error) {
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (r *FakeProfileRepo) Upsert(_ context.Context, uid string, role entity.Role) (*entity.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Upserts++
	if r.UpsertErr != nil {
		return nil, r.UpsertErr
	}
	now := time.Now().UTC()
	p, ok := r.profiles[uid]
	if !ok {
		p = entity.UserProfile{UID: uid, CreatedAt: now}
	}
	p.Role = role
	p.UpdatedAt = now
	r.profiles[uid] = p
	return &p, nil
}

// FakeAudit collects audit entries.
type FakeAudit struct {
	mu      sync.Mutex
	entries []entity.AuditEntry

	InsertErr error
}

var _ repo.AuditRepository = (*FakeAudit)(nil)

func (a *FakeAudit) Insert(_ context.Context, e entity.AuditEntry) error {
	if a.InsertErr != nil {
		return a.InsertErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *FakeAudit) Entries() []entity.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]entity.AuditEntry(nil), a.entries...)
}

// FakePublisher records published jobs as raw JSON.
type FakePublisher struct {
	mu   sync.Mutex
	jobs [][]byte

	PublishErr error
}

func (p *FakePublisher) PublishJSON(_ context.Context, body any) error {
	if p.PublishErr != nil {
		return p.PublishErr
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, b)
	return nil
}

// Jobs returns the published payloads in order.
func (p *FakePublisher) Jobs() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.jobs...)
}

// Decode unmarshals the i-th published job into v.
func (p *FakePublisher) Decode(i int, v any) error {
	return json.Unmarshal(p.Jobs()[i], v)
}

// FakeUploader keeps uploaded objects in memory.
type FakeUploader struct {
	mu      sync.Mutex
	Objects map[string][]byte

	UploadErr error
}

func NewFakeUploader() *FakeUploader {
	return &FakeUploader{Objects: make(map[string][]byte)}
}

func (u *FakeUploader) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if u.UploadErr != nil {
		return "", u.UploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Objects[objectPath] = b
	return "https://storage.example.test/bucket/" + objectPath, nil
}
