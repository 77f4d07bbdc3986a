package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

var ErrInvalidToken = errors.New("invalid token")

// FakeIdentityProvider stands in for Firebase Authentication. It verifies
// opaque tokens registered with AddUser and keeps custom claims per uid, so a
// claim written through SetRoleClaim shows up in the next verification.
type FakeIdentityProvider struct {
	mu       sync.RWMutex
	tokens   map[string]string // token -> uid
	emails   map[string]string // uid -> email
	claims   map[string]entity.ClaimSet
	SetCalls int

	VerifyErr     error
	SetClaimErr   error
	GetAccountErr error
}

var _ repo.ClaimStore = (*FakeIdentityProvider)(nil)

func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{
		tokens: make(map[string]string),
		emails: make(map[string]string),
		claims: make(map[string]entity.ClaimSet),
	}
}

// AddUser registers uid under token with optional initial claims.
func (p *FakeIdentityProvider) AddUser(token, uid, email string, claims entity.ClaimSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[token] = uid
	p.emails[uid] = email
	if claims != nil {
		p.claims[uid] = claims
	}
}

func (p *FakeIdentityProvider) VerifyIDToken(_ context.Context, token string) (*entity.VerifiedToken, error) {
	if p.VerifyErr != nil {
		return nil, p.VerifyErr
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	uid, ok := p.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	claims := entity.ClaimSet{"sub": uid}
	for k, v := range p.claims[uid] {
		claims[k] = v
	}
	return &entity.VerifiedToken{UID: uid, Email: p.emails[uid], Claims: claims}, nil
}

func (p *FakeIdentityProvider) SetRoleClaim(_ context.Context, uid string, role entity.Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SetCalls++
	if p.SetClaimErr != nil {
		return p.SetClaimErr
	}
	p.claims[uid] = entity.ClaimSet{"role": role.String()}
	return nil
}

func (p *FakeIdentityProvider) GetAccount(_ context.Context, uid string) (*entity.Account, error) {
	if p.GetAccountErr != nil {
		return nil, p.GetAccountErr
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	email, ok := p.emails[uid]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &entity.Account{UID: uid, Email: email, CustomClaims: p.claims[uid]}, nil
}

// Claims returns the custom claims currently stored for uid.
func (p *FakeIdentityProvider) Claims(uid string) entity.ClaimSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.claims[uid]
}
