package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
)

var adminScopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Credentials selects how the admin client authenticates. When both are
// empty, Application Default Credentials are used.
type Credentials struct {
	File        string
	ProjectID   string
	ClientEmail string
	PrivateKey  string
}

// ClaimStore reads and writes custom claims on Firebase accounts.
type ClaimStore struct {
	svc *identitytoolkit.Service
}

var _ repo.ClaimStore = (*ClaimStore)(nil)

func NewClaimStore(ctx context.Context, c Credentials) (*ClaimStore, error) {
	creds, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &ClaimStore{svc: svc}, nil
}

func (c Credentials) resolve(ctx context.Context) (*google.Credentials, error) {
	switch {
	case c.File != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", err)
		}
		return google.CredentialsFromJSON(ctx, b, adminScopes...)
	case c.ClientEmail != "" && c.PrivateKey != "":
		b, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   c.ProjectID,
			"client_email": c.ClientEmail,
			"private_key":  c.PrivateKey,
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, err
		}
		return google.CredentialsFromJSON(ctx, b, adminScopes...)
	default:
		return google.FindDefaultCredentials(ctx, adminScopes...)
	}
}

// SetRoleClaim replaces the account's custom claims with {"role": role}.
func (s *ClaimStore) SetRoleClaim(ctx context.Context, uid string, role entity.Role) error {
	attrs, err := json.Marshal(map[string]string{"role": role.String()})
	if err != nil {
		return err
	}
	req := &identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		LocalId:          uid,
		CustomAttributes: string(attrs),
	}
	if _, err := s.svc.Relyingparty.SetAccountInfo(req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("set custom claims for %s: %w", uid, err)
	}
	return nil
}

// GetAccount looks up uid. A missing account is repository.ErrNotFound.
func (s *ClaimStore) GetAccount(ctx context.Context, uid string) (*entity.Account, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{LocalId: []string{uid}}
	resp, err := s.svc.Relyingparty.GetAccountInfo(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", uid, err)
	}
	if len(resp.Users) == 0 {
		return nil, repo.ErrNotFound
	}
	u := resp.Users[0]
	acct := &entity.Account{UID: u.LocalId, Email: u.Email}
	if u.CustomAttributes != "" {
		claims := entity.ClaimSet{}
		if err := json.Unmarshal([]byte(u.CustomAttributes), &claims); err != nil {
			return nil, errors.New("account has malformed custom claims")
		}
		acct.CustomClaims = claims
	}
	return acct, nil
}
