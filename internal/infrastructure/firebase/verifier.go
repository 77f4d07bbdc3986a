// Package firebase talks to Firebase Authentication: it verifies ID tokens
// against Google's published signing certificates and manages custom claims
// through the Identity Toolkit API.
package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

// DefaultCertsURL publishes the x509 certificates that sign Firebase ID tokens.
const DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const (
	issuerPrefix          = "https://securetoken.google.com/"
	defaultCertTTL        = 5 * time.Minute
	forcedRefreshInterval = time.Minute
)

var (
	ErrNoProject  = errors.New("firebase project id not configured")
	ErrUnknownKey = errors.New("token signed by unknown key")
)

// Verifier checks Firebase ID tokens.
type Verifier struct {
	ProjectID string
	CertsURL  string
	Client    *http.Client
	Now       func() time.Time

	flight    singleflight.Group
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expires   time.Time
	fetchedAt time.Time
}

func NewVerifier(projectID, certsURL string) *Verifier {
	if certsURL == "" {
		certsURL = DefaultCertsURL
	}
	return &Verifier{
		ProjectID: projectID,
		CertsURL:  certsURL,
		Client:    &http.Client{Timeout: 5 * time.Second},
		Now:       time.Now,
	}
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// VerifyIDToken validates signature, audience, issuer, expiry and subject,
// and returns the token's claims.
func (v *Verifier) VerifyIDToken(ctx context.Context, token string) (*entity.VerifiedToken, error) {
	if v.ProjectID == "" {
		return nil, ErrNoProject
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.ProjectID),
		jwt.WithIssuer(issuerPrefix+v.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.key(ctx, kid)
	})
	if err != nil {
		return nil, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("token has no subject")
	}
	if len(sub) > 128 {
		return nil, errors.New("token subject too long")
	}
	if at, ok := claims["auth_time"].(float64); ok && time.Unix(int64(at), 0).After(v.now().Add(time.Minute)) {
		return nil, errors.New("token auth_time is in the future")
	}
	email, _ := claims["email"].(string)

	return &entity.VerifiedToken{
		UID:    sub,
		Email:  email,
		Claims: entity.ClaimSet(claims),
	}, nil
}

// key returns the public key for kid. The cert set is fetched when it has
// expired; an unknown kid forces a fetch at most once per
// forcedRefreshInterval. Concurrent fetches share one request.
func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k, fetch := v.cached(kid)
	if fetch {
		_, err, _ := v.flight.Do("certs", func() (any, error) {
			if _, again := v.cached(kid); !again {
				return nil, nil
			}
			return nil, v.refresh(ctx)
		})
		if err != nil {
			return nil, err
		}
		k, _ = v.cached(kid)
	}
	if k == nil {
		return nil, ErrUnknownKey
	}
	return k, nil
}

// cached looks kid up in the current cert set and reports whether the set
// needs fetching first.
func (v *Verifier) cached(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	now := v.now()
	if !now.Before(v.expires) {
		return nil, true
	}
	if k, ok := v.keys[kid]; ok {
		return k, false
	}
	return nil, now.Sub(v.fetchedAt) >= forcedRefreshInterval
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.CertsURL, nil)
	if err != nil {
		return err
	}
	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certs: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing certs: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode signing certs: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pemCert := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemCert))
		if err != nil {
			return fmt.Errorf("parse cert %s: %w", kid, err)
		}
		keys[kid] = k
	}

	now := v.now()
	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = now
	v.expires = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

// maxAge reads max-age from a Cache-Control header, falling back to defaultCertTTL.
func maxAge(cc string) time.Duration {
	for _, part := range strings.Split(cc, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(part, "max-age="))
		if err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultCertTTL
}
