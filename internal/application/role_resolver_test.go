package application

import (
	"testing"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name   string
		claims entity.ClaimSet
		want   entity.Role
	}{
		{"top-level admin", entity.ClaimSet{"role": "admin"}, entity.RoleAdmin},
		{"top-level user", entity.ClaimSet{"role": "user"}, entity.RoleUser},
		{"nested customClaims", entity.ClaimSet{"customClaims": map[string]any{"role": "admin"}}, entity.RoleAdmin},
		{"top-level wins over nested", entity.ClaimSet{"role": "user", "customClaims": map[string]any{"role": "admin"}}, entity.RoleUser},
		{"unknown role falls through to nested", entity.ClaimSet{"role": "superuser", "customClaims": map[string]any{"role": "admin"}}, entity.RoleAdmin},
		{"unknown role defaults to user", entity.ClaimSet{"role": "superuser"}, entity.RoleUser},
		{"non-string role", entity.ClaimSet{"role": true}, entity.RoleUser},
		{"padded role is not admin", entity.ClaimSet{"role": " admin "}, entity.RoleUser},
		{"no claims", entity.ClaimSet{}, entity.RoleUser},
		{"nil claims", nil, entity.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRole(tt.claims); got != tt.want {
				t.Errorf("ResolveRole() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityFromToken(t *testing.T) {
	id := IdentityFromToken(&entity.VerifiedToken{
		UID:    "u1",
		Email:  "u1@example.com",
		Claims: entity.ClaimSet{"role": "admin"},
	})
	if id.UID != "u1" || id.Email != "u1@example.com" || !id.IsAdmin() {
		t.Fatalf("unexpected identity: %+v", id)
	}
}
