package application

import "github.com/oksasatya/go-task-rbac/internal/domain/entity"

const roleClaim = "role"

// ResolveRole derives the effective role from a verified claim set.
// A top-level role claim wins, then customClaims.role; anything missing or
// unrecognised falls back to user.
func ResolveRole(claims entity.ClaimSet) entity.Role {
	if r, ok := entity.ParseRole(claims.String(roleClaim)); ok {
		return r
	}
	if r, ok := entity.ParseRole(claims.Nested("customClaims").String(roleClaim)); ok {
		return r
	}
	return entity.RoleUser
}

// IdentityFromToken builds the per-request caller identity.
func IdentityFromToken(tok *entity.VerifiedToken) entity.Identity {
	return entity.Identity{
		UID:   tok.UID,
		Email: tok.Email,
		Role:  ResolveRole(tok.Claims),
	}
}
