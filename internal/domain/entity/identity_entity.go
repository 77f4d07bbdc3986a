package entity

// ClaimSet is the verified payload of an ID token. Treat it as read-only.
type ClaimSet map[string]any

// String returns the claim as a string, or "" when absent or not a string.
func (c ClaimSet) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Nested returns a nested claim object such as customClaims.
func (c ClaimSet) Nested(key string) ClaimSet {
	switch v := c[key].(type) {
	case map[string]any:
		return ClaimSet(v)
	case ClaimSet:
		return v
	}
	return nil
}

// VerifiedToken is what the identity verifier hands back after checking a credential.
type VerifiedToken struct {
	UID    string
	Email  string
	Claims ClaimSet
}

// Identity is the caller of a single request.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role.IsAdmin() }

// Account is the identity provider's record of a user.
type Account struct {
	UID          string   `json:"uid"`
	Email        string   `json:"email"`
	CustomClaims ClaimSet `json:"customClaims,omitempty"`
}

// AuditEntry records a role assignment attempt.
type AuditEntry struct {
	ActorUID  string
	TargetUID string
	Action    string
	Role      Role
	Outcome   string
	Error     string
}
