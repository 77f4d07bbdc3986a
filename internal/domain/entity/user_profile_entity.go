package entity

import "time"

// UserProfile is the local projection of a user's role.
// It is only written by role assignment and keyed by the identity provider uid.
type UserProfile struct {
	UID       string    `json:"uid"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
