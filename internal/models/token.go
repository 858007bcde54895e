package models

import (
	"time"
)

// PersonalAccessToken records one issued bearer token. The token string handed
// to the client carries TokenID as its jti; deleting the row revokes it.
type PersonalAccessToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TokenID   string     `gorm:"size:36;uniqueIndex;not null" json:"-"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the token has passed its expiry at the given instant.
func (t *PersonalAccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// AuthContext is the authenticated principal of a protected request. It is
// built by the auth middleware and passed explicitly to handlers and services.
type AuthContext struct {
	User    *User
	TokenID string
}

// UserID returns the authenticated user's ID, or 0 for a nil context.
func (a *AuthContext) UserID() uint {
	if a == nil || a.User == nil {
		return 0
	}
	return a.User.ID
}
