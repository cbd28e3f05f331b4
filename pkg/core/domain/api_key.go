package domain

import (
	"slices"
	"time"
)

type Role string

// RoleNoOrphanVisits prevents a key from seeing any orphan visit.
const RoleNoOrphanVisits Role = "no-orphan-visits"

type APIKey struct {
	ID        int64      `json:"id"`
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	Enabled   bool       `json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Roles     []Role     `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
}

func (k *APIKey) HasRole(role Role) bool {
	return k != nil && slices.Contains(k.Roles, role)
}

// IsValid reports whether the key is enabled and not expired at now.
func (k *APIKey) IsValid(now time.Time) bool {
	if k == nil || !k.Enabled {
		return false
	}
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}
