package domain

import "time"

// ServiceToken authenticates an internal caller service (reward approval,
// job-application payment, referral) against the ledger API.
type ServiceToken struct {
	ID         string     `json:"id"`
	ServiceID  string     `json:"service_id"` // Logical caller identity, becomes the actor id
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"` // Never expose the hash in JSON responses
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsExpired checks if the token has expired.
func (t *ServiceToken) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(time.Now())
}

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (t *ServiceToken) UpdateLastUsed() {
	now := time.Now()
	t.LastUsedAt = &now
}
