package model

import "time"

// ManagedEmail is an email account a user has registered for monitoring.
// UserID is the identity subject of the owning user and doubles as the
// authorization key for every mutation.
type ManagedEmail struct {
	ID               int64     `json:"id"`
	EmailAddress     string    `json:"email_address"`
	Label            string    `json:"label"`
	UserID           string    `json:"user_id"`
	FilteringEnabled bool      `json:"filtering_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

// FilteringStatus is one timestamped progress marker of a filtering run.
// Records are append-only; the newest record is the current status. The
// whole history for a managed email is purged at the start of each
// filtering run.
type FilteringStatus struct {
	ID             int64  `json:"id"`
	EmailManagedID int64  `json:"email_managed_id"`
	Status         string `json:"status"`
	LastUpdated    int64  `json:"last_updated"` // epoch millis, set at write time
}
