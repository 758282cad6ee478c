package mq

import "time"

// Routing keys for filtering lifecycle and triage events.
const (
	RoutingFilteringStarted   = "filtering.started"
	RoutingFilteringCompleted = "filtering.completed"
	RoutingTriageDecided      = "triage.decided"
)

type FilteringStartedPayload struct {
	EmailManagedID int64     `json:"email_managed_id"`
	UserID         string    `json:"user_id"`
	StartedAt      time.Time `json:"started_at"`
}

type FilteringCompletedPayload struct {
	EmailManagedID int64     `json:"email_managed_id"`
	CompletedAt    time.Time `json:"completed_at"`
}

type TriageDecidedPayload struct {
	EmailManagedID int64     `json:"email_managed_id"`
	CandidateID    string    `json:"candidate_id"`
	State          string    `json:"state"`
	DecidedAt      time.Time `json:"decided_at"`
}
