package service

import (
	"context"

	"mailtriage/internal/model"
)

// Caller is the verified identity of the requester, threaded explicitly
// through every operation. An empty subject means unauthenticated.
type Caller struct {
	Subject string
}

func (c Caller) Authenticated() bool {
	return c.Subject != ""
}

// ManagedEmailStore is the persistence surface the registry needs.
// Implemented by repository.ManagedEmailRepository; tests use in-memory
// fakes.
type ManagedEmailStore interface {
	Create(ctx context.Context, address, label, userID string, filteringEnabled bool) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.ManagedEmail, error)
	FindByAddress(ctx context.Context, address, userID string) (*model.ManagedEmail, error)
	ListByUser(ctx context.Context, userID string) ([]model.ManagedEmail, error)
	Update(ctx context.Context, id int64, address, label *string, filteringEnabled *bool) error
	Delete(ctx context.Context, id int64) error
}

// StatusStore persists the append-only filtering status feed.
type StatusStore interface {
	Insert(ctx context.Context, emailManagedID int64, status string, lastUpdated int64) (int64, error)
	Latest(ctx context.Context, emailManagedID int64) (*model.FilteringStatus, error)
	LatestForUser(ctx context.Context, userID string) ([]model.FilteringStatus, error)
	PurgeByEmail(ctx context.Context, emailManagedID int64) error
}

// TriageStore persists triage decisions keyed by (managed email, candidate).
type TriageStore interface {
	SeedPending(ctx context.Context, candidates []model.TriageCandidate) error
	Find(ctx context.Context, emailManagedID int64, candidateID string) (*model.TriageDecision, error)
	MoveState(ctx context.Context, emailManagedID int64, candidateID, fromState, toState string) (bool, error)
	DeleteInState(ctx context.Context, emailManagedID int64, candidateID, state string) (bool, error)
	ListByState(ctx context.Context, emailManagedID int64, state string) ([]model.TriageDecision, error)
}

// Publisher emits lifecycle events for downstream consumers. Publish
// failures are logged, never surfaced to the caller.
type Publisher interface {
	Publish(routingKey string, payload any) error
}
