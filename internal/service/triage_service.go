package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/apperr"
	"mailtriage/internal/model"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/mq"
)

// Release targets: what un-mute / un-friend does with the candidate.
const (
	ReleaseDrop    = "drop"    // discard the decision entirely
	ReleasePending = "pending" // return it to the review queue
)

// TriageBuckets is the full durable triage state of one managed email.
type TriageBuckets struct {
	Pending  []model.TriageCandidate `json:"pending"`
	Muted    []model.TriageCandidate `json:"muted"`
	Friended []model.TriageCandidate `json:"friended"`
}

// TriageService moves candidates between the pending, muted and friended
// buckets. Decisions are durable; moves out of pending are one-way,
// releases honor the configured target.
type TriageService struct {
	triage        TriageStore
	emails        ManagedEmailStore
	publisher     Publisher
	releaseTarget string
	logger        *zap.Logger
}

func NewTriageService(triage TriageStore, emails ManagedEmailStore, publisher Publisher, releaseTarget string, logger *zap.Logger) *TriageService {
	if releaseTarget != ReleasePending {
		releaseTarget = ReleaseDrop
	}
	return &TriageService{
		triage:        triage,
		emails:        emails,
		publisher:     publisher,
		releaseTarget: releaseTarget,
		logger:        logger,
	}
}

// Mute moves a pending candidate to the muted bucket. Muting an already
// muted candidate is a no-op.
func (s *TriageService) Mute(ctx context.Context, caller Caller, emailManagedID int64, candidateID string) error {
	return s.decide(ctx, caller, emailManagedID, candidateID, model.TriageMuted)
}

// AddFriend moves a pending candidate to the friended bucket.
func (s *TriageService) AddFriend(ctx context.Context, caller Caller, emailManagedID int64, candidateID string) error {
	return s.decide(ctx, caller, emailManagedID, candidateID, model.TriageFriended)
}

// Unmute releases a candidate from the muted bucket.
func (s *TriageService) Unmute(ctx context.Context, caller Caller, emailManagedID int64, candidateID string) error {
	return s.release(ctx, caller, emailManagedID, candidateID, model.TriageMuted)
}

// RemoveFriend releases a candidate from the friended bucket.
func (s *TriageService) RemoveFriend(ctx context.Context, caller Caller, emailManagedID int64, candidateID string) error {
	return s.release(ctx, caller, emailManagedID, candidateID, model.TriageFriended)
}

// Buckets returns the caller's triage state for one managed email.
func (s *TriageService) Buckets(ctx context.Context, caller Caller, emailManagedID int64) (*TriageBuckets, error) {
	if err := s.owned(ctx, caller, emailManagedID); err != nil {
		return nil, err
	}

	buckets := &TriageBuckets{
		Pending:  []model.TriageCandidate{},
		Muted:    []model.TriageCandidate{},
		Friended: []model.TriageCandidate{},
	}
	for state, dst := range map[string]*[]model.TriageCandidate{
		model.TriagePending:  &buckets.Pending,
		model.TriageMuted:    &buckets.Muted,
		model.TriageFriended: &buckets.Friended,
	} {
		decisions, err := s.triage.ListByState(ctx, emailManagedID, state)
		if err != nil {
			return nil, err
		}
		for i := range decisions {
			*dst = append(*dst, decisions[i].Candidate())
		}
	}
	return buckets, nil
}

func (s *TriageService) decide(ctx context.Context, caller Caller, emailManagedID int64, candidateID, toState string) error {
	if err := s.owned(ctx, caller, emailManagedID); err != nil {
		return err
	}

	moved, err := s.triage.MoveState(ctx, emailManagedID, candidateID, model.TriagePending, toState)
	if err != nil {
		return err
	}
	if !moved {
		decision, err := s.triage.Find(ctx, emailManagedID, candidateID)
		if err != nil {
			return err
		}
		if decision == nil {
			return apperr.NotFound("candidate")
		}
		if decision.State == toState {
			return nil // repeat decision, nothing to do
		}
		return apperr.Invalid("candidate already decided")
	}

	metrics.IncrementTriageDecision(toState)
	s.publish(emailManagedID, candidateID, toState)
	return nil
}

func (s *TriageService) release(ctx context.Context, caller Caller, emailManagedID int64, candidateID, fromState string) error {
	if err := s.owned(ctx, caller, emailManagedID); err != nil {
		return err
	}

	var (
		changed bool
		err     error
		result  string
	)
	if s.releaseTarget == ReleasePending {
		changed, err = s.triage.MoveState(ctx, emailManagedID, candidateID, fromState, model.TriagePending)
		result = model.TriagePending
	} else {
		changed, err = s.triage.DeleteInState(ctx, emailManagedID, candidateID, fromState)
		result = "dropped"
	}
	if err != nil {
		return err
	}
	if !changed {
		// Releasing something not in the bucket mirrors the removal
		// semantics of the UI: silently nothing happens.
		return nil
	}

	metrics.IncrementTriageDecision(result)
	s.publish(emailManagedID, candidateID, result)
	return nil
}

func (s *TriageService) owned(ctx context.Context, caller Caller, emailManagedID int64) error {
	if !caller.Authenticated() {
		return apperr.Unauthenticated()
	}
	email, err := s.emails.FindByID(ctx, emailManagedID)
	if err != nil {
		return err
	}
	if email == nil {
		return apperr.NotFound("email")
	}
	if email.UserID != caller.Subject {
		return apperr.Forbidden("manage triage for this email")
	}
	return nil
}

func (s *TriageService) publish(emailManagedID int64, candidateID, state string) {
	if s.publisher == nil {
		return
	}
	payload := mq.TriageDecidedPayload{
		EmailManagedID: emailManagedID,
		CandidateID:    candidateID,
		State:          state,
		DecidedAt:      time.Now(),
	}
	if err := s.publisher.Publish(mq.RoutingTriageDecided, payload); err != nil {
		s.logger.Warn("Failed to publish triage event",
			zap.String("candidate_id", candidateID),
			zap.Error(err),
		)
	}
}
