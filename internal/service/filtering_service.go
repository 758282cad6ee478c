package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/apperr"
	"mailtriage/internal/model"
	"mailtriage/internal/scheduler"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/mq"
)

// Status texts of the implemented filtering lifecycle. Free-form strings
// at the store layer; these are the values a run actually writes.
const (
	StatusPending   = "pending"
	StatusStarted   = "Filtering started, accessing gmail"
	StatusCompleted = "Filtering completed!"
)

// FilteringService tracks per-email filtering runs: the append-only
// status feed, the deferred completion write, and the synchronous
// classification that seeds the review queue.
type FilteringService struct {
	emails     ManagedEmailStore
	statuses   StatusStore
	triage     TriageStore
	classifier Classifier
	sched      *scheduler.Scheduler
	publisher  Publisher
	delay      time.Duration
	logger     *zap.Logger
}

func NewFilteringService(
	emails ManagedEmailStore,
	statuses StatusStore,
	triage TriageStore,
	classifier Classifier,
	sched *scheduler.Scheduler,
	publisher Publisher,
	delay time.Duration,
	logger *zap.Logger,
) *FilteringService {
	return &FilteringService{
		emails:     emails,
		statuses:   statuses,
		triage:     triage,
		classifier: classifier,
		sched:      sched,
		publisher:  publisher,
		delay:      delay,
		logger:     logger,
	}
}

// RecordStatus appends a status record with the current timestamp. No
// ownership check: this is the trusted path used by backend workflows.
func (s *FilteringService) RecordStatus(ctx context.Context, emailManagedID int64, statusText string) (int64, error) {
	id, err := s.statuses.Insert(ctx, emailManagedID, statusText, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	metrics.StatusWriteCount.Inc()
	return id, nil
}

// CurrentStatus returns the most recently created record for the managed
// email, or nil when none exists.
func (s *FilteringService) CurrentStatus(ctx context.Context, emailManagedID int64) (*model.FilteringStatus, error) {
	return s.statuses.Latest(ctx, emailManagedID)
}

// AllCurrentStatuses returns, for every managed email the caller owns,
// its most recent status record.
func (s *FilteringService) AllCurrentStatuses(ctx context.Context, caller Caller) ([]model.FilteringStatus, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	return s.statuses.LatestForUser(ctx, caller.Subject)
}

// PurgeHistory deletes every status record for the managed email.
func (s *FilteringService) PurgeHistory(ctx context.Context, emailManagedID int64) error {
	return s.statuses.PurgeByEmail(ctx, emailManagedID)
}

// Run starts a filtering run for the caller's managed email: reset the
// status history, write the started status, schedule the deferred
// completion write, classify synchronously, and seed the review queue.
// Scheduling is keyed by the managed email id, so re-running before the
// delay elapses supersedes the previous completion instead of letting a
// stale one fire.
func (s *FilteringService) Run(ctx context.Context, caller Caller, emailManagedID int64) ([]model.TriageCandidate, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	email, err := s.emails.FindByID(ctx, emailManagedID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, apperr.NotFound("email")
	}
	if email.UserID != caller.Subject {
		return nil, apperr.Forbidden("run filtering for this email")
	}

	if err := s.statuses.PurgeByEmail(ctx, emailManagedID); err != nil {
		return nil, err
	}
	if _, err := s.RecordStatus(ctx, emailManagedID, StatusStarted); err != nil {
		return nil, err
	}

	s.sched.Schedule(emailManagedID, s.delay, func() {
		s.complete(emailManagedID)
	})
	s.publish(mq.RoutingFilteringStarted, mq.FilteringStartedPayload{
		EmailManagedID: emailManagedID,
		UserID:         email.UserID,
		StartedAt:      time.Now(),
	})

	candidates, err := s.classifier.Classify(ctx, email)
	if err != nil {
		metrics.IncrementFilteringRun(s.classifier.Name(), "failed")
		return nil, err
	}

	if err := s.triage.SeedPending(ctx, candidates); err != nil {
		return nil, err
	}

	metrics.IncrementFilteringRun(s.classifier.Name(), "success")
	s.logger.Info("Filtering run started",
		zap.Int64("email_managed_id", emailManagedID),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// complete is the deferred completion write. It runs detached from the
// triggering request, so failures only get logged.
func (s *FilteringService) complete(emailManagedID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.RecordStatus(ctx, emailManagedID, StatusCompleted); err != nil {
		s.logger.Error("Failed to write completion status",
			zap.Int64("email_managed_id", emailManagedID),
			zap.Error(err),
		)
		return
	}
	s.publish(mq.RoutingFilteringCompleted, mq.FilteringCompletedPayload{
		EmailManagedID: emailManagedID,
		CompletedAt:    time.Now(),
	})
}

func (s *FilteringService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
