package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/apperr"
	"mailtriage/internal/model"
	"mailtriage/pkg/logger"
)

// RegistryService owns the set of managed emails: the accounts users have
// registered for monitoring. Every mutation re-validates that the caller's
// identity subject owns the record.
type RegistryService struct {
	emails   ManagedEmailStore
	statuses StatusStore
	logger   *zap.Logger
}

func NewRegistryService(emails ManagedEmailStore, statuses StatusStore, logger *zap.Logger) *RegistryService {
	return &RegistryService{
		emails:   emails,
		statuses: statuses,
		logger:   logger,
	}
}

// List returns every managed email owned by the caller.
func (s *RegistryService) List(ctx context.Context, caller Caller) ([]model.ManagedEmail, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	return s.emails.ListByUser(ctx, caller.Subject)
}

// GetByAddress returns the first managed email matching (address, caller),
// or nil when there is none. Absence is not an error.
func (s *RegistryService) GetByAddress(ctx context.Context, caller Caller, address string) (*model.ManagedEmail, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	return s.emails.FindByAddress(ctx, address, caller.Subject)
}

// Create inserts a managed email for the given owner. It performs no
// uniqueness check; get-or-create callers go through Ensure.
func (s *RegistryService) Create(ctx context.Context, address, label, userID string, filteringEnabled bool) (int64, error) {
	if userID == "" {
		return 0, apperr.Invalid("user id is required")
	}
	if address == "" {
		return 0, apperr.Invalid("email address is required")
	}
	return s.emails.Create(ctx, address, label, userID, filteringEnabled)
}

// Update applies the provided fields after the ownership check.
func (s *RegistryService) Update(ctx context.Context, caller Caller, id int64, address, label *string, filteringEnabled *bool) error {
	if _, err := s.owned(ctx, caller, id, "update this email"); err != nil {
		return err
	}
	return s.emails.Update(ctx, id, address, label, filteringEnabled)
}

// Delete removes the managed email after the ownership check.
func (s *RegistryService) Delete(ctx context.Context, caller Caller, id int64) error {
	if _, err := s.owned(ctx, caller, id, "delete this email"); err != nil {
		return err
	}
	return s.emails.Delete(ctx, id)
}

// Ensure is an idempotent get-or-create keyed by (caller, address). The
// re-read after create guards against read-after-write anomalies; its
// failure is unrecoverable and not retried.
func (s *RegistryService) Ensure(ctx context.Context, caller Caller, label, address string) (*model.ManagedEmail, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}

	existing, err := s.emails.FindByAddress(ctx, address, caller.Subject)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if _, err := s.emails.Create(ctx, address, label, caller.Subject, false); err != nil {
		return nil, err
	}

	created, err := s.emails.FindByAddress(ctx, address, caller.Subject)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperr.Consistency(fmt.Sprintf("ensure email managed failed for %s", address))
	}

	logger.WithSubject(s.logger, caller.Subject).Info("Provisioned managed email",
		zap.String("address", address),
		zap.Int64("id", created.ID),
	)
	return created, nil
}

// SetFilteringEnabled sets the filtering flag to the desired value.
func (s *RegistryService) SetFilteringEnabled(ctx context.Context, caller Caller, id int64, desired bool) error {
	if _, err := s.owned(ctx, caller, id, "update this email"); err != nil {
		return err
	}
	return s.emails.Update(ctx, id, nil, nil, &desired)
}

// ToggleFiltering flips the filtering flag. Toggling to enabled also
// appends a "pending" status record as a side effect.
func (s *RegistryService) ToggleFiltering(ctx context.Context, caller Caller, id int64) error {
	email, err := s.owned(ctx, caller, id, "update this email")
	if err != nil {
		return err
	}

	next := !email.FilteringEnabled
	if err := s.emails.Update(ctx, id, nil, nil, &next); err != nil {
		return err
	}

	if next {
		if _, err := s.statuses.Insert(ctx, id, StatusPending, time.Now().UnixMilli()); err != nil {
			return err
		}
	}
	return nil
}

// owned resolves the managed email and enforces the ownership invariant.
func (s *RegistryService) owned(ctx context.Context, caller Caller, id int64, action string) (*model.ManagedEmail, error) {
	if !caller.Authenticated() {
		return nil, apperr.Unauthenticated()
	}
	email, err := s.emails.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, apperr.NotFound("email")
	}
	if email.UserID != caller.Subject {
		return nil, apperr.Forbidden(action)
	}
	return email, nil
}
