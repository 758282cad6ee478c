package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/apperr"
)

func newRegistry(t *testing.T) (*RegistryService, *fakeEmailStore, *fakeStatusStore) {
	t.Helper()
	emails := newFakeEmailStore()
	statuses := newFakeStatusStore(emails)
	return NewRegistryService(emails, statuses, zap.NewNop()), emails, statuses
}

func TestListRequiresAuthentication(t *testing.T) {
	svc, _, _ := newRegistry(t)

	_, err := svc.List(context.Background(), Caller{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestListReturnsOnlyCallersEmails(t *testing.T) {
	svc, emails, _ := newRegistry(t)
	ctx := context.Background()

	_, err := emails.Create(ctx, "a@example.com", "A", "user_a", false)
	require.NoError(t, err)
	_, err = emails.Create(ctx, "b@example.com", "B", "user_b", false)
	require.NoError(t, err)

	got, err := svc.List(ctx, Caller{Subject: "user_a"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@example.com", got[0].EmailAddress)
}

func TestGetByAddressAbsentIsNotAnError(t *testing.T) {
	svc, _, _ := newRegistry(t)

	got, err := svc.GetByAddress(context.Background(), Caller{Subject: "user_a"}, "x@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOwnershipChecks(t *testing.T) {
	svc, emails, _ := newRegistry(t)
	ctx := context.Background()

	id, err := emails.Create(ctx, "a@example.com", "A", "user_a", false)
	require.NoError(t, err)

	owner := Caller{Subject: "user_a"}
	intruder := Caller{Subject: "user_b"}
	label := "renamed"

	tests := []struct {
		name string
		op   func(caller Caller) error
	}{
		{"update", func(c Caller) error { return svc.Update(ctx, c, id, nil, &label, nil) }},
		{"delete", func(c Caller) error { return svc.Delete(ctx, c, id) }},
		{"set filtering", func(c Caller) error { return svc.SetFilteringEnabled(ctx, c, id, true) }},
		{"toggle filtering", func(c Caller) error { return svc.ToggleFiltering(ctx, c, id) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op(Caller{})
			assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated), "unauthenticated caller")

			err = tt.op(intruder)
			assert.True(t, apperr.IsKind(err, apperr.KindForbidden), "non-owning caller")
		})
	}

	// The owner succeeds.
	require.NoError(t, svc.Update(ctx, owner, id, nil, &label, nil))
	updated, err := emails.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Label)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	svc, _, _ := newRegistry(t)

	err := svc.Update(context.Background(), Caller{Subject: "user_a"}, 42, nil, nil, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestEnsureIsIdempotent(t *testing.T) {
	svc, emails, _ := newRegistry(t)
	ctx := context.Background()
	caller := Caller{Subject: "user_a"}

	first, err := svc.Ensure(ctx, caller, "Primary Email", "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.False(t, first.FilteringEnabled)

	second, err := svc.Ensure(ctx, caller, "Primary Email", "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, emails.count())
}

func TestEnsureIsPerUser(t *testing.T) {
	svc, emails, _ := newRegistry(t)
	ctx := context.Background()

	a, err := svc.Ensure(ctx, Caller{Subject: "user_a"}, "Primary", "shared@example.com")
	require.NoError(t, err)
	b, err := svc.Ensure(ctx, Caller{Subject: "user_b"}, "Primary", "shared@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, emails.count())
}

func TestToggleFilteringWritesPendingStatus(t *testing.T) {
	svc, emails, statuses := newRegistry(t)
	ctx := context.Background()
	caller := Caller{Subject: "user_a"}

	id, err := emails.Create(ctx, "a@example.com", "A", "user_a", false)
	require.NoError(t, err)

	// Off -> on: flag set, "pending" status appended.
	require.NoError(t, svc.ToggleFiltering(ctx, caller, id))
	email, err := emails.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, email.FilteringEnabled)

	records := statuses.forEmail(id)
	require.Len(t, records, 1)
	assert.Equal(t, StatusPending, records[0].Status)

	// On -> off: flag cleared, no extra status.
	require.NoError(t, svc.ToggleFiltering(ctx, caller, id))
	email, err = emails.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, email.FilteringEnabled)
	assert.Len(t, statuses.forEmail(id), 1)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newRegistry(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "label", "user_a", false)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	_, err = svc.Create(ctx, "a@example.com", "label", "", false)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestCreateDoesNotCheckUniqueness(t *testing.T) {
	svc, emails, _ := newRegistry(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "a@example.com", "A", "user_a", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "a@example.com", "A", "user_a", false)
	require.NoError(t, err)

	assert.Equal(t, 2, emails.count())
}
