package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mailtriage/internal/model"
)

// In-memory stores mirroring the repository contracts, safe for the
// scheduler's detached goroutines.

type fakeEmailStore struct {
	mu     sync.Mutex
	nextID int64
	emails map[int64]model.ManagedEmail
}

func newFakeEmailStore() *fakeEmailStore {
	return &fakeEmailStore{emails: map[int64]model.ManagedEmail{}}
}

func (f *fakeEmailStore) Create(_ context.Context, address, label, userID string, filteringEnabled bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.emails[f.nextID] = model.ManagedEmail{
		ID:               f.nextID,
		EmailAddress:     address,
		Label:            label,
		UserID:           userID,
		FilteringEnabled: filteringEnabled,
	}
	return f.nextID, nil
}

func (f *fakeEmailStore) FindByID(_ context.Context, id int64) (*model.ManagedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.emails[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeEmailStore) FindByAddress(_ context.Context, address, userID string) (*model.ManagedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.sortedIDs() {
		m := f.emails[id]
		if m.EmailAddress == address && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailStore) ListByUser(_ context.Context, userID string) ([]model.ManagedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ManagedEmail{}
	for _, id := range f.sortedIDs() {
		if f.emails[id].UserID == userID {
			out = append(out, f.emails[id])
		}
	}
	return out, nil
}

func (f *fakeEmailStore) Update(_ context.Context, id int64, address, label *string, filteringEnabled *bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.emails[id]
	if !ok {
		return nil
	}
	if address != nil {
		m.EmailAddress = *address
	}
	if label != nil {
		m.Label = *label
	}
	if filteringEnabled != nil {
		m.FilteringEnabled = *filteringEnabled
	}
	f.emails[id] = m
	return nil
}

func (f *fakeEmailStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.emails, id)
	return nil
}

func (f *fakeEmailStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(f.emails))
	for id := range f.emails {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeEmailStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emails)
}

type fakeStatusStore struct {
	mu      sync.Mutex
	nextID  int64
	records []model.FilteringStatus
	emails  *fakeEmailStore
}

func newFakeStatusStore(emails *fakeEmailStore) *fakeStatusStore {
	return &fakeStatusStore{emails: emails}
}

func (f *fakeStatusStore) Insert(_ context.Context, emailManagedID int64, status string, lastUpdated int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.records = append(f.records, model.FilteringStatus{
		ID:             f.nextID,
		EmailManagedID: emailManagedID,
		Status:         status,
		LastUpdated:    lastUpdated,
	})
	return f.nextID, nil
}

func (f *fakeStatusStore) Latest(_ context.Context, emailManagedID int64) (*model.FilteringStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].EmailManagedID == emailManagedID {
			s := f.records[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStatusStore) LatestForUser(ctx context.Context, userID string) ([]model.FilteringStatus, error) {
	owned, err := f.emails.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []model.FilteringStatus{}
	for _, m := range owned {
		latest, err := f.Latest(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			out = append(out, *latest)
		}
	}
	return out, nil
}

func (f *fakeStatusStore) PurgeByEmail(_ context.Context, emailManagedID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.records[:0]
	for _, r := range f.records {
		if r.EmailManagedID != emailManagedID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeStatusStore) forEmail(emailManagedID int64) []model.FilteringStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.FilteringStatus{}
	for _, r := range f.records {
		if r.EmailManagedID == emailManagedID {
			out = append(out, r)
		}
	}
	return out
}

type fakeTriageStore struct {
	mu        sync.Mutex
	nextID    int64
	decisions map[string]model.TriageDecision
}

func newFakeTriageStore() *fakeTriageStore {
	return &fakeTriageStore{decisions: map[string]model.TriageDecision{}}
}

func triageKey(emailManagedID int64, candidateID string) string {
	return fmt.Sprintf("%d|%s", emailManagedID, candidateID)
}

func (f *fakeTriageStore) SeedPending(_ context.Context, candidates []model.TriageCandidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range candidates {
		key := triageKey(c.EmailManagedID, c.ID)
		if _, ok := f.decisions[key]; ok {
			continue
		}
		f.nextID++
		f.decisions[key] = model.TriageDecision{
			ID:             f.nextID,
			EmailManagedID: c.EmailManagedID,
			CandidateID:    c.ID,
			MailServer:     c.MailServer,
			From:           c.From,
			Subject:        c.Subject,
			Body:           c.Body,
			State:          model.TriagePending,
		}
	}
	return nil
}

func (f *fakeTriageStore) Find(_ context.Context, emailManagedID int64, candidateID string) (*model.TriageDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decisions[triageKey(emailManagedID, candidateID)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeTriageStore) MoveState(_ context.Context, emailManagedID int64, candidateID, fromState, toState string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := triageKey(emailManagedID, candidateID)
	d, ok := f.decisions[key]
	if !ok || d.State != fromState {
		return false, nil
	}
	d.State = toState
	f.decisions[key] = d
	return true, nil
}

func (f *fakeTriageStore) DeleteInState(_ context.Context, emailManagedID int64, candidateID, state string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := triageKey(emailManagedID, candidateID)
	d, ok := f.decisions[key]
	if !ok || d.State != state {
		return false, nil
	}
	delete(f.decisions, key)
	return true, nil
}

func (f *fakeTriageStore) ListByState(_ context.Context, emailManagedID int64, state string) ([]model.TriageDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.TriageDecision{}
	for _, d := range f.decisions {
		if d.EmailManagedID == emailManagedID && d.State == state {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	routingKey string
	payload    any
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func (f *fakePublisher) routingKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.events))
	for _, e := range f.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}
