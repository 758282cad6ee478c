package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
)

type TriageRepository struct {
	db *pgxpool.Pool
}

func NewTriageRepository(db *pgxpool.Pool) *TriageRepository {
	return &TriageRepository{db: db}
}

// SeedPending inserts candidates as pending decisions. Candidates that
// already have a decision keep it, so a re-run never resurrects a muted
// or friended sender.
func (r *TriageRepository) SeedPending(ctx context.Context, candidates []model.TriageCandidate) error {
	query := `
        INSERT INTO triage_decisions
            (email_managed_id, candidate_id, mail_server, from_address, subject, body, state, decided_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (email_managed_id, candidate_id) DO NOTHING
    `
	for _, c := range candidates {
		_, err := r.db.Exec(ctx, query,
			c.EmailManagedID, c.ID, c.MailServer, c.From, c.Subject, c.Body, model.TriagePending)
		if err != nil {
			return err
		}
	}
	return nil
}

// Find returns the decision for (emailManagedID, candidateID), or nil.
func (r *TriageRepository) Find(ctx context.Context, emailManagedID int64, candidateID string) (*model.TriageDecision, error) {
	query := `
        SELECT id, email_managed_id, candidate_id, mail_server, from_address, subject, body, state, decided_at
        FROM triage_decisions
        WHERE email_managed_id = $1 AND candidate_id = $2
    `
	var d model.TriageDecision
	err := r.db.QueryRow(ctx, query, emailManagedID, candidateID).Scan(
		&d.ID,
		&d.EmailManagedID,
		&d.CandidateID,
		&d.MailServer,
		&d.From,
		&d.Subject,
		&d.Body,
		&d.State,
		&d.DecidedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MoveState transitions a decision from one state to another. Returns
// whether a row actually moved, so callers can treat repeats as no-ops.
func (r *TriageRepository) MoveState(ctx context.Context, emailManagedID int64, candidateID, fromState, toState string) (bool, error) {
	query := `
        UPDATE triage_decisions
        SET state = $1, decided_at = NOW()
        WHERE email_managed_id = $2 AND candidate_id = $3 AND state = $4
    `
	tag, err := r.db.Exec(ctx, query, toState, emailManagedID, candidateID, fromState)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteInState removes a decision if it is in the given state.
func (r *TriageRepository) DeleteInState(ctx context.Context, emailManagedID int64, candidateID, state string) (bool, error) {
	query := `
        DELETE FROM triage_decisions
        WHERE email_managed_id = $1 AND candidate_id = $2 AND state = $3
    `
	tag, err := r.db.Exec(ctx, query, emailManagedID, candidateID, state)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByState returns the bucket contents for one managed email.
func (r *TriageRepository) ListByState(ctx context.Context, emailManagedID int64, state string) ([]model.TriageDecision, error) {
	query := `
        SELECT id, email_managed_id, candidate_id, mail_server, from_address, subject, body, state, decided_at
        FROM triage_decisions
        WHERE email_managed_id = $1 AND state = $2
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, emailManagedID, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := []model.TriageDecision{}
	for rows.Next() {
		var d model.TriageDecision
		err := rows.Scan(
			&d.ID,
			&d.EmailManagedID,
			&d.CandidateID,
			&d.MailServer,
			&d.From,
			&d.Subject,
			&d.Body,
			&d.State,
			&d.DecidedAt,
		)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
