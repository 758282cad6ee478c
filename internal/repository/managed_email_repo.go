package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
)

type ManagedEmailRepository struct {
	db *pgxpool.Pool
}

func NewManagedEmailRepository(db *pgxpool.Pool) *ManagedEmailRepository {
	return &ManagedEmailRepository{db: db}
}

// Create inserts a managed email and returns its id. No uniqueness check is
// performed here; callers that need get-or-create semantics go through
// the registry's Ensure.
func (r *ManagedEmailRepository) Create(ctx context.Context, address, label, userID string, filteringEnabled bool) (int64, error) {
	query := `
        INSERT INTO emails_managed (email_address, label, user_id, filtering_enabled, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, address, label, userID, filteringEnabled).Scan(&id)
	return id, err
}

// FindByID returns the managed email, or nil when the id does not resolve.
func (r *ManagedEmailRepository) FindByID(ctx context.Context, id int64) (*model.ManagedEmail, error) {
	query := `
        SELECT id, email_address, label, user_id, filtering_enabled, created_at
        FROM emails_managed
        WHERE id = $1
    `
	var m model.ManagedEmail
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.EmailAddress,
		&m.Label,
		&m.UserID,
		&m.FilteringEnabled,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByAddress returns the first managed email matching (address, userID),
// or nil when there is no match.
func (r *ManagedEmailRepository) FindByAddress(ctx context.Context, address, userID string) (*model.ManagedEmail, error) {
	query := `
        SELECT id, email_address, label, user_id, filtering_enabled, created_at
        FROM emails_managed
        WHERE email_address = $1 AND user_id = $2
        ORDER BY id
        LIMIT 1
    `
	var m model.ManagedEmail
	err := r.db.QueryRow(ctx, query, address, userID).Scan(
		&m.ID,
		&m.EmailAddress,
		&m.Label,
		&m.UserID,
		&m.FilteringEnabled,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByUser returns all managed emails owned by userID.
func (r *ManagedEmailRepository) ListByUser(ctx context.Context, userID string) ([]model.ManagedEmail, error) {
	query := `
        SELECT id, email_address, label, user_id, filtering_enabled, created_at
        FROM emails_managed
        WHERE user_id = $1
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []model.ManagedEmail{}
	for rows.Next() {
		var m model.ManagedEmail
		err := rows.Scan(
			&m.ID,
			&m.EmailAddress,
			&m.Label,
			&m.UserID,
			&m.FilteringEnabled,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		emails = append(emails, m)
	}
	return emails, rows.Err()
}

// Update applies only the provided fields.
func (r *ManagedEmailRepository) Update(ctx context.Context, id int64, address, label *string, filteringEnabled *bool) error {
	sets := []string{}
	args := []any{}
	idx := 1

	if address != nil {
		sets = append(sets, "email_address = $"+strconv.Itoa(idx))
		args = append(args, *address)
		idx++
	}
	if label != nil {
		sets = append(sets, "label = $"+strconv.Itoa(idx))
		args = append(args, *label)
		idx++
	}
	if filteringEnabled != nil {
		sets = append(sets, "filtering_enabled = $"+strconv.Itoa(idx))
		args = append(args, *filteringEnabled)
		idx++
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE emails_managed SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(idx)
	_, err := r.db.Exec(ctx, query, args...)
	return err
}

// Delete removes the managed email.
func (r *ManagedEmailRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM emails_managed WHERE id = $1`, id)
	return err
}
