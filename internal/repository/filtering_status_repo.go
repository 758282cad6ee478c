package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
)

type FilteringStatusRepository struct {
	db *pgxpool.Pool
}

func NewFilteringStatusRepository(db *pgxpool.Pool) *FilteringStatusRepository {
	return &FilteringStatusRepository{db: db}
}

// Insert appends a status record and returns its id. Records are never
// updated in place.
func (r *FilteringStatusRepository) Insert(ctx context.Context, emailManagedID int64, status string, lastUpdated int64) (int64, error) {
	query := `
        INSERT INTO email_filtering_status (email_managed_id, status, last_updated, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, emailManagedID, status, lastUpdated).Scan(&id)
	return id, err
}

// Latest returns the most recently created record for the managed email,
// or nil when there is none. Creation order is the serial id, which also
// breaks last_updated ties.
func (r *FilteringStatusRepository) Latest(ctx context.Context, emailManagedID int64) (*model.FilteringStatus, error) {
	query := `
        SELECT id, email_managed_id, status, last_updated
        FROM email_filtering_status
        WHERE email_managed_id = $1
        ORDER BY id DESC
        LIMIT 1
    `
	var s model.FilteringStatus
	err := r.db.QueryRow(ctx, query, emailManagedID).Scan(
		&s.ID,
		&s.EmailManagedID,
		&s.Status,
		&s.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestForUser returns the most recent status record of every managed
// email owned by userID.
func (r *FilteringStatusRepository) LatestForUser(ctx context.Context, userID string) ([]model.FilteringStatus, error) {
	query := `
        SELECT DISTINCT ON (s.email_managed_id)
            s.id, s.email_managed_id, s.status, s.last_updated
        FROM email_filtering_status s
        JOIN emails_managed m ON m.id = s.email_managed_id
        WHERE m.user_id = $1
        ORDER BY s.email_managed_id, s.id DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []model.FilteringStatus{}
	for rows.Next() {
		var s model.FilteringStatus
		err := rows.Scan(&s.ID, &s.EmailManagedID, &s.Status, &s.LastUpdated)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// PurgeByEmail deletes every status record for the managed email. Used as
// the reset step before a new filtering run.
func (r *FilteringStatusRepository) PurgeByEmail(ctx context.Context, emailManagedID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM email_filtering_status WHERE email_managed_id = $1`, emailManagedID)
	return err
}
