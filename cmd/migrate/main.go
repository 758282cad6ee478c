package main

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/config"
	"mailtriage/pkg/db"
	"mailtriage/pkg/logger"
)

// Schema for the triage backend. Uniqueness on
// (user_id, email_address) is deliberately NOT enforced: Create never
// checks for duplicates, only Ensure does a check-then-create.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS emails_managed (
        id BIGSERIAL PRIMARY KEY,
        email_address TEXT NOT NULL,
        label TEXT NOT NULL DEFAULT '',
        user_id TEXT NOT NULL,
        filtering_enabled BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_emails_managed_address ON emails_managed (email_address)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_managed_user ON emails_managed (user_id)`,

	`CREATE TABLE IF NOT EXISTS email_filtering_status (
        id BIGSERIAL PRIMARY KEY,
        email_managed_id BIGINT NOT NULL REFERENCES emails_managed (id) ON DELETE CASCADE,
        status TEXT NOT NULL,
        last_updated BIGINT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_filtering_status_email ON email_filtering_status (email_managed_id)`,

	`CREATE TABLE IF NOT EXISTS triage_decisions (
        id BIGSERIAL PRIMARY KEY,
        email_managed_id BIGINT NOT NULL REFERENCES emails_managed (id) ON DELETE CASCADE,
        candidate_id TEXT NOT NULL,
        mail_server TEXT NOT NULL DEFAULT '',
        from_address TEXT NOT NULL DEFAULT '',
        subject TEXT NOT NULL DEFAULT '',
        body TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL DEFAULT 'pending',
        decided_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (email_managed_id, candidate_id)
    )`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
        id BIGSERIAL PRIMARY KEY,
        routing_key TEXT NOT NULL,
        payload JSONB NOT NULL,
        status TEXT NOT NULL DEFAULT 'pending',
        retry_count INT NOT NULL DEFAULT 0,
        next_retry_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_status ON outbox_events (status, next_retry_at)`,
}

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	ctx := context.Background()
	for _, stmt := range statements {
		if _, err := dbConn.Exec(ctx, stmt); err != nil {
			log.Fatal("Migration statement failed", zap.Error(err))
		}
	}
	log.Info("Schema migration completed")
}
