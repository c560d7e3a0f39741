// internal/jobs/schema.go
package jobs

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS job_applications (
		id                      VARCHAR(36) PRIMARY KEY,
		job_title               VARCHAR(255) NOT NULL,
		company_name            VARCHAR(255) NOT NULL,
		job_url                 TEXT NOT NULL UNIQUE,
		job_description         TEXT,
		source                  VARCHAR(50),
		date_found              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		date_applied            TIMESTAMPTZ,
		date_rejection_received TIMESTAMPTZ,
		date_offer_received     TIMESTAMPTZ,
		status                  VARCHAR(50) NOT NULL DEFAULT 'discovered'
			CHECK (status IN ('discovered','matched','drafted','submitted','rejected','offered')),
		cosine_match_score      DOUBLE PRECISION,
		reasoning_match_score   DOUBLE PRECISION,
		combined_match_score    DOUBLE PRECISION,
		reasoning_explanation   TEXT,
		cover_letter_draft      TEXT,
		cv_variant_generated    TEXT,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (combined_match_score IS NULL OR cosine_match_score IS NOT NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_status ON job_applications (status)`,
	`CREATE INDEX IF NOT EXISTS idx_date_found ON job_applications (date_found)`,
	`CREATE INDEX IF NOT EXISTS idx_combined_score ON job_applications (combined_match_score)`,
	`CREATE INDEX IF NOT EXISTS idx_company ON job_applications (company_name)`,
	`CREATE TABLE IF NOT EXISTS professional_assets (
		id          VARCHAR(36) PRIMARY KEY,
		asset_type  VARCHAR(50) NOT NULL,
		content     TEXT NOT NULL,
		version     INTEGER NOT NULL DEFAULT 1,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_asset_type_active ON professional_assets (asset_type, is_active)`,
}

// Migrate creates the job store schema; every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
