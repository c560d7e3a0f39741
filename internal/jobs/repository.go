// internal/jobs/repository.go
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "job-snatcher/internal/common/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("JOB_NOT_FOUND")

const uniqueViolation = "23505"

const recordColumns = `id, job_url, job_title, company_name, COALESCE(job_description, ''), COALESCE(source, ''),
	cosine_match_score, reasoning_match_score, combined_match_score,
	COALESCE(reasoning_explanation, ''), COALESCE(cover_letter_draft, ''), COALESCE(cv_variant_generated, ''),
	status, date_found, date_applied, date_rejection_received, date_offer_received, created_at, updated_at`

// Repository is the PostgreSQL job record store.
type Repository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewRepository(db *sql.DB, queryTimeout time.Duration) *Repository {
	return &Repository{db: db, timeout: queryTimeout}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                         Record
		status                      string
		cosine, reasoning, combined sql.NullFloat64
		applied, rejected, offered  sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.JobURL, &rec.Title, &rec.Company, &rec.Description, &rec.Source,
		&cosine, &reasoning, &combined,
		&rec.ReasoningExplanation, &rec.CoverLetterDraft, &rec.CVVariant,
		&status, &rec.DateFound, &applied, &rejected, &offered, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	rec.Status = st
	rec.CosineScore = nullFloat(cosine)
	rec.ReasoningScore = nullFloat(reasoning)
	rec.CombinedScore = nullFloat(combined)
	rec.DateApplied = nullTime(applied)
	rec.DateRejectionReceived = nullTime(rejected)
	rec.DateOfferReceived = nullTime(offered)
	return &rec, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// Get loads one record by id.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM job_applications WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get job", err)
	}
	return rec, nil
}

// FindByURL looks a record up by canonical URL.
func (r *Repository) FindByURL(ctx context.Context, canonicalURL string) (*Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM job_applications WHERE job_url = $1`, canonicalURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, canonicalURL)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("find job by url", err)
	}
	return rec, nil
}

// Existing identifies the record that won an insert race.
type Existing struct {
	ID        string
	DateFound time.Time
}

// InsertIfAbsent creates a discovered record for canonicalURL inside one transaction.
// When the URL is already stored it returns (nil, existing, nil) and writes nothing.
func (r *Repository) InsertIfAbsent(ctx context.Context, canonicalURL string, posting Posting) (*Record, *Existing, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apperrors.NewPersistenceError("begin insert", err)
	}
	defer tx.Rollback()

	rec := &Record{
		ID:          uuid.NewString(),
		JobURL:      canonicalURL,
		Title:       posting.Title,
		Company:     posting.Company,
		Description: posting.Description,
		Source:      posting.Source,
		Status:      StatusDiscovered,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO job_applications (id, job_url, job_title, company_name, job_description, source, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (job_url) DO NOTHING
		RETURNING date_found, created_at, updated_at`,
		rec.ID, rec.JobURL, rec.Title, rec.Company, rec.Description, rec.Source, string(rec.Status),
	).Scan(&rec.DateFound, &rec.CreatedAt, &rec.UpdatedAt)

	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return nil, nil, apperrors.NewPersistenceError("commit insert", err)
		}
		return rec, nil, nil

	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		// A unique violation aborts the transaction, so the winner is read outside it.
		q := queryer(tx)
		if isUniqueViolation(err) {
			_ = tx.Rollback()
			q = r.db
		}
		var existing Existing
		if err := q.QueryRowContext(ctx,
			`SELECT id, date_found FROM job_applications WHERE job_url = $1`, canonicalURL,
		).Scan(&existing.ID, &existing.DateFound); err != nil {
			return nil, nil, apperrors.NewPersistenceError("read existing job", err)
		}
		return nil, &existing, nil

	default:
		return nil, nil, apperrors.NewPersistenceError("insert job", err)
	}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// UpdateCombined writes the combined score in one statement and advances
// discovered to matched. It refuses records without a cosine score.
func (r *Repository) UpdateCombined(ctx context.Context, id string, combined float64) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE job_applications
		SET combined_match_score = $2,
		    status = CASE WHEN status = 'discovered' THEN 'matched' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND cosine_match_score IS NOT NULL`,
		id, combined,
	)
	if err != nil {
		return false, apperrors.NewPersistenceError("update combined score", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewPersistenceError("update combined score", err)
	}
	return n == 1, nil
}

// SaveDraft stores generated text and sets drafted in the same statement.
// Records already past drafted are left untouched and false is returned.
func (r *Repository) SaveDraft(ctx context.Context, id, coverLetter string, cvVariant *string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var cv sql.NullString
	if cvVariant != nil {
		cv = sql.NullString{String: *cvVariant, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE job_applications
		SET cover_letter_draft = $2,
		    cv_variant_generated = $3,
		    status = 'drafted',
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('discovered', 'matched', 'drafted')`,
		id, coverLetter, cv,
	)
	if err != nil {
		return false, apperrors.NewPersistenceError("save draft", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewPersistenceError("save draft", err)
	}
	return n == 1, nil
}

// ActiveAssets returns the active professional assets keyed by type.
func (r *Repository) ActiveAssets(ctx context.Context) (map[string]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (asset_type) asset_type, content
		FROM professional_assets
		WHERE is_active = TRUE
		ORDER BY asset_type, version DESC`)
	if err != nil {
		return nil, apperrors.NewPersistenceError("load assets", err)
	}
	defer rows.Close()

	assets := make(map[string]string)
	for rows.Next() {
		var kind, content string
		if err := rows.Scan(&kind, &content); err != nil {
			return nil, apperrors.NewPersistenceError("scan asset", err)
		}
		assets[kind] = content
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewPersistenceError("load assets", err)
	}
	return assets, nil
}
