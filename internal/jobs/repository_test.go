// internal/jobs/repository_test.go
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	apperrors "job-snatcher/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "job_url", "job_title", "company_name", "job_description", "source",
	"cosine_match_score", "reasoning_match_score", "combined_match_score",
	"reasoning_explanation", "cover_letter_draft", "cv_variant_generated",
	"status", "date_found", "date_applied", "date_rejection_received", "date_offer_received",
	"created_at", "updated_at",
}

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, time.Second), mock
}

func recordRow(id, url string, cosine, reasoning, combined interface{}, status string) *sqlmock.Rows {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(
		id, url, "Go Engineer", "Acme", "Build pipelines", "linkedin",
		cosine, reasoning, combined,
		"", "", "",
		status, now, nil, nil, nil, now, now,
	)
}

// ==========================
// Reads
// ==========================

func TestGet_Found(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM job_applications WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(recordRow("job-1", "https://jobs.example.com/1", 0.8, 0.5, 0.59, "matched"))

	rec, err := repo.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", rec.ID)
	assert.Equal(t, StatusMatched, rec.Status)
	require.NotNil(t, rec.CosineScore)
	assert.Equal(t, 0.8, *rec.CosineScore)
	require.NotNil(t, rec.CombinedScore)
	assert.Equal(t, 0.59, *rec.CombinedScore)
	assert.Nil(t, rec.DateApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NullScores(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM job_applications WHERE id = \$1`).
		WithArgs("job-2").
		WillReturnRows(recordRow("job-2", "https://jobs.example.com/2", nil, nil, nil, "discovered"))

	rec, err := repo.Get(context.Background(), "job-2")
	require.NoError(t, err)
	assert.False(t, rec.HasCosine())
	assert.Nil(t, rec.ReasoningScore)
	assert.Nil(t, rec.CombinedScore)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM job_applications WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGet_DatabaseError(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM job_applications`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Get(context.Background(), "job-1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePersistence))
}

func TestFindByURL(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM job_applications WHERE job_url = \$1`).
		WithArgs("https://jobs.example.com/1").
		WillReturnRows(recordRow("job-1", "https://jobs.example.com/1", nil, nil, nil, "discovered"))

	rec, err := repo.FindByURL(context.Background(), "https://jobs.example.com/1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", rec.ID)
}

// ==========================
// Insert
// ==========================

func TestInsertIfAbsent_Created(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO job_applications`).
		WithArgs(sqlmock.AnyArg(), "https://jobs.example.com/1", "Go Engineer", "Acme", "desc", "indeed", "discovered").
		WillReturnRows(sqlmock.NewRows([]string{"date_found", "created_at", "updated_at"}).AddRow(now, now, now))
	mock.ExpectCommit()

	rec, existing, err := repo.InsertIfAbsent(context.Background(), "https://jobs.example.com/1",
		Posting{Title: "Go Engineer", Company: "Acme", Description: "desc", Source: "indeed"})
	require.NoError(t, err)
	assert.Nil(t, existing)
	require.NotNil(t, rec)
	assert.Len(t, rec.ID, 36)
	assert.Equal(t, StatusDiscovered, rec.Status)
	assert.Equal(t, now, rec.DateFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsent_ConflictReadsExistingInTx(t *testing.T) {
	repo, mock := setupRepo(t)
	firstSeen := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO job_applications`).
		WillReturnRows(sqlmock.NewRows([]string{"date_found", "created_at", "updated_at"}))
	mock.ExpectQuery(`SELECT id, date_found FROM job_applications WHERE job_url = \$1`).
		WithArgs("https://jobs.example.com/1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_found"}).AddRow("job-old", firstSeen))
	mock.ExpectRollback()

	rec, existing, err := repo.InsertIfAbsent(context.Background(), "https://jobs.example.com/1", Posting{Title: "t", Company: "c"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NotNil(t, existing)
	assert.Equal(t, "job-old", existing.ID)
	assert.Equal(t, firstSeen, existing.DateFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsent_UniqueViolationBackstop(t *testing.T) {
	repo, mock := setupRepo(t)
	firstSeen := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO job_applications`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT id, date_found FROM job_applications WHERE job_url = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_found"}).AddRow("job-winner", firstSeen))

	rec, existing, err := repo.InsertIfAbsent(context.Background(), "https://jobs.example.com/1", Posting{Title: "t", Company: "c"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, "job-winner", existing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertIfAbsent_InsertError(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO job_applications`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, _, err := repo.InsertIfAbsent(context.Background(), "https://jobs.example.com/1", Posting{Title: "t", Company: "c"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePersistence, apperrors.CodeOf(err))
}

// ==========================
// Writes
// ==========================

func TestUpdateCombined(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec(`UPDATE job_applications\s+SET combined_match_score = \$2`).
		WithArgs("job-1", 0.59).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE job_applications\s+SET combined_match_score = \$2`).
		WithArgs("job-2", 0.4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateCombined(context.Background(), "job-1", 0.59)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateCombined(context.Background(), "job-2", 0.4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDraft(t *testing.T) {
	repo, mock := setupRepo(t)
	cv := "tailored cv"

	mock.ExpectExec(`UPDATE job_applications\s+SET cover_letter_draft = \$2`).
		WithArgs("job-1", "letter", sql.NullString{String: cv, Valid: true}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE job_applications\s+SET cover_letter_draft = \$2`).
		WithArgs("job-2", "letter", sql.NullString{}).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SaveDraft(context.Background(), "job-1", "letter", &cv)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SaveDraft(context.Background(), "job-2", "letter", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveAssets(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT DISTINCT ON \(asset_type\) asset_type, content`).
		WillReturnRows(sqlmock.NewRows([]string{"asset_type", "content"}).
			AddRow(AssetNarrative, "I build things").
			AddRow(AssetContactInfo, `{"name":"Sam"}`))

	assets, err := repo.ActiveAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "I build things", assets[AssetNarrative])
	assert.Len(t, assets, 2)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	for range schemaStatements {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StatementFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS job_applications`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration statement 1")
}
