package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/museframe/internal/domain"
)

var recordColumns = []string{"id", "prompt", "image_url", "image_path", "source", "fetched_at"}

func newMockRepo(t *testing.T) (*PostgresEntryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresEntryRepository(db), mock
}

func TestPostgresEntryRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS entries").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEntryRepository_Record(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 1, 31, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO entries").
		WithArgs("a cat", "http://x/y.png", "images/20250131_140000.png", "remote", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Record(context.Background(), &domain.EntryRecord{
		Prompt:    "a cat",
		ImageURL:  "http://x/y.png",
		ImagePath: "images/20250131_140000.png",
		Source:    domain.SourceRemote,
		FetchedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEntryRepository_RecordError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO entries").WillReturnError(sql.ErrConnDone)

	_, err := repo.Record(context.Background(), &domain.EntryRecord{Source: domain.SourceFallback})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestPostgresEntryRepository_Latest(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 1, 31, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(int64(7), "a cat", "http://x/y.png", "images/a.png", "fallback", at))

	rec, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, domain.SourceFallback, rec.Source)
	assert.Equal(t, at, rec.FetchedAt)
}

func TestPostgresEntryRepository_LatestEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM entries").WillReturnRows(sqlmock.NewRows(recordColumns))

	rec, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgresEntryRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 1, 31, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM entries").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(int64(2), "b", "http://x/b.png", "images/b.png", "remote", at).
			AddRow(int64(1), "a", "http://x/a.png", "images/a.png", "remote", at.Add(-time.Hour)))

	records, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Prompt)
	assert.Equal(t, "a", records[1].Prompt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopEntryRepository(t *testing.T) {
	var repo EntryRepository = NoopEntryRepository{}

	id, err := repo.Record(context.Background(), &domain.EntryRecord{})
	assert.NoError(t, err)
	assert.Zero(t, id)

	rec, err := repo.Latest(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rec)
}
