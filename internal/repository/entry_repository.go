package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/basel-ax/museframe/internal/domain"
)

// EntryRepository defines the interface for refresh history access
type EntryRepository interface {
	Record(ctx context.Context, rec *domain.EntryRecord) (int64, error)
	Latest(ctx context.Context) (*domain.EntryRecord, error)
	List(ctx context.Context, limit int) ([]domain.EntryRecord, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		id         BIGSERIAL PRIMARY KEY,
		prompt     TEXT NOT NULL DEFAULT '',
		image_url  TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL
	)
`

// PostgresEntryRepository implements EntryRepository for PostgreSQL
type PostgresEntryRepository struct {
	db *sql.DB
}

// NewPostgresEntryRepository creates a new PostgreSQL entry repository
func NewPostgresEntryRepository(db *sql.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{db: db}
}

// EnsureSchema creates the entries table if it does not exist
func (r *PostgresEntryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}
	return nil
}

// Record stores one refresh outcome and returns its id
func (r *PostgresEntryRepository) Record(ctx context.Context, rec *domain.EntryRecord) (int64, error) {
	query := `
		INSERT INTO entries (prompt, image_url, image_path, source, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rec.Prompt,
		rec.ImageURL,
		rec.ImagePath,
		string(rec.Source),
		rec.FetchedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	return id, nil
}

// Latest retrieves the most recent refresh outcome, nil when there is none
func (r *PostgresEntryRepository) Latest(ctx context.Context) (*domain.EntryRecord, error) {
	query := `
		SELECT id, prompt, image_url, image_path, source, fetched_at
		FROM entries
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// List retrieves up to limit refresh outcomes, newest first
func (r *PostgresEntryRepository) List(ctx context.Context, limit int) ([]domain.EntryRecord, error) {
	query := `
		SELECT id, prompt, image_url, image_path, source, fetched_at
		FROM entries
		ORDER BY fetched_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var records []domain.EntryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.EntryRecord, error) {
	var (
		rec    domain.EntryRecord
		source string
	)
	if err := s.Scan(&rec.ID, &rec.Prompt, &rec.ImageURL, &rec.ImagePath, &source, &rec.FetchedAt); err != nil {
		return nil, err
	}
	rec.Source = domain.Source(source)
	return &rec, nil
}

// NoopEntryRepository is used when no database is configured
type NoopEntryRepository struct{}

func (NoopEntryRepository) Record(ctx context.Context, rec *domain.EntryRecord) (int64, error) {
	return 0, nil
}

func (NoopEntryRepository) Latest(ctx context.Context) (*domain.EntryRecord, error) {
	return nil, nil
}

func (NoopEntryRepository) List(ctx context.Context, limit int) ([]domain.EntryRecord, error) {
	return nil, nil
}
