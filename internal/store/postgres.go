package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

const createCandidatesTable = `CREATE TABLE IF NOT EXISTS candidates (
	id         BIGSERIAL PRIMARY KEY,
	filename   TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	skills     TEXT NOT NULL DEFAULT '',
	education  TEXT NOT NULL DEFAULT '',
	experience TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectCandidates = `SELECT id, filename, name, email, phone, skills, education, experience, text, created_at FROM candidates`

// PostgresStore keeps records in a candidates table. Ids come from the
// BIGSERIAL sequence.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgres connects to dsn, verifies the connection and ensures the
// candidates table exists.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorage, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrStorage, err)
	}

	if _, err := db.ExecContext(ctx, createCandidatesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create candidates table: %v", ErrStorage, err)
	}

	logger.Debug("postgres store opened")

	return &PostgresStore{db: db, logger: logger}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) (*Record, error) {
	var (
		id        int64
		createdAt time.Time
	)

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO candidates (filename, name, email, phone, skills, education, experience, text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		rec.Filename, rec.Name, rec.Email, rec.Phone, rec.Skills, rec.Education, rec.Experience, rec.Text,
	).Scan(&id, &createdAt)
	if err != nil {
		s.logger.Error("inserting candidate", zap.String("filename", rec.Filename), zap.Error(err))
		return nil, fmt.Errorf("%w: insert candidate: %v", ErrStorage, err)
	}

	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	return &rec, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectCandidates+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query candidates: %v", ErrStorage, err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate candidates: %v", ErrStorage, err)
	}

	return records, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectCandidates+` WHERE id = $1`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		id        int64
		createdAt time.Time
	)

	err := row.Scan(&id, &rec.Filename, &rec.Name, &rec.Email, &rec.Phone, &rec.Skills, &rec.Education, &rec.Experience, &rec.Text, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan candidate: %v", ErrStorage, err)
	}

	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt = createdAt.UTC().Format(time.RFC3339)

	return &rec, nil
}
