// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package changes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// poolIface is the subset of pgxpool.Pool the store uses; pgxmock
// satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore keeps records in the last_changes table.
type PostgresStore struct {
	pool poolIface
	ttl  time.Duration
	now  func() time.Time
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore migrates the schema and connects a pool to dsn.
func NewPostgresStore(ctx context.Context, dsn string, ttl time.Duration) (*PostgresStore, error) {
	migrator, err := NewMigrator(dsn)
	if err != nil {
		return nil, err
	}
	upErr := migrator.Up()
	closeErr := migrator.Close()
	if upErr != nil {
		return nil, upErr
	}
	if closeErr != nil {
		return nil, closeErr
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code(CodeStoreFailure).With("operation", "connect to database").Wrap(err)
	}
	return NewPostgresStoreWithPool(pool, ttl), nil
}

// NewPostgresStoreWithPool wraps an existing pool.
func NewPostgresStoreWithPool(pool poolIface, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{pool: pool, ttl: ttl, now: time.Now}
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO last_changes (document, artifact_id, url, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (document) DO UPDATE
		 SET artifact_id = $2, url = $3, created_at = $4, expires_at = $5`,
		rec.Document, rec.ArtifactID, rec.URL, rec.CreatedAt, s.now().Add(s.ttl))
	if err != nil {
		return wrapPgError(err, "save change", rec.Document)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, document string) (Record, error) {
	rec := Record{Document: document}
	err := s.pool.QueryRow(ctx,
		`SELECT artifact_id, url, created_at FROM last_changes
		 WHERE document = $1 AND expires_at > $2`,
		document, s.now()).Scan(&rec.ArtifactID, &rec.URL, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound(document)
	}
	if err != nil {
		return Record{}, wrapPgError(err, "load change", document)
	}
	return rec, nil
}

// Forget implements Store.
func (s *PostgresStore) Forget(ctx context.Context, document string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM last_changes WHERE document = $1`, document); err != nil {
		return wrapPgError(err, "forget change", document)
	}
	return nil
}

// Sweep deletes expired records and returns how many were removed.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM last_changes WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, wrapPgError(err, "sweep changes", "")
	}
	return tag.RowsAffected(), nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// wrapPgError classifies database failures. A missing table means the
// migrations were never applied.
func wrapPgError(err error, op, document string) error {
	b := oops.With("operation", op)
	if document != "" {
		b = b.With("document", document)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		b = b.With("sqlstate", pgErr.Code)
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return b.Code(CodeSchemaMissing).Hint("run `brush migrate up`").Wrap(err)
		case pgerrcode.UniqueViolation:
			return b.Code(CodeStoreFailure).With("constraint", pgErr.ConstraintName).Wrap(err)
		}
	}
	return b.Code(CodeStoreFailure).Wrap(err)
}
