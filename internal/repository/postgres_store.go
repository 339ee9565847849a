package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStore keeps documents in a single key/value table.
type PostgresStore struct {
	db    *sqlx.DB
	table string
}

// NewPostgresStore constructs the store. The table name must be a plain identifier.
func NewPostgresStore(db *sqlx.DB, table string) (*PostgresStore, error) {
	if table == "" {
		table = "kv_documents"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid kv table name %q", table)
	}
	return &PostgresStore{db: db, table: table}, nil
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
key TEXT PRIMARY KEY,
value TEXT NOT NULL,
updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure kv schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.table)
	var value string
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("remove kv %s: %w", key, err)
	}
	return nil
}

// PostgresLocker serialises writers with session level advisory locks.
// Acquisition polls pg_try_advisory_lock and gives up after wait, so a waiting
// writer never parks a pooled connection inside the server.
type PostgresLocker struct {
	db         *sqlx.DB
	wait       time.Duration
	retryEvery time.Duration
	logger     *zap.Logger
}

const defaultAdvisoryRetry = 100 * time.Millisecond

// NewPostgresLocker constructs an advisory-lock based locker. A non-positive wait makes a single attempt.
func NewPostgresLocker(db *sqlx.DB, wait time.Duration, logger *zap.Logger) *PostgresLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresLocker{db: db, wait: wait, retryEvery: defaultAdvisoryRetry, logger: logger}
}

// WithLock holds the advisory lock for hashtext(key) on a dedicated connection while fn runs.
// ErrLockNotObtained is returned when the lock stays taken for longer than the configured wait.
func (l *PostgresLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	attempts := 1
	if l.retryEvery > 0 && l.wait > l.retryEvery {
		attempts = int(l.wait / l.retryEvery)
	}

	for attempt := 1; ; attempt++ {
		conn, ok, err := l.tryLock(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			defer conn.Close()
			defer func() {
				if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
					l.logger.Warn("failed to release advisory lock", zap.String("key", key), zap.Error(err))
				}
			}()
			return fn(ctx)
		}
		if attempt >= attempts {
			return fmt.Errorf("%s: %w", key, ErrLockNotObtained)
		}

		timer := time.NewTimer(l.retryEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryLock returns the connection holding the lock, or releases it to the pool when the lock is taken.
func (l *PostgresLocker) tryLock(ctx context.Context, key string) (*sqlx.Conn, bool, error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}
	var obtained bool
	if err := conn.QueryRowxContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&obtained); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("obtain advisory lock %s: %w", key, err)
	}
	if !obtained {
		_ = conn.Close()
		return nil, false, nil
	}
	return conn, true, nil
}
