package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS pos_storage (
	store_key TEXT PRIMARY KEY,
	value     TEXT,
	version   BIGINT NOT NULL DEFAULT 1,
	writer    TEXT NOT NULL DEFAULT ''
)`

// EnsureSchema creates the key-value table. The statement is valid for
// both SQLite and Postgres.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SQLStore keeps every document as one row. Each write bumps the row's
// version and records the writing tab so that pollers can tell other
// tabs' writes apart from their own. Removal keeps the row with a NULL
// value so the removal is visible to pollers too.
type SQLStore struct {
	DB     *sqlx.DB
	Writer string
}

func NewSQLStore(db *sqlx.DB, writer string) *SQLStore {
	return &SQLStore{DB: db, Writer: writer}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.DB.GetContext(ctx, &value, s.DB.Rebind(`SELECT value FROM pos_storage WHERE store_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
		INSERT INTO pos_storage (store_key, value, version, writer)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (store_key) DO UPDATE
		SET value = excluded.value, version = pos_storage.version + 1, writer = excluded.writer`),
		key, value, s.Writer)
	return err
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
		UPDATE pos_storage SET value = NULL, version = version + 1, writer = ?
		WHERE store_key = ?`),
		s.Writer, key)
	return err
}

type rowVersion struct {
	Key     string `db:"store_key"`
	Version int64  `db:"version"`
	Writer  string `db:"writer"`
}

func (s *SQLStore) versions(ctx context.Context) ([]rowVersion, error) {
	var rows []rowVersion
	err := s.DB.SelectContext(ctx, &rows, `SELECT store_key, version, writer FROM pos_storage`)
	return rows, err
}

// SQLPoller detects writes by polling row versions. Notify is a no-op:
// the version bump done by SQLStore.Set is the notification.
type SQLPoller struct {
	store    *SQLStore
	interval time.Duration
	log      *slog.Logger
}

func NewSQLPoller(store *SQLStore, interval time.Duration, log *slog.Logger) *SQLPoller {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &SQLPoller{store: store, interval: interval, log: log}
}

func (p *SQLPoller) Notify(ctx context.Context, change Change) error {
	return nil
}

// Subscribe takes a baseline snapshot synchronously, then reports every
// version change seen on later polls.
func (p *SQLPoller) Subscribe(ctx context.Context, fn func(Change)) error {
	seen, err := p.snapshot(ctx)
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seen = p.poll(ctx, seen, fn)
			}
		}
	}()
	return nil
}

func (p *SQLPoller) snapshot(ctx context.Context) (map[string]int64, error) {
	rows, err := p.store.versions(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]int64, len(rows))
	for _, row := range rows {
		seen[row.Key] = row.Version
	}
	return seen, nil
}

func (p *SQLPoller) poll(ctx context.Context, seen map[string]int64, fn func(Change)) map[string]int64 {
	rows, err := p.store.versions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("storage poll failed", "err", err)
		}
		return seen
	}
	next := make(map[string]int64, len(rows))
	for _, row := range rows {
		next[row.Key] = row.Version
		prev, ok := seen[row.Key]
		switch {
		case ok && prev == row.Version:
		case ok && row.Version-prev > 1:
			// Several writes since the last poll; the writers in between are unknown.
			fn(Change{Key: row.Key})
		default:
			fn(Change{Key: row.Key, Source: row.Writer})
		}
	}
	return next
}
