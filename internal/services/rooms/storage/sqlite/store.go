// Package sqlite provides a SQLite-backed room store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/darkwater/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/darkwater/internal/services/rooms/domain/room"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage"
	"github.com/louisbranch/darkwater/internal/services/rooms/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists room records as JSON documents in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the SQLite room store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, code string) (room.Record, error) {
	if err := ctx.Err(); err != nil {
		return room.Record{}, err
	}

	var doc string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT record FROM rooms WHERE code = ?`, code,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return room.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return room.Record{}, fmt.Errorf("get room: %w", err)
	}

	var rec room.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return room.Record{}, fmt.Errorf("decode room %s: %w", code, err)
	}
	return rec, nil
}

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, rec room.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.RoomCode == "" {
		return fmt.Errorf("room code is required")
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", rec.RoomCode, err)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt == 0 {
		updatedAt = time.Now().UTC().UnixMilli()
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (code, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (code) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		rec.RoomCode, string(doc), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// DeleteExpired implements storage.Store.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM rooms WHERE updated_at < ?`, cutoff.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired rooms: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired rooms: %w", err)
	}
	return int(n), nil
}

var _ storage.Store = (*Store)(nil)
