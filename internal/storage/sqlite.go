// Package storage provides SQLite-based persistence for save slots.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/signal-archive/internal/persist"
)

// Store manages the SQLite database connection for save slots.
type Store struct {
	db *sql.DB
}

// SlotInfo summarizes one stored save.
type SlotInfo struct {
	Slot           string
	TotalMatches   int
	TotalDocuments int
	Fragments      int
	SavedAt        time.Time
}

// SessionRecord is one finished play session.
type SessionRecord struct {
	ID        int64
	Slot      string
	Matches   int // Matches gained during the session
	Documents int // Documents gained during the session
	Duration  int // Duration in seconds
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			saved_at INTEGER NOT NULL,
			total_matches INTEGER NOT NULL DEFAULT 0,
			total_documents INTEGER NOT NULL DEFAULT 0,
			fragments INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_saves_matches ON saves(total_matches DESC);

		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slot TEXT NOT NULL,
			matches INTEGER NOT NULL DEFAULT 0,
			documents INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_slot ON sessions(slot);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// summary is the part of a snapshot indexed for the leaderboard.
type summary struct {
	Stats struct {
		TotalMatches   int `json:"totalMatches"`
		TotalDocuments int `json:"totalDocuments"`
		Fragments      int `json:"fragments"`
	} `json:"stats"`
}

// SaveSlot upserts the encoded snapshot of a slot.
func (s *Store) SaveSlot(ctx context.Context, slot string, data []byte, savedAt time.Time) error {
	var sum summary
	// Counters are best effort; the blob itself is validated on load.
	_ = json.Unmarshal(data, &sum)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saves (slot, data, saved_at, total_matches, total_documents, fragments)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
			data = excluded.data,
			saved_at = excluded.saved_at,
			total_matches = excluded.total_matches,
			total_documents = excluded.total_documents,
			fragments = excluded.fragments`,
		slot, data, savedAt.UnixMilli(),
		sum.Stats.TotalMatches, sum.Stats.TotalDocuments, sum.Stats.Fragments,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot %s: %w", slot, err)
	}
	return nil
}

// LoadSlot returns the encoded snapshot of a slot and its save time.
// Returns persist.ErrNoSave if the slot is empty.
func (s *Store) LoadSlot(ctx context.Context, slot string) ([]byte, time.Time, error) {
	var data []byte
	var savedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT data, saved_at FROM saves WHERE slot = ?",
		slot,
	).Scan(&data, &savedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, persist.ErrNoSave
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("storage: cannot load slot %s: %w", slot, err)
	}
	return data, time.UnixMilli(savedAt), nil
}

// ClearSlot deletes the save of a slot. Clearing an empty slot is not an error.
func (s *Store) ClearSlot(ctx context.Context, slot string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM saves WHERE slot = ?", slot)
	if err != nil {
		return fmt.Errorf("storage: cannot clear slot %s: %w", slot, err)
	}
	return nil
}

// Leaders returns the top slots by total matches.
func (s *Store) Leaders(ctx context.Context, limit int) ([]SlotInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, total_matches, total_documents, fragments, saved_at
		 FROM saves
		 ORDER BY total_matches DESC, total_documents DESC, slot ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaders: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var e SlotInfo
		var savedAt int64
		if err := rows.Scan(&e.Slot, &e.TotalMatches, &e.TotalDocuments, &e.Fragments, &savedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.SavedAt = time.UnixMilli(savedAt)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// RecordSession stores a finished play session and returns its ID.
func (s *Store) RecordSession(ctx context.Context, r SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (slot, matches, documents, duration_secs)
		 VALUES (?, ?, ?, ?)`,
		r.Slot, r.Matches, r.Documents, r.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentSessions returns the latest sessions of a slot, newest first.
func (s *Store) RecentSessions(ctx context.Context, slot string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot, matches, documents, duration_secs, created_at
		 FROM sessions
		 WHERE slot = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		slot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Slot, &r.Matches, &r.Documents, &r.Duration, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

// parseTime handles both time.Time and string datetime columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Slot returns a persist.Gateway bound to one save slot.
func (s *Store) Slot(slot string) persist.Gateway {
	return &slotGateway{store: s, slot: slot}
}

type slotGateway struct {
	store *Store
	slot  string
}

func (g *slotGateway) Save(ctx context.Context, data []byte, savedAt time.Time) error {
	return g.store.SaveSlot(ctx, g.slot, data, savedAt)
}

func (g *slotGateway) Load(ctx context.Context) ([]byte, time.Time, error) {
	return g.store.LoadSlot(ctx, g.slot)
}

func (g *slotGateway) Clear(ctx context.Context) error {
	return g.store.ClearSlot(ctx, g.slot)
}

// Ensure slotGateway implements persist.Gateway
var _ persist.Gateway = (*slotGateway)(nil)
