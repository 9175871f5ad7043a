package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/signal-archive/internal/persist"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshotJSON(matches, docs int) []byte {
	return []byte(fmt.Sprintf(`{"stats":{"totalMatches":%d,"totalDocuments":%d,"fragments":1},"decoders":[]}`, matches, docs))
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	savedAt := time.UnixMilli(1714564800123)

	if _, _, err := store.LoadSlot(ctx, "alice"); !errors.Is(err, persist.ErrNoSave) {
		t.Fatalf("LoadSlot() on empty slot = %v, expected ErrNoSave", err)
	}

	if err := store.SaveSlot(ctx, "alice", snapshotJSON(10, 2), savedAt); err != nil {
		t.Fatalf("SaveSlot() failed: %v", err)
	}
	data, at, err := store.LoadSlot(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadSlot() failed: %v", err)
	}
	if string(data) != string(snapshotJSON(10, 2)) {
		t.Errorf("LoadSlot() data = %s", data)
	}
	if !at.Equal(savedAt) {
		t.Errorf("LoadSlot() savedAt = %v, expected %v", at, savedAt)
	}

	// Second save replaces the first
	if err := store.SaveSlot(ctx, "alice", snapshotJSON(20, 3), savedAt.Add(time.Minute)); err != nil {
		t.Fatalf("SaveSlot() failed: %v", err)
	}
	data, _, _ = store.LoadSlot(ctx, "alice")
	if string(data) != string(snapshotJSON(20, 3)) {
		t.Errorf("slot not overwritten: %s", data)
	}
}

func TestClearSlot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	store.SaveSlot(ctx, "alice", snapshotJSON(1, 1), time.Now())
	store.SaveSlot(ctx, "bob", snapshotJSON(2, 2), time.Now())

	if err := store.ClearSlot(ctx, "alice"); err != nil {
		t.Fatalf("ClearSlot() failed: %v", err)
	}
	if _, _, err := store.LoadSlot(ctx, "alice"); !errors.Is(err, persist.ErrNoSave) {
		t.Errorf("alice still has a save: %v", err)
	}
	if _, _, err := store.LoadSlot(ctx, "bob"); err != nil {
		t.Errorf("bob should not be affected by clearing alice: %v", err)
	}
	if err := store.ClearSlot(ctx, "nobody"); err != nil {
		t.Errorf("clearing an empty slot failed: %v", err)
	}
}

func TestLeaders(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	store.SaveSlot(ctx, "low", snapshotJSON(5, 1), time.Now())
	store.SaveSlot(ctx, "high", snapshotJSON(500, 9), time.Now())
	store.SaveSlot(ctx, "mid", snapshotJSON(50, 4), time.Now())

	leaders, err := store.Leaders(ctx, 2)
	if err != nil {
		t.Fatalf("Leaders() failed: %v", err)
	}
	if len(leaders) != 2 {
		t.Fatalf("Expected 2 leaders with limit, got %d", len(leaders))
	}
	if leaders[0].Slot != "high" || leaders[1].Slot != "mid" {
		t.Errorf("Leaders not in expected order: %v", leaders)
	}
	if leaders[0].TotalMatches != 500 || leaders[0].TotalDocuments != 9 {
		t.Errorf("summary columns not filled: %+v", leaders[0])
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 1; i <= 3; i++ {
		if _, err := store.RecordSession(ctx, SessionRecord{Slot: "alice", Matches: i * 10, Duration: i}); err != nil {
			t.Fatalf("RecordSession() failed: %v", err)
		}
	}
	store.RecordSession(ctx, SessionRecord{Slot: "bob", Matches: 1})

	sessions, err := store.RecentSessions(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("RecentSessions() failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Matches != 30 || sessions[1].Matches != 20 {
		t.Errorf("Sessions not newest first: %v", sessions)
	}
}

func TestSlotGateway(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	gw := store.Slot("carol")

	if err := gw.Save(ctx, snapshotJSON(3, 0), time.UnixMilli(1000)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	data, at, err := gw.Load(ctx)
	if err != nil || len(data) == 0 || at.UnixMilli() != 1000 {
		t.Errorf("Load() = %s, %v, %v", data, at, err)
	}
	if err := gw.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, _, err := gw.Load(ctx); !errors.Is(err, persist.ErrNoSave) {
		t.Errorf("Load() after Clear = %v", err)
	}
}
