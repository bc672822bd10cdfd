package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/snapshot"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "engram.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := &core.Snapshot{
		WorldID:  "w1",
		Clock:    12,
		Entities: []string{"ember", "vann"},
		Global: []*core.Record{
			core.NewRecord(core.ScopeGlobal, "the siege began", []string{"ember"}, 8, 12),
		},
		Local: map[string][]*core.Record{},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "w1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Clock != 12 || len(got.Global) != 1 {
		t.Fatalf("snapshot not preserved: %+v", got)
	}
	if got.Global[0].Content != "the siege began" {
		t.Fatalf("record content lost: %q", got.Global[0].Content)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := &core.Snapshot{WorldID: "w1", Clock: 1}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Clock = 2
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := s.Load(ctx, "w1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Clock != 2 {
		t.Fatalf("expected latest snapshot, got clock %d", got.Clock)
	}
}

func TestSQLiteLoadMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(context.Background(), "never-saved"); err != snapshot.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
