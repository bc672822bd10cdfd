package snapshot

import (
	"context"
	"testing"

	"github.com/hallorn/engram/core"
)

func testSnapshot(worldID string) *core.Snapshot {
	rec := core.NewRecord(core.ScopeGlobal, "the gates opened", []string{"ember"}, 6, 3)
	return &core.Snapshot{
		WorldID:  worldID,
		Clock:    3,
		Entities: []string{"ember"},
		Global:   []*core.Record{rec},
		Local: map[string][]*core.Record{
			"ember": {core.NewRecord(core.ScopeLocal, "I saw the gates open", []string{"ember"}, 6, 3)},
		},
		Relations: []core.RelationEdge{{
			Pair: core.NewPairKey("ember", "vann"),
			Rel:  core.Relationship{Friendship: 0.25, LastInteractionAt: 2},
		}},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	want := testSnapshot("w1")
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "w1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.WorldID != "w1" || got.Clock != 3 {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Global) != 1 || got.Global[0].Content != "the gates opened" {
		t.Fatalf("global records not preserved: %+v", got.Global)
	}
	if len(got.Local["ember"]) != 1 {
		t.Fatalf("local records not preserved: %+v", got.Local)
	}
	if len(got.Relations) != 1 || got.Relations[0].Rel.Friendship != 0.25 {
		t.Fatalf("relations not preserved: %+v", got.Relations)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	first := testSnapshot("w1")
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := testSnapshot("w1")
	second.Clock = 9
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := s.Load(ctx, "w1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Clock != 9 {
		t.Fatalf("expected latest snapshot, got clock %d", got.Clock)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if _, err := s.Load(context.Background(), "never-saved"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreIsolatesWorlds(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	a := testSnapshot("alpha")
	b := testSnapshot("beta")
	b.Clock = 7
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("save alpha: %v", err)
	}
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("save beta: %v", err)
	}
	got, err := s.Load(ctx, "beta")
	if err != nil {
		t.Fatalf("load beta: %v", err)
	}
	if got.Clock != 7 {
		t.Fatalf("worlds crossed: %+v", got)
	}
}
