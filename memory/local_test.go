package memory

import (
	"errors"
	"testing"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/internal/testutil"
)

func newLocalStore(capacity, threshold int) *LocalStore {
	return NewLocalStore("ember", capacity, threshold, NewDecayPolicy(0.1, 10))
}

func TestLocalRecordRejectsForeignScope(t *testing.T) {
	s := newLocalStore(10, 8)
	rec := testutil.NewRecordBuilder().Global().Build()
	err := s.Record(rec, 0)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for global-scoped record, got %v", err)
	}
}

func TestLocalCapacityNeverExceeded(t *testing.T) {
	s := newLocalStore(5, 8)
	for i := 0; i < 20; i++ {
		rec := testutil.NewRecordBuilder().Importance(3).CreatedAt(core.Tick(i)).Build()
		if err := s.Record(rec, core.Tick(i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if s.Len() > 5 {
			t.Fatalf("capacity exceeded after insert %d: len=%d", i, s.Len())
		}
	}
}

func TestLocalZeroCapacityFailsLoudly(t *testing.T) {
	s := newLocalStore(0, 8)
	rec := testutil.NewRecordBuilder().Build()
	err := s.Record(rec, 0)
	var cerr *core.CapacityError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if cerr.EntityID != "ember" {
		t.Fatalf("expected entity in error, got %q", cerr.EntityID)
	}
}

func TestLocalEvictsLowestRelevanceOldestFirst(t *testing.T) {
	s := newLocalStore(3, 8)
	importances := []int{1, 5, 2, 1}
	ids := make([]string, len(importances))
	for i, imp := range importances {
		now := core.Tick(i + 1)
		rec := testutil.NewRecordBuilder().Importance(imp).CreatedAt(now).Build()
		ids[i] = rec.ID
		if err := s.Record(rec, now); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	// The first importance-1 record has decayed the longest; the identical
	// importance-1 record inserted last is still fresh and must survive.
	if _, ok := s.Get(ids[0]); ok {
		t.Fatalf("expected the oldest low-importance record to be evicted")
	}
	for _, id := range ids[1:] {
		if _, ok := s.Get(id); !ok {
			t.Fatalf("record %s evicted unexpectedly", id)
		}
	}
}

func TestLocalThresholdProtectsImportantRecords(t *testing.T) {
	s := newLocalStore(2, 8)
	protected := testutil.NewRecordBuilder().ID("protected").Importance(9).CreatedAt(0).Build()
	weak := testutil.NewRecordBuilder().ID("weak").Importance(2).CreatedAt(5).Build()
	fresh := testutil.NewRecordBuilder().ID("fresh").Importance(2).CreatedAt(10).Build()

	if err := s.Record(protected, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(weak, 5); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(fresh, 10); err != nil {
		t.Fatalf("record: %v", err)
	}

	// The protected record is older and lower-relevance than "fresh", but the
	// unprotected "weak" record must be chosen instead.
	if _, ok := s.Get("protected"); !ok {
		t.Fatalf("protected record was evicted while unprotected candidates remained")
	}
	if _, ok := s.Get("weak"); ok {
		t.Fatalf("expected the unprotected record to be evicted")
	}
}

func TestLocalFullyProtectedStoreStillSheds(t *testing.T) {
	s := newLocalStore(2, 8)
	for i := 0; i < 3; i++ {
		now := core.Tick(i)
		rec := testutil.NewRecordBuilder().Importance(9).CreatedAt(now).Build()
		if err := s.Record(rec, now); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("protection must not override the capacity bound, len=%d", s.Len())
	}
}

func TestLocalQueryTopK(t *testing.T) {
	s := newLocalStore(10, 8)
	for i := 0; i < 6; i++ {
		now := core.Tick(i)
		rec := testutil.NewRecordBuilder().Importance(5).CreatedAt(now).Build()
		if err := s.Record(rec, now); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	got := s.Query(6, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Relevance > got[i-1].Relevance {
			t.Fatalf("query not ordered by descending relevance at %d", i)
		}
	}
}

func TestLocalQueryDoesNotMutate(t *testing.T) {
	s := newLocalStore(10, 8)
	rec := testutil.NewRecordBuilder().ID("mem").Build()
	if err := s.Record(rec, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	before, _ := s.Generation("mem")
	s.Query(20, 5)
	after, _ := s.Generation("mem")
	if before != after {
		t.Fatalf("query must not bump generations: %d -> %d", before, after)
	}
}

func TestLocalTouchBumpsGeneration(t *testing.T) {
	s := newLocalStore(10, 8)
	rec := testutil.NewRecordBuilder().ID("mem").Build()
	if err := s.Record(rec, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	before, _ := s.Generation("mem")
	s.Touch([]string{"mem"}, 5)
	after, _ := s.Generation("mem")
	if after != before+1 {
		t.Fatalf("expected generation bump, %d -> %d", before, after)
	}
	got, _ := s.Get("mem")
	if got.LastAccessedAt != 5 {
		t.Fatalf("expected LastAccessedAt 5, got %d", got.LastAccessedAt)
	}
}

func TestLocalReinforceCapsAtCeiling(t *testing.T) {
	s := newLocalStore(10, 8)
	rec := testutil.NewRecordBuilder().ID("mem").Importance(9).Build()
	if err := s.Record(rec, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !s.Reinforce("mem", 5, 1) {
		t.Fatalf("reinforce reported missing record")
	}
	got, _ := s.Get("mem")
	if got.Importance != 10 {
		t.Fatalf("expected importance capped at 10, got %d", got.Importance)
	}
}

func TestLocalTail(t *testing.T) {
	s := newLocalStore(10, 8)
	old := testutil.NewRecordBuilder().ID("old").Importance(1).CreatedAt(0).Build()
	mid := testutil.NewRecordBuilder().ID("mid").Importance(1).CreatedAt(5).Build()
	fresh := testutil.NewRecordBuilder().ID("fresh").Importance(1).CreatedAt(10).Build()
	for i, rec := range []*core.Record{old, mid, fresh} {
		if err := s.Record(rec, core.Tick(i*5)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	tail := s.Tail(10, 2)
	if len(tail) != 2 {
		t.Fatalf("expected 2 tail records, got %d", len(tail))
	}
	if tail[0].ID != "old" || tail[1].ID != "mid" {
		t.Fatalf("expected tail [old mid], got [%s %s]", tail[0].ID, tail[1].ID)
	}
}

func TestLocalRemoveSubject(t *testing.T) {
	s := newLocalStore(10, 8)
	about := testutil.NewRecordBuilder().ID("about").Subjects("vann").Build()
	other := testutil.NewRecordBuilder().ID("other").Subjects("mara").Build()
	for _, rec := range []*core.Record{about, other} {
		if err := s.Record(rec, 0); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if removed := s.RemoveSubject("vann"); removed != 1 {
		t.Fatalf("expected 1 purged record, got %d", removed)
	}
	if _, ok := s.Get("other"); !ok {
		t.Fatalf("unrelated record must survive the purge")
	}
}

func TestLocalRestoreRoundTrip(t *testing.T) {
	s := newLocalStore(5, 8)
	for i := 0; i < 4; i++ {
		rec := testutil.NewRecordBuilder().CreatedAt(core.Tick(i)).Build()
		if err := s.Record(rec, core.Tick(i)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	records := s.Records()

	restored := newLocalStore(5, 8)
	restored.Restore(records)
	if restored.Len() != 4 {
		t.Fatalf("expected 4 restored records, got %d", restored.Len())
	}
	after := restored.Records()
	for i := range records {
		if after[i].ID != records[i].ID {
			t.Fatalf("restore changed insertion order at %d", i)
		}
	}
}
