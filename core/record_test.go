package core

import "testing"

func TestNewRecordDedupesSubjects(t *testing.T) {
	rec := NewRecord(ScopeLocal, "met the twins", []string{"a", "b", "a", "c", "b"}, 5, 1)
	want := []string{"a", "b", "c"}
	if len(rec.SubjectIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, rec.SubjectIDs)
	}
	for i, id := range want {
		if rec.SubjectIDs[i] != id {
			t.Fatalf("dedupe must preserve first-seen order, got %v", rec.SubjectIDs)
		}
	}
}

func TestRecordTouchBumpsGeneration(t *testing.T) {
	rec := NewRecord(ScopeLocal, "x", nil, 5, 1)
	if rec.Generation != 0 {
		t.Fatalf("fresh record must start at generation 0, got %d", rec.Generation)
	}
	rec.Touch(4)
	if rec.Generation != 1 || rec.LastAccessedAt != 4 {
		t.Fatalf("touch did not update record: %+v", rec)
	}
}

func TestRecordReinforceCapsAtCeiling(t *testing.T) {
	rec := NewRecord(ScopeLocal, "x", nil, 9, 1)
	rec.Reinforce(4, 10, 2)
	if rec.Importance != 10 {
		t.Fatalf("expected importance capped at 10, got %d", rec.Importance)
	}
	if rec.Generation != 1 {
		t.Fatalf("reinforce must count as a re-access, generation %d", rec.Generation)
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := NewRecord(ScopeLocal, "x", []string{"a"}, 5, 1)
	clone := rec.Clone()
	clone.SubjectIDs[0] = "b"
	if rec.SubjectIDs[0] != "a" {
		t.Fatalf("clone shares subject slice with original")
	}
}

func TestUnionSubjects(t *testing.T) {
	a := NewRecord(ScopeGlobal, "x", []string{"ember", "vann"}, 5, 1)
	b := NewRecord(ScopeGlobal, "y", []string{"vann", "mara"}, 5, 2)
	got := UnionSubjects([]*Record{a, b})
	want := []string{"ember", "vann", "mara"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPairKeyCanonical(t *testing.T) {
	if NewPairKey("vann", "ember") != NewPairKey("ember", "vann") {
		t.Fatalf("pair key must be order-independent")
	}
	key := NewPairKey("vann", "ember")
	if key.A != "ember" || key.B != "vann" {
		t.Fatalf("expected lexicographic canonical form, got %+v", key)
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(1.5); got != RelationScoreMax {
		t.Fatalf("expected clamp to %v, got %v", RelationScoreMax, got)
	}
	if got := ClampScore(-1.5); got != -RelationScoreMax {
		t.Fatalf("expected clamp to %v, got %v", -RelationScoreMax, got)
	}
	if got := ClampScore(0.25); got != 0.25 {
		t.Fatalf("in-range score must pass through, got %v", got)
	}
}

func TestGameEventParticipants(t *testing.T) {
	ev := GameEvent{
		Type:       EventInteraction,
		ActorID:    "ember",
		TargetIDs:  []string{"vann", "ember"},
		WitnessIDs: []string{"mara", "vann"},
	}
	p := ev.Participants()
	if len(p) != 2 || p[0] != "ember" || p[1] != "vann" {
		t.Fatalf("expected deduped participants [ember vann], got %v", p)
	}
	all := ev.Entities()
	if len(all) != 3 {
		t.Fatalf("expected 3 entities with witnesses, got %v", all)
	}
}
