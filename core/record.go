package core

import (
	"github.com/google/uuid"
)

// Tick is a logical timestamp: a monotonically increasing counter of
// processed game events. The engine never consults wall-clock time; decay
// and recency are defined purely over Ticks.
type Tick uint64

// Scope identifies which memory tier a record belongs to.
type Scope string

const (
	// ScopeGlobal marks world-level facts and events.
	ScopeGlobal Scope = "global"
	// ScopeLocal marks records owned by a single entity's memory.
	ScopeLocal Scope = "local"
	// ScopeSocial marks records describing an interaction between two entities.
	ScopeSocial Scope = "social"
)

// Valid reports whether the scope is one of the known memory tiers.
func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeLocal || s == ScopeSocial
}

// Record is the atomic unit of remembered information. After creation the ID
// and Scope are immutable; Importance and LastAccessedAt change through
// reinforcement and re-access, and every such mutation bumps Generation so a
// late-arriving summarization digest can be detected as stale.
//
// Relevance is a cached value recomputed by the decay policy on tick or read.
// It is never authoritative: serialized snapshots carry it only as a hint and
// the engine recomputes it after restore.
type Record struct {
	ID             string   `json:"id"`
	Scope          Scope    `json:"scope"`
	Content        string   `json:"content"`
	SubjectIDs     []string `json:"subject_ids,omitempty"`
	CreatedAt      Tick     `json:"created_at"`
	LastAccessedAt Tick     `json:"last_accessed_at"`
	Importance     int      `json:"importance"`
	Generation     uint64   `json:"generation"`
	Relevance      float64  `json:"relevance"`
	Digest         bool     `json:"digest,omitempty"`
}

// NewRecord creates a record with a fresh ID. Subject IDs are deduplicated
// preserving first-seen order.
func NewRecord(scope Scope, content string, subjectIDs []string, importance int, now Tick) *Record {
	return &Record{
		ID:             NewID(),
		Scope:          scope,
		Content:        content,
		SubjectIDs:     dedupe(subjectIDs),
		CreatedAt:      now,
		LastAccessedAt: now,
		Importance:     importance,
		Relevance:      1.0,
	}
}

// Touch resets the re-access timestamp and bumps the generation counter.
func (r *Record) Touch(now Tick) {
	r.LastAccessedAt = now
	r.Generation++
}

// Reinforce raises importance by delta up to ceiling and counts as a
// re-access.
func (r *Record) Reinforce(delta int, ceiling int, now Tick) {
	r.Importance += delta
	if r.Importance > ceiling {
		r.Importance = ceiling
	}
	r.Touch(now)
}

// References reports whether the record mentions the given entity.
func (r *Record) References(entityID string) bool {
	for _, id := range r.SubjectIDs {
		if id == entityID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe for handing to callers.
func (r *Record) Clone() *Record {
	clone := *r
	clone.SubjectIDs = make([]string, len(r.SubjectIDs))
	copy(clone.SubjectIDs, r.SubjectIDs)
	return &clone
}

// NewID generates a unique identifier for records, digests and requests.
func NewID() string { return uuid.NewString() }

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UnionSubjects merges the subject sets of several records preserving the
// order in which subjects first appear. Used when a digest record inherits
// the subjects of the records it replaces.
func UnionSubjects(records []*Record) []string {
	var all []string
	for _, r := range records {
		all = append(all, r.SubjectIDs...)
	}
	return dedupe(all)
}
