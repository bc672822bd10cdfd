package memory

import (
	"sort"
	"sync"

	"github.com/hallorn/engram/core"
)

// Filter narrows a global memory query. Zero values disable the respective
// constraint.
type Filter struct {
	// SubjectID keeps only records mentioning this entity.
	SubjectID string
	// MinImportance keeps only records at or above this importance.
	MinImportance int
	// MinRelevance keeps only records at or above this relevance.
	MinRelevance float64
	// Limit caps the number of returned records (0 = unlimited).
	Limit int
}

// GlobalStore holds world-scoped facts and events as an ordered sequence.
// It has no hard size cap: only summarization shrinks it. Writes are
// exclusive, reads shared (RWMutex).
type GlobalStore struct {
	mu      sync.RWMutex
	policy  DecayPolicy
	records []*core.Record
}

// NewGlobalStore creates an empty world memory using the given decay policy.
func NewGlobalStore(policy DecayPolicy) *GlobalStore {
	return &GlobalStore{policy: policy}
}

// Append adds a world-scoped record. Records of any other scope are rejected
// with a ValidationError.
func (s *GlobalStore) Append(rec *core.Record) error {
	if rec.Scope != core.ScopeGlobal {
		return core.NewValidationError("global store rejects scope %q", rec.Scope)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Tick recomputes the cached relevance of every record against the current
// logical clock. No record is ever dropped here.
func (s *GlobalStore) Tick(now core.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		rec.Relevance = s.policy.Relevance(rec, now)
	}
}

// Query returns matching records ordered by descending relevance, then
// descending creation tick, ties broken by insertion order. Relevance is
// recomputed against now; returned records are defensive copies.
func (s *GlobalStore) Query(now core.Tick, f Filter) []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*core.Record, 0, len(s.records))
	for _, rec := range s.records {
		rel := s.policy.Relevance(rec, now)
		if f.SubjectID != "" && !rec.References(f.SubjectID) {
			continue
		}
		if f.MinImportance > 0 && rec.Importance < f.MinImportance {
			continue
		}
		if rel < f.MinRelevance {
			continue
		}
		clone := rec.Clone()
		clone.Relevance = rel
		matches = append(matches, clone)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		return matches[i].CreatedAt > matches[j].CreatedAt
	})

	if f.Limit > 0 && len(matches) > f.Limit {
		matches = matches[:f.Limit]
	}
	return matches
}

// Fading returns copies of the records whose relevance at now sits below
// floor, in insertion order. Used to pick summarization candidates.
func (s *GlobalStore) Fading(now core.Tick, floor float64) []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Record
	for _, rec := range s.records {
		rel := s.policy.Relevance(rec, now)
		if rel < floor {
			clone := rec.Clone()
			clone.Relevance = rel
			out = append(out, clone)
		}
	}
	return out
}

// Oldest returns copies of the n earliest-inserted records. Used when the
// store outgrows the summarization count threshold without anything fading.
func (s *GlobalStore) Oldest(n int) []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]*core.Record, 0, n)
	for _, rec := range s.records[:n] {
		out = append(out, rec.Clone())
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *GlobalStore) Get(id string) (*core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec.Clone(), true
		}
	}
	return nil, false
}

// Generation reports the current generation counter of a record.
func (s *GlobalStore) Generation(id string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec.Generation, true
		}
	}
	return 0, false
}

// Remove deletes a record by id preserving the order of the remainder.
func (s *GlobalStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveSubject purges every record mentioning the entity. Returns the number
// of purged records.
func (s *GlobalStore) RemoveSubject(entityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.References(entityID) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed
}

// Len returns the number of stored records.
func (s *GlobalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a deep copy of the sequence for snapshotting.
func (s *GlobalStore) Records() []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Restore replaces the store content with the snapshot sequence.
func (s *GlobalStore) Restore(records []*core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]*core.Record, 0, len(records))
	for _, rec := range records {
		s.records = append(s.records, rec.Clone())
	}
}
