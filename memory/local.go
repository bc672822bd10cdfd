package memory

import (
	"sort"
	"sync"

	"github.com/hallorn/engram/core"
)

// LocalStore is the bounded memory of a single entity. It maps record id to
// record, never exceeds its configured capacity after an evict cycle, and is
// owned exclusively by the managing engine, never shared between entities.
//
// Eviction removes the record with the lowest current relevance first; ties
// fall to the oldest creation tick, then the smallest importance, then
// insertion order. Records at or above the importance threshold are protected
// while any unprotected candidate remains, but a store full of protected
// records still sheds entries: importance buys priority, not immunity.
type LocalStore struct {
	mu        sync.RWMutex
	entityID  string
	capacity  int
	threshold int
	policy    DecayPolicy
	records   map[string]*core.Record
	seq       map[string]uint64
	nextSeq   uint64
}

// NewLocalStore creates the bounded memory for one entity.
func NewLocalStore(entityID string, capacity, importanceThreshold int, policy DecayPolicy) *LocalStore {
	return &LocalStore{
		entityID:  entityID,
		capacity:  capacity,
		threshold: importanceThreshold,
		policy:    policy,
		records:   make(map[string]*core.Record),
		seq:       make(map[string]uint64),
	}
}

// EntityID returns the owning entity.
func (s *LocalStore) EntityID() string { return s.entityID }

// Record inserts a local-scoped record, evicting as needed to stay within
// capacity. A CapacityError is returned when eviction cannot make room,
// which only happens with a non-positive configured capacity.
func (s *LocalStore) Record(rec *core.Record, now core.Tick) error {
	if rec.Scope != core.ScopeLocal {
		return core.NewValidationError("local store rejects scope %q", rec.Scope)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity <= 0 {
		return &core.CapacityError{EntityID: s.entityID, Capacity: s.capacity}
	}
	s.records[rec.ID] = rec
	s.seq[rec.ID] = s.nextSeq
	s.nextSeq++
	_, err := s.evictLocked(now)
	return err
}

// Tick recomputes the cached relevance of every record.
func (s *LocalStore) Tick(now core.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		rec.Relevance = s.policy.Relevance(rec, now)
	}
}

// EvictIfOverCapacity removes lowest-relevance records until the store is at
// or below capacity, returning copies of what was evicted.
func (s *LocalStore) EvictIfOverCapacity(now core.Tick) ([]*core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

func (s *LocalStore) evictLocked(now core.Tick) ([]*core.Record, error) {
	if len(s.records) <= s.capacity {
		return nil, nil
	}
	if s.capacity <= 0 {
		return nil, &core.CapacityError{EntityID: s.entityID, Capacity: s.capacity}
	}
	var evicted []*core.Record
	for len(s.records) > s.capacity {
		victim := s.victimLocked(now)
		evicted = append(evicted, victim.Clone())
		delete(s.records, victim.ID)
		delete(s.seq, victim.ID)
	}
	return evicted, nil
}

// victimLocked picks the next record to evict. Protected records only become
// candidates once nothing unprotected remains.
func (s *LocalStore) victimLocked(now core.Tick) *core.Record {
	var victim *core.Record
	var victimRel float64
	protectedOnly := true
	for _, rec := range s.records {
		if rec.Importance < s.threshold {
			protectedOnly = false
			break
		}
	}
	for _, rec := range s.records {
		if !protectedOnly && rec.Importance >= s.threshold {
			continue
		}
		rel := s.policy.Relevance(rec, now)
		if victim == nil || s.lessLocked(rec, rel, victim, victimRel) {
			victim, victimRel = rec, rel
		}
	}
	return victim
}

// lessLocked reports whether a should be evicted before b.
func (s *LocalStore) lessLocked(a *core.Record, aRel float64, b *core.Record, bRel float64) bool {
	if aRel != bRel {
		return aRel < bRel
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	if a.Importance != b.Importance {
		return a.Importance < b.Importance
	}
	return s.seq[a.ID] < s.seq[b.ID]
}

// Query returns the top-k records by current relevance for LLM context
// assembly. Results are defensive copies ordered by descending relevance with
// the same deterministic tie-breaks as eviction, inverted.
func (s *LocalStore) Query(now core.Tick, topK int) []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Record, 0, len(s.records))
	for _, rec := range s.records {
		clone := rec.Clone()
		clone.Relevance = s.policy.Relevance(rec, now)
		out = append(out, clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Tail returns copies of the n lowest-relevance records, eviction order
// first. Used to pick the local summarization tail.
func (s *LocalStore) Tail(now core.Tick, n int) []*core.Record {
	all := s.Query(now, 0)
	if n > len(all) {
		n = len(all)
	}
	tail := make([]*core.Record, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		tail = append(tail, all[i])
	}
	return tail
}

// Touch marks the records as re-accessed at now, bumping their generations.
func (s *LocalStore) Touch(ids []string, now core.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			rec.Touch(now)
			rec.Relevance = s.policy.Relevance(rec, now)
		}
	}
}

// Reinforce raises a record's importance by delta, capped at the policy
// ceiling, and counts as a re-access.
func (s *LocalStore) Reinforce(id string, delta int, now core.Tick) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.Reinforce(delta, s.policy.Ceiling, now)
	rec.Relevance = s.policy.Relevance(rec, now)
	return true
}

// Get returns a copy of the record with the given id.
func (s *LocalStore) Get(id string) (*core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Generation reports the current generation counter of a record.
func (s *LocalStore) Generation(id string) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return 0, false
	}
	return rec.Generation, true
}

// Remove deletes a record by id.
func (s *LocalStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	delete(s.seq, id)
	return true
}

// RemoveSubject purges every record mentioning the entity.
func (s *LocalStore) RemoveSubject(entityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.records {
		if rec.References(entityID) {
			delete(s.records, id)
			delete(s.seq, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a deep copy of the content in insertion order for
// snapshotting.
func (s *LocalStore) Records() []*core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out
}

// Restore replaces the store content with the snapshot sequence, re-deriving
// insertion order from slice order.
func (s *LocalStore) Restore(records []*core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*core.Record, len(records))
	s.seq = make(map[string]uint64, len(records))
	s.nextSeq = 0
	for _, rec := range records {
		clone := rec.Clone()
		s.records[clone.ID] = clone
		s.seq[clone.ID] = s.nextSeq
		s.nextSeq++
	}
}
