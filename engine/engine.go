package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/logging"
	"github.com/hallorn/engram/memory"
	"github.com/hallorn/engram/summarize"
)

// phase tracks where the manager sits in its per-event cycle. It exists for
// observability; transitions always run to completion inside ProcessEvent.
type phase int

const (
	phaseIdle phase = iota
	phaseIngesting
	phaseDecaying
	phaseEvicting
	phaseSummarizing
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseIngesting:
		return "ingesting"
	case phaseDecaying:
		return "decaying"
	case phaseEvicting:
		return "evicting"
	case phaseSummarizing:
		return "summarizing"
	default:
		return "unknown"
	}
}

// Options configures a Manager instance using the functional options pattern.
type Options struct {
	// Config contains the decay, capacity and summarization policy.
	// Defaults to DefaultConfig.
	Config Config

	// Summarizer is the external narrative collaborator. Nil disables
	// summarization; everything else keeps working.
	Summarizer summarize.Summarizer

	// Snapshots persists full engine state for save/load. Nil disables
	// SaveSnapshot/LoadSnapshot; Snapshot/Restore still work in-memory.
	Snapshots core.SnapshotStore

	// Logger defaults to NoOp so the engine carries no logging dependency.
	Logger logging.Logger

	// Entities is the initial registered-entity set supplied by the world
	// loader. Events referencing entities outside this set (plus later
	// registrations) are rejected.
	Entities []string
}

// Manager orchestrates the three memory tiers for one game session. Each
// processed player action drives one ingest→decay→evict(→summarize) cycle
// against a single logical timeline; all mutation is serialized through the
// manager while read queries share the store read locks.
//
// The summarization call is the only suspension point: it runs on its own
// goroutine against a snapshot of record generations and its digest is
// applied atomically when it returns, or discarded as stale if the source
// records were evicted, mutated or already summarized in the meantime.
type Manager struct {
	mu sync.Mutex

	worldID    string
	cfg        Config
	policy     memory.DecayPolicy
	logger     logging.Logger
	summarizer summarize.Summarizer
	snapshots  core.SnapshotStore

	clock      core.Tick
	entities   map[string]struct{}
	tombstones map[string]struct{}

	global *memory.GlobalStore
	locals map[string]*memory.LocalStore
	social *memory.SocialGraph

	phase        phase
	inFlight     bool
	pendingRetry bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a memory engine for one world/session.
func New(worldID string, optFns ...func(o *Options)) *Manager {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		worldID:    worldID,
		cfg:        opts.Config,
		policy:     memory.NewDecayPolicy(opts.Config.DecayRate, opts.Config.ImportanceCeiling),
		logger:     opts.Logger,
		summarizer: opts.Summarizer,
		snapshots:  opts.Snapshots,
		entities:   make(map[string]struct{}),
		tombstones: make(map[string]struct{}),
		locals:     make(map[string]*memory.LocalStore),
		social:     memory.NewSocialGraph(),
		ctx:        ctx,
		cancel:     cancel,
	}
	m.global = memory.NewGlobalStore(m.policy)
	for _, id := range opts.Entities {
		m.registerLocked(id)
	}
	return m
}

// Close abandons any in-flight summarization and waits for its goroutine.
// Partial application never occurs: a digest arriving after Close is dropped.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// Clock returns the logical time: the number of processed events.
func (m *Manager) Clock() core.Tick {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// RegisterEntity adds an entity to the registered set and creates its local
// store. Registering an existing entity is a no-op; a removed entity stays
// removed.
func (m *Manager) RegisterEntity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		return core.NewValidationError("entity id must not be empty")
	}
	if _, gone := m.tombstones[id]; gone {
		return core.NewValidationError("entity %q was removed and cannot return", id)
	}
	m.registerLocked(id)
	return nil
}

func (m *Manager) registerLocked(id string) {
	if _, ok := m.entities[id]; ok {
		return
	}
	m.entities[id] = struct{}{}
	m.locals[id] = memory.NewLocalStore(id, m.cfg.MaxMemoryItems, m.cfg.ImportanceThreshold, m.policy)
}

// RemoveEntity tombstones the entity and atomically purges every record and
// relationship referencing it across all tiers, so no dangling references
// survive. Any in-flight summarization naming the purged records will fail
// its staleness check and be discarded.
func (m *Manager) RemoveEntity(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[id]; !ok {
		return core.NewValidationError("unknown entity %q", id)
	}
	delete(m.entities, id)
	m.tombstones[id] = struct{}{}
	delete(m.locals, id)

	purged := m.global.RemoveSubject(id)
	for _, store := range m.locals {
		purged += store.RemoveSubject(id)
	}
	pairs := m.social.RemoveEntity(id)
	m.logger.Debug("entity removed", "entity_id", id, "records_purged", purged, "pairs_purged", pairs)
	return nil
}

// Registered reports whether the entity is currently part of the world.
func (m *Manager) Registered(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entities[id]
	return ok
}

// ProcessEvent runs one full memory cycle for a game event: validation,
// classification into target tiers, all-or-nothing ingestion, decay tick,
// eviction, and (every SummaryInterval events) summarization scheduling.
//
// A malformed event (unknown type or unregistered entity) returns a
// ValidationError with no partial writes. An unsatisfiable capacity returns a
// CapacityError; that is a configuration problem and the caller should treat
// it as fatal for the session.
func (m *Manager) ProcessEvent(ev core.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.setPhaseLocked(phaseIdle)

	m.setPhaseLocked(phaseIngesting)
	if err := m.validateLocked(ev); err != nil {
		m.logger.Warn("event dropped", "type", string(ev.Type), "error", err.Error())
		return err
	}

	m.clock++
	now := m.clock
	if err := m.ingestLocked(ev, now); err != nil {
		return err
	}

	m.setPhaseLocked(phaseDecaying)
	m.global.Tick(now)
	for _, store := range m.locals {
		store.Tick(now)
	}

	m.setPhaseLocked(phaseEvicting)
	for id, store := range m.locals {
		evicted, err := store.EvictIfOverCapacity(now)
		if err != nil {
			return err
		}
		if len(evicted) > 0 {
			m.logger.Debug("local memory evicted", "entity_id", id, "evicted", len(evicted), "remaining", store.Len())
		}
	}

	m.setPhaseLocked(phaseSummarizing)
	m.maybeSummarizeLocked(now)
	return nil
}

// setPhaseLocked advances the per-event cycle, leaving a debug trail of the
// state machine.
func (m *Manager) setPhaseLocked(p phase) {
	m.phase = p
	if p != phaseIdle {
		m.logger.Debug("memory cycle phase", "phase", p.String(), "clock", uint64(m.clock))
	}
}

// validateLocked checks structure only: known event type, non-empty
// description, and every referenced entity registered. It never judges
// narrative plausibility.
func (m *Manager) validateLocked(ev core.GameEvent) error {
	if !ev.Type.Valid() {
		return core.NewValidationError("unknown event type %q", ev.Type)
	}
	if ev.Description == "" {
		return core.NewValidationError("event description must not be empty")
	}
	if ev.Type != core.EventWorld && ev.ActorID == "" {
		return core.NewValidationError("%s event requires an actor", ev.Type)
	}
	if ev.Type == core.EventInteraction && len(ev.TargetIDs) == 0 {
		return core.NewValidationError("interaction event requires a target")
	}
	for _, id := range ev.Entities() {
		if _, ok := m.entities[id]; !ok {
			return core.NewValidationError("unregistered entity %q", id)
		}
	}
	// Ingestion is all-or-nothing across target scopes, so an unsatisfiable
	// local capacity must be caught before any store is written.
	if len(ev.Entities()) > 0 && m.cfg.MaxMemoryItems <= 0 {
		return &core.CapacityError{EntityID: ev.Entities()[0], Capacity: m.cfg.MaxMemoryItems}
	}
	return nil
}

// ingestLocked fans the validated event out to its target tiers. One event
// can touch several tiers at once (e.g. an interaction updates social memory
// plus both participants' local memories and, if important, world memory).
func (m *Manager) ingestLocked(ev core.GameEvent, now core.Tick) error {
	imp := m.normalizeImportance(ev.ImportanceHint)

	switch ev.Type {
	case core.EventWorld:
		participants := ev.Participants()
		if err := m.global.Append(core.NewRecord(core.ScopeGlobal, ev.Description, participants, imp, now)); err != nil {
			return err
		}
		for _, id := range participants {
			if err := m.recordLocalLocked(id, ev.Description, participants, imp, now); err != nil {
				return err
			}
		}

	case core.EventInteraction:
		deltaFriend, deltaHostile := relationDeltas(ev.Impact)
		for _, target := range ev.TargetIDs {
			if target == ev.ActorID {
				continue
			}
			if err := m.social.Reinforce(ev.ActorID, target, deltaFriend, deltaHostile, now); err != nil {
				return err
			}
		}
		participants := ev.Participants()
		for _, id := range participants {
			if err := m.recordLocalLocked(id, ev.Description, participants, imp, now); err != nil {
				return err
			}
		}
		for _, witness := range ev.WitnessIDs {
			if witnessed(participants, witness) {
				continue
			}
			witnessImp := imp - 2
			if witnessImp < 1 {
				witnessImp = 1
			}
			content := fmt.Sprintf("witnessed: %s", ev.Description)
			if err := m.recordLocalLocked(witness, content, participants, witnessImp, now); err != nil {
				return err
			}
		}
		if imp >= m.cfg.MinGlobalImportance {
			if err := m.global.Append(core.NewRecord(core.ScopeGlobal, ev.Description, participants, imp, now)); err != nil {
				return err
			}
		}

	case core.EventObservation:
		return m.recordLocalLocked(ev.ActorID, ev.Description, []string{ev.ActorID}, imp, now)

	case core.EventStateChange:
		subjects := []string{ev.ActorID}
		if err := m.global.Append(core.NewRecord(core.ScopeGlobal, ev.Description, subjects, imp, now)); err != nil {
			return err
		}
		// The entity itself cares more about its own change than the world does.
		selfImp := imp + 1
		if selfImp > m.cfg.ImportanceCeiling {
			selfImp = m.cfg.ImportanceCeiling
		}
		return m.recordLocalLocked(ev.ActorID, ev.Description, subjects, selfImp, now)
	}
	return nil
}

func (m *Manager) recordLocalLocked(entityID, content string, subjects []string, importance int, now core.Tick) error {
	store, ok := m.locals[entityID]
	if !ok {
		return core.NewValidationError("unregistered entity %q", entityID)
	}
	return store.Record(core.NewRecord(core.ScopeLocal, content, subjects, importance, now), now)
}

func (m *Manager) normalizeImportance(hint int) int {
	if hint <= 0 {
		return 5
	}
	if hint > m.cfg.ImportanceCeiling {
		return m.cfg.ImportanceCeiling
	}
	return hint
}

// relationDeltas splits a signed impact into friendship/hostility deltas.
func relationDeltas(impact float64) (friendship, hostility float64) {
	if impact > 0 {
		return impact, 0
	}
	return 0, -impact
}

func witnessed(participants []string, witness string) bool {
	for _, id := range participants {
		if id == witness {
			return true
		}
	}
	return false
}

// QueryLocal returns the entity's top-k records by relevance. Pure read.
func (m *Manager) QueryLocal(entityID string, topK int) ([]*core.Record, error) {
	m.mu.Lock()
	store, ok := m.locals[entityID]
	now := m.clock
	m.mu.Unlock()
	if !ok {
		return nil, core.NewValidationError("unknown entity %q", entityID)
	}
	return store.Query(now, topK), nil
}

// Recall returns the entity's top-k records and marks them re-accessed:
// records surfaced into LLM context reset their decay and bump their
// generation, so a pending digest covering them is discarded as stale.
func (m *Manager) Recall(entityID string, topK int) ([]*core.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.locals[entityID]
	if !ok {
		return nil, core.NewValidationError("unknown entity %q", entityID)
	}
	records := store.Query(m.clock, topK)
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	store.Touch(ids, m.clock)
	return records, nil
}

// QueryGlobal returns world records matching the filter, ordered by
// descending relevance then recency. Pure read.
func (m *Manager) QueryGlobal(f memory.Filter) []*core.Record {
	m.mu.Lock()
	now := m.clock
	m.mu.Unlock()
	return m.global.Query(now, f)
}

// WorldContext returns up to limit world records that are still relevant
// (at or above the configured relevance floor), most relevant first. This is
// the world-state slice a narration layer prepends to its prompt.
func (m *Manager) WorldContext(limit int) []*core.Record {
	return m.QueryGlobal(memory.Filter{
		MinRelevance: m.cfg.RelevanceFloor,
		Limit:        limit,
	})
}

// Relationship returns the symmetric relationship record for a pair, or the
// neutral default if they never interacted. Never creates state.
func (m *Manager) Relationship(a, b string) core.Relationship {
	return m.social.Relationship(a, b)
}

// Neighbors returns every relationship of one entity keyed by the other
// participant.
func (m *Manager) Neighbors(entityID string) map[string]core.Relationship {
	return m.social.Neighbors(entityID)
}

// maybeSummarizeLocked assembles and dispatches a summarization request when
// the schedule (or a pending retry) calls for one. At most one request is
// outstanding at a time.
func (m *Manager) maybeSummarizeLocked(now core.Tick) {
	if m.summarizer == nil || m.cfg.SummaryInterval <= 0 || m.inFlight {
		return
	}
	due := uint64(now)%uint64(m.cfg.SummaryInterval) == 0
	if !due && !m.pendingRetry {
		return
	}

	req, ok := m.collectBatchLocked(now)
	if !ok {
		m.pendingRetry = false
		return
	}
	m.inFlight = true
	m.pendingRetry = false
	m.logger.Debug("summarization dispatched", "request_id", req.ID, "sources", len(req.Sources))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		start := time.Now()
		digest, err := m.summarizer.Summarize(m.ctx, req)
		if m.ctx.Err() != nil {
			// Session ended; abandon without touching state.
			return
		}
		if err != nil {
			m.failSummarization(req, err, time.Since(start))
			return
		}
		applyErr := m.ApplyDigest(req, digest)
		switch {
		case applyErr == nil:
			m.logger.Info("summarization applied", "request_id", req.ID,
				"sources", len(req.Sources), "duration", time.Since(start).String())
		case errors.As(applyErr, new(*core.StaleDigestError)):
			m.logger.Debug("summarization digest stale", "request_id", req.ID, "error", applyErr.Error())
		default:
			m.logger.Warn("summarization apply failed", "request_id", req.ID, "error", applyErr.Error())
		}
	}()
}

func (m *Manager) failSummarization(req summarize.Request, err error, dur time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	m.pendingRetry = true
	m.logger.Warn("summarization transport failed, will retry", "request_id", req.ID,
		"duration", dur.String(), "error", err.Error())
}

// collectBatchLocked gathers summarization candidates: global records under
// the relevance floor (or the oldest overflow past the count threshold) plus
// each local store's faded tail. Sources are pinned to their current
// generations.
func (m *Manager) collectBatchLocked(now core.Tick) (summarize.Request, bool) {
	var globals []*core.Record
	globals = m.global.Fading(now, m.cfg.RelevanceFloor)
	if len(globals) == 0 && m.global.Len() > m.cfg.GlobalCountThreshold {
		globals = m.global.Oldest(m.global.Len() - m.cfg.GlobalCountThreshold)
	}

	type localCandidate struct {
		entityID string
		rec      *core.Record
	}
	var localTails []localCandidate
	entityIDs := make([]string, 0, len(m.locals))
	for id := range m.locals {
		entityIDs = append(entityIDs, id)
	}
	sort.Strings(entityIDs)
	for _, id := range entityIDs {
		for _, rec := range m.locals[id].Tail(now, m.cfg.LocalTailSize) {
			if rec.Relevance < m.cfg.RelevanceFloor {
				localTails = append(localTails, localCandidate{entityID: id, rec: rec})
			}
		}
	}

	if len(globals) == 0 && len(localTails) == 0 {
		return summarize.Request{}, false
	}

	var (
		sources  []summarize.SourceRef
		contents []string
		records  []*core.Record
		from     = now
		to       core.Tick
	)
	add := func(rec *core.Record, scope core.Scope, entityID string) {
		sources = append(sources, summarize.SourceRef{
			RecordID:   rec.ID,
			Generation: rec.Generation,
			Scope:      scope,
			EntityID:   entityID,
		})
		contents = append(contents, rec.Content)
		records = append(records, rec)
		if rec.CreatedAt < from {
			from = rec.CreatedAt
		}
		if rec.CreatedAt > to {
			to = rec.CreatedAt
		}
	}
	for _, rec := range globals {
		add(rec, core.ScopeGlobal, "")
	}
	for _, lc := range localTails {
		add(lc.rec, core.ScopeLocal, lc.entityID)
	}

	return summarize.Request{
		ID:         core.NewID(),
		WorldID:    m.worldID,
		SubjectIDs: core.UnionSubjects(records),
		Contents:   contents,
		FromTick:   from,
		ToTick:     to,
		Sources:    sources,
	}, true
}

// ApplyDigest atomically replaces the request's source records with one
// compact digest record. Before mutating anything it verifies that every
// source still exists at the pinned generation; any mismatch returns a
// StaleDigestError and leaves all stores untouched, which makes application
// idempotent: a duplicate delivery of the same digest finds its sources
// gone and is discarded.
//
// The digest record lands in world memory carrying the union of the source
// subjects, the maximum of their importances and CreatedAt equal to the
// current logical time.
func (m *Manager) ApplyDigest(req summarize.Request, digest summarize.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	for _, src := range req.Sources {
		gen, ok := m.generationLocked(src)
		if !ok || gen != src.Generation {
			return &core.StaleDigestError{RecordID: src.RecordID}
		}
	}

	maxImportance := 1
	for _, rec := range m.removeSourcesLocked(req.Sources) {
		if rec.Importance > maxImportance {
			maxImportance = rec.Importance
		}
	}

	rec := core.NewRecord(core.ScopeGlobal, digest.Text, req.SubjectIDs, maxImportance, m.clock)
	rec.Digest = true
	return m.global.Append(rec)
}

func (m *Manager) generationLocked(src summarize.SourceRef) (uint64, bool) {
	switch src.Scope {
	case core.ScopeGlobal:
		return m.global.Generation(src.RecordID)
	case core.ScopeLocal:
		store, ok := m.locals[src.EntityID]
		if !ok {
			return 0, false
		}
		return store.Generation(src.RecordID)
	}
	return 0, false
}

func (m *Manager) removeSourcesLocked(sources []summarize.SourceRef) []*core.Record {
	removed := make([]*core.Record, 0, len(sources))
	for _, src := range sources {
		switch src.Scope {
		case core.ScopeGlobal:
			if rec, ok := m.global.Get(src.RecordID); ok {
				removed = append(removed, rec)
				m.global.Remove(src.RecordID)
			}
		case core.ScopeLocal:
			if store, ok := m.locals[src.EntityID]; ok {
				if rec, ok := store.Get(src.RecordID); ok {
					removed = append(removed, rec)
					store.Remove(src.RecordID)
				}
			}
		}
	}
	return removed
}

// Snapshot returns a full serializable image of the engine: all tiers, the
// registry with tombstones, and the logical clock.
func (m *Manager) Snapshot() *core.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	entities := make([]string, 0, len(m.entities))
	for id := range m.entities {
		entities = append(entities, id)
	}
	sort.Strings(entities)
	tombstones := make([]string, 0, len(m.tombstones))
	for id := range m.tombstones {
		tombstones = append(tombstones, id)
	}
	sort.Strings(tombstones)

	local := make(map[string][]*core.Record, len(m.locals))
	for id, store := range m.locals {
		local[id] = store.Records()
	}

	return &core.Snapshot{
		WorldID:    m.worldID,
		Clock:      m.clock,
		Entities:   entities,
		Tombstones: tombstones,
		Global:     m.global.Records(),
		Local:      local,
		Relations:  m.social.Edges(),
	}
}

// Restore replaces engine state verbatim with the snapshot. Cached relevance
// is recomputed against the restored clock.
func (m *Manager) Restore(snap *core.Snapshot) error {
	if snap == nil {
		return core.NewValidationError("nil snapshot")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.worldID = snap.WorldID
	m.clock = snap.Clock
	m.entities = make(map[string]struct{}, len(snap.Entities))
	m.tombstones = make(map[string]struct{}, len(snap.Tombstones))
	m.locals = make(map[string]*memory.LocalStore, len(snap.Entities))
	for _, id := range snap.Tombstones {
		m.tombstones[id] = struct{}{}
	}
	for _, id := range snap.Entities {
		m.entities[id] = struct{}{}
		m.locals[id] = memory.NewLocalStore(id, m.cfg.MaxMemoryItems, m.cfg.ImportanceThreshold, m.policy)
	}
	for id, records := range snap.Local {
		store, ok := m.locals[id]
		if !ok {
			return core.NewValidationError("snapshot has local memory for unregistered entity %q", id)
		}
		store.Restore(records)
		store.Tick(m.clock)
	}
	m.global.Restore(snap.Global)
	m.global.Tick(m.clock)
	m.social.Restore(snap.Relations)
	m.pendingRetry = false
	return nil
}

// SaveSnapshot persists the current state through the configured snapshot
// store.
func (m *Manager) SaveSnapshot(ctx context.Context) error {
	if m.snapshots == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	return m.snapshots.Save(ctx, m.Snapshot())
}

// LoadSnapshot restores state from the configured snapshot store.
func (m *Manager) LoadSnapshot(ctx context.Context) error {
	if m.snapshots == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	snap, err := m.snapshots.Load(ctx, m.worldID)
	if err != nil {
		return err
	}
	return m.Restore(snap)
}

// Stats summarizes store sizes for diagnostics.
type Stats struct {
	Clock         core.Tick
	GlobalRecords int
	LocalRecords  map[string]int
	Relations     int
}

// Stats returns current store sizes.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	local := make(map[string]int, len(m.locals))
	for id, store := range m.locals {
		local[id] = store.Len()
	}
	return Stats{
		Clock:         m.clock,
		GlobalRecords: m.global.Len(),
		LocalRecords:  local,
		Relations:     m.social.Len(),
	}
}
