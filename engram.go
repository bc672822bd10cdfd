// Package engram provides a high-level façade over the tiered memory engine
// for LLM-narrated game worlds. Most applications interact with this package
// by:
//  1. Creating a World via New() (optionally wiring a summarizer, snapshot
//     store and logger)
//  2. Registering the entities the world loader knows about
//  3. Feeding game events through ProcessEvent and assembling narration
//     context with Recall / QueryGlobal / Relationship
//
// The façade delegates orchestration to engine.Manager while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; persistent games typically supply a snapshot store and a
// structured logger.
package engram

import (
	"context"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/engine"
	"github.com/hallorn/engram/logging"
	"github.com/hallorn/engram/memory"
	"github.com/hallorn/engram/summarize"
)

// Options configures the World instance.
type Options struct {
	// Config contains the decay, capacity and summarization policy.
	Config engine.Config

	// Summarizer compacts fading memories into digests. Nil disables
	// summarization; everything else keeps working.
	Summarizer summarize.Summarizer

	// Snapshots persists world state for save/load. Nil keeps the world
	// purely in-memory.
	Snapshots core.SnapshotStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Entities is the initial registered-entity set.
	Entities []string
}

// World is the high-level façade aggregating the memory tiers for one game
// session.
type World struct {
	manager *engine.Manager
}

// New creates a memory world with optional overrides.
func New(worldID string, optFns ...func(o *Options)) *World {
	opts := Options{
		Config: engine.DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := engine.New(worldID, func(o *engine.Options) {
		o.Config = opts.Config
		o.Summarizer = opts.Summarizer
		o.Snapshots = opts.Snapshots
		o.Logger = opts.Logger
		o.Entities = opts.Entities
	})
	return &World{manager: m}
}

// Close abandons any in-flight summarization and waits for it to settle.
func (w *World) Close() { w.manager.Close() }

// Clock returns the current logical tick.
func (w *World) Clock() core.Tick { return w.manager.Clock() }

// RegisterEntity adds an entity so events may reference it and it receives
// a bounded personal memory store.
func (w *World) RegisterEntity(id string) error { return w.manager.RegisterEntity(id) }

// RemoveEntity deletes an entity and purges every memory and relationship
// that references it.
func (w *World) RemoveEntity(id string) error { return w.manager.RemoveEntity(id) }

// Registered reports whether an entity is currently part of the world.
func (w *World) Registered(id string) bool { return w.manager.Registered(id) }

// ProcessEvent advances the clock one tick and runs the full
// ingest→decay→evict(→summarize) cycle for one game event.
func (w *World) ProcessEvent(ev core.GameEvent) error { return w.manager.ProcessEvent(ev) }

// Recall returns an entity's topK most relevant memories and marks them
// accessed, reinforcing them against decay.
func (w *World) Recall(entityID string, topK int) ([]*core.Record, error) {
	return w.manager.Recall(entityID, topK)
}

// QueryLocal returns an entity's topK most relevant memories without
// touching them.
func (w *World) QueryLocal(entityID string, topK int) ([]*core.Record, error) {
	return w.manager.QueryLocal(entityID, topK)
}

// QueryGlobal returns world-scoped memories matching the filter, most
// relevant first.
func (w *World) QueryGlobal(f memory.Filter) []*core.Record {
	return w.manager.QueryGlobal(f)
}

// WorldContext returns up to limit still-relevant world records, most
// relevant first.
func (w *World) WorldContext(limit int) []*core.Record {
	return w.manager.WorldContext(limit)
}

// Relationship returns the symmetric relationship between two entities,
// neutral if they have never interacted.
func (w *World) Relationship(a, b string) core.Relationship {
	return w.manager.Relationship(a, b)
}

// Neighbors returns every entity the given one has a relationship with.
func (w *World) Neighbors(entityID string) map[string]core.Relationship {
	return w.manager.Neighbors(entityID)
}

// Snapshot captures the full world state for persistence.
func (w *World) Snapshot() *core.Snapshot { return w.manager.Snapshot() }

// Restore replaces the world state with a previously captured snapshot.
func (w *World) Restore(snap *core.Snapshot) error { return w.manager.Restore(snap) }

// SaveSnapshot persists the current state through the configured snapshot
// store.
func (w *World) SaveSnapshot(ctx context.Context) error { return w.manager.SaveSnapshot(ctx) }

// LoadSnapshot restores state previously saved for this world.
func (w *World) LoadSnapshot(ctx context.Context) error { return w.manager.LoadSnapshot(ctx) }

// Stats reports store sizes and the current clock.
func (w *World) Stats() engine.Stats { return w.manager.Stats() }
