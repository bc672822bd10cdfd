package core

import "context"

// RelationEdge is the serializable form of one unordered-pair relationship.
type RelationEdge struct {
	Pair PairKey      `json:"pair"`
	Rel  Relationship `json:"rel"`
}

// Snapshot is a full serializable image of the memory engine: all three
// tiers, the entity registry (tombstones included), generation counters and
// the logical clock. Restoring a snapshot reproduces engine state verbatim;
// cached relevance values are recomputed after restore.
type Snapshot struct {
	WorldID    string               `json:"world_id"`
	Clock      Tick                 `json:"clock"`
	Entities   []string             `json:"entities"`
	Tombstones []string             `json:"tombstones,omitempty"`
	Global     []*Record            `json:"global"`
	Local      map[string][]*Record `json:"local"`
	Relations  []RelationEdge       `json:"relations"`
}

// SnapshotStore persists snapshots for save/load. Implementations live in the
// snapshot package (JSON files, sqlite); the engine only depends on this
// contract.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, worldID string) (*Snapshot, error)
}
