package memory

import (
	"sort"
	"sync"

	"github.com/hallorn/engram/core"
)

// SocialGraph stores one relationship record per unordered entity pair.
// Pairs are created lazily on first interaction and destroyed only when a
// participant is removed. Because the arena is keyed by the canonical
// PairKey, Reinforce(a, b, ...) and Reinforce(b, a, ...) hit the same record
// and symmetry holds by construction.
type SocialGraph struct {
	mu        sync.RWMutex
	relations map[core.PairKey]core.Relationship
}

// NewSocialGraph creates an empty relationship arena.
func NewSocialGraph() *SocialGraph {
	return &SocialGraph{relations: make(map[core.PairKey]core.Relationship)}
}

// Reinforce applies friendship/hostility deltas to the pair, creating the
// record if absent. Scores are clamped to the legal range and the interaction
// tick is updated.
func (g *SocialGraph) Reinforce(a, b string, deltaFriendship, deltaHostility float64, now core.Tick) error {
	if a == b {
		return core.NewValidationError("relationship requires two distinct entities, got %q twice", a)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	key := core.NewPairKey(a, b)
	rel := g.relations[key]
	rel.Friendship = core.ClampScore(rel.Friendship + deltaFriendship)
	rel.Hostility = core.ClampScore(rel.Hostility + deltaHostility)
	rel.LastInteractionAt = now
	g.relations[key] = rel
	return nil
}

// Relationship returns the pair's current record, or the neutral default if
// the two never interacted. It is a pure query: no state is created.
func (g *SocialGraph) Relationship(a, b string) core.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if rel, ok := g.relations[core.NewPairKey(a, b)]; ok {
		return rel
	}
	return core.NeutralRelationship()
}

// Known reports whether a stored record exists for the pair.
func (g *SocialGraph) Known(a, b string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.relations[core.NewPairKey(a, b)]
	return ok
}

// RemoveEntity purges every pair record mentioning the entity, returning the
// number of purged pairs.
func (g *SocialGraph) RemoveEntity(entityID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for key := range g.relations {
		if key.Involves(entityID) {
			delete(g.relations, key)
			removed++
		}
	}
	return removed
}

// Neighbors returns the relationships of one entity keyed by the other
// participant. Used for narrative tone context.
func (g *SocialGraph) Neighbors(entityID string) map[string]core.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]core.Relationship)
	for key, rel := range g.relations {
		switch entityID {
		case key.A:
			out[key.B] = rel
		case key.B:
			out[key.A] = rel
		}
	}
	return out
}

// Len returns the number of stored pair records.
func (g *SocialGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relations)
}

// Edges returns the arena as a deterministically ordered slice for
// snapshotting.
func (g *SocialGraph) Edges() []core.RelationEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]core.RelationEdge, 0, len(g.relations))
	for key, rel := range g.relations {
		out = append(out, core.RelationEdge{Pair: key, Rel: rel})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair.A != out[j].Pair.A {
			return out[i].Pair.A < out[j].Pair.A
		}
		return out[i].Pair.B < out[j].Pair.B
	})
	return out
}

// Restore replaces the arena with the snapshot edges.
func (g *SocialGraph) Restore(edges []core.RelationEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.relations = make(map[core.PairKey]core.Relationship, len(edges))
	for _, e := range edges {
		g.relations[e.Pair] = e.Rel
	}
}
