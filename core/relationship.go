package core

// RelationScoreMax bounds friendship and hostility scores; deltas are clamped
// so scores always stay in [-RelationScoreMax, RelationScoreMax].
const RelationScoreMax = 1.0

// Relationship captures how two entities stand toward each other. Scores are
// symmetric by construction: there is exactly one Relationship per unordered
// entity pair and it answers queries for both directions.
type Relationship struct {
	Friendship        float64 `json:"friendship"`
	Hostility         float64 `json:"hostility"`
	LastInteractionAt Tick    `json:"last_interaction_at"`
}

// NeutralRelationship is returned for pairs that never interacted. Querying
// it must not create stored state.
func NeutralRelationship() Relationship { return Relationship{} }

// PairKey is the canonical identifier of an unordered entity pair: A is
// always the lexicographically smaller ID. Using it as the sole map key rules
// out directed-edge duplicates.
type PairKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPairKey canonicalizes the pair so NewPairKey(x, y) == NewPairKey(y, x).
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Involves reports whether the pair mentions the given entity.
func (k PairKey) Involves(entityID string) bool {
	return k.A == entityID || k.B == entityID
}

// ClampScore bounds a relationship score to the legal range.
func ClampScore(v float64) float64 {
	if v > RelationScoreMax {
		return RelationScoreMax
	}
	if v < -RelationScoreMax {
		return -RelationScoreMax
	}
	return v
}
