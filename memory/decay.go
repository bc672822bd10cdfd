package memory

import (
	"math"

	"github.com/hallorn/engram/core"
)

// maxImportanceWeight is the decay slowdown of the highest importance tier
// relative to the lowest. A ceiling-tier record ages three times slower than
// an importance-1 record.
const maxImportanceWeight = 3.0

// DecayPolicy maps a record's age and importance to a current relevance score
// in [0, 1]. It is a pure function of its inputs: relevance is monotonically
// non-increasing in the ticks elapsed since last access (importance fixed)
// and non-decreasing in importance (age fixed).
//
// The formula is exponential decay over logical time with a per-tier
// importance weight dividing the effective rate:
//
//	relevance = exp(-rate * age / weight(importance))
//
// so higher importance decays slower rather than merely starting higher.
type DecayPolicy struct {
	// Rate is the decay constant per logical tick.
	Rate float64
	// Ceiling is the highest importance value; it bounds reinforcement and
	// anchors the top of the importance weight scale.
	Ceiling int
}

// NewDecayPolicy builds a policy, falling back to a rate of 0.1 and a ceiling
// of 10 for non-positive inputs.
func NewDecayPolicy(rate float64, ceiling int) DecayPolicy {
	if rate <= 0 {
		rate = 0.1
	}
	if ceiling < 2 {
		ceiling = 10
	}
	return DecayPolicy{Rate: rate, Ceiling: ceiling}
}

// Relevance returns the record's current relevance at logical time now.
// A record accessed this tick scores 1.0 regardless of importance; the floor
// is 0 and relevance never goes negative.
func (p DecayPolicy) Relevance(rec *core.Record, now core.Tick) float64 {
	var age float64
	if now > rec.LastAccessedAt {
		age = float64(now - rec.LastAccessedAt)
	}
	rel := math.Exp(-p.Rate * age / p.weight(rec.Importance))
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}

// weight maps importance to a decay slowdown factor, linear from 1.0 at the
// lowest tier to maxImportanceWeight at the ceiling tier.
func (p DecayPolicy) weight(importance int) float64 {
	if importance < 1 {
		importance = 1
	}
	if importance > p.Ceiling {
		importance = p.Ceiling
	}
	span := float64(p.Ceiling - 1)
	return 1 + (maxImportanceWeight-1)*float64(importance-1)/span
}
