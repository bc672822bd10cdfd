package core

// EventType classifies a game event for memory routing. The manager maps each
// type to the set of memory tiers it writes.
type EventType string

const (
	// EventWorld is a world-level happening: recorded globally and, when
	// entities are involved, in their local memories.
	EventWorld EventType = "world"
	// EventInteraction is a direct exchange between the actor and one
	// target: recorded socially, locally for both sides and for witnesses,
	// and globally when important enough.
	EventInteraction EventType = "interaction"
	// EventObservation is something the actor alone perceived: recorded
	// only in the actor's local memory.
	EventObservation EventType = "observation"
	// EventStateChange is a change to the actor's own state: recorded
	// globally and in the actor's local memory.
	EventStateChange EventType = "statechange"
)

// Valid reports whether the event type is known.
func (t EventType) Valid() bool {
	switch t {
	case EventWorld, EventInteraction, EventObservation, EventStateChange:
		return true
	}
	return false
}

// GameEvent is the structured report the game loop emits after each player
// action. The engine validates structure (known type, registered entities)
// but never narrative plausibility.
//
// Impact expresses how the event moves the actor/target relationship:
// positive values raise friendship, negative values raise hostility. It is
// only consulted for interaction events.
type GameEvent struct {
	Type           EventType `json:"type"`
	ActorID        string    `json:"actor_id"`
	TargetIDs      []string  `json:"target_ids,omitempty"`
	WitnessIDs     []string  `json:"witness_ids,omitempty"`
	Description    string    `json:"description"`
	ImportanceHint int       `json:"importance_hint"`
	Impact         float64   `json:"impact,omitempty"`
}

// Participants returns the actor and targets, deduplicated, actor first.
func (e GameEvent) Participants() []string {
	ids := make([]string, 0, len(e.TargetIDs)+1)
	if e.ActorID != "" {
		ids = append(ids, e.ActorID)
	}
	ids = append(ids, e.TargetIDs...)
	return dedupe(ids)
}

// Entities returns every entity the event mentions, witnesses included.
func (e GameEvent) Entities() []string {
	return dedupe(append(e.Participants(), e.WitnessIDs...))
}
