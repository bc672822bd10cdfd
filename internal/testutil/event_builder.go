package testutil

import (
	"github.com/hallorn/engram/core"
)

// EventBuilder provides a fluent helper for constructing game events in
// tests. Example:
//
//	ev := NewEventBuilder().Interaction("alice", "bob").Describe("trade").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	eventType   core.EventType
	actorID     string
	targetIDs   []string
	witnessIDs  []string
	description string
	importance  int
	impact      float64
}

// NewEventBuilder creates a builder for a world event with a default
// description.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		eventType:   core.EventWorld,
		description: "something happened",
	}
}

// World marks the event as a world-scoped occurrence (chainable).
func (b *EventBuilder) World() *EventBuilder {
	b.eventType = core.EventWorld
	return b
}

// Interaction marks the event as an interaction between an actor and one or
// more targets (chainable).
func (b *EventBuilder) Interaction(actor string, targets ...string) *EventBuilder {
	b.eventType = core.EventInteraction
	b.actorID = actor
	b.targetIDs = targets
	return b
}

// Observation marks the event as something privately noticed by the actor
// (chainable).
func (b *EventBuilder) Observation(actor string) *EventBuilder {
	b.eventType = core.EventObservation
	b.actorID = actor
	return b
}

// StateChange marks the event as a durable change to the actor's state
// (chainable).
func (b *EventBuilder) StateChange(actor string) *EventBuilder {
	b.eventType = core.EventStateChange
	b.actorID = actor
	return b
}

// Actor sets the acting entity (chainable).
func (b *EventBuilder) Actor(id string) *EventBuilder { b.actorID = id; return b }

// Targets sets the target entities (chainable).
func (b *EventBuilder) Targets(ids ...string) *EventBuilder { b.targetIDs = ids; return b }

// Witnesses sets the bystanders that observe the event (chainable).
func (b *EventBuilder) Witnesses(ids ...string) *EventBuilder { b.witnessIDs = ids; return b }

// Describe sets the narrative description (chainable).
func (b *EventBuilder) Describe(d string) *EventBuilder { b.description = d; return b }

// Importance sets the importance hint (chainable).
func (b *EventBuilder) Importance(i int) *EventBuilder { b.importance = i; return b }

// Impact sets the relationship impact, negative for hostile acts
// (chainable).
func (b *EventBuilder) Impact(v float64) *EventBuilder { b.impact = v; return b }

// Build assembles the event.
func (b *EventBuilder) Build() core.GameEvent {
	return core.GameEvent{
		Type:           b.eventType,
		ActorID:        b.actorID,
		TargetIDs:      b.targetIDs,
		WitnessIDs:     b.witnessIDs,
		Description:    b.description,
		ImportanceHint: b.importance,
		Impact:         b.impact,
	}
}
