package testutil

import (
	"github.com/hallorn/engram/core"
)

// RecordBuilder provides a fluent helper for constructing memory records
// in tests. Defaults produce a valid local-scoped record created at tick 0.
type RecordBuilder struct {
	id         string
	scope      core.Scope
	content    string
	subjectIDs []string
	importance int
	createdAt  core.Tick
}

// NewRecordBuilder creates a builder with sensible defaults.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		scope:      core.ScopeLocal,
		content:    "a memory",
		importance: 5,
	}
}

// ID overrides the auto-generated record ID (chainable). Use mainly in
// tests where determinism matters.
func (b *RecordBuilder) ID(id string) *RecordBuilder { b.id = id; return b }

// Scope sets the record scope (chainable).
func (b *RecordBuilder) Scope(s core.Scope) *RecordBuilder { b.scope = s; return b }

// Global sets the record scope to global (chainable).
func (b *RecordBuilder) Global() *RecordBuilder { b.scope = core.ScopeGlobal; return b }

// Content sets the record content (chainable).
func (b *RecordBuilder) Content(c string) *RecordBuilder { b.content = c; return b }

// Subjects sets the referenced entity IDs (chainable).
func (b *RecordBuilder) Subjects(ids ...string) *RecordBuilder { b.subjectIDs = ids; return b }

// Importance sets the record importance (chainable).
func (b *RecordBuilder) Importance(i int) *RecordBuilder { b.importance = i; return b }

// CreatedAt sets the creation tick (chainable).
func (b *RecordBuilder) CreatedAt(t core.Tick) *RecordBuilder { b.createdAt = t; return b }

// Build assembles the record.
func (b *RecordBuilder) Build() *core.Record {
	rec := core.NewRecord(b.scope, b.content, b.subjectIDs, b.importance, b.createdAt)
	if b.id != "" {
		rec.ID = b.id
	}
	return rec
}
