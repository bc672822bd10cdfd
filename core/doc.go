// Package core holds the shared data model and contracts of the memory
// engine: records and their logical timestamps, game events, relationship
// pairs, the error taxonomy and the snapshot format. Store implementations
// live in the memory package and orchestration in the engine package; both
// depend only on the types defined here, keeping the dependency graph
// acyclic.
package core
