// Package memory contains the three store tiers of the engine (world-scoped
// GlobalStore, per-entity bounded LocalStore and the pairwise SocialGraph)
// plus the DecayPolicy that derives relevance from importance and logical
// age. The stores hold state and enforce their own invariants (ordering,
// capacity, pair symmetry); orchestration across stores belongs to the engine
// package.
//
// Concurrency: every store guards itself with an RWMutex giving
// exclusive-write, shared-read semantics. Query methods return defensive
// copies so callers can never mutate store internals.
package memory
