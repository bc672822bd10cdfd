// Package engine contains the Manager that orchestrates the three memory
// tiers for one game session: event classification and all-or-nothing
// ingestion, the per-action decay tick, capacity eviction, and asynchronous
// summarization with generation-based staleness detection. Policy lives in
// an explicit Config (optionally loaded from yaml) so concurrent sessions
// can run with different settings.
package engine
