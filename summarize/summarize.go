package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hallorn/engram/core"
)

// SourceRef pins one summarized record to the generation it had when the
// request was assembled. The engine compares these against live records when
// the digest returns; any mismatch marks the whole digest stale.
type SourceRef struct {
	RecordID   string     `json:"record_id"`
	Generation uint64     `json:"generation"`
	Scope      core.Scope `json:"scope"`
	// EntityID is set for local-scoped sources to identify the owning store.
	EntityID string `json:"entity_id,omitempty"`
}

// Request is the payload handed to the narrative collaborator: the verbatim
// contents of the records to compress, the entities they concern and the
// logical time range they cover. The engine never embeds the LLM call in a
// store mutation path; it only produces this envelope and consumes the
// returned digest.
type Request struct {
	ID         string      `json:"id"`
	WorldID    string      `json:"world_id"`
	SubjectIDs []string    `json:"subject_ids"`
	Contents   []string    `json:"contents"`
	FromTick   core.Tick   `json:"from_tick"`
	ToTick     core.Tick   `json:"to_tick"`
	Sources    []SourceRef `json:"sources"`
}

// Digest is the collaborator's answer: one compact text replacing the
// summarized records.
type Digest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
}

// Summarizer is the external narrative-generation collaborator. It may fail
// or time out; both are treated as retryable transport failures and never
// surface as fatal engine errors.
type Summarizer interface {
	Summarize(ctx context.Context, req Request) (Digest, error)
}

// SummarizerFunc adapts a plain function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, req Request) (Digest, error)

// Summarize calls the wrapped function.
func (f SummarizerFunc) Summarize(ctx context.Context, req Request) (Digest, error) {
	return f(ctx, req)
}

// Prompt renders the request as the instruction text the vendor adapters
// send. Kept here so both adapters produce identical payloads.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString("Condense the following memories of a role-playing world into a single short paragraph. ")
	b.WriteString("Keep every named entity and concrete fact; drop narration and filler. ")
	fmt.Fprintf(&b, "The memories cover events %d through %d", req.FromTick, req.ToTick)
	if len(req.SubjectIDs) > 0 {
		fmt.Fprintf(&b, " and concern: %s", strings.Join(req.SubjectIDs, ", "))
	}
	b.WriteString(".\n\n")
	for i, content := range req.Contents {
		fmt.Fprintf(&b, "%d. %s\n", i+1, content)
	}
	return b.String()
}
