// Package summarize defines the contract between the memory engine and the
// external narrative-generation collaborator. The engine assembles a Request
// (verbatim record contents, subjects, time range, generation-pinned source
// refs) and the collaborator returns a Digest; the actual model invocation
// lives behind the Summarizer interface with vendor adapters in the anthropic
// and openai subpackages. Depend on summarize.Summarizer in your code and
// pick an adapter at wiring time.
package summarize
