// Package planner defines the external planning contract the turn pipeline
// consumes (spec §6): given an utterance and a redacted view of the world,
// produce an ordered tool-call sequence. Concrete adapters (Anthropic,
// OpenAI, Bedrock) live under internal/planner and implement Planner; the
// pipeline itself only ever talks to this interface.
package planner

import "context"

// Candidate mirrors one affordance-filtered tool offering: a tool id worth
// considering, a starting argument hint, and a confidence score. The
// pipeline builds these from the affordance filter; this package stays
// independent of that one so the contract can be implemented without
// pulling in world-state internals.
type Candidate struct {
	ID          string
	Description string
	ArgsHint    map[string]any
	Confidence  float64
}

// ActionStep is one planner-proposed tool call: a tool id from the catalog
// and the arguments to validate against its schema.
type ActionStep struct {
	Tool string
	Args map[string]any
}

// Request is what the pipeline hands to a Planner.
type Request struct {
	Utterance  string
	ActorID    string
	WorldView  map[string]any
	Candidates []Candidate
}

// Result is the planner contract's return envelope. A false OK with a
// non-empty Error means the planner itself failed (LLM timeout, malformed
// response); it does not mean the in-fiction action failed.
type Result struct {
	OK         bool
	Actions    []ActionStep
	Confidence float64
	Error      string
}

// Planner invokes an external collaborator to turn an utterance into an
// ordered tool-call sequence. Implementations may block on network I/O;
// ctx governs cancellation and timeout — the pipeline itself carries none.
type Planner interface {
	Plan(ctx context.Context, req Request) (Result, error)
}

// StagedPlanner is an optional two-stage extension: a first pass narrows
// intent to a short list of plausible tool ids, a second commits to
// concrete arguments against that narrowed set. The contract's return shape
// is identical to Plan; when a planner implements StagedPlanner the pipeline
// calls PlanStaged instead of Plan and handles the Result the same way.
type StagedPlanner interface {
	Planner
	PlanStaged(ctx context.Context, req Request) (Result, error)
}
