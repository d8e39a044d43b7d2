// Package turnpipeline implements the Runtime aggregate of spec §4.G: the
// per-utterance orchestration that ties the affordance filter, the
// external planner, the validator/executor, and the outcome resolver into
// one sequential turn.
package turnpipeline

import (
	"context"

	"github.com/duskward/ttrpgcore/affordance"
	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/validator"
	"github.com/duskward/ttrpgcore/world"
)

// criticalTools abort a compound sequence on failure; every other tool's
// failure is recorded in its own step envelope and the sequence continues.
var criticalTools = map[string]bool{
	toolcatalog.Move:   true,
	toolcatalog.Attack: true,
}

// Utterance is the player input record the pipeline builds from a raw text
// string and an effective actor id.
type Utterance struct {
	Text    string
	ActorID string
}

// StepEnvelope pairs the tool id actually dispatched (which may differ from
// the planner's proposal if a pending choice redirected it) with its
// result.
type StepEnvelope struct {
	Tool   string
	Result validator.ToolResult
}

// TurnResult is the pipeline's aggregated return value: every per-step
// envelope, a composite narration hint, and whether the sequence was a
// multi-step (compound) one.
type TurnResult struct {
	OK            bool
	Steps         []StepEnvelope
	NarrationHint map[string]any
	IsCompound    bool
	Aborted       bool
	PlannerError  string
}

// Runtime wires the collaborators a turn needs: the affordance filter
// (surfaces candidates to the planner), the planner itself, the
// validator/executor, and an optional outcome resolver.
type Runtime struct {
	Affordance *affordance.Filter
	Planner    planner.Planner
	Executor   *validator.Executor
	Outcomes   OutcomeResolver
}

// NewRuntime wires a Runtime around the given planner, executor and outcome
// resolver, with the package's own default affordance filter.
func NewRuntime(p planner.Planner, executor *validator.Executor, outcomes OutcomeResolver) *Runtime {
	return &Runtime{
		Affordance: affordance.NewFilter(nil),
		Planner:    p,
		Executor:   executor,
		Outcomes:   outcomes,
	}
}

// RunTurn executes spec §4.G's six-step contract for one utterance against
// gs. seed, when nil, is derived by the executor per call (so a compound
// sequence's steps are independently seeded unless the caller pins one).
func (rt *Runtime) RunTurn(ctx context.Context, gs *world.GameState, text, actorID string, seed *int64) TurnResult {
	// Step 1: effective actor.
	actor := actorID
	if actor == "" {
		actor = gs.CurrentActor
	}
	utterance := Utterance{Text: text, ActorID: actor}

	// Step 3: invoke the planner with the affordance-filtered candidates.
	req := planner.Request{
		Utterance:  utterance.Text,
		ActorID:    utterance.ActorID,
		WorldView:  buildWorldView(gs, actor),
		Candidates: convertCandidates(rt.Affordance.GetCandidates(gs, utterance.Text)),
	}
	planRes, err := rt.invokePlanner(ctx, req)
	if err != nil || !planRes.OK {
		return rt.fallbackTurn(gs, utterance, planRes, err, seed)
	}

	// Step 4: execute each action in order.
	steps := make([]StepEnvelope, 0, len(planRes.Actions))
	aborted := false
	for _, action := range planRes.Actions {
		result := rt.Executor.Execute(gs, action.Tool, action.Args, utterance.Text, seed)
		if rt.Outcomes != nil {
			result = rt.Outcomes.ResolveOutcome(gs, result)
		}
		steps = append(steps, StepEnvelope{Tool: result.ToolID, Result: result})
		// A step "fails" either outright (OK=false, an effect-transaction
		// rollback) or by degrading away from the tool the planner actually
		// asked for (precondition/schema recheck routed it to
		// ask_clarifying/narrate_only instead) — in both cases the
		// intended critical action never happened.
		stepFailed := !result.OK || result.ToolID != action.Tool
		if stepFailed && criticalTools[action.Tool] {
			aborted = true
			break
		}
	}

	// Step 5: advance turn/round.
	gs.Scene = gs.Scene.AdvanceTurn()

	// Step 6: aggregate.
	return aggregateSteps(steps, aborted, planRes.Confidence)
}

// invokePlanner calls PlanStaged when the planner implements StagedPlanner,
// otherwise the single-stage Plan. The contract's return shape is
// identical either way; staging only ever changes how the planner itself
// reaches its answer.
func (rt *Runtime) invokePlanner(ctx context.Context, req planner.Request) (planner.Result, error) {
	if staged, ok := rt.Planner.(planner.StagedPlanner); ok {
		return staged.PlanStaged(ctx, req)
	}
	return rt.Planner.Plan(ctx, req)
}

// fallbackTurn handles a planner failure (error or ok=false) by routing
// straight into the executor's own ask_clarifying path, so a down
// collaborator degrades to the same user-visible hesitation a failed
// schema/precondition check would.
func (rt *Runtime) fallbackTurn(gs *world.GameState, u Utterance, planRes planner.Result, err error, seed *int64) TurnResult {
	reason := planRes.Error
	if err != nil {
		reason = err.Error()
	}
	if reason == "" {
		reason = "planner returned no actions"
	}
	result := rt.Executor.Execute(gs, toolcatalog.AskClarifying, map[string]any{
		"question": "I'm not sure what to do with that.",
		"reason":   "ambiguous_intent",
		"options": []any{
			map[string]any{"id": "retry", "label": "try again", "tool_id": toolcatalog.NarrateOnly},
			map[string]any{"id": "wait", "label": "wait and see", "tool_id": toolcatalog.NarrateOnly},
		},
	}, u.Text, seed)
	gs.Scene = gs.Scene.AdvanceTurn()
	return TurnResult{
		OK:            result.OK,
		Steps:         []StepEnvelope{{Tool: result.ToolID, Result: result}},
		NarrationHint: result.NarrationHint,
		PlannerError:  reason,
	}
}

func aggregateSteps(steps []StepEnvelope, aborted bool, confidence float64) TurnResult {
	ok := len(steps) > 0
	stepHints := make([]map[string]any, 0, len(steps))
	for _, s := range steps {
		if !s.Result.OK {
			ok = false
		}
		if s.Result.NarrationHint != nil {
			stepHints = append(stepHints, s.Result.NarrationHint)
		}
	}
	composite := map[string]any{
		"steps":      stepHints,
		"confidence": confidence,
		"aborted":    aborted,
	}
	return TurnResult{
		OK:            ok,
		Steps:         steps,
		NarrationHint: composite,
		IsCompound:    len(steps) > 1,
		Aborted:       aborted,
	}
}

func convertCandidates(cands []affordance.Candidate) []planner.Candidate {
	out := make([]planner.Candidate, len(cands))
	for i, c := range cands {
		out[i] = planner.Candidate{ID: c.ID, Description: c.Description, ArgsHint: c.ArgsHint, Confidence: c.Confidence}
	}
	return out
}
