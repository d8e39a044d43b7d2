// Package validator implements the execute-tool contract of spec §4.E: JSON
// schema validation, sanitization, precondition recheck, per-tool handler
// dispatch, and effect application, wrapped in a single ToolResult envelope.
package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/world"
)

// ToolResult is the envelope every Execute call returns: the facts a
// narrator can read, the effects (if any) that were applied, and an
// aggregated narration hint.
type ToolResult struct {
	OK            bool
	ToolID        string
	Args          map[string]any
	Facts         map[string]any
	Effects       []world.Effect
	ApplyOptions  *effects.ApplyOptions
	NarrationHint map[string]any
	ErrorMessage  string
	IsCompound    bool
}

// Executor holds the tool catalog, the effect engine, and the supporting
// registries (items, social outcomes) every handler consults.
type Executor struct {
	Catalog        map[string]toolcatalog.Tool
	EffectEngine   *effects.Engine
	ItemRegistry   *ItemRegistry
	SocialOutcomes *SocialOutcomeTable
	Now            func() time.Time
}

// NewExecutor wires a default Executor around engine, using the built-in
// fallback item and social-outcome registries.
func NewExecutor(engine *effects.Engine) *Executor {
	return &Executor{
		Catalog:        toolcatalog.Catalog(),
		EffectEngine:   engine,
		ItemRegistry:   DefaultItemRegistry(),
		SocialOutcomes: DefaultSocialOutcomes(),
		Now:            time.Now,
	}
}

type handlerCtx struct {
	gs        *world.GameState
	args      map[string]any
	utterance string
	seed      int64
	ex        *Executor
}

// Execute runs the full nine-step execution contract for one tool call.
// seed, when nil, is derived from ex.Now(); rawArgs is never mutated.
func (ex *Executor) Execute(gs *world.GameState, toolID string, rawArgs map[string]any, utterance string, seed *int64) ToolResult {
	// Step 1: pending-choice capture. A live, unexpired choice intercepts
	// the call and may redirect toolID/rawArgs to the matched option. The
	// option's precondition was already satisfied when ask_clarifying
	// offered it, so a resolved choice skips the step-6 recheck — the
	// player's disambiguating utterance ("the left door") need not itself
	// mention what the option's args_patch already supplies.
	choiceResolved := false
	if pc := gs.Scene.PendingChoice; pc != nil && !pc.Expired(gs.Scene.Round) {
		if opt, matched := matchChoice(pc, rawArgs, utterance); matched {
			toolID = opt.ToolID
			merged := make(map[string]any, len(opt.ArgsPatch)+len(rawArgs))
			for k, v := range opt.ArgsPatch {
				merged[k] = v
			}
			for k, v := range rawArgs {
				merged[k] = v
			}
			rawArgs = merged
			gs.Scene.PendingChoice = nil
			choiceResolved = true
		}
	}

	// Step 2: seed derivation.
	var s int64
	if seed != nil {
		s = *seed
	} else {
		s = ex.Now().UnixNano() % 10000
	}

	// Step 3: tool lookup.
	tool, ok := ex.Catalog[toolID]
	if !ok {
		return ex.fallbackAskClarifying(gs, fmt.Sprintf("unknown tool %q", toolID))
	}

	// Step 4: schema validation.
	if err := tool.ArgSchema.Validate(rawArgs); err != nil {
		return ex.fallbackAskClarifying(gs, fmt.Sprintf("%s: invalid arguments: %v", toolID, err))
	}

	// Step 5: sanitization.
	args := sanitize(rawArgs)

	// Step 6: precondition recheck — the affordance filter already
	// screened candidates, but world state may have shifted since.
	if !choiceResolved && tool.Precondition != nil && !tool.Precondition(gs, utterance) {
		return ex.fallbackAskClarifying(gs, fmt.Sprintf("%s: precondition no longer holds", toolID))
	}

	// Step 7: per-tool handler dispatch.
	hctx := handlerCtx{gs: gs, args: args, utterance: utterance, seed: s, ex: ex}
	result, err := dispatchHandler(toolID, hctx)
	if err != nil {
		return ex.fallbackAskClarifying(gs, err.Error())
	}
	result.Args = args
	if result.ToolID == "" {
		result.ToolID = toolID
	}
	result.OK = true

	// Step 8: effect application.
	if len(result.Effects) > 0 && ex.EffectEngine != nil {
		opts := effects.ApplyOptions{Actor: gs.CurrentActor, Transactional: true, Mode: effects.ModeStrict, Seed: s}
		if result.ApplyOptions != nil {
			opts = *result.ApplyOptions
		}
		applyRes := ex.EffectEngine.ApplyEffects(gs, result.Effects, opts)
		if !applyRes.OK {
			result.OK = false
			result.ErrorMessage = applyRes.ErrorMessage
		}
		if result.Facts == nil {
			result.Facts = map[string]any{}
		}
		result.Facts["diff_summary"] = applyRes.DiffSummary
		if result.NarrationHint == nil {
			result.NarrationHint = applyRes.NarrationHint
		} else {
			result.NarrationHint["effects_summary"] = applyRes.NarrationHint["summary"]
		}
	}

	// Step 9: envelope return.
	return result
}

// fallbackAskClarifying is the step-4/6/unknown-tool failure path: surface a
// clarification unless the turn's choice budget is already spent, in which
// case downgrade straight to narrate_only.
func (ex *Executor) fallbackAskClarifying(gs *world.GameState, reason string) ToolResult {
	if gs.Scene.ChoiceCountThisTurn >= world.MaxChoicesPerTurn {
		return ToolResult{
			OK:     true,
			ToolID: toolcatalog.NarrateOnly,
			Facts:  map[string]any{"downgraded_from": toolcatalog.AskClarifying, "reason": reason},
			NarrationHint: map[string]any{
				"summary":       "the moment passes without a clean answer",
				"sentences_max": 2,
			},
		}
	}
	return ToolResult{
		OK:     true,
		ToolID: toolcatalog.AskClarifying,
		Facts:  map[string]any{"reason": reason},
		NarrationHint: map[string]any{
			"summary":       "a clarification is needed: " + reason,
			"sentences_max": 1,
		},
	}
}

// matchChoice resolves one PendingChoice against an incoming call: an exact
// "choice_id" argument wins outright, otherwise the option id or every word
// of its label must appear in utterance. Label words of two letters or fewer
// are not counted, so a label containing one never matches by label.
func matchChoice(pc *world.PendingChoice, rawArgs map[string]any, utterance string) (world.ChoiceOption, bool) {
	if idRaw, ok := rawArgs["choice_id"]; ok {
		if id, ok := idRaw.(string); ok {
			for _, opt := range pc.Options {
				if opt.ID == id {
					return opt, true
				}
			}
		}
	}
	lower := strings.ToLower(utterance)
	if lower == "" {
		return world.ChoiceOption{}, false
	}
	for _, opt := range pc.Options {
		if opt.ID != "" && strings.Contains(lower, strings.ToLower(opt.ID)) {
			return opt, true
		}
	}
	for _, opt := range pc.Options {
		words := strings.Fields(strings.ToLower(opt.Label))
		if len(words) == 0 {
			continue
		}
		matched := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(lower, w) {
				matched++
			}
		}
		if matched == len(words) {
			return opt, true
		}
	}
	return world.ChoiceOption{}, false
}
