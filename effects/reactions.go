package effects

import (
	"github.com/duskward/ttrpgcore/internal/condition"
	"github.com/duskward/ttrpgcore/world"
)

// maxReactionDepth caps cascading reactive expansion, per spec §4.F.
const maxReactionDepth = 3

// ReactiveRule is one entry of the static reactive rule set: when a primary
// (or previously reactive) LogEntry of TriggerType satisfies
// TriggerCondition, Build produces the follow-on effect templates to apply.
// TriggerCondition is evaluated via the restricted condition language
// against a context scoped to the triggering LogEntry's own before/after
// (not the full world), since a reaction fires off exactly one log entry.
type ReactiveRule struct {
	Name             string
	TriggerType      world.EffectType
	TriggerCondition string
	Build            func(entry world.LogEntry) []world.Effect
}

// BaselineRules returns the fixed reactive rule set named in spec §4.F.
// Position's "visibility table update" reaction is handled inline inside
// positionHandler, per the spec note that it is "handled inline, not via
// effects" — it has no entry here.
func BaselineRules() []ReactiveRule {
	return []ReactiveRule{
		{
			Name:             "unconscious_on_zero_hp",
			TriggerType:      world.EffectHP,
			TriggerCondition: "after.current <= 0",
			Build: func(entry world.LogEntry) []world.Effect {
				return []world.Effect{{
					Type:   world.EffectTag,
					Target: entry.Target,
					Cause:  "reaction:unconscious_on_zero_hp",
					Fields: map[string]any{"add": "unconscious"},
				}}
			},
		},
		{
			Name:             "bloodied_on_low_hp",
			TriggerType:      world.EffectHP,
			TriggerCondition: "after.current <= 3 and before.current > 3",
			Build: func(entry world.LogEntry) []world.Effect {
				return []world.Effect{{
					Type:   world.EffectTag,
					Target: entry.Target,
					Cause:  "reaction:bloodied_on_low_hp",
					Fields: map[string]any{"add": "bloodied"},
				}}
			},
		},
		{
			Name:             "fear_lowers_guard",
			TriggerType:      world.EffectMark,
			TriggerCondition: `after.added == "fear"`,
			Build: func(entry world.LogEntry) []world.Effect {
				return []world.Effect{{
					Type:   world.EffectGuard,
					Target: entry.Target,
					Cause:  "reaction:fear_lowers_guard",
					Fields: map[string]any{"delta": -1},
				}}
			},
		},
		{
			Name:             "confidence_raises_guard",
			TriggerType:      world.EffectMark,
			TriggerCondition: `after.added == "confidence"`,
			Build: func(entry world.LogEntry) []world.Effect {
				return []world.Effect{{
					Type:   world.EffectGuard,
					Target: entry.Target,
					Cause:  "reaction:confidence_raises_guard",
					Fields: map[string]any{"delta": 1},
				}}
			},
		},
	}
}

func reactionContext(entry world.LogEntry) condition.Context {
	return condition.Context{
		"before": entry.Before,
		"after":  entry.After,
		"effect": map[string]any{"type": string(entry.Type), "target": entry.Target},
		"scene":  map[string]any{"round": entry.Round},
	}
}

// runReactions evaluates the rule set against entries (a batch of LogEntry
// values from the primary apply pass or a previous reaction round),
// dispatches any matched effect templates, and recurses up to
// maxReactionDepth. It returns every reactive LogEntry produced, in
// registration order within each round (spec's "rules are evaluated in
// registration order, outputs enqueued FIFO").
func (en *Engine) runReactions(gs *world.GameState, entries []world.LogEntry, ctx EvalCtx, depth int) []world.LogEntry {
	if depth > maxReactionDepth {
		return nil
	}
	var produced []world.Effect
	for _, entry := range entries {
		if !entry.OK || entry.Skipped || entry.Scheduled {
			continue
		}
		for _, rule := range en.Rules {
			if rule.TriggerType != entry.Type {
				continue
			}
			matched, err := condition.Eval(rule.TriggerCondition, reactionContext(entry))
			if err != nil || !matched {
				continue
			}
			produced = append(produced, rule.Build(entry)...)
		}
	}
	if len(produced) == 0 {
		return nil
	}

	var logs []world.LogEntry
	for _, eff := range produced {
		logs = append(logs, en.dispatch(gs, eff, ctx))
	}
	logs = append(logs, en.runReactions(gs, logs, ctx, depth+1)...)
	return logs
}
