package turnpipeline

import (
	"strings"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/validator"
	"github.com/duskward/ttrpgcore/world"
)

// OutcomeResolver is the external consequence-enrichment contract of spec
// §6: given a ToolResult and the world it mutated, it attaches a
// "consequence" narration field and may append further effects drawn from
// a domain/outcome table keyed by (domain, band) where domain ∈ {stealth,
// social, combat}. The pipeline applies no effects itself: it keeps the
// ToolResult the resolver returns, and any additional effects are applied by
// the resolver (DomainOutcomeTable applies them through its own Engine).
type OutcomeResolver interface {
	ResolveOutcome(gs *world.GameState, result validator.ToolResult) validator.ToolResult
}

// outcomeDomain groups the tool ids that share one consequence table.
func outcomeDomain(toolID string) string {
	switch toolID {
	case toolcatalog.Move:
		return "stealth"
	case toolcatalog.Talk:
		return "social"
	case toolcatalog.Attack:
		return "combat"
	default:
		return ""
	}
}

// bandOf extracts the roll band a handler recorded in its facts, whether
// it sits at the top level (attack) or nested under "dice"
// (ask_roll, move, talk).
func bandOf(result validator.ToolResult) (string, bool) {
	if b, ok := result.Facts["band"].(string); ok {
		return b, true
	}
	if dice, ok := result.Facts["dice"].(map[string]any); ok {
		if b, ok := dice["band"].(string); ok {
			return b, true
		}
	}
	return "", false
}

// ConsequenceTemplate is one domain/band entry: a consequence line (with
// {actor}/{target}/{zone} placeholders) and effect templates substituted
// the same way — literal strings.ReplaceAll, not a templating engine, to
// match the placeholder format the social-outcomes table already uses.
type ConsequenceTemplate struct {
	Consequence string
	Effects     []world.Effect
}

func resolveTemplatePlaceholders(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, k, v)
	}
	return s
}

func instantiateConsequenceEffects(tmpls []world.Effect, vars map[string]string) []world.Effect {
	if len(tmpls) == 0 {
		return nil
	}
	out := make([]world.Effect, len(tmpls))
	for i, t := range tmpls {
		out[i] = t
		out[i].Target = resolveTemplatePlaceholders(t.Target, vars)
		out[i].Source = resolveTemplatePlaceholders(t.Source, vars)
		if len(t.Fields) > 0 {
			fields := make(map[string]any, len(t.Fields))
			for k, v := range t.Fields {
				if s, ok := v.(string); ok {
					fields[k] = resolveTemplatePlaceholders(s, vars)
					continue
				}
				fields[k] = v
			}
			out[i].Fields = fields
		}
	}
	return out
}

// DomainOutcomeTable is the default in-process OutcomeResolver: a static
// table keyed by domain then band. Tools outside {move, talk, attack}, or
// outcomes with no matching band, pass through unchanged. Its own appended
// effects are applied through Engine in a fresh, always-strict batch — a
// resolver addition failing to apply never rolls back the tool's own
// effects, which the executor already committed.
type DomainOutcomeTable struct {
	table  map[string]map[string]ConsequenceTemplate
	Engine *effects.Engine
}

// DefaultOutcomeTable seeds the three domains with a crit/fail accent each;
// success/partial bands are left to each handler's own narration hint and
// carry no additional consequence.
func DefaultOutcomeTable(engine *effects.Engine) *DomainOutcomeTable {
	return &DomainOutcomeTable{
		Engine: engine,
		table: map[string]map[string]ConsequenceTemplate{
			"stealth": {
				"crit_success": {Consequence: "{actor} moves like they were never there."},
				"fail": {
					Consequence: "the noise carries further than {actor} intended",
					Effects: []world.Effect{{
						Type: world.EffectClock, Target: "scene.alarm", Source: "{actor}", Cause: "outcome:stealth_fail",
						Fields: map[string]any{"delta": 1},
					}},
				},
			},
			"social": {
				"crit_success": {Consequence: "{target} will remember this kindly."},
				"fail": {Consequence: "{target} grows wary of {actor}"},
			},
			"combat": {
				"crit_success": {Consequence: "{target} staggers under the blow."},
				"fail": {Consequence: "{actor}'s attack goes wide"},
			},
		},
	}
}

// ResolveOutcome implements OutcomeResolver.
func (t *DomainOutcomeTable) ResolveOutcome(gs *world.GameState, result validator.ToolResult) validator.ToolResult {
	domain := outcomeDomain(result.ToolID)
	if domain == "" || !result.OK {
		return result
	}
	band, ok := bandOf(result)
	if !ok {
		return result
	}
	byBand, ok := t.table[domain]
	if !ok {
		return result
	}
	tmpl, ok := byBand[band]
	if !ok {
		return result
	}

	actor, _ := result.Args["actor"].(string)
	target, _ := result.Args["target"].(string)
	zone := currentZoneOf(gs, actor)
	vars := map[string]string{"{actor}": actor, "{target}": target, "{zone}": zone}

	if result.NarrationHint == nil {
		result.NarrationHint = map[string]any{}
	}
	result.NarrationHint["consequence"] = resolveTemplatePlaceholders(tmpl.Consequence, vars)

	extra := instantiateConsequenceEffects(tmpl.Effects, vars)
	if len(extra) == 0 || t.Engine == nil {
		return result
	}
	applyRes := t.Engine.ApplyEffects(gs, extra, effects.ApplyOptions{
		Actor: actor, Transactional: true, Mode: effects.ModeStrict,
	})
	if !applyRes.OK {
		result.OK = false
		result.ErrorMessage = applyRes.ErrorMessage
		return result
	}
	result.Effects = append(result.Effects, extra...)
	return result
}
