package validator

import (
	"strings"

	"github.com/duskward/ttrpgcore/world"
)

// OutcomeEffect is an effect template whose string-valued fields may carry
// "{actor}"/"{target}"/"{zone}" placeholders, resolved at instantiation
// time. This mirrors resolve_outcome's placeholder substitution, which is
// literal substring replacement, not a templating engine.
type OutcomeEffect struct {
	Type   world.EffectType
	Target string
	Source string
	Cause  string
	Fields map[string]any
}

// ResolvePlaceholders replaces every "{key}" token in s with vars[key].
func ResolvePlaceholders(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// instantiateOutcome resolves a batch of OutcomeEffect templates against
// the concrete actor/target/zone of one call into applyable world.Effects.
func instantiateOutcome(tmpls []OutcomeEffect, actor, target, zone string) []world.Effect {
	vars := map[string]string{"actor": actor, "target": target, "zone": zone}
	out := make([]world.Effect, 0, len(tmpls))
	for _, tmpl := range tmpls {
		out = append(out, world.Effect{
			Type:   tmpl.Type,
			Target: ResolvePlaceholders(tmpl.Target, vars),
			Source: ResolvePlaceholders(tmpl.Source, vars),
			Cause:  tmpl.Cause,
			Fields: resolveFields(tmpl.Fields, vars),
		})
	}
	return out
}

func resolveFields(fields map[string]any, vars map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = ResolvePlaceholders(s, vars)
			continue
		}
		out[k] = v
	}
	return out
}
