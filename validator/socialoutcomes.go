package validator

import (
	"gopkg.in/yaml.v3"

	"github.com/duskward/ttrpgcore/world"
)

// SocialOutcomeTable maps a talk intent and roll band to the effect
// templates talk applies once the roll resolves.
type SocialOutcomeTable struct {
	byIntentBand map[string]map[string][]OutcomeEffect
}

// Lookup returns the template for intent/band, falling back to "persuade"
// for an unrecognized intent so talk never dead-ends on a typo'd intent.
func (t *SocialOutcomeTable) Lookup(intent, band string) []OutcomeEffect {
	byBand, ok := t.byIntentBand[intent]
	if !ok {
		byBand = t.byIntentBand["persuade"]
	}
	return byBand[band]
}

// DefaultSocialOutcomes is the built-in fallback table used when no
// session-specific table has been loaded via LoadSocialOutcomesYAML.
func DefaultSocialOutcomes() *SocialOutcomeTable {
	mark := func(tag string, value int, consumes bool, cause string) OutcomeEffect {
		return OutcomeEffect{
			Type: world.EffectMark, Target: "{target}", Source: "{actor}", Cause: cause,
			Fields: map[string]any{"add": tag, "value": value, "consumes": consumes},
		}
	}
	guard := func(delta int, cause string) OutcomeEffect {
		return OutcomeEffect{Type: world.EffectGuard, Target: "{target}", Source: "{actor}", Cause: cause, Fields: map[string]any{"delta": delta}}
	}
	alertTag := func(cause string) OutcomeEffect {
		return OutcomeEffect{Type: world.EffectTag, Target: "scene", Source: "{actor}", Cause: cause, Fields: map[string]any{"add": world.TagAlert}}
	}

	return &SocialOutcomeTable{byIntentBand: map[string]map[string][]OutcomeEffect{
		"persuade": {
			"crit_success": {mark("persuaded", 2, false, "talk:persuade")},
			"success":      {mark("persuaded", 1, false, "talk:persuade")},
			"partial":      {guard(-1, "talk:persuade")},
			"fail":         {mark("rebuffed", 1, true, "talk:persuade")},
		},
		"intimidate": {
			"crit_success": {mark("fear", 2, false, "talk:intimidate")},
			"success":      {mark("fear", 1, false, "talk:intimidate")},
			"partial":      {guard(-1, "talk:intimidate")},
			"fail":         {alertTag("talk:intimidate")},
		},
		"deceive": {
			"crit_success": {mark("deceived", 2, false, "talk:deceive")},
			"success":      {mark("deceived", 1, false, "talk:deceive")},
			"partial":      {mark("suspicious", 1, false, "talk:deceive")},
			"fail":         {mark("suspicious", 2, false, "talk:deceive")},
		},
		"charm": {
			"crit_success": {mark("smitten", 2, false, "talk:charm")},
			"success":      {mark("smitten", 1, false, "talk:charm")},
			"partial":      {guard(-1, "talk:charm")},
			"fail":         {mark("rebuffed", 1, true, "talk:charm")},
		},
		"comfort": {
			"crit_success": {mark("steadied", 2, false, "talk:comfort")},
			"success":      {mark("steadied", 1, false, "talk:comfort")},
			"partial":      {mark("steadied", 1, false, "talk:comfort")},
			"fail":         {},
		},
		"request": {
			"crit_success": {mark("obliging", 2, false, "talk:request")},
			"success":      {mark("obliging", 1, false, "talk:request")},
			"partial":      {guard(-1, "talk:request")},
			"fail":         {mark("rebuffed", 1, true, "talk:request")},
		},
		"distract": {
			"crit_success": {mark("distracted", 2, true, "talk:distract")},
			"success":      {mark("distracted", 1, true, "talk:distract")},
			"partial":      {mark("distracted", 1, true, "talk:distract")},
			"fail":         {alertTag("talk:distract")},
		},
	}}
}

type socialOutcomesYAML struct {
	Intents map[string]map[string][]struct {
		Type   string         `yaml:"type"`
		Target string         `yaml:"target"`
		Source string         `yaml:"source"`
		Cause  string         `yaml:"cause"`
		Fields map[string]any `yaml:"fields"`
	} `yaml:"intents"`
}

// LoadSocialOutcomesYAML parses a session-authored social-outcomes table,
// in the DOMAIN STACK's YAML-configuration form.
func LoadSocialOutcomesYAML(data []byte) (*SocialOutcomeTable, error) {
	var doc socialOutcomesYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	table := &SocialOutcomeTable{byIntentBand: make(map[string]map[string][]OutcomeEffect, len(doc.Intents))}
	for intent, byBand := range doc.Intents {
		bands := make(map[string][]OutcomeEffect, len(byBand))
		for band, effs := range byBand {
			out := make([]OutcomeEffect, 0, len(effs))
			for _, e := range effs {
				out = append(out, OutcomeEffect{
					Type: world.EffectType(e.Type), Target: e.Target, Source: e.Source, Cause: e.Cause, Fields: e.Fields,
				})
			}
			bands[band] = out
		}
		table.byIntentBand[intent] = bands
	}
	return table, nil
}
