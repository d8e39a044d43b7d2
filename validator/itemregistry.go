package validator

import (
	"gopkg.in/yaml.v3"

	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/world"
)

// DelegationSpec names another tool use_item hands an invocation off to,
// with item-specific argument overrides merged on top of the call's args.
type DelegationSpec struct {
	Tool         string
	ArgsOverride map[string]any
}

// ItemDef is one item catalog entry: a description plus either the effect
// templates each supported use_item method instantiates, or a delegation to
// another tool. Dangerous/Poison gate a confirm prompt when the use targets
// a pc.
type ItemDef struct {
	ID          string
	Description string
	Methods     map[string][]OutcomeEffect
	Dangerous   bool
	Poison      bool
	Delegation  *DelegationSpec
}

// ItemRegistry resolves item_id/method pairs for use_item.
type ItemRegistry struct {
	items map[string]ItemDef
}

// Lookup returns the effect templates for itemID's method, and whether the
// item/method pair is registered.
func (r *ItemRegistry) Lookup(itemID, method string) ([]OutcomeEffect, bool) {
	def, ok := r.items[itemID]
	if !ok {
		return nil, false
	}
	tmpl, ok := def.Methods[method]
	return tmpl, ok
}

// Def returns itemID's full catalog entry, if registered.
func (r *ItemRegistry) Def(itemID string) (ItemDef, bool) {
	def, ok := r.items[itemID]
	return def, ok
}

// Describe returns itemID's description, if registered.
func (r *ItemRegistry) Describe(itemID string) (string, bool) {
	def, ok := r.items[itemID]
	return def.Description, ok
}

// DefaultItemRegistry is the built-in fallback catalog used when no
// session-specific registry has been loaded via LoadItemRegistryYAML.
func DefaultItemRegistry() *ItemRegistry {
	return &ItemRegistry{items: map[string]ItemDef{
		"potion.healing": {
			ID:          "potion.healing",
			Description: "A vial of restorative tonic.",
			Methods: map[string][]OutcomeEffect{
				"consume": {{
					Type: world.EffectHP, Target: "{actor}", Source: "{actor}", Cause: "use_item:potion.healing",
					Fields: map[string]any{"delta": "2d4+2"},
				}},
			},
		},
		"scroll.ward": {
			ID:          "scroll.ward",
			Description: "A ward scroll that steadies the reader's nerve.",
			Methods: map[string][]OutcomeEffect{
				"read": {{
					Type: world.EffectMark, Target: "{actor}", Source: "{actor}", Cause: "use_item:scroll.ward",
					Fields: map[string]any{"add": "confidence", "value": 1, "consumes": false},
				}},
			},
		},
		"torch": {
			ID:          "torch",
			Description: "A lit torch.",
			Methods: map[string][]OutcomeEffect{
				"activate": {{
					Type: world.EffectTag, Target: "scene", Source: "{actor}", Cause: "use_item:torch",
					Fields: map[string]any{"add": map[string]any{world.TagLighting: string(world.LightingBright)}},
				}},
			},
		},
		"rope": {
			ID:          "rope",
			Description: "A coil of sturdy rope.",
			Methods: map[string][]OutcomeEffect{
				"equip": {{
					Type: world.EffectTag, Target: "{actor}", Source: "{actor}", Cause: "use_item:rope",
					Fields: map[string]any{"add": "roped"},
				}},
			},
		},
		"vial.poison": {
			ID:          "vial.poison",
			Description: "A vial of thick contact poison meant for a blade or a drink.",
			Dangerous:   true,
			Poison:      true,
			Delegation: &DelegationSpec{
				Tool:         toolcatalog.Attack,
				ArgsOverride: map[string]any{"weapon": "poisoned_vial", "damage_expr": "1d4"},
			},
		},
		"charm.whisper": {
			ID:          "charm.whisper",
			Description: "A charmed trinket that lends weight to honeyed words.",
			Delegation: &DelegationSpec{
				Tool:         toolcatalog.Talk,
				ArgsOverride: map[string]any{"intent": "persuade", "adv_style_delta": 1},
			},
		},
	}}
}

type itemRegistryYAML struct {
	Items []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
		Dangerous   bool   `yaml:"dangerous"`
		Poison      bool   `yaml:"poison"`
		Delegation  *struct {
			Tool         string         `yaml:"tool"`
			ArgsOverride map[string]any `yaml:"args_override"`
		} `yaml:"delegation"`
		Methods map[string][]struct {
			Type   string         `yaml:"type"`
			Target string         `yaml:"target"`
			Source string         `yaml:"source"`
			Cause  string         `yaml:"cause"`
			Fields map[string]any `yaml:"fields"`
		} `yaml:"methods"`
	} `yaml:"items"`
}

// LoadItemRegistryYAML parses a session-authored item catalog, in the
// DOMAIN STACK's YAML-configuration form.
func LoadItemRegistryYAML(data []byte) (*ItemRegistry, error) {
	var doc itemRegistryYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	reg := &ItemRegistry{items: make(map[string]ItemDef, len(doc.Items))}
	for _, it := range doc.Items {
		methods := make(map[string][]OutcomeEffect, len(it.Methods))
		for method, effs := range it.Methods {
			out := make([]OutcomeEffect, 0, len(effs))
			for _, e := range effs {
				out = append(out, OutcomeEffect{
					Type: world.EffectType(e.Type), Target: e.Target, Source: e.Source, Cause: e.Cause, Fields: e.Fields,
				})
			}
			methods[method] = out
		}
		def := ItemDef{ID: it.ID, Description: it.Description, Methods: methods, Dangerous: it.Dangerous, Poison: it.Poison}
		if it.Delegation != nil {
			def.Delegation = &DelegationSpec{Tool: it.Delegation.Tool, ArgsOverride: it.Delegation.ArgsOverride}
		}
		reg.items[it.ID] = def
	}
	return reg, nil
}
