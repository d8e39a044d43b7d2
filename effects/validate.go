package effects

import (
	"fmt"

	"github.com/duskward/ttrpgcore/world"
)

// validate runs the type-specific pre-validator named in spec step 2 of
// apply_effects: target existence (where required), required fields
// present, and target-type compatibility. It never mutates gs.
func validate(gs *world.GameState, e world.Effect) error {
	switch e.Type {
	case world.EffectHP, world.EffectGuard, world.EffectMark:
		ent, ok := gs.Entities[e.Target]
		if !ok {
			return fmt.Errorf("%s: target %q not found", e.Type, e.Target)
		}
		if ent.Living == nil {
			return fmt.Errorf("%s: target %q is not a living entity", e.Type, e.Target)
		}
		if e.Type != world.EffectGuard {
			if _, hasDelta := e.Field("delta"); e.Type == world.EffectHP && !hasDelta {
				return fmt.Errorf("hp: missing 'delta' field")
			}
		}
		if e.Type == world.EffectMark {
			_, hasAdd := e.Field("add")
			_, hasRemove := e.Field("remove")
			if !hasAdd && !hasRemove {
				return fmt.Errorf("mark: requires 'add' or 'remove'")
			}
		}
	case world.EffectPosition:
		if _, ok := gs.Entities[e.Target]; !ok {
			return fmt.Errorf("position: target %q not found", e.Target)
		}
		to, _ := e.Field("to")
		toStr, _ := to.(string)
		if toStr == "" {
			return fmt.Errorf("position: missing 'to' field")
		}
		if _, ok := gs.Zones[toStr]; !ok {
			return fmt.Errorf("position: zone %q not found", toStr)
		}
	case world.EffectInventory:
		ent, ok := gs.Entities[e.Target]
		if !ok || ent.Living == nil {
			return fmt.Errorf("inventory: target %q is not a living entity", e.Target)
		}
		id, _ := e.Field("id")
		if idStr, _ := id.(string); idStr == "" {
			return fmt.Errorf("inventory: missing 'id' field")
		}
		if _, ok := e.Field("delta"); !ok {
			return fmt.Errorf("inventory: missing 'delta' field")
		}
	case world.EffectClock:
		if _, ok := e.Field("delta"); !ok {
			return fmt.Errorf("clock: missing 'delta' field")
		}
	case world.EffectTag:
		_, hasAdd := e.Field("add")
		_, hasRemove := e.Field("remove")
		if !hasAdd && !hasRemove {
			return fmt.Errorf("tag: requires 'add' or 'remove'")
		}
		if e.Target != "scene" {
			if _, ok := gs.Entities[e.Target]; !ok {
				return fmt.Errorf("tag: target %q not found", e.Target)
			}
		}
	case world.EffectResource:
		if _, ok := gs.Entities[e.Target]; !ok {
			return fmt.Errorf("resource: target %q not found", e.Target)
		}
		id, _ := e.Field("id")
		if idStr, _ := id.(string); idStr == "" {
			return fmt.Errorf("resource: missing 'id' field")
		}
		if _, ok := e.Field("delta"); !ok {
			return fmt.Errorf("resource: missing 'delta' field")
		}
	case world.EffectNoise:
		intensity, _ := e.Field("intensity")
		if intensityStr, _ := intensity.(string); !validNoiseIntensities[intensityStr] {
			return fmt.Errorf("noise: invalid or missing 'intensity' field")
		}
	case world.EffectMeta:
		// placeholder type, nothing to validate.
	default:
		// Unknown types are accepted at ingress and skipped gracefully at
		// dispatch time, per the forward-compatibility requirement.
	}
	return nil
}
