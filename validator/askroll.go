package validator

import "github.com/duskward/ttrpgcore/world"

// Additive DC adjustment tables for ask_roll's two tagged actions, keyed on
// the scene tag values they read. Untabled tag values (including the zero
// value) contribute 0.
var sneakAlertAdj = map[world.AlertLevel]int{
	world.AlertSleepy:  -2,
	world.AlertWary:    2,
	world.AlertAlarmed: 4,
}

var sneakLightingAdj = map[world.LightingLevel]int{
	world.LightingDim:    -1,
	world.LightingBright: 2,
}

var sneakNoiseAdj = map[world.NoiseLevel]int{
	world.NoiseQuiet:    1,
	world.NoiseLoud:     -1,
	world.NoiseVeryLoud: -2,
}

var sneakCoverAdj = map[world.CoverLevel]int{
	world.CoverNone: 2,
	world.CoverGood: -2,
}

var persuadeAlertAdj = map[world.AlertLevel]int{
	world.AlertSleepy:  -1,
	world.AlertWary:    1,
	world.AlertAlarmed: 2,
}

// DeriveDC computes ask_roll's effective DC from the scene's base_dc plus
// action-specific scene-tag adjustments: sneak reads alert/lighting/noise/
// cover, persuade reads alert. Actions without an adjustment table resolve
// to base_dc unchanged.
func DeriveDC(gs *world.GameState, action string) int {
	base := gs.Scene.BaseDC
	switch action {
	case "sneak":
		dc := base
		dc += sneakAlertAdj[world.AlertLevel(gs.Scene.Tags[world.TagAlert])]
		dc += sneakLightingAdj[world.LightingLevel(gs.Scene.Tags[world.TagLighting])]
		dc += sneakNoiseAdj[world.NoiseLevel(gs.Scene.Tags[world.TagNoise])]
		dc += sneakCoverAdj[world.CoverLevel(gs.Scene.Tags[world.TagCover])]
		return clampIntArg(dc, 5, 25)
	case "persuade":
		dc := base + persuadeAlertAdj[world.AlertLevel(gs.Scene.Tags[world.TagAlert])]
		return clampIntArg(dc, 5, 25)
	default:
		return base
	}
}

// askRollEffects maps action x outcome band onto the position/clock/mark
// atoms ask_roll produces. Actions outside {sneak, persuade} carry no
// tabled outcome effects.
func askRollEffects(action, band, actor, target, zoneTarget string) []world.Effect {
	switch action {
	case "sneak":
		return sneakRollEffects(band, actor, zoneTarget)
	case "persuade":
		return persuadeRollEffects(band, actor, target)
	default:
		return nil
	}
}

// sneakRollEffects: a successful or partial sneak moves the actor to
// zone_target; a crit quiets the scene (alarm -1), while a partial or
// outright fail draws notice (alarm +1, actor marked "spotted").
func sneakRollEffects(band, actor, zoneTarget string) []world.Effect {
	var out []world.Effect
	if zoneTarget != "" && (band == "crit_success" || band == "success" || band == "partial") {
		out = append(out, world.Effect{
			Type: world.EffectPosition, Target: actor, Source: actor, Cause: "ask_roll:sneak",
			Fields: map[string]any{"to": zoneTarget},
		})
	}
	switch band {
	case "crit_success":
		out = append(out, world.Effect{
			Type: world.EffectClock, Target: "scene.alarm", Source: actor, Cause: "ask_roll:sneak",
			Fields: map[string]any{"delta": -1},
		})
	case "partial", "fail":
		out = append(out,
			world.Effect{
				Type: world.EffectClock, Target: "scene.alarm", Source: actor, Cause: "ask_roll:sneak",
				Fields: map[string]any{"delta": 1},
			},
			world.Effect{
				Type: world.EffectMark, Target: actor, Source: actor, Cause: "ask_roll:sneak",
				Fields: map[string]any{"add": "spotted", "value": 0, "consumes": false},
			},
		)
	}
	return out
}

// persuadeRollEffects marks the target with the actor's disposition toward
// them; a fail leaves the target wary of the actor rather than unaffected.
func persuadeRollEffects(band, actor, target string) []world.Effect {
	if target == "" {
		return nil
	}
	tag := ""
	switch band {
	case "crit_success":
		tag = "trusts"
	case "success":
		tag = "favorable"
	case "fail":
		tag = "suspicious"
	default:
		return nil
	}
	return []world.Effect{{
		Type: world.EffectMark, Target: target, Source: actor, Cause: "ask_roll:persuade",
		Fields: map[string]any{"add": tag, "value": 1, "consumes": false},
	}}
}
