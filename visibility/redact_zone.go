package visibility

import (
	"github.com/duskward/ttrpgcore/world"
)

// RedactZone mirrors RedactEntity's policy: the GM sees everything; other
// roles see a redacted shell if the zone is gm_only, otherwise the full
// dump with its entities array filtered through CanPlayerSee.
func RedactZone(gs *world.GameState, pov *string, zone world.Zone, role Role, entitiesInZone []world.Entity) map[string]any {
	if role != RoleGM && zone.Meta.Visibility == world.VisibilityGMOnly {
		return map[string]any{
			"id":         zone.ID,
			"name":       "Unknown",
			"is_visible": false,
			"meta":       map[string]any{"visibility": string(zone.Meta.Visibility)},
			"entities":   []map[string]any{},
		}
	}
	out := map[string]any{
		"id":          zone.ID,
		"name":        zone.Name,
		"description": zone.Description,
		"tags":        tagSetView(zone.Tags),
		"region":      zone.Region,
		"is_visible":  true,
		"meta":        metaView(zone.Meta),
	}
	var entities []map[string]any
	for _, e := range entitiesInZone {
		if role == RoleGM || CanPlayerSee(gs, pov, e) {
			entities = append(entities, redactEntity(gs, pov, e, role))
		}
	}
	if entities == nil {
		entities = []map[string]any{}
	}
	out["entities"] = entities
	return out
}

func tagSetView(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

// RedactClock obeys Visibility identically to entities: hidden clocks
// require pov to be in known_by; gm_only clocks are never visible outside
// the GM role.
func RedactClock(pov *string, clock world.Clock, role Role) map[string]any {
	visible := role == RoleGM
	if !visible {
		switch clock.Meta.Visibility {
		case world.VisibilityGMOnly:
			visible = false
		case world.VisibilityHidden:
			visible = pov != nil && clock.Meta.Known(*pov)
		default:
			visible = true
		}
	}
	if !visible {
		return map[string]any{
			"id":         clock.ID,
			"is_visible": false,
			"value":      nil,
		}
	}
	return map[string]any{
		"id":               clock.ID,
		"name":             clock.Name,
		"value":            clock.Value,
		"min":              clock.Min,
		"max":              clock.Max,
		"filled_this_turn": clock.FilledThisTurn,
		"is_visible":       true,
	}
}

// ExitVisibilityThreshold is not consulted by RedactExit, which masks an
// exit's fields whenever only one of its two endpoint zones is discovered.
const ExitVisibilityThreshold = 1

// RedactExit returns a possibly-masked exit record: actors not in the
// source zone and who have not discovered either endpoint see nil; actors
// who have discovered only one endpoint see the exit but with label and
// detailed conditions masked.
func RedactExit(actorZone string, sourceZoneID string, exit world.Exit, actorDiscoveredSource, actorDiscoveredTarget bool) map[string]any {
	inSourceZone := actorZone == sourceZoneID
	if !inSourceZone && !actorDiscoveredSource && !actorDiscoveredTarget {
		return nil
	}
	masked := !inSourceZone && !(actorDiscoveredSource && actorDiscoveredTarget)
	if masked {
		return map[string]any{
			"to":        exit.To,
			"blocked":   exit.Blocked,
			"label":     nil,
			"direction": nil,
			"conditions": map[string]any{},
		}
	}
	return map[string]any{
		"to":         exit.To,
		"label":      exit.Label,
		"direction":  string(exit.Direction),
		"blocked":    exit.Blocked,
		"conditions": exit.Conditions,
		"cost":       exit.EffectiveCost(),
		"terrain":    string(exit.Terrain),
	}
}
