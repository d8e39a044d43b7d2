package turnpipeline

import (
	"sort"

	"github.com/duskward/ttrpgcore/visibility"
	"github.com/duskward/ttrpgcore/world"
)

// buildWorldView renders the role-redacted snapshot handed to the planner:
// every zone the actor could plausibly reason about, each with its visible
// entities, plus every clock redacted the same way. The planner never sees
// raw world.Entity/world.Zone values — only what visibility.RolePlayer
// would show actor.
func buildWorldView(gs *world.GameState, actor string) map[string]any {
	var pov *string
	if actor != "" {
		pov = &actor
	}

	entitiesByZone := make(map[string][]world.Entity, len(gs.Zones))
	for _, e := range gs.Entities {
		entitiesByZone[e.CurrentZone] = append(entitiesByZone[e.CurrentZone], e)
	}

	zoneIDs := make([]string, 0, len(gs.Zones))
	for id := range gs.Zones {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)

	zones := make([]map[string]any, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		zones = append(zones, visibility.RedactZone(gs, pov, gs.Zones[id], visibility.RolePlayer, entitiesByZone[id]))
	}

	clockIDs := make([]string, 0, len(gs.Clocks))
	for id := range gs.Clocks {
		clockIDs = append(clockIDs, id)
	}
	sort.Strings(clockIDs)

	clocks := make([]map[string]any, 0, len(clockIDs))
	for _, id := range clockIDs {
		clocks = append(clocks, visibility.RedactClock(pov, gs.Clocks[id], visibility.RolePlayer))
	}

	return map[string]any{
		"actor":        actor,
		"current_zone": currentZoneOf(gs, actor),
		"zones":        zones,
		"clocks":       clocks,
		"round":        gs.Scene.Round,
		"turn_index":   gs.Scene.TurnIndex,
	}
}

func currentZoneOf(gs *world.GameState, actor string) string {
	if e, ok := gs.Entities[actor]; ok {
		return e.CurrentZone
	}
	return ""
}
