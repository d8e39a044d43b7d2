package zonegraph

import (
	"time"

	"github.com/duskward/ttrpgcore/eventbus"
	"github.com/duskward/ttrpgcore/world"
)

// DiscoveryStatus is a zone's discovery state relative to one actor.
type DiscoveryStatus string

const (
	StatusDiscovered   DiscoveryStatus = "discovered"
	StatusUndiscovered DiscoveryStatus = "undiscovered"
	StatusHidden       DiscoveryStatus = "hidden"
)

// RevealAdjacentZones adds every non-gm_only zone adjacent to zoneID (via an
// unblocked exit) to actor's discovered set, and publishes a single
// zone.entities_discovered event listing every newly discovered zone (none
// when no zone was newly discovered).
func RevealAdjacentZones(gs *world.GameState, actor, zoneID string, now time.Time) ([]string, error) {
	z, err := GetZone(gs, zoneID)
	if err != nil {
		return nil, err
	}
	var revealed []string
	for _, e := range z.Exits {
		if e.Blocked {
			continue
		}
		target, ok := gs.Zones[e.To]
		if !ok || target.Meta.Visibility == world.VisibilityGMOnly {
			continue
		}
		if target.Discovered(actor) {
			continue
		}
		target.DiscoveredBy[actor] = struct{}{}
		target.Meta = target.Meta.WithKnownBy(actor, now)
		gs.PutZone(target)
		revealed = append(revealed, target.ID)
	}
	if len(revealed) > 0 {
		gs.Bus.Publish(eventbus.Event{
			Type: eventbus.TopicZoneEntitiesDiscovered,
			Payload: map[string]any{
				"actor": actor,
				"zones": revealed,
			},
		})
	}
	return revealed, nil
}

// DiscoveryMap returns, for every zone in gs, its DiscoveryStatus relative to
// actor.
func DiscoveryMap(gs *world.GameState, actor string) map[string]DiscoveryStatus {
	out := make(map[string]DiscoveryStatus, len(gs.Zones))
	for id, z := range gs.Zones {
		switch {
		case z.Meta.Visibility == world.VisibilityGMOnly:
			out[id] = StatusHidden
		case z.Discovered(actor):
			out[id] = StatusDiscovered
		default:
			out[id] = StatusUndiscovered
		}
	}
	return out
}
