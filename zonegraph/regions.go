package zonegraph

import (
	"fmt"
	"sort"

	"github.com/duskward/ttrpgcore/world"
)

// UnassignedRegion is the label zones with no region string are grouped
// under by Regions and RegionAdjacency.
const UnassignedRegion = "Unassigned"

func regionOf(z world.Zone) string {
	if z.Region == "" {
		return UnassignedRegion
	}
	return z.Region
}

// Regions groups every zone in gs by its Region field (zones with no region
// set fall under UnassignedRegion), returning each group's zone ids sorted.
func Regions(gs *world.GameState) map[string][]string {
	out := make(map[string][]string)
	for id, z := range gs.Zones {
		r := regionOf(z)
		out[r] = append(out[r], id)
	}
	for r := range out {
		sort.Strings(out[r])
	}
	return out
}

// AllRegions returns the sorted list of distinct region names present in
// gs, excluding UnassignedRegion.
func AllRegions(gs *world.GameState) []string {
	set := map[string]struct{}{}
	for _, z := range gs.Zones {
		if z.Region != "" {
			set[z.Region] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// RegionConnection is one cross-region exit.
type RegionConnection struct {
	FromZone string
	ToZone   string
}

// RegionAdjacency finds every exit whose endpoints lie in different
// regions, grouped under a "{regionA} <-> {regionB}" key where regionA and
// regionB are sorted lexicographically for a stable key regardless of exit
// direction.
func RegionAdjacency(gs *world.GameState) map[string][]RegionConnection {
	out := make(map[string][]RegionConnection)
	for _, fromID := range sortedZoneIDs(gs) {
		z := gs.Zones[fromID]
		fromRegion := regionOf(z)
		for _, e := range z.Exits {
			target, ok := gs.Zones[e.To]
			if !ok {
				continue
			}
			toRegion := regionOf(target)
			if fromRegion == toRegion {
				continue
			}
			key := pairKey(fromRegion, toRegion)
			out[key] = append(out[key], RegionConnection{FromZone: fromID, ToZone: e.To})
		}
	}
	return out
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s <-> %s", a, b)
}

// SetZoneRegions bulk-assigns regions by zone id, returning which
// assignments succeeded (zone existed) keyed by zone id.
func SetZoneRegions(gs *world.GameState, assignments map[string]string) map[string]bool {
	results := make(map[string]bool, len(assignments))
	for zoneID, region := range assignments {
		z, ok := gs.Zones[zoneID]
		if !ok {
			results[zoneID] = false
			continue
		}
		z.Region = region
		gs.PutZone(z)
		results[zoneID] = true
	}
	return results
}
