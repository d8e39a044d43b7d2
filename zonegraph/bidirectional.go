package zonegraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duskward/ttrpgcore/world"
)

// MirrorProposal describes one missing reciprocal exit found by
// EnsureBidirectionalLinks: the origin exit a->b lacks a matching b->a.
type MirrorProposal struct {
	FromZone string
	ToZone   string
	Exit     world.Exit
}

// MirrorError records a proposal that could not be created because its
// target zone is missing, without aborting the rest of the batch.
type MirrorError struct {
	FromZone string
	ToZone   string
	Reason   string
}

// EnsureBidirectionalLinks inspects every exit in gs and, for each whose
// reciprocal is absent, proposes (dryRun=true) or creates (dryRun=false) a
// mirrored exit on the target zone. Direction is the canonical opposite;
// cost/terrain/blocked/conditions are copied from the origin; the label is
// generated by directional substitution when the origin label contains a
// direction token. Missing target zones produce a MirrorError without
// aborting the rest of the batch.
func EnsureBidirectionalLinks(gs *world.GameState, dryRun bool) ([]MirrorProposal, []MirrorError) {
	var proposals []MirrorProposal
	var errs []MirrorError

	zoneIDs := sortedZoneIDs(gs)
	for _, fromID := range zoneIDs {
		z := gs.Zones[fromID]
		for _, e := range z.Exits {
			if hasReciprocal(gs, fromID, e.To) {
				continue
			}
			target, ok := gs.Zones[e.To]
			if !ok {
				errs = append(errs, MirrorError{FromZone: fromID, ToZone: e.To, Reason: "missing_target_zone"})
				continue
			}
			mirrored := mirrorExit(fromID, e)
			proposals = append(proposals, MirrorProposal{FromZone: e.To, ToZone: fromID, Exit: mirrored})
			if !dryRun {
				target.Exits = append(target.Exits, mirrored)
				gs.PutZone(target)
			}
		}
	}
	return proposals, errs
}

func hasReciprocal(gs *world.GameState, fromID, toID string) bool {
	target, ok := gs.Zones[toID]
	if !ok {
		return false
	}
	for _, e := range target.Exits {
		if e.To == fromID {
			return true
		}
	}
	return false
}

var directionOppositeLabel = map[world.Direction]string{
	world.DirNorth: "south", world.DirSouth: "north",
	world.DirEast: "west", world.DirWest: "east",
	world.DirUp: "down", world.DirDown: "up",
	world.DirNE: "sw", world.DirSW: "ne",
	world.DirNW: "se", world.DirSE: "nw",
	world.DirIn: "out", world.DirOut: "in",
	world.DirForward: "back", world.DirBack: "forward",
}

func mirrorExit(origTargetID string, e world.Exit) world.Exit {
	mirrored := e.Clone()
	mirrored.To = origTargetID
	if opp, ok := e.Direction.Opposite(); ok {
		mirrored.Direction = opp
	}
	mirrored.Label = mirrorLabel(e.Label, e.Direction)
	return mirrored
}

func mirrorLabel(label string, dir world.Direction) string {
	if label == "" {
		return ""
	}
	replacement, ok := directionOppositeLabel[dir]
	if !ok {
		return label
	}
	lower := strings.ToLower(label)
	if strings.Contains(lower, string(dir)) {
		return strings.ReplaceAll(lower, string(dir), replacement)
	}
	return label
}

// ConsistencyViolation is a pair of mirrored exits whose mirrored fields
// (cost/terrain/blocked) disagree.
type ConsistencyViolation struct {
	FromZone, ToZone string
	Field            string
}

// ValidateBidirectionalConsistency reports every pair of reciprocal exits
// whose cost, terrain, or blocked state disagree.
func ValidateBidirectionalConsistency(gs *world.GameState) []ConsistencyViolation {
	var violations []ConsistencyViolation
	for _, fromID := range sortedZoneIDs(gs) {
		z := gs.Zones[fromID]
		for _, e := range z.Exits {
			target, ok := gs.Zones[e.To]
			if !ok {
				continue
			}
			back, ok := target.ExitTo(fromID)
			if !ok {
				continue
			}
			if fromID > e.To {
				continue // only report each pair once, from the lexicographically smaller zone
			}
			if e.Cost != back.Cost {
				violations = append(violations, ConsistencyViolation{fromID, e.To, "cost"})
			}
			if e.Terrain != back.Terrain {
				violations = append(violations, ConsistencyViolation{fromID, e.To, "terrain"})
			}
			if e.Blocked != back.Blocked {
				violations = append(violations, ConsistencyViolation{fromID, e.To, "blocked"})
			}
		}
	}
	return violations
}

// ConsistencyStrategy selects how FixBidirectionalInconsistencies resolves a
// disagreement between mirrored exits.
type ConsistencyStrategy string

const (
	PreferLowerCost  ConsistencyStrategy = "prefer_lower_cost"
	PreferHigherCost ConsistencyStrategy = "prefer_higher_cost"
	AverageCost      ConsistencyStrategy = "average"
)

// FixBidirectionalInconsistencies equalizes cost/terrain/blocked across
// every mirrored exit pair per strategy, returning the number of pairs
// touched.
func FixBidirectionalInconsistencies(gs *world.GameState, strategy ConsistencyStrategy) (int, error) {
	fixed := 0
	for _, fromID := range sortedZoneIDs(gs) {
		z := gs.Zones[fromID]
		for i, e := range z.Exits {
			target, ok := gs.Zones[e.To]
			if !ok {
				continue
			}
			backIdx := -1
			for j, be := range target.Exits {
				if be.To == fromID {
					backIdx = j
					break
				}
			}
			if backIdx < 0 || fromID > e.To {
				continue
			}
			back := target.Exits[backIdx]
			if e.Cost == back.Cost && e.Terrain == back.Terrain && e.Blocked == back.Blocked {
				continue
			}
			newCost, err := resolveCost(strategy, e.Cost, back.Cost)
			if err != nil {
				return fixed, err
			}
			z.Exits[i].Cost = newCost
			z.Exits[i].Terrain = e.Terrain
			z.Exits[i].Blocked = e.Blocked || back.Blocked
			target.Exits[backIdx].Cost = newCost
			target.Exits[backIdx].Terrain = e.Terrain
			target.Exits[backIdx].Blocked = e.Blocked || back.Blocked
			gs.PutZone(z)
			gs.PutZone(target)
			fixed++
		}
	}
	return fixed, nil
}

func resolveCost(strategy ConsistencyStrategy, a, b float64) (float64, error) {
	switch strategy {
	case PreferLowerCost:
		if a < b {
			return a, nil
		}
		return b, nil
	case PreferHigherCost:
		if a > b {
			return a, nil
		}
		return b, nil
	case AverageCost:
		return (a + b) / 2, nil
	}
	return 0, fmt.Errorf("zonegraph: unknown consistency strategy %q", strategy)
}

func sortedZoneIDs(gs *world.GameState) []string {
	ids := make([]string, 0, len(gs.Zones))
	for id := range gs.Zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
