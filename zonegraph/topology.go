package zonegraph

import (
	"time"

	"github.com/duskward/ttrpgcore/eventbus"
	"github.com/duskward/ttrpgcore/internal/ttrpcerr"
	"github.com/duskward/ttrpgcore/world"
)

// MutateOptions controls whether a topology mutation publishes its event,
// per the "emission is suppressible per call" requirement.
type MutateOptions struct {
	Suppress bool
	Cause    string
	Reason   string
}

func findExitIndex(z world.Zone, to string) int {
	for i, e := range z.Exits {
		if e.To == to {
			return i
		}
	}
	return -1
}

func touchMeta(m world.Meta, now time.Time) world.Meta {
	m.LastChangedAt = now
	return m
}

func publishTopology(gs *world.GameState, topic, from, to string, opts MutateOptions) {
	if opts.Suppress {
		return
	}
	payload := map[string]any{"from_zone": from, "to_zone": to}
	if opts.Cause != "" {
		payload["cause"] = opts.Cause
	}
	if opts.Reason != "" {
		payload["reason"] = opts.Reason
	}
	gs.Bus.Publish(eventbus.Event{Type: topic, Payload: payload})
}

// BlockExit marks the exit from->to as blocked, touches the zone's Meta,
// and publishes exit_blocked unless suppressed.
func BlockExit(gs *world.GameState, from, to string, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	idx := findExitIndex(z, to)
	if idx < 0 {
		return ttrpcerr.New(ttrpcerr.TargetResolution, "no exit "+from+"->"+to)
	}
	z.Exits[idx].Blocked = true
	z.Meta = touchMeta(z.Meta, now)
	gs.PutZone(z)
	publishTopology(gs, eventbus.TopicExitBlocked, from, to, opts)
	return nil
}

// UnblockExit clears the blocked flag on the exit from->to.
func UnblockExit(gs *world.GameState, from, to string, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	idx := findExitIndex(z, to)
	if idx < 0 {
		return ttrpcerr.New(ttrpcerr.TargetResolution, "no exit "+from+"->"+to)
	}
	z.Exits[idx].Blocked = false
	z.Meta = touchMeta(z.Meta, now)
	gs.PutZone(z)
	publishTopology(gs, eventbus.TopicExitUnblocked, from, to, opts)
	return nil
}

// ToggleExit flips the blocked flag on the exit from->to and publishes the
// matching blocked/unblocked event.
func ToggleExit(gs *world.GameState, from, to string, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	idx := findExitIndex(z, to)
	if idx < 0 {
		return ttrpcerr.New(ttrpcerr.TargetResolution, "no exit "+from+"->"+to)
	}
	if z.Exits[idx].Blocked {
		return UnblockExit(gs, from, to, now, opts)
	}
	return BlockExit(gs, from, to, now, opts)
}

// CreateExit appends exit to zone from, touches its Meta, and publishes
// exit_created.
func CreateExit(gs *world.GameState, from string, exit world.Exit, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	z.Exits = append(z.Exits, exit)
	z.Meta = touchMeta(z.Meta, now)
	gs.PutZone(z)
	publishTopology(gs, eventbus.TopicExitCreated, from, exit.To, opts)
	return nil
}

// DestroyExit removes the exit from->to and publishes exit_destroyed.
func DestroyExit(gs *world.GameState, from, to string, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	idx := findExitIndex(z, to)
	if idx < 0 {
		return ttrpcerr.New(ttrpcerr.TargetResolution, "no exit "+from+"->"+to)
	}
	z.Exits = append(z.Exits[:idx:idx], z.Exits[idx+1:]...)
	z.Meta = touchMeta(z.Meta, now)
	gs.PutZone(z)
	publishTopology(gs, eventbus.TopicExitDestroyed, from, to, opts)
	return nil
}

// SetExitConditions replaces the conditions map on exit from->to and
// publishes exit_conditions_changed.
func SetExitConditions(gs *world.GameState, from, to string, conditions map[string]any, now time.Time, opts MutateOptions) error {
	z, err := GetZone(gs, from)
	if err != nil {
		return err
	}
	idx := findExitIndex(z, to)
	if idx < 0 {
		return ttrpcerr.New(ttrpcerr.TargetResolution, "no exit "+from+"->"+to)
	}
	cloned := make(map[string]any, len(conditions))
	for k, v := range conditions {
		cloned[k] = v
	}
	z.Exits[idx].Conditions = cloned
	z.Meta = touchMeta(z.Meta, now)
	gs.PutZone(z)
	publishTopology(gs, eventbus.TopicExitConditionsChanged, from, to, opts)
	return nil
}
