package effects

import (
	"fmt"
	"time"

	"github.com/duskward/ttrpgcore/eventbus"
	"github.com/duskward/ttrpgcore/world"
)

// hpHandler implements the `hp` atom: add delta (int or dice expression) to
// target.hp.current, clamped to [0, max].
func hpHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok || ent.Living == nil {
		return failLog(entry, fmt.Sprintf("hp: target %q is not a living entity", e.Target))
	}
	raw, _ := e.Field("delta")
	delta, rolled, err := resolveDelta(raw, ctx.RNG)
	if err != nil {
		return failLog(entry, err.Error())
	}
	before := ent.Living.HP.Current
	clone := ent.Clone()
	clone.Living.HP.Current = clampInt(before+delta, 0, clone.Living.HP.Max)
	gs.PutEntity(clone)

	entry.OK = true
	entry.Rolled = rolled
	entry.Before = map[string]any{"current": before}
	entry.After = map[string]any{"current": clone.Living.HP.Current}
	entry.ImpactLevel = absInt(clone.Living.HP.Current - before)
	entry.Summary = fmt.Sprintf("%s.hp: %d -> %d", e.Target, before, clone.Living.HP.Current)
	return entry
}

// guardHandler implements the `guard` atom: add delta, floored at 0.
func guardHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok || ent.Living == nil {
		return failLog(entry, fmt.Sprintf("guard: target %q is not a living entity", e.Target))
	}
	raw, _ := e.Field("delta")
	delta, rolled, err := resolveDelta(raw, ctx.RNG)
	if err != nil {
		return failLog(entry, err.Error())
	}
	before := ent.Living.Guard
	clone := ent.Clone()
	if clone.Living.Guard+delta < 0 {
		clone.Living.Guard = 0
	} else {
		clone.Living.Guard += delta
	}
	gs.PutEntity(clone)

	entry.OK = true
	entry.Rolled = rolled
	entry.Before = map[string]any{"guard": before}
	entry.After = map[string]any{"guard": clone.Living.Guard}
	entry.ImpactLevel = absInt(clone.Living.Guard - before)
	entry.Summary = fmt.Sprintf("%s.guard: %d -> %d", e.Target, before, clone.Living.Guard)
	return entry
}

// positionHandler implements the `position` atom: move target to a new
// zone, recompute the derived visible_actors field for both zones, and
// publish a zone.entered event (auto-reveal itself is driven by the move
// tool handler, which has zone-graph access this package intentionally does
// not depend on).
func positionHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok {
		return failLog(entry, fmt.Sprintf("position: target %q not found", e.Target))
	}
	toRaw, _ := e.Field("to")
	to, _ := toRaw.(string)
	if to == "" {
		return failLog(entry, "position: missing 'to' field")
	}
	if _, ok := gs.Zones[to]; !ok {
		return failLog(entry, fmt.Sprintf("position: target zone %q does not exist", to))
	}

	from := ent.CurrentZone
	clone := ent.Clone()
	clone.CurrentZone = to
	gs.PutEntity(clone)
	recomputeVisibleActors(gs, from)
	recomputeVisibleActors(gs, to)

	gs.Publish(eventbus.TopicZoneEntered, map[string]any{
		"entity_id": e.Target,
		"from":      from,
		"to":        to,
	})

	entry.OK = true
	entry.Before = map[string]any{"current_zone": from}
	entry.After = map[string]any{"current_zone": to}
	entry.ImpactLevel = 1
	entry.Summary = fmt.Sprintf("%s moved %s -> %s", e.Target, from, to)
	return entry
}

// markHandler implements the `mark` atom: add or remove a keyed Mark on a
// living entity. entry.After carries "added"/"removed" tag names so reactive
// rules can pattern-match without re-parsing Fields.
func markHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok || ent.Living == nil {
		return failLog(entry, fmt.Sprintf("mark: target %q is not a living entity", e.Target))
	}
	clone := ent.Clone()
	after := map[string]any{}
	before := map[string]any{"mark_count": len(ent.Living.Marks)}

	if addRaw, ok := e.Field("add"); ok {
		tag, _ := addRaw.(string)
		if tag == "" {
			return failLog(entry, "mark: 'add' must be a non-empty tag string")
		}
		value, _ := e.Field("value")
		consumes, _ := e.Field("consumes")
		consumesBool, _ := consumes.(bool)
		key := world.MarkKey(e.Source, tag)
		clone.Living.Marks[key] = world.Mark{
			Tag:         tag,
			Source:      e.Source,
			Value:       asInt(value),
			Consumes:    consumesBool,
			CreatedTurn: ctx.Round,
		}
		after["added"] = tag
	}
	if removeRaw, ok := e.Field("remove"); ok {
		tag, _ := removeRaw.(string)
		key := world.MarkKey(e.Source, tag)
		if _, present := clone.Living.Marks[key]; present {
			delete(clone.Living.Marks, key)
		} else {
			for k, m := range clone.Living.Marks {
				if m.Tag == tag {
					delete(clone.Living.Marks, k)
					break
				}
			}
		}
		after["removed"] = tag
	}
	gs.PutEntity(clone)

	entry.OK = true
	entry.Before = before
	entry.After = after
	after["mark_count"] = len(clone.Living.Marks)
	entry.ImpactLevel = 1
	entry.Summary = fmt.Sprintf("%s.marks: %v", e.Target, after)
	return entry
}

// inventoryHandler implements the `inventory` atom: append or remove delta
// copies of an item id in a living entity's multiset inventory.
func inventoryHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok || ent.Living == nil {
		return failLog(entry, fmt.Sprintf("inventory: target %q is not a living entity", e.Target))
	}
	idRaw, _ := e.Field("id")
	itemID, _ := idRaw.(string)
	if itemID == "" {
		return failLog(entry, "inventory: missing 'id' field")
	}
	raw, _ := e.Field("delta")
	delta, rolled, err := resolveDelta(raw, ctx.RNG)
	if err != nil {
		return failLog(entry, err.Error())
	}

	clone := ent.Clone()
	before := len(clone.Living.Inventory)
	if delta > 0 {
		for i := 0; i < delta; i++ {
			clone.Living.Inventory = append(clone.Living.Inventory, itemID)
		}
	} else if delta < 0 {
		remaining := -delta
		out := clone.Living.Inventory[:0]
		for _, id := range clone.Living.Inventory {
			if id == itemID && remaining > 0 {
				remaining--
				continue
			}
			out = append(out, id)
		}
		clone.Living.Inventory = out
	}
	gs.PutEntity(clone)

	entry.OK = true
	entry.Rolled = rolled
	entry.Before = map[string]any{"count": before}
	entry.After = map[string]any{"count": len(clone.Living.Inventory)}
	entry.ImpactLevel = absInt(delta)
	entry.Summary = fmt.Sprintf("%s.inventory[%s]: %+d", e.Target, itemID, delta)
	return entry
}

// clockHandler implements the `clock` atom: autovivify an unknown clock id
// with world.DefaultClockMin/Max, add delta, clamp.
func clockHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	idRaw, _ := e.Field("id")
	clockID, _ := idRaw.(string)
	if clockID == "" {
		clockID = e.Target
	}
	if clockID == "" {
		return failLog(entry, "clock: missing 'id' field")
	}
	raw, _ := e.Field("delta")
	delta, rolled, err := resolveDelta(raw, ctx.RNG)
	if err != nil {
		return failLog(entry, err.Error())
	}

	clk, ok := gs.Clocks[clockID]
	if !ok {
		clk = world.NewClock(clockID, clockID, 0, world.DefaultClockMin, world.DefaultClockMax, world.NewMeta(world.VisibilityPublic, time.Now()))
	}
	before := clk.Value
	clone := clk.Clone()
	clone.Value = clampInt(clone.Value+delta, clone.Min, clone.Max)
	clone.LastModifiedRound = ctx.Round
	clone.LastModifiedBy = ctx.Actor
	clone.FilledThisTurn = clone.Value >= clone.Max
	if clone.FilledThisTurn {
		clone.FilledBy = ctx.Actor
	}
	gs.PutClock(clone)

	entry.Target = clockID
	entry.OK = true
	entry.Rolled = rolled
	entry.Before = map[string]any{"value": before}
	entry.After = map[string]any{"value": clone.Value}
	entry.ImpactLevel = absInt(clone.Value - before)
	entry.Summary = fmt.Sprintf("clock %s: %d -> %d", clockID, before, clone.Value)
	return entry
}

// tagHandler implements the `tag` atom. Target=="scene" merges/removes
// scene.Tags; any other Target is treated as an entity id and merges/removes
// Entity.Tags. add may be a string (bare tag) or a map of key:value pairs;
// remove may be a string or a list of strings. Values are coerced to string
// for scene tags (Scene.Tags is map[string]string); entity tags keep their
// native type in Entity.Tags (map[string]any).
func tagHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	if e.Target == "scene" {
		return tagSceneHandler(gs, e, ctx, entry)
	}
	return tagEntityHandler(gs, e, ctx, entry)
}

func tagSceneHandler(gs *world.GameState, e world.Effect, ctx EvalCtx, entry world.LogEntry) world.LogEntry {
	before := map[string]any{}
	for k, v := range gs.Scene.Tags {
		before[k] = v
	}
	scene := gs.Scene.Clone()
	if addRaw, ok := e.Field("add"); ok {
		applySceneAdd(scene.Tags, addRaw)
	}
	if removeRaw, ok := e.Field("remove"); ok {
		for _, k := range toStringList(removeRaw) {
			delete(scene.Tags, k)
		}
	}
	gs.Scene = scene

	after := map[string]any{}
	for k, v := range scene.Tags {
		after[k] = v
	}
	entry.OK = true
	entry.Before = before
	entry.After = after
	entry.ImpactLevel = 1
	entry.Summary = "scene.tags updated"
	return entry
}

func tagEntityHandler(gs *world.GameState, e world.Effect, ctx EvalCtx, entry world.LogEntry) world.LogEntry {
	ent, ok := gs.Entities[e.Target]
	if !ok {
		return failLog(entry, fmt.Sprintf("tag: target %q not found", e.Target))
	}
	before := map[string]any{}
	for k, v := range ent.Tags {
		before[k] = v
	}
	clone := ent.Clone()
	if addRaw, ok := e.Field("add"); ok {
		applyEntityAdd(clone.Tags, addRaw)
	}
	if removeRaw, ok := e.Field("remove"); ok {
		for _, k := range toStringList(removeRaw) {
			delete(clone.Tags, k)
		}
	}
	gs.PutEntity(clone)

	after := map[string]any{}
	for k, v := range clone.Tags {
		after[k] = v
	}
	entry.OK = true
	entry.Before = before
	entry.After = after
	entry.ImpactLevel = 1
	entry.Summary = fmt.Sprintf("%s.tags updated", e.Target)
	return entry
}

func applySceneAdd(tags map[string]string, addRaw any) {
	switch v := addRaw.(type) {
	case string:
		tags[v] = "true"
	case map[string]any:
		for k, val := range v {
			tags[k] = fmt.Sprintf("%v", val)
		}
	}
}

func applyEntityAdd(tags map[string]any, addRaw any) {
	switch v := addRaw.(type) {
	case string:
		tags[v] = true
	case map[string]any:
		for k, val := range v {
			tags[k] = val
		}
	}
}

func toStringList(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// resourceHandler implements the `resource` atom: delta is accumulated
// under tag "resource_{id}" on the target entity, per the compat note in
// spec's atom table.
func resourceHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	ent, ok := gs.Entities[e.Target]
	if !ok {
		return failLog(entry, fmt.Sprintf("resource: target %q not found", e.Target))
	}
	idRaw, _ := e.Field("id")
	resID, _ := idRaw.(string)
	if resID == "" {
		return failLog(entry, "resource: missing 'id' field")
	}
	raw, _ := e.Field("delta")
	delta, rolled, err := resolveDelta(raw, ctx.RNG)
	if err != nil {
		return failLog(entry, err.Error())
	}

	key := "resource_" + resID
	before := asInt(ent.Tags[key])
	clone := ent.Clone()
	clone.Tags[key] = before + delta
	gs.PutEntity(clone)

	entry.OK = true
	entry.Rolled = rolled
	entry.Before = map[string]any{key: before}
	entry.After = map[string]any{key: before + delta}
	entry.ImpactLevel = absInt(delta)
	entry.Summary = fmt.Sprintf("%s.%s: %d -> %d", e.Target, key, before, before+delta)
	return entry
}

var validNoiseIntensities = map[string]bool{"quiet": true, "normal": true, "loud": true, "very_loud": true}

// noiseHandler implements the `noise` atom: passive, validated only — it
// never mutates world state, matching spec's "validated only" semantics.
func noiseHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	zoneRaw, ok := e.Field("zone")
	zoneID, _ := zoneRaw.(string)
	if !ok || zoneID == "" {
		zoneID = e.Target
	}
	if zoneID == "" {
		return failLog(entry, "noise: missing 'zone' field")
	}
	if _, ok := gs.Zones[zoneID]; !ok {
		return failLog(entry, fmt.Sprintf("noise: zone %q does not exist", zoneID))
	}
	intensityRaw, _ := e.Field("intensity")
	intensity, _ := intensityRaw.(string)
	if !validNoiseIntensities[intensity] {
		return failLog(entry, fmt.Sprintf("noise: invalid intensity %q", intensity))
	}
	entry.Target = zoneID
	entry.OK = true
	entry.After = map[string]any{"zone": zoneID, "intensity": intensity}
	entry.Summary = fmt.Sprintf("noise in %s: %s", zoneID, intensity)
	return entry
}

// metaHandler implements the `meta` atom: a forward-compatibility
// placeholder that is logged only.
func metaHandler(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	entry := newLogEntry(e, ctx)
	entry.OK = true
	entry.Summary = "meta effect (placeholder, logged only)"
	return entry
}
