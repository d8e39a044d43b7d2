// Package effects implements the effect engine: the dispatch registry for
// effect atoms, dice/condition integration, the transactional apply_effects
// entry point, the reactive rule set, and the audit log it produces. This is
// the only package permitted to mutate a world.GameState's entities, clocks,
// and scene tags/pending-effects queue outside of direct test setup.
package effects

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/duskward/ttrpgcore/world"
)

// EvalCtx carries the per-call context a handler or reaction needs: who is
// acting, the current round, and a seeded RNG for any dice resolution.
type EvalCtx struct {
	Actor string
	Round int
	RNG   *rand.Rand
	Seed  int64
}

// Handler dispatches one effect atom against gs, returning its audit log
// entry. Handlers never panic; any failure is reported via LogEntry.OK/Error.
type Handler func(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry

// Engine owns the dispatch registry and the reactive rule set. It is safe to
// construct once and share across turns since it holds no per-turn state.
type Engine struct {
	Handlers map[world.EffectType]Handler
	Rules    []ReactiveRule
}

// NewEngine returns an Engine with every built-in atom handler and the
// baseline reactive rule set registered.
func NewEngine() *Engine {
	en := &Engine{
		Handlers: make(map[world.EffectType]Handler),
		Rules:    BaselineRules(),
	}
	en.Handlers[world.EffectHP] = hpHandler
	en.Handlers[world.EffectGuard] = guardHandler
	en.Handlers[world.EffectPosition] = positionHandler
	en.Handlers[world.EffectMark] = markHandler
	en.Handlers[world.EffectInventory] = inventoryHandler
	en.Handlers[world.EffectClock] = clockHandler
	en.Handlers[world.EffectTag] = tagHandler
	en.Handlers[world.EffectResource] = resourceHandler
	en.Handlers[world.EffectNoise] = noiseHandler
	en.Handlers[world.EffectMeta] = metaHandler
	return en
}

// RegisterHandler installs or replaces the handler for t, per spec's "new
// types may be registered at runtime."
func (en *Engine) RegisterHandler(t world.EffectType, h Handler) {
	en.Handlers[t] = h
}

// dispatch looks up e's handler; an unrecognized type is skipped gracefully
// (ok=true, skipped=true) rather than treated as a failure, per the
// forward-compatibility requirement.
func (en *Engine) dispatch(gs *world.GameState, e world.Effect, ctx EvalCtx) world.LogEntry {
	h, ok := en.Handlers[e.Type]
	if !ok {
		entry := newLogEntry(e, ctx)
		entry.OK = true
		entry.Skipped = true
		entry.Summary = fmt.Sprintf("unrecognized effect type %q skipped", e.Type)
		return entry
	}
	return h(gs, e, ctx)
}

func newLogEntry(e world.Effect, ctx EvalCtx) world.LogEntry {
	return world.LogEntry{
		Type:      e.Type,
		Target:    e.Target,
		Actor:     ctx.Actor,
		Seed:      ctx.Seed,
		Round:     ctx.Round,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func failLog(entry world.LogEntry, msg string) world.LogEntry {
	entry.OK = false
	entry.Error = msg
	entry.Summary = msg
	return entry
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// recomputeVisibleActors refreshes the derived VisibleActors field on every
// living entity in zoneID to the ids of every other entity co-located there.
// Called after a position effect changes an entity's current zone.
func recomputeVisibleActors(gs *world.GameState, zoneID string) {
	var occupants []string
	for id, e := range gs.Entities {
		if e.CurrentZone == zoneID {
			occupants = append(occupants, id)
		}
	}
	for _, id := range occupants {
		e := gs.Entities[id]
		if e.Living == nil {
			continue
		}
		clone := e.Clone()
		var others []string
		for _, other := range occupants {
			if other != id {
				others = append(others, other)
			}
		}
		clone.Living.VisibleActors = others
		gs.PutEntity(clone)
	}
}
