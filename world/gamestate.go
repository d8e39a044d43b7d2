package world

import (
	"fmt"
	"sync"

	"github.com/duskward/ttrpgcore/eventbus"
)

// CacheKey identifies one redaction-cache slot: a POV actor id (empty string
// for the GM POV) paired with the entity id the cached view describes.
type CacheKey struct {
	POV      string
	EntityID string
}

// Listener receives published events. Implementations must not block or
// panic; GameState.Publish recovers a panicking listener, logs it via
// OnListenerPanic if set, and continues delivering to the rest of the
// registration-ordered snapshot.
type Listener func(eventType string, payload map[string]any)

// GameState is the aggregate root: entity/zone/clock maps, the scene, turn
// bookkeeping, the lazily-populated redaction cache, and the event bus. It
// is the exclusive owner of everything reachable from it — mutation happens
// only via copy-on-write replacement through the effect engine.
type GameState struct {
	Entities map[string]Entity
	Zones    map[string]Zone
	Clocks   map[string]Clock
	Scene    Scene

	CurrentActor  string
	PendingAction string
	TurnFlags     map[string]any

	cacheMu sync.Mutex
	cache   map[CacheKey]any

	// Bus is the event bus backing Publish/Subscribe. It defaults to an
	// in-process eventbus.InProc but may be swapped for a cross-process
	// backend (eventbus/redisbus) before the GameState starts taking
	// turns.
	Bus eventbus.Bus

	OnListenerPanic func(eventType string, recovered any)
}

// NewGameState constructs an empty GameState around the given scene, backed
// by a default in-process event bus.
func NewGameState(scene Scene) *GameState {
	return &GameState{
		Entities:  make(map[string]Entity),
		Zones:     make(map[string]Zone),
		Clocks:    make(map[string]Clock),
		Scene:     scene,
		TurnFlags: make(map[string]any),
		cache:     make(map[CacheKey]any),
		Bus:       eventbus.NewInProc(),
	}
}

// CacheGet returns a cached redaction view, if present.
func (g *GameState) CacheGet(key CacheKey) (any, bool) {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	v, ok := g.cache[key]
	return v, ok
}

// CachePut stores a redaction view under key.
func (g *GameState) CachePut(key CacheKey, view any) {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	g.cache[key] = view
}

// InvalidateEntity drops every cache entry whose EntityID matches id,
// regardless of POV. Callers must invoke this on any Meta mutation of that
// entity, per the redaction-cache-coherence design note.
func (g *GameState) InvalidateEntity(id string) {
	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	for k := range g.cache {
		if k.EntityID == id {
			delete(g.cache, k)
		}
	}
	g.Publish("cache.invalidated", map[string]any{"entity_id": id})
}

// InvalidateAll clears the entire redaction cache, acceptable at coarse
// boundaries such as turn end.
func (g *GameState) InvalidateAll() {
	g.cacheMu.Lock()
	g.cache = make(map[CacheKey]any)
	g.cacheMu.Unlock()
	g.Publish("cache.invalidated", map[string]any{"scope": "all"})
}

// Subscribe registers l to receive events of eventType, returned in
// registration order at publish time.
func (g *GameState) Subscribe(eventType string, l Listener) eventbus.Subscription {
	return g.Bus.Subscribe(eventType, func(e eventbus.Event) {
		defer func() {
			if r := recover(); r != nil && g.OnListenerPanic != nil {
				g.OnListenerPanic(eventType, r)
			}
		}()
		l(e.Type, e.Payload)
	})
}

// Publish delivers payload to every listener registered for eventType via
// the GameState's event bus.
func (g *GameState) Publish(eventType string, payload map[string]any) {
	g.Bus.Publish(eventbus.Event{Type: eventType, Payload: payload})
}

// CheckInvariants validates the testable-property invariants from §8 against
// the current state and returns every violation found; an empty slice means
// the state is consistent.
func (g *GameState) CheckInvariants() []error {
	var errs []error
	for id, e := range g.Entities {
		if _, ok := g.Zones[e.CurrentZone]; !ok {
			errs = append(errs, fmt.Errorf("entity %s: current_zone %q not in zone map", id, e.CurrentZone))
		}
		if e.Living != nil {
			hp := e.Living.HP
			if hp.Current < 0 || hp.Current > hp.Max {
				errs = append(errs, fmt.Errorf("entity %s: hp.current %d out of [0,%d]", id, hp.Current, hp.Max))
			}
		}
		if !e.Meta.Valid() {
			errs = append(errs, fmt.Errorf("entity %s: meta.gm_only disagrees with meta.visibility", id))
		}
	}
	for id, z := range g.Zones {
		for _, ex := range z.Exits {
			if _, ok := g.Zones[ex.To]; !ok {
				errs = append(errs, fmt.Errorf("zone %s: exit target %q not in zone map", id, ex.To))
			}
		}
		if !z.Meta.Valid() {
			errs = append(errs, fmt.Errorf("zone %s: meta.gm_only disagrees with meta.visibility", id))
		}
	}
	for id, c := range g.Clocks {
		if c.Value < c.Min || c.Value > c.Max {
			errs = append(errs, fmt.Errorf("clock %s: value %d out of [%d,%d]", id, c.Value, c.Min, c.Max))
		}
		if !c.Meta.Valid() {
			errs = append(errs, fmt.Errorf("clock %s: meta.gm_only disagrees with meta.visibility", id))
		}
	}
	if g.Scene.ChoiceCountThisTurn > MaxChoicesPerTurn {
		errs = append(errs, fmt.Errorf("scene: choice_count_this_turn %d exceeds cap %d", g.Scene.ChoiceCountThisTurn, MaxChoicesPerTurn))
	}
	if !g.Scene.Meta.Valid() {
		errs = append(errs, fmt.Errorf("scene: meta.gm_only disagrees with meta.visibility"))
	}
	return errs
}

// PutEntity replaces the stored entity by id via copy-on-write.
func (g *GameState) PutEntity(e Entity) {
	g.Entities[e.ID] = e
}

// PutZone replaces the stored zone by id via copy-on-write.
func (g *GameState) PutZone(z Zone) {
	g.Zones[z.ID] = z
}

// PutClock replaces the stored clock by id via copy-on-write.
func (g *GameState) PutClock(c Clock) {
	g.Clocks[c.ID] = c
}
