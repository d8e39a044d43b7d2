package world_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/world"
)

func newTestState() *world.GameState {
	now := time.Now()
	scene := world.NewScene("scene-1", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.PutZone(world.NewZone("courtyard", "Courtyard", world.NewMeta(world.VisibilityPublic, now)))
	gs.PutZone(world.NewZone("threshold", "Threshold", world.NewMeta(world.VisibilityPublic, now)))
	z := gs.Zones["courtyard"]
	z.Exits = append(z.Exits, world.Exit{
		To:        "threshold",
		Direction: world.DirNorth,
		Cost:      1,
		Meta:      world.NewMeta(world.VisibilityPublic, now),
	})
	gs.PutZone(z)
	e := world.NewEntity("pc.arin", world.EntityPC, "Arin", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	gs.PutEntity(e)
	return gs
}

func TestMetaConstructionStrictness(t *testing.T) {
	now := time.Now()
	m := world.NewMeta(world.VisibilityGMOnly, now)
	require.True(t, m.GMOnly)
	require.True(t, m.Valid())
}

func TestFixMetaAutoCorrects(t *testing.T) {
	m := world.Meta{Visibility: world.VisibilityHidden, GMOnly: true}
	require.False(t, m.Valid())
	fixed := world.FixMeta(m)
	require.True(t, fixed.Valid())
	require.False(t, fixed.GMOnly)
}

func TestCheckInvariantsCleanState(t *testing.T) {
	gs := newTestState()
	require.Empty(t, gs.CheckInvariants())
}

func TestCheckInvariantsCatchesDanglingZone(t *testing.T) {
	gs := newTestState()
	e := gs.Entities["pc.arin"]
	e.CurrentZone = "nonexistent"
	gs.PutEntity(e)
	errs := gs.CheckInvariants()
	require.NotEmpty(t, errs)
}

func TestCheckInvariantsCatchesHPOutOfRange(t *testing.T) {
	gs := newTestState()
	e := gs.Entities["pc.arin"].Clone()
	e.Living.HP.Current = -1
	gs.PutEntity(e)
	errs := gs.CheckInvariants()
	require.NotEmpty(t, errs)
}

func TestEntityCloneIsIndependent(t *testing.T) {
	gs := newTestState()
	orig := gs.Entities["pc.arin"]
	clone := orig.Clone()
	clone.Living.HP.Current = 1
	clone.Tags["scorched"] = true
	require.NotEqual(t, orig.Living.HP.Current, clone.Living.HP.Current)
	require.NotContains(t, orig.Tags, "scorched")
}

func TestZoneAdjacentAndBlockedDerivedFields(t *testing.T) {
	gs := newTestState()
	z := gs.Zones["courtyard"]
	require.Equal(t, []string{"threshold"}, z.AdjacentZones())
	require.Empty(t, z.BlockedExits())
}

func TestRedactionCacheInvalidation(t *testing.T) {
	gs := newTestState()
	key := world.CacheKey{POV: "pc.arin", EntityID: "npc.guard"}
	gs.CachePut(key, "cached-view")
	_, ok := gs.CacheGet(key)
	require.True(t, ok)
	gs.InvalidateEntity("npc.guard")
	_, ok = gs.CacheGet(key)
	require.False(t, ok)
}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	gs := newTestState()
	var order []int
	gs.Subscribe("zone.entered", func(string, map[string]any) { order = append(order, 1) })
	gs.Subscribe("zone.entered", func(string, map[string]any) { order = append(order, 2) })
	gs.Publish("zone.entered", map[string]any{"zone": "threshold"})
	require.Equal(t, []int{1, 2}, order)
}

func TestPublishRecoversListenerPanic(t *testing.T) {
	gs := newTestState()
	var panicked any
	gs.OnListenerPanic = func(_ string, r any) { panicked = r }
	var secondRan bool
	gs.Subscribe("zone.entered", func(string, map[string]any) { panic("boom") })
	gs.Subscribe("zone.entered", func(string, map[string]any) { secondRan = true })
	require.NotPanics(t, func() {
		gs.Publish("zone.entered", nil)
	})
	require.NotNil(t, panicked)
	require.True(t, secondRan)
}

func TestClockClamping(t *testing.T) {
	now := time.Now()
	c := world.NewClock("scene.alarm", "Alarm", 15, 0, 10, world.NewMeta(world.VisibilityPublic, now))
	require.Equal(t, 10, c.Value)
	require.True(t, c.Filled())
}

func TestSceneAdvanceTurnSingleActorAlwaysIncrementsRound(t *testing.T) {
	gs := newTestState()
	s1 := gs.Scene.AdvanceTurn()
	require.Equal(t, 2, s1.Round)
	s2 := s1.AdvanceTurn()
	require.Equal(t, 3, s2.Round)
}

func TestSceneAdvanceTurnMultiActorRollsOverRound(t *testing.T) {
	now := time.Now()
	scene := world.NewScene("scene-2", []string{"pc.arin", "npc.guard"}, 12, world.NewMeta(world.VisibilityPublic, now))
	s1 := scene.AdvanceTurn()
	require.Equal(t, 1, s1.TurnIndex)
	require.Equal(t, 1, s1.Round)
	s2 := s1.AdvanceTurn()
	require.Equal(t, 0, s2.TurnIndex)
	require.Equal(t, 2, s2.Round)
}

func TestMarkKeyFormat(t *testing.T) {
	require.Equal(t, "npc.guard.fear", world.MarkKey("npc.guard", "fear"))
}
