package effects_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/world"
)

func newTestState(t *testing.T) *world.GameState {
	t.Helper()
	now := time.Now()
	scene := world.NewScene("s1", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.CurrentActor = "pc.arin"

	gs.PutZone(world.NewZone("courtyard", "Courtyard", world.NewMeta(world.VisibilityPublic, now)))
	gs.PutZone(world.NewZone("threshold", "Threshold", world.NewMeta(world.VisibilityPublic, now)))

	pc := world.NewEntity("pc.arin", world.EntityPC, "Arin", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	pc.Living.HP = world.HP{Current: 18, Max: 20}
	gs.PutEntity(pc)

	npc := world.NewEntity("npc.guard", world.EntityNPC, "Guard", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	npc.Living.HP = world.HP{Current: 10, Max: 10}
	gs.PutEntity(npc)
	return gs
}

func TestHPAtomClampsAndLogs(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "pc.arin", Fields: map[string]any{"delta": -25}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 1})

	require.True(t, res.OK)
	require.Equal(t, 0, gs.Entities["pc.arin"].Living.HP.Current)
}

func TestHPZeroTriggersUnconsciousReaction(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "npc.guard", Fields: map[string]any{"delta": -10}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 2})

	require.True(t, res.OK)
	guard := gs.Entities["npc.guard"]
	require.Equal(t, true, guard.Tags["unconscious"])
}

func TestBloodiedReactionFiresAcrossThreshold(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "npc.guard", Fields: map[string]any{"delta": -8}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 3})

	require.True(t, res.OK)
	guard := gs.Entities["npc.guard"]
	require.Equal(t, true, guard.Tags["bloodied"])
}

func TestMarkFearLowersGuard(t *testing.T) {
	gs := newTestState(t)
	arin := gs.Entities["pc.arin"].Clone()
	arin.Living.Guard = 2
	gs.PutEntity(arin)

	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectMark, Target: "pc.arin", Source: "npc.guard", Fields: map[string]any{"add": "fear"}},
	}, effects.ApplyOptions{Actor: "npc.guard", Transactional: true, Mode: effects.ModeStrict, Seed: 4})

	require.True(t, res.OK)
	require.Equal(t, 1, gs.Entities["pc.arin"].Living.Guard)
}

func TestPositionMovesEntityAndRecomputesVisibleActors(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectPosition, Target: "pc.arin", Fields: map[string]any{"to": "threshold"}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 5})

	require.True(t, res.OK)
	require.Equal(t, "threshold", gs.Entities["pc.arin"].CurrentZone)
	require.Empty(t, gs.Entities["pc.arin"].Living.VisibleActors)
	require.Empty(t, gs.Entities["npc.guard"].Living.VisibleActors)
}

func TestClockAutovivifiesAndClamps(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectClock, Target: "alarm", Fields: map[string]any{"delta": 15}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 6})

	require.True(t, res.OK)
	require.Equal(t, world.DefaultClockMax, gs.Clocks["alarm"].Value)
}

func TestStrictModeRollsBackOnFailure(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "pc.arin", Fields: map[string]any{"delta": -1}},
		{Type: world.EffectHP, Target: "nonexistent", Fields: map[string]any{"delta": -1}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 7})

	require.False(t, res.OK)
	require.Equal(t, 18, gs.Entities["pc.arin"].Living.HP.Current)
}

func TestBestEffortModeContinuesPastDispatchFailure(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "pc.arin", Fields: map[string]any{"delta": "not-a-dice-expr-d"}},
		{Type: world.EffectHP, Target: "npc.guard", Fields: map[string]any{"delta": -1}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeBestEffort, Seed: 8})

	require.True(t, res.OK)
	require.Equal(t, 18, gs.Entities["pc.arin"].Living.HP.Current)
	require.Equal(t, 9, gs.Entities["npc.guard"].Living.HP.Current)
}

func TestUnknownEffectTypeSkippedGracefully(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectType("future_type"), Target: "pc.arin"},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 9})

	require.True(t, res.OK)
	require.Len(t, res.Logs, 1)
	require.True(t, res.Logs[0].Skipped)
}

func TestAfterRoundsSchedulesPendingEffect(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "npc.guard", AfterRounds: 2, Fields: map[string]any{"delta": -5}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 10})

	require.True(t, res.OK)
	require.Len(t, gs.Scene.PendingEffects, 1)
	require.Equal(t, 10, gs.Entities["npc.guard"].Living.HP.Current)

	gs.Scene.Round += 2
	res2 := en.ApplyEffects(gs, nil, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 11})
	require.True(t, res2.OK)
	require.Empty(t, gs.Scene.PendingEffects)
	require.Equal(t, 5, gs.Entities["npc.guard"].Living.HP.Current)
}

func TestConditionSkipsEffectWhenFalse(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "pc.arin", Condition: "target.hp.current < 5", Fields: map[string]any{"delta": -1}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 12})

	require.True(t, res.OK)
	require.Equal(t, 18, gs.Entities["pc.arin"].Living.HP.Current)
	require.True(t, res.Logs[0].Skipped)
}

func TestDiceDeltaIsLoggedWithRolledValues(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectHP, Target: "npc.guard", Fields: map[string]any{"delta": "-1d4"}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 13})

	require.True(t, res.OK)
	require.NotEmpty(t, res.Logs[0].Rolled)
}

func TestTagAtomOnSceneAndEntity(t *testing.T) {
	gs := newTestState(t)
	en := effects.NewEngine()
	res := en.ApplyEffects(gs, []world.Effect{
		{Type: world.EffectTag, Target: "scene", Fields: map[string]any{"add": world.TagAlert}},
		{Type: world.EffectTag, Target: "pc.arin", Fields: map[string]any{"add": "marked"}},
	}, effects.ApplyOptions{Actor: "pc.arin", Transactional: true, Mode: effects.ModeStrict, Seed: 14})

	require.True(t, res.OK)
	require.Contains(t, gs.Scene.Tags, world.TagAlert)
	require.Equal(t, true, gs.Entities["pc.arin"].Tags["marked"])
}
