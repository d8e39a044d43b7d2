package validator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/validator"
	"github.com/duskward/ttrpgcore/world"
)

func newTestState(t *testing.T) *world.GameState {
	t.Helper()
	now := time.Now()
	scene := world.NewScene("s1", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.CurrentActor = "pc.arin"

	courtyard := world.NewZone("courtyard", "Courtyard", world.NewMeta(world.VisibilityPublic, now))
	threshold := world.NewZone("threshold", "Threshold", world.NewMeta(world.VisibilityPublic, now))
	courtyard.Exits = []world.Exit{{To: "threshold", Direction: world.DirNorth}}
	threshold.Exits = []world.Exit{{To: "courtyard", Direction: world.DirSouth}}
	gs.PutZone(courtyard)
	gs.PutZone(threshold)

	pc := world.NewEntity("pc.arin", world.EntityPC, "Arin", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	pc.Living.HP = world.HP{Current: 18, Max: 20}
	pc.Living.HasWeapon = true
	pc.Living.Inventory = []string{"potion.healing"}
	pc.Living.VisibleActors = []string{"npc.guard"}
	gs.PutEntity(pc)

	npc := world.NewEntity("npc.guard", world.EntityNPC, "Guard", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	npc.Living.HP = world.HP{Current: 10, Max: 10}
	npc.Living.VisibleActors = []string{"pc.arin"}
	gs.PutEntity(npc)

	return gs
}

func newExecutor() *validator.Executor {
	return validator.NewExecutor(effects.NewEngine())
}

func seedOf(n int64) *int64 { return &n }

func TestExecuteMoveAppliesPositionEffect(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.Move, map[string]any{"actor": "pc.arin", "to": "threshold"}, "go north to the threshold", seedOf(1))

	require.True(t, res.OK)
	require.Equal(t, "threshold", gs.Entities["pc.arin"].CurrentZone)
}

func TestExecuteMoveRejectsNonAdjacentZone(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.Move, map[string]any{"actor": "pc.arin", "to": "dungeon"}, "go to the dungeon", seedOf(2))

	require.Equal(t, toolcatalog.AskClarifying, res.ToolID)
	require.Equal(t, "courtyard", gs.Entities["pc.arin"].CurrentZone)
}

func TestExecuteAttackDamagesTarget(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	before := gs.Entities["npc.guard"].Living.HP.Current
	res := ex.Execute(gs, toolcatalog.Attack, map[string]any{"actor": "pc.arin", "target": "npc.guard", "style": 3}, "attack the guard", seedOf(3))

	require.True(t, res.OK)
	after := gs.Entities["npc.guard"].Living.HP.Current
	require.LessOrEqual(t, after, before)
}

func TestExecuteTalkAppliesSocialOutcome(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.Talk, map[string]any{"actor": "pc.arin", "target": "npc.guard", "intent": "persuade", "style": 3}, "persuade the guard", seedOf(4))

	require.True(t, res.OK)
	require.True(t, gs.Entities["pc.arin"].Living.HasTalkedThisTurn)
}

func TestExecuteUseItemConsumesChargeAndHeals(t *testing.T) {
	gs := newTestState(t)
	arin := gs.Entities["pc.arin"].Clone()
	arin.Living.HP.Current = 5
	gs.PutEntity(arin)

	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.UseItem, map[string]any{"actor": "pc.arin", "item_id": "potion.healing", "method": "consume"}, "drink the potion", seedOf(5))

	require.True(t, res.OK)
	require.Empty(t, gs.Entities["pc.arin"].Living.Inventory)
	require.Greater(t, gs.Entities["pc.arin"].Living.HP.Current, 5)
}

func TestExecuteGetInfoStatusTopic(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.GetInfo, map[string]any{"actor": "pc.arin", "target": "npc.guard", "topic": "status"}, "check the guard", seedOf(6))

	require.True(t, res.OK)
	require.Equal(t, world.HP{Current: 10, Max: 10}, res.Facts["hp"])
}

func TestExecuteNarrateOnlyNeverMutates(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.NarrateOnly, map[string]any{"actor": "pc.arin", "topic": "the torches"}, "look around", seedOf(7))

	require.True(t, res.OK)
	require.Equal(t, "courtyard", gs.Entities["pc.arin"].CurrentZone)
}

func TestExecuteApplyEffectsDecodesRawEffectList(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.ApplyEffects, map[string]any{
		"effects": []any{
			map[string]any{"type": "hp", "target": "npc.guard", "fields": map[string]any{"delta": -2}},
		},
	}, "", seedOf(8))

	require.True(t, res.OK)
	require.Equal(t, 8, gs.Entities["npc.guard"].Living.HP.Current)
}

func TestExecuteAskClarifyingCreatesPendingChoice(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.AskClarifying, map[string]any{
		"question": "which door?",
		"reason":   "ambiguous_intent",
		"options": []any{
			map[string]any{"id": "left", "label": "the left door", "tool_id": toolcatalog.Move, "args_patch": map[string]any{"to": "threshold"}},
			map[string]any{"id": "right", "label": "the right door", "tool_id": toolcatalog.NarrateOnly},
		},
	}, "", seedOf(9))

	require.True(t, res.OK)
	require.NotNil(t, gs.Scene.PendingChoice)
	require.Equal(t, 1, gs.Scene.ChoiceCountThisTurn)
}

func TestExecuteConsumesPendingChoiceOnNextCall(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	ex.Execute(gs, toolcatalog.AskClarifying, map[string]any{
		"question": "which door?",
		"reason":   "ambiguous_intent",
		"options": []any{
			map[string]any{"id": "left", "label": "the left door", "tool_id": toolcatalog.Move, "args_patch": map[string]any{"to": "threshold", "actor": "pc.arin"}},
			map[string]any{"id": "right", "label": "the right door", "tool_id": toolcatalog.NarrateOnly, "args_patch": map[string]any{"actor": "pc.arin"}},
		},
	}, "", seedOf(10))
	require.NotNil(t, gs.Scene.PendingChoice)

	res := ex.Execute(gs, toolcatalog.NarrateOnly, map[string]any{}, "the left door", seedOf(11))

	require.True(t, res.OK)
	require.Equal(t, toolcatalog.Move, res.ToolID)
	require.Nil(t, gs.Scene.PendingChoice)
	require.Equal(t, "threshold", gs.Entities["pc.arin"].CurrentZone)
}

func TestExecuteAskClarifyingDowngradesAfterBudgetSpent(t *testing.T) {
	gs := newTestState(t)
	gs.Scene.ChoiceCountThisTurn = world.MaxChoicesPerTurn
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.AskClarifying, map[string]any{
		"question": "which door?",
		"reason":   "ambiguous_intent",
		"options": []any{
			map[string]any{"id": "left", "label": "left", "tool_id": toolcatalog.NarrateOnly},
			map[string]any{"id": "right", "label": "right", "tool_id": toolcatalog.NarrateOnly},
		},
	}, "", seedOf(12))

	require.Equal(t, toolcatalog.NarrateOnly, res.ToolID)
	require.Nil(t, gs.Scene.PendingChoice)
}

func TestExecuteUnknownToolFallsBackToAskClarifying(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, "not_a_real_tool", map[string]any{}, "do something weird", seedOf(13))

	require.Equal(t, toolcatalog.AskClarifying, res.ToolID)
}

func TestExecuteInvalidArgsFallsBackToAskClarifying(t *testing.T) {
	gs := newTestState(t)
	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.Move, map[string]any{"actor": "pc.arin"}, "go somewhere", seedOf(14))

	require.Equal(t, toolcatalog.AskClarifying, res.ToolID)
}

func TestExecuteAskRollSneakDerivesDCFromSceneTags(t *testing.T) {
	gs := newTestState(t)
	gs.Scene.BaseDC = 12
	gs.Scene.Tags[world.TagAlert] = string(world.AlertSleepy)
	gs.Scene.Tags[world.TagLighting] = string(world.LightingDim)
	gs.Scene.Tags[world.TagNoise] = string(world.NoiseQuiet)
	gs.Scene.Tags[world.TagCover] = string(world.CoverGood)

	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.AskRoll, map[string]any{
		"actor": "pc.arin", "action": "sneak", "zone_target": "threshold", "style": 1, "domain": "d6",
	}, "sneak to the threshold", seedOf(1))

	require.True(t, res.OK)
	require.Equal(t, 8, res.Facts["dc"])
}

func TestExecuteAttackConsumesTargetMarkNotActorMark(t *testing.T) {
	gs := newTestState(t)
	guard := gs.Entities["npc.guard"].Clone()
	guard.Living.Marks[world.MarkKey("pc.arin", "exposed")] = world.Mark{Tag: "exposed", Source: "pc.arin", Value: 2, CreatedTurn: 0}
	gs.PutEntity(guard)

	arin := gs.Entities["pc.arin"].Clone()
	arin.Living.Marks[world.MarkKey("npc.guard", "winded")] = world.Mark{Tag: "winded", Source: "npc.guard", Value: 3, CreatedTurn: 0}
	gs.PutEntity(arin)

	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.Attack, map[string]any{
		"actor": "pc.arin", "target": "npc.guard", "style": 1, "consume_mark": true,
	}, "attack the guard", seedOf(20))

	require.True(t, res.OK)
	require.Empty(t, gs.Entities["npc.guard"].Living.Marks, "the attacked entity's mark must be consumed")
	require.Len(t, gs.Entities["pc.arin"].Living.Marks, 1, "the attacker's own mark must be left untouched")
}

func TestExecuteUseItemDelegatesToAttackAndMentionsItem(t *testing.T) {
	gs := newTestState(t)
	arin := gs.Entities["pc.arin"].Clone()
	arin.Living.Inventory = append(arin.Living.Inventory, "vial.poison")
	gs.PutEntity(arin)

	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.UseItem, map[string]any{
		"actor": "pc.arin", "item_id": "vial.poison", "target": "npc.guard", "method": "consume", "confirmed": true,
	}, "stab the guard with the poisoned vial", seedOf(21))

	require.True(t, res.OK)
	require.Equal(t, toolcatalog.Attack, res.ToolID)
	require.Equal(t, "vial.poison", res.Facts["item_id"])
	require.NotContains(t, gs.Entities["pc.arin"].Living.Inventory, "vial.poison")
	require.Contains(t, res.NarrationHint["summary"], "vial.poison")
}

func TestExecuteUseItemDangerousOnPCRequiresConfirm(t *testing.T) {
	gs := newTestState(t)
	arin := gs.Entities["pc.arin"].Clone()
	arin.Living.Inventory = append(arin.Living.Inventory, "vial.poison")
	gs.PutEntity(arin)

	pcVictim := world.NewEntity("pc.bryn", world.EntityPC, "Bryn", "courtyard", world.NewMeta(world.VisibilityPublic, time.Now()))
	gs.PutEntity(pcVictim)

	ex := newExecutor()
	res := ex.Execute(gs, toolcatalog.UseItem, map[string]any{
		"actor": "pc.arin", "item_id": "vial.poison", "target": "pc.bryn", "method": "consume",
	}, "poison bryn's drink", seedOf(22))

	require.Equal(t, toolcatalog.AskClarifying, res.ToolID)
	require.NotNil(t, gs.Scene.PendingChoice)
	require.Contains(t, gs.Entities["pc.arin"].Living.Inventory, "vial.poison", "item must not be spent before confirmation")
}
