package turnpipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/planner"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/turnpipeline"
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
	guardRoom := world.NewZone("guard_room", "Guard room", world.NewMeta(world.VisibilityPublic, now))
	courtyard.Exits = []world.Exit{{To: "guard_room", Direction: world.DirNorth}}
	guardRoom.Exits = []world.Exit{{To: "courtyard", Direction: world.DirSouth}}
	gs.PutZone(courtyard)
	gs.PutZone(guardRoom)

	pc := world.NewEntity("pc.arin", world.EntityPC, "Arin", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	pc.Living.HP = world.HP{Current: 18, Max: 20}
	pc.Living.HasWeapon = true
	pc.Living.VisibleActors = []string{"npc.guard"}
	gs.PutEntity(pc)

	npc := world.NewEntity("npc.guard", world.EntityNPC, "Guard", "guard_room", world.NewMeta(world.VisibilityPublic, now))
	npc.Living.HP = world.HP{Current: 10, Max: 10}
	gs.PutEntity(npc)

	return gs
}

// stubPlanner returns a fixed action sequence regardless of input.
type stubPlanner struct {
	actions    []planner.ActionStep
	ok         bool
	err        error
	confidence float64
}

func (p *stubPlanner) Plan(ctx context.Context, req planner.Request) (planner.Result, error) {
	if p.err != nil {
		return planner.Result{}, p.err
	}
	return planner.Result{OK: p.ok, Actions: p.actions, Confidence: p.confidence}, nil
}

func seedOf(n int64) *int64 { return &n }

func TestRunTurnSingleStepMove(t *testing.T) {
	gs := newTestState(t)
	ex := validator.NewExecutor(effects.NewEngine())
	p := &stubPlanner{ok: true, confidence: 0.9, actions: []planner.ActionStep{
		{Tool: toolcatalog.Move, Args: map[string]any{"actor": "pc.arin", "to": "guard_room"}},
	}}
	rt := turnpipeline.NewRuntime(p, ex, nil)

	res := rt.RunTurn(context.Background(), gs, "go north to the guard_room", "pc.arin", seedOf(1))

	require.True(t, res.OK)
	require.False(t, res.IsCompound)
	require.Equal(t, "guard_room", gs.Entities["pc.arin"].CurrentZone)
	require.Equal(t, 2, gs.Scene.Round)
}

func TestRunTurnCompoundMoveThenAttack(t *testing.T) {
	gs := newTestState(t)
	ex := validator.NewExecutor(effects.NewEngine())
	p := &stubPlanner{ok: true, confidence: 0.8, actions: []planner.ActionStep{
		{Tool: toolcatalog.Move, Args: map[string]any{"actor": "pc.arin", "to": "guard_room"}},
		{Tool: toolcatalog.Attack, Args: map[string]any{"actor": "pc.arin", "target": "npc.guard", "style": 3}},
	}}
	rt := turnpipeline.NewRuntime(p, ex, nil)

	res := rt.RunTurn(context.Background(), gs, "I charge into the guard_room at the guard", "pc.arin", seedOf(2))

	require.True(t, res.IsCompound)
	require.Len(t, res.Steps, 2)
	require.Equal(t, "guard_room", gs.Entities["pc.arin"].CurrentZone)
}

func TestRunTurnAbortsCompoundOnCriticalFailure(t *testing.T) {
	gs := newTestState(t)
	ex := validator.NewExecutor(effects.NewEngine())
	p := &stubPlanner{ok: true, confidence: 0.5, actions: []planner.ActionStep{
		{Tool: toolcatalog.Move, Args: map[string]any{"actor": "pc.arin", "to": "nowhere"}},
		{Tool: toolcatalog.Attack, Args: map[string]any{"actor": "pc.arin", "target": "npc.guard"}},
	}}
	rt := turnpipeline.NewRuntime(p, ex, nil)

	res := rt.RunTurn(context.Background(), gs, "go nowhere then attack", "pc.arin", seedOf(3))

	require.Len(t, res.Steps, 1)
	require.Equal(t, "courtyard", gs.Entities["pc.arin"].CurrentZone)
}

func TestRunTurnFallsBackOnPlannerError(t *testing.T) {
	gs := newTestState(t)
	ex := validator.NewExecutor(effects.NewEngine())
	p := &stubPlanner{err: context.DeadlineExceeded}
	rt := turnpipeline.NewRuntime(p, ex, nil)

	res := rt.RunTurn(context.Background(), gs, "???", "pc.arin", seedOf(4))

	require.NotEmpty(t, res.PlannerError)
	require.Equal(t, toolcatalog.AskClarifying, res.Steps[0].Tool)
}

func TestRunTurnAdvancesRoundForSinglePlayerTurnOrder(t *testing.T) {
	gs := newTestState(t)
	ex := validator.NewExecutor(effects.NewEngine())
	p := &stubPlanner{ok: true, actions: []planner.ActionStep{
		{Tool: toolcatalog.NarrateOnly, Args: map[string]any{"actor": "pc.arin", "topic": "the room"}},
	}}
	rt := turnpipeline.NewRuntime(p, ex, nil)

	rt.RunTurn(context.Background(), gs, "look around", "pc.arin", seedOf(5))
	rt.RunTurn(context.Background(), gs, "look around again", "pc.arin", seedOf(6))

	require.Equal(t, 3, gs.Scene.Round)
}
