package toolcatalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/world"
)

func TestCatalogHasAllNineTools(t *testing.T) {
	cat := toolcatalog.Catalog()
	require.Len(t, cat, 9)
	for _, id := range []string{
		toolcatalog.AskRoll, toolcatalog.Move, toolcatalog.Attack, toolcatalog.Talk,
		toolcatalog.UseItem, toolcatalog.GetInfo, toolcatalog.NarrateOnly,
		toolcatalog.ApplyEffects, toolcatalog.AskClarifying,
	} {
		_, ok := cat[id]
		require.Truef(t, ok, "missing tool %s", id)
	}
}

func TestNarrateOnlyAndAskClarifyingAlwaysEligible(t *testing.T) {
	cat := toolcatalog.Catalog()
	gs := world.NewGameState(world.NewScene("s", nil, 12, world.NewMeta(world.VisibilityPublic, time.Now())))
	require.True(t, cat[toolcatalog.NarrateOnly].Precondition(gs, ""))
	require.True(t, cat[toolcatalog.AskClarifying].Precondition(gs, ""))
}

func TestAttackPreconditionRequiresWeaponAndVisibleNPC(t *testing.T) {
	cat := toolcatalog.Catalog()
	now := time.Now()
	scene := world.NewScene("s", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.CurrentActor = "pc.arin"
	gs.PutZone(world.NewZone("z", "Z", world.NewMeta(world.VisibilityPublic, now)))
	pc := world.NewEntity("pc.arin", world.EntityPC, "Arin", "z", world.NewMeta(world.VisibilityPublic, now))
	gs.PutEntity(pc)

	require.False(t, cat[toolcatalog.Attack].Precondition(gs, ""))

	pc2 := gs.Entities["pc.arin"].Clone()
	pc2.Living.HasWeapon = true
	pc2.Living.VisibleActors = []string{"npc.guard"}
	gs.PutEntity(pc2)
	npc := world.NewEntity("npc.guard", world.EntityNPC, "Guard", "z", world.NewMeta(world.VisibilityPublic, now))
	gs.PutEntity(npc)

	require.True(t, cat[toolcatalog.Attack].Precondition(gs, ""))
}

func TestTalkExtractsQuotedMessage(t *testing.T) {
	cat := toolcatalog.Catalog()
	now := time.Now()
	scene := world.NewScene("s", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.CurrentActor = "pc.arin"
	gs.PutEntity(world.NewEntity("pc.arin", world.EntityPC, "Arin", "z", world.NewMeta(world.VisibilityPublic, now)))

	hint := cat[toolcatalog.Talk].SuggestArgs(gs, `I say "please let me pass"`)
	require.Equal(t, "please let me pass", hint["topic"])
}

func TestArgSchemaRejectsMissingRequired(t *testing.T) {
	cat := toolcatalog.Catalog()
	err := cat[toolcatalog.Move].ArgSchema.Validate(map[string]any{"actor": "pc.arin"})
	require.Error(t, err)
}

func TestArgSchemaAcceptsValidArgs(t *testing.T) {
	cat := toolcatalog.Catalog()
	err := cat[toolcatalog.Move].ArgSchema.Validate(map[string]any{"actor": "pc.arin", "to": "threshold"})
	require.NoError(t, err)
}
