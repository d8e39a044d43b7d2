package persistence_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/persistence"
	"github.com/duskward/ttrpgcore/world"
)

func newTestState(t *testing.T) *world.GameState {
	t.Helper()
	now := time.Now()
	scene := world.NewScene("s1", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)
	gs.CurrentActor = "pc.arin"

	courtyard := world.NewZone("courtyard", "Courtyard", world.NewMeta(world.VisibilityPublic, now))
	courtyard.Exits = []world.Exit{{To: "vault", Direction: world.DirNorth}}
	gs.PutZone(courtyard)

	vault := world.NewZone("vault", "Vault", world.NewMeta(world.VisibilityGMOnly, now))
	gs.PutZone(vault)

	pc := world.NewEntity("pc.arin", world.EntityPC, "Arin", "courtyard", world.NewMeta(world.VisibilityPublic, now))
	pc.Living.HP = world.HP{Current: 18, Max: 20}
	pc.Meta = pc.Meta.WithKnownBy("gm", now)
	gs.PutEntity(pc)

	secretGuard := world.NewEntity("npc.secret", world.EntityNPC, "Hidden Guard", "vault", world.NewMeta(world.VisibilityGMOnly, now))
	gs.PutEntity(secretGuard)

	gs.PutClock(world.NewClock("scene.alarm", "Alarm", 3, 0, 10, world.NewMeta(world.VisibilityPublic, now)))

	return gs
}

func TestSaveThenLoadRoundTripsFullFidelity(t *testing.T) {
	gs := newTestState(t)
	dir := t.TempDir()

	require.NoError(t, persistence.Save(gs, dir, time.Now()))

	loaded, err := persistence.Load(dir)
	require.NoError(t, err)

	require.Len(t, loaded.Entities, len(gs.Entities))
	require.Equal(t, gs.Entities["pc.arin"].Living.HP, loaded.Entities["pc.arin"].Living.HP)
	require.True(t, loaded.Entities["pc.arin"].Meta.Known("gm"))
	require.Equal(t, gs.Zones["vault"].Meta.Visibility, loaded.Zones["vault"].Meta.Visibility)
	require.Equal(t, 3, loaded.Clocks["scene.alarm"].Value)
	require.Equal(t, gs.Scene.Round, loaded.Scene.Round)
	require.Equal(t, "pc.arin", loaded.CurrentActor)

	require.Empty(t, loaded.CheckInvariants())
}

func TestSaveWritesAllFourFiles(t *testing.T) {
	gs := newTestState(t)
	dir := t.TempDir()

	require.NoError(t, persistence.Save(gs, dir, time.Now()))

	for _, name := range []string{"gm.json", "public.json", "session.json", "manifest.json"} {
		require.FileExists(t, filepath.Join(dir, name))
	}
}

func TestLoadRejectsMissingMetadataKey(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, `{"game_state": {"entities": {}, "zones": {}, "scene": {}}}`)

	_, err := persistence.Load(dir)
	require.Error(t, err)
	var loadErr *persistence.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, persistence.CategoryMissingKey, loadErr.Category)
}

func TestLoadRejectsMissingGameStateSubkey(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, `{"metadata": {}, "game_state": {"entities": {}, "zones": {}}}`)

	_, err := persistence.Load(dir)
	require.Error(t, err)
	var loadErr *persistence.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, persistence.CategoryMissingKey, loadErr.Category)
}

func TestLoadRejectsCorruptedJSON(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, `{not valid json`)

	_, err := persistence.Load(dir)
	require.Error(t, err)
	var loadErr *persistence.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, persistence.CategoryCorruptedJSON, loadErr.Category)
}

func writeRaw(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gm.json"), []byte(content), 0o644))
}
