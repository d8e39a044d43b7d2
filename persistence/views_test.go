package persistence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/persistence"
	"github.com/duskward/ttrpgcore/world"
)

func TestEntityViewExcludesGMOnlyUnderPublicMode(t *testing.T) {
	now := time.Now()
	secret := world.NewEntity("npc.secret", world.EntityNPC, "Hidden Guard", "vault", world.NewMeta(world.VisibilityGMOnly, now))

	_, ok := persistence.EntityView(secret, persistence.ModePublic)
	require.False(t, ok)

	view, ok := persistence.EntityView(secret, persistence.ModeSession)
	require.True(t, ok)
	require.Equal(t, "npc.secret", view["id"])
}

func TestMetaViewCollapsesKnownByToCountUnderPublicMode(t *testing.T) {
	now := time.Now()
	m := world.NewMeta(world.VisibilityPublic, now).WithKnownBy("pc.arin", now).WithKnownBy("gm", now)

	view := persistence.MetaView(m, persistence.ModePublic)
	require.Equal(t, 2, view["known_by_count"])
	_, hasKnownBy := view["known_by"]
	require.False(t, hasKnownBy)

	sessionView := persistence.MetaView(m, persistence.ModeSession)
	require.ElementsMatch(t, []string{"gm", "pc.arin"}, sessionView["known_by"])
}

func TestMetaViewMinimalCarriesOnlyVisibilityAndGMOnly(t *testing.T) {
	m := world.NewMeta(world.VisibilityGMOnly, time.Now())

	view := persistence.MetaView(m, persistence.ModeMinimal)
	require.Len(t, view, 2)
	require.Equal(t, "gm_only", view["visibility"])
	require.Equal(t, true, view["gm_only"])
}

func TestZoneViewExcludesGMOnlyZoneUnderPublicMode(t *testing.T) {
	vault := world.NewZone("vault", "Vault", world.NewMeta(world.VisibilityGMOnly, time.Now()))

	_, ok := persistence.ZoneView(vault, persistence.ModePublic, nil)
	require.False(t, ok)
}
