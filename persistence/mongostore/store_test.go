package mongostore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duskward/ttrpgcore/persistence/mongostore"
	"github.com/duskward/ttrpgcore/world"
)

// fakeClient stands in for a real Mongo connection so Store's delegation
// can be exercised without a database.
type fakeClient struct {
	saved   map[string]*world.GameState
	savedAt map[string]time.Time
}

func newFakeClient() *fakeClient {
	return &fakeClient{saved: map[string]*world.GameState{}, savedAt: map[string]time.Time{}}
}

func (f *fakeClient) Name() string { return "fake-mongo" }

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) UpsertSave(ctx context.Context, sceneID string, gs *world.GameState, savedAt time.Time) error {
	f.saved[sceneID] = gs
	f.savedAt[sceneID] = savedAt
	return nil
}

func (f *fakeClient) LoadSave(ctx context.Context, sceneID string) (*world.GameState, time.Time, error) {
	gs, ok := f.saved[sceneID]
	if !ok {
		return nil, time.Time{}, nil
	}
	return gs, f.savedAt[sceneID], nil
}

func TestStoreSaveThenLoadDelegatesToClient(t *testing.T) {
	fc := newFakeClient()
	store, err := mongostore.NewStore(mongostore.Options{Client: fc})
	require.NoError(t, err)

	now := time.Now()
	scene := world.NewScene("s1", []string{"pc.arin"}, 12, world.NewMeta(world.VisibilityPublic, now))
	gs := world.NewGameState(scene)

	require.NoError(t, store.Save(context.Background(), "scene-1", gs))

	loaded, err := store.Load(context.Background(), "scene-1")
	require.NoError(t, err)
	require.Same(t, gs, loaded)
}

func TestStoreLoadReturnsNilForUnknownScene(t *testing.T) {
	store, err := mongostore.NewStore(mongostore.Options{Client: newFakeClient()})
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestNewStoreRejectsNilClient(t *testing.T) {
	_, err := mongostore.NewStore(mongostore.Options{})
	require.Error(t, err)
}
