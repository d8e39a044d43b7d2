// Package mongostore implements a MongoDB-backed alternate save store: a
// cross-process substitute for persistence.Save/Load's directory-of-files
// contract, for deployments that keep save documents in a shared database
// rather than on a local filesystem.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/duskward/ttrpgcore/persistence/mongostore/mongoclient"
	"github.com/duskward/ttrpgcore/world"
)

// Options configures the Mongo-backed save store.
type Options struct {
	Client mongoclient.Client
}

// Store is the mongostore equivalent of persistence.Save/Load: it
// persists and retrieves one full-fidelity game state per scene id,
// delegating to the Mongo client.
type Store struct {
	client mongoclient.Client
}

// NewStore builds a Store using the provided client.
func NewStore(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("client is required")
	}
	return &Store{client: opts.Client}, nil
}

// NewStoreFromMongo instantiates the Store by constructing the underlying
// client.
func NewStoreFromMongo(opts mongoclient.Options) (*Store, error) {
	client, err := mongoclient.New(opts)
	if err != nil {
		return nil, err
	}
	return NewStore(Options{Client: client})
}

// Save stores gs under sceneID, overwriting any prior save for that scene.
func (s *Store) Save(ctx context.Context, sceneID string, gs *world.GameState) error {
	return s.client.UpsertSave(ctx, sceneID, gs, time.Now())
}

// Load retrieves the game state saved under sceneID. A nil GameState with a
// nil error indicates no save exists yet for that scene, mirroring the
// mongo client's ErrNoDocuments-as-empty-result convention.
func (s *Store) Load(ctx context.Context, sceneID string) (*world.GameState, error) {
	gs, _, err := s.client.LoadSave(ctx, sceneID)
	return gs, err
}
