// Package mongoclient wraps the MongoDB driver behind the narrow Client
// interface mongostore.Store consumes, mirroring the driver-isolation split
// used for every other Mongo-backed feature in this codebase.
package mongoclient

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"goa.design/clue/health"

	"github.com/duskward/ttrpgcore/world"
)

const (
	defaultSavesCollection = "game_saves"
	defaultOpTimeout       = 5 * time.Second
	saveClientName         = "save-mongo"
)

// Client exposes Mongo-backed operations for one save slot, keyed by scene
// id.
type Client interface {
	health.Pinger

	UpsertSave(ctx context.Context, sceneID string, gs *world.GameState, savedAt time.Time) error
	LoadSave(ctx context.Context, sceneID string) (*world.GameState, time.Time, error)
}

// Options configures the Mongo save client.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

type client struct {
	mongo   *mongodriver.Client
	coll    collection
	timeout time.Duration
}

// New returns a Client backed by MongoDB.
func New(opts Options) (Client, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultSavesCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	mcoll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	wrapper := mongoCollection{coll: mcoll}
	if err := ensureIndexes(ctx, wrapper); err != nil {
		return nil, err
	}
	return newClientWithCollection(opts.Client, wrapper, timeout)
}

func (c *client) Name() string {
	return saveClientName
}

func (c *client) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.mongo.Ping(ctx, readpref.Primary())
}

func (c *client) UpsertSave(ctx context.Context, sceneID string, gs *world.GameState, savedAt time.Time) error {
	if sceneID == "" {
		return errors.New("scene id is required")
	}
	doc := saveDocument{
		SceneID:       sceneID,
		SavedAt:       savedAt.UTC(),
		Entities:      gs.Entities,
		Zones:         gs.Zones,
		Clocks:        gs.Clocks,
		Scene:         gs.Scene,
		CurrentActor:  gs.CurrentActor,
		PendingAction: gs.PendingAction,
		TurnFlags:     gs.TurnFlags,
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"scene_id": sceneID}
	update := bson.M{"$set": doc}
	_, err := c.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (c *client) LoadSave(ctx context.Context, sceneID string) (*world.GameState, time.Time, error) {
	if sceneID == "" {
		return nil, time.Time{}, errors.New("scene id is required")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	filter := bson.M{"scene_id": sceneID}
	var doc saveDocument
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, err
	}
	gs := world.NewGameState(doc.Scene)
	gs.Entities = doc.Entities
	gs.Zones = doc.Zones
	gs.Clocks = doc.Clocks
	gs.CurrentActor = doc.CurrentActor
	gs.PendingAction = doc.PendingAction
	if doc.TurnFlags != nil {
		gs.TurnFlags = doc.TurnFlags
	}
	return gs, doc.SavedAt, nil
}

func (c *client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// saveDocument mirrors persistence.GameStateDoc, bson-tagged for Mongo
// instead of json-tagged for the file store.
type saveDocument struct {
	SceneID       string                  `bson:"scene_id"`
	SavedAt       time.Time               `bson:"saved_at"`
	Entities      map[string]world.Entity `bson:"entities"`
	Zones         map[string]world.Zone   `bson:"zones"`
	Clocks        map[string]world.Clock  `bson:"clocks"`
	Scene         world.Scene             `bson:"scene"`
	CurrentActor  string                  `bson:"current_actor"`
	PendingAction string                  `bson:"pending_action"`
	TurnFlags     map[string]any          `bson:"turn_flags,omitempty"`
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "scene_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

func newClientWithCollection(mongoClient *mongodriver.Client, coll collection, timeout time.Duration) (*client, error) {
	if coll == nil {
		return nil, errors.New("collection is required")
	}
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &client{
		mongo:   mongoClient,
		coll:    coll,
		timeout: timeout,
	}, nil
}

type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult {
	return mongoSingleResult{res: c.coll.FindOne(ctx, filter, opts...)}
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoSingleResult struct {
	res *mongodriver.SingleResult
}

func (r mongoSingleResult) Decode(val any) error {
	return r.res.Decode(val)
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
