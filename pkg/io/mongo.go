package io

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/graph"
)

// ErrRunNotFound is returned by MongoSink.Load for an unknown run.
var ErrRunNotFound = errors.New("run not found")

// MongoConfig locates the collections a MongoSink writes to. Positions go
// to Collection, run documents to Collection + "_runs".
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	// BatchSize bounds the documents per insert. Defaults to 1000.
	BatchSize int
}

// MongoSink stores layouts in MongoDB.
type MongoSink struct {
	client    *mongo.Client
	positions *mongo.Collection
	runs      *mongo.Collection
	batch     int
}

type positionDoc struct {
	RunID     string  `bson:"run_id"`
	ID        int64   `bson:"id"`
	X         float64 `bson:"x"`
	Y         float64 `bson:"y"`
	Component int64   `bson:"component"`
}

type runDoc struct {
	RunID      string                `bson:"_id"`
	CreatedAt  time.Time             `bson:"created_at"`
	Width      float64               `bson:"width"`
	Height     float64               `bson:"height"`
	Vertices   int                   `bson:"vertices"`
	Components []graph.ComponentInfo `bson:"components"`
}

// NewMongoSink connects to the server and ensures the (run_id, id) index.
func NewMongoSink(ctx context.Context, cfg MongoConfig) (*MongoSink, error) {
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("mongo sink: database and collection are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
				return cache.Retryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoSink{
		client:    client,
		positions: db.Collection(cfg.Collection),
		runs:      db.Collection(cfg.Collection + "_runs"),
		batch:     cfg.BatchSize,
	}
	if s.batch <= 0 {
		s.batch = 1000
	}
	_, err = s.positions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return s, nil
}

// Write inserts the run document and all positions. A layout without a run
// ID is rejected since positions could not be told apart.
func (s *MongoSink) Write(ctx context.Context, l graph.Layout) error {
	if l.RunID == "" {
		return errors.New("mongo sink: layout has no run id")
	}
	_, err := s.runs.InsertOne(ctx, runDoc{
		RunID:      l.RunID,
		CreatedAt:  time.Now().UTC(),
		Width:      l.Width,
		Height:     l.Height,
		Vertices:   len(l.Positions),
		Components: l.Components,
	})
	if err != nil {
		return fmt.Errorf("insert run %s: %w", l.RunID, err)
	}

	for start := 0; start < len(l.Positions); start += s.batch {
		end := min(start+s.batch, len(l.Positions))
		docs := make([]any, 0, end-start)
		for _, p := range l.Positions[start:end] {
			docs = append(docs, positionDoc{RunID: l.RunID, ID: p.ID, X: p.X, Y: p.Y, Component: p.Component})
		}
		if _, err := s.positions.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
			return fmt.Errorf("insert positions %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Load reads back the layout of a run.
func (s *MongoSink) Load(ctx context.Context, runID string) (graph.Layout, error) {
	var run runDoc
	err := s.runs.FindOne(ctx, bson.D{{Key: "_id", Value: runID}}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graph.Layout{}, ErrRunNotFound
	}
	if err != nil {
		return graph.Layout{}, fmt.Errorf("find run %s: %w", runID, err)
	}

	cur, err := s.positions.Find(ctx, bson.D{{Key: "run_id", Value: runID}},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return graph.Layout{}, fmt.Errorf("find positions: %w", err)
	}
	var docs []positionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return graph.Layout{}, fmt.Errorf("decode positions: %w", err)
	}

	l := graph.Layout{
		RunID:      run.RunID,
		Width:      run.Width,
		Height:     run.Height,
		Components: run.Components,
		Positions:  make([]graph.Position, len(docs)),
	}
	for i, d := range docs {
		l.Positions[i] = graph.Position{ID: d.ID, X: d.X, Y: d.Y, Component: d.Component}
	}
	return l, nil
}

// Close disconnects from the server.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Sink = (*MongoSink)(nil)
