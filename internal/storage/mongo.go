package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// MongoStore appends refresh snapshots to a MongoDB collection. Each
// snapshot is one document so historical refreshes stay queryable.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

type snapshotDoc struct {
	FetchedAt time.Time       `bson:"fetched_at"`
	Count     int             `bson:"count"`
	Articles  []types.Article `bson:"articles"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("mongodb storage requires storage.mongo_uri")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.MongoDB).Collection(cfg.MongoColl),
		logger: logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// SaveSnapshot inserts the refresh result as a single document.
func (s *MongoStore) SaveSnapshot(ctx context.Context, articles []types.Article) error {
	doc := snapshotDoc{
		FetchedAt: time.Now().UTC(),
		Count:     len(articles),
		Articles:  articles,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	s.logger.Info("snapshot stored", "articles", len(articles))
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
