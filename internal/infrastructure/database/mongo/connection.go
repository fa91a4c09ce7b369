// Package mongo is the MongoDB-backed shipment store.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"package-tracking/internal/config"
	"package-tracking/internal/logger"
)

// DB owns the pooled client shared by every repository call.
type DB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewDB(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error opening mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	logger.Info("Mongo connection established",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
		zap.Uint64("max_pool_size", cfg.MaxPoolSize),
	)

	return &DB{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// EnsureIndexes creates the unique tracking code index and the listing index.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trackingId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("trackingId_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) Health(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}
