package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/solsticehq/core/internal/models"
)

// Connect opens a MongoDB client, verifies the connection with a ping and
// returns the named database handle.
func Connect(ctx context.Context, uri, name string, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to mongodb", zap.String("database", name))
	return client, client.Database(name), nil
}

// EnsureIndexes creates the indexes the query paths depend on. Index
// creation is idempotent so this runs on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sessions := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "invalidate_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := db.Collection(models.Session{}.CollectionName()).Indexes().CreateMany(ctx, sessions); err != nil {
		return fmt.Errorf("create session indexes: %w", err)
	}

	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := db.Collection(models.User{}.CollectionName()).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	payments := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "payment_date", Value: -1}},
		},
	}
	if _, err := db.Collection(models.Payment{}.CollectionName()).Indexes().CreateMany(ctx, payments); err != nil {
		return fmt.Errorf("create payment indexes: %w", err)
	}
	return nil
}
