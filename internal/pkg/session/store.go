package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solsticehq/core/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore implements Store over the sessions collection.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore builds a store over db's sessions collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(models.Session{}.CollectionName())}
}

func (s *MongoStore) Create(ctx context.Context, rec *models.Session) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("%w: insert session: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) FindByInvalidationID(ctx context.Context, id string) (*models.Session, error) {
	var rec models.Session
	err := s.coll.FindOne(ctx, bson.M{"invalidate_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: find session: %v", ErrStoreUnavailable, err)
	}
	return &rec, nil
}

func (s *MongoStore) DeleteByInvalidationID(ctx context.Context, id string) error {
	// DeleteOne on a missing id matches zero documents and is not an error,
	// which keeps logout idempotent against a concurrent sweep.
	if _, err := s.coll.DeleteOne(ctx, bson.M{"invalidate_id": id}); err != nil {
		return fmt.Errorf("%w: delete session: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) TouchLastUsed(ctx context.Context, id string, now time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"invalidate_id": id},
		bson.M{"$set": bson.M{"last_used": now}},
	)
	if err != nil {
		return fmt.Errorf("%w: touch session: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("%w: purge sessions: %v", ErrStoreUnavailable, err)
	}
	return res.DeletedCount, nil
}
