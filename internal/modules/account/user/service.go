package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/solsticehq/core/internal/models"
)

var errUserNotFound = errors.New("user not found")

type Service struct {
	db *mongo.Database
}

func NewService(db *mongo.Database) *Service { return &Service{db: db} }

func (s *Service) users() *mongo.Collection {
	return s.db.Collection(models.User{}.CollectionName())
}

// FindBySubject loads the account behind an authenticated principal.
func (s *Service) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": subject}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// UsernameExists reports whether a username is already claimed.
func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	count, err := s.users().CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

// AcceptTerms flags the account as having accepted the terms of service.
func (s *Service) AcceptTerms(ctx context.Context, subject string) error {
	res, err := s.users().UpdateOne(ctx, bson.M{"email": subject}, bson.M{"$set": bson.M{"terms_accepted": true}})
	if err != nil {
		return fmt.Errorf("accept terms: %w", err)
	}
	if res.MatchedCount == 0 {
		return errUserNotFound
	}
	return nil
}
