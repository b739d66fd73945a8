package profile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/storage"
)

type Service struct {
	db     *mongo.Database
	store  *storage.S3
	logger *zap.Logger
}

func NewService(db *mongo.Database, store *storage.S3, logger *zap.Logger) *Service {
	return &Service{db: db, store: store, logger: logger}
}

func (s *Service) users() *mongo.Collection {
	return s.db.Collection(models.User{}.CollectionName())
}

func (s *Service) findBySubject(ctx context.Context, subject string) (*models.User, error) {
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

// Get returns the full account including the profile subdocument.
func (s *Service) Get(ctx context.Context, subject string) (*models.User, error) {
	return s.findBySubject(ctx, subject)
}

// Update applies a partial profile update and marks onboarding as complete.
func (s *Service) Update(ctx context.Context, subject string, dto *UpdateDTO) (*models.User, error) {
	set := bson.M{"onboarding_completed": true}
	if dto.DisplayName != nil {
		set["profile.display_name"] = *dto.DisplayName
	}
	if dto.Bio != nil {
		set["profile.bio"] = *dto.Bio
	}

	res := s.users().FindOneAndUpdate(ctx,
		bson.M{"email": subject},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var u models.User
	if err := res.Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}

// SetPicture uploads a new profile picture, removes the previous object
// best-effort, and records the public URL.
func (s *Service) SetPicture(ctx context.Context, subject, filename, contentType string, data []byte) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", errNotAnImage
	}

	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("pfp/%s/%s%s", u.ID.Hex(), uuid.NewString(), ext)

	url, err := s.store.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload picture: %w", err)
	}

	if u.Profile.PfpURL != nil && *u.Profile.PfpURL != "" {
		if oldKey := s.store.KeyFromURL(*u.Profile.PfpURL); oldKey != "" {
			if err := s.store.Delete(ctx, oldKey); err != nil {
				s.logger.Warn("delete previous picture failed", zap.String("key", oldKey), zap.Error(err))
			}
		}
	}

	_, err = s.users().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"profile.pfp_url": url}})
	if err != nil {
		return "", fmt.Errorf("record picture url: %w", err)
	}
	return url, nil
}

// OnboardingCompleted reports whether the account finished onboarding.
func (s *Service) OnboardingCompleted(ctx context.Context, subject string) (bool, error) {
	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return false, err
	}
	return u.OnboardingCompleted, nil
}
