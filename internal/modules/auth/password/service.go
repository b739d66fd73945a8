package password

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/mail"
	"github.com/solsticehq/core/internal/pkg/onetime"
)

type Service struct {
	db          *mongo.Database
	mailer      *mail.Sender
	tokens      *onetime.Store
	frontendURL string
	product     string
	logger      *zap.Logger
}

func NewService(db *mongo.Database, mailer *mail.Sender, tokens *onetime.Store, frontendURL, product string, logger *zap.Logger) *Service {
	return &Service{
		db:          db,
		mailer:      mailer,
		tokens:      tokens,
		frontendURL: frontendURL,
		product:     product,
		logger:      logger,
	}
}

func (s *Service) users() *mongo.Collection {
	return s.db.Collection(models.User{}.CollectionName())
}

// RequestReset issues a reset token when the email exists. Unknown emails
// are silently ignored so the endpoint cannot be used to enumerate accounts.
func (s *Service) RequestReset(ctx context.Context, email string) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Error("reset request lookup failed", zap.Error(err))
		}
		return
	}

	go func(userID, to string) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := s.tokens.Issue(ctx, onetime.PurposePasswordReset, userID)
		if err != nil {
			s.logger.Error("issue reset token failed", zap.Error(err))
			return
		}
		link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
		if err := s.mailer.SendPasswordReset(to, mail.LinkData{Product: s.product, Link: link}); err != nil {
			s.logger.Error("send reset email failed", zap.String("email", to), zap.Error(err))
		}
	}(u.ID.Hex(), u.Email)
}

// Reset consumes a reset token and installs a new password hash. This is
// also how a Google-only account gains a local password.
func (s *Service) Reset(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Consume(ctx, onetime.PurposePasswordReset, token)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return onetime.ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password": string(hash)}})
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if res.MatchedCount == 0 {
		return errUserNotFound
	}
	return nil
}

// Change verifies the old password and installs the new one.
func (s *Service) Change(ctx context.Context, subject string, dto *ChangeDTO) error {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": subject}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !u.HasLocalPassword() {
		return errNoLocalPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.OldPassword)) != nil {
		return errWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.users().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"password": string(hash)}})
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}
