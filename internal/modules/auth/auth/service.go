package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/solsticehq/core/internal/models"
	usermod "github.com/solsticehq/core/internal/modules/account/user"
	"github.com/solsticehq/core/internal/pkg/mail"
	"github.com/solsticehq/core/internal/pkg/onetime"
	"github.com/solsticehq/core/internal/pkg/session"
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

// Register creates an account with a bcrypt-hashed password and kicks off
// email verification in the background. The username is validated before any
// store access.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.User, error) {
	if ok, reason := usermod.ValidateUsername(dto.Username); !ok {
		return nil, &usernameError{reason: reason}
	}

	count, err := s.users().CountDocuments(ctx, bson.M{"email": dto.Email})
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, errEmailTaken
	}
	count, err = s.users().CountDocuments(ctx, bson.M{"username": dto.Username})
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:         dto.Email,
		Username:      dto.Username,
		Password:      string(hash),
		Credits:       0,
		EmailVerified: false,
		TermsAccepted: false,
		CreatedAt:     time.Now().UTC(),
	}
	res, err := s.users().InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "username") {
				return nil, errUsernameTaken
			}
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)

	go s.sendVerification(u.ID.Hex(), u.Email)

	return u, nil
}

// Login authenticates by email and password. Credential failures are
// indistinguishable on purpose; only a verified mailbox may log in.
func (s *Service) Login(ctx context.Context, dto *LoginDTO) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": dto.Email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.HasLocalPassword() {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if !u.EmailVerified {
		return nil, errEmailNotVerified
	}
	return &u, nil
}

// VerifyEmail consumes a one-time verification token and flips the flag.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokens.Consume(ctx, onetime.PurposeEmailVerify, token)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return onetime.ErrTokenInvalid
	}
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"email_verified": true}})
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return errUserNotFound
	}
	return nil
}

// ResendVerification issues a fresh token for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if u.EmailVerified {
		return errAlreadyVerified
	}
	go s.sendVerification(u.ID.Hex(), u.Email)
	return nil
}

func (s *Service) sendVerification(userID, email string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := s.tokens.Issue(ctx, onetime.PurposeEmailVerify, userID)
	if err != nil {
		s.logger.Error("issue verification token failed", zap.Error(err))
		return
	}
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)
	if err := s.mailer.SendEmailVerification(email, mail.LinkData{Product: s.product, Link: link}); err != nil {
		s.logger.Error("send verification email failed", zap.String("email", email), zap.Error(err))
	}
}

// ResolveUserID implements session.IdentityResolver over the users
// collection. Refresh re-resolves through here so a changed email shows up
// in the next access token.
func (s *Service) ResolveUserID(ctx context.Context, userID string) (session.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return session.Identity{}, session.ErrIdentityNotFound
	}
	var u models.User
	if err := s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return session.Identity{}, session.ErrIdentityNotFound
		}
		return session.Identity{}, fmt.Errorf("resolve user: %w", err)
	}
	return session.Identity{UserID: u.ID.Hex(), Subject: u.Email}, nil
}
