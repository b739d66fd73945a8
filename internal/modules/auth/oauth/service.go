package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/solsticehq/core/internal/models"
	usermod "github.com/solsticehq/core/internal/modules/account/user"
	"github.com/solsticehq/core/internal/pkg/onetime"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

type Service struct {
	db     *mongo.Database
	tokens *onetime.Store
	oauth  *oauth2.Config
}

func NewService(db *mongo.Database, tokens *onetime.Store, clientID, clientSecret, publicURL string) *Service {
	return &Service{
		db:     db,
		tokens: tokens,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  publicURL + "/api/v1/oauth/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (s *Service) users() *mongo.Collection {
	return s.db.Collection(models.User{}.CollectionName())
}

// BeginFlow persists a single-use state value and returns the consent URL.
func (s *Service) BeginFlow(ctx context.Context) (string, error) {
	state, err := s.tokens.Issue(ctx, onetime.PurposeOAuthState, "1")
	if err != nil {
		return "", fmt.Errorf("issue oauth state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// ConsumeState validates the state parameter from the callback.
func (s *Service) ConsumeState(ctx context.Context, state string) error {
	if state == "" {
		return errStateInvalid
	}
	if _, err := s.tokens.Consume(ctx, onetime.PurposeOAuthState, state); err != nil {
		return errStateInvalid
	}
	return nil
}

// ExchangeProfile trades the authorization code for the Google profile.
func (s *Service) ExchangeProfile(ctx context.Context, code string) (*googleProfile, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}

	client := s.oauth.Client(ctx, token)
	client.Timeout = 10 * time.Second
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &profile, nil
}

// ResolveAccount maps a Google profile onto a local account. A first-time
// email creates a provisional account that still needs a username; a known
// email without a linked google_id gets linked in place.
func (s *Service) ResolveAccount(ctx context.Context, profile *googleProfile) (*models.User, bool, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": profile.Email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		u = models.User{
			Email:         profile.Email,
			GoogleID:      profile.ID,
			EmailVerified: true,
			NeedsUsername: true,
			CreatedAt:     time.Now().UTC(),
		}
		res, insErr := s.users().InsertOne(ctx, &u)
		if insErr != nil {
			return nil, false, fmt.Errorf("create oauth user: %w", insErr)
		}
		u.ID = res.InsertedID.(primitive.ObjectID)
		return &u, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	if u.GoogleID == "" {
		_, err = s.users().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"google_id": profile.ID}})
		if err != nil {
			return nil, false, fmt.Errorf("link google id: %w", err)
		}
		u.GoogleID = profile.ID
	}

	needsUsername := u.NeedsUsername || u.Username == ""
	return &u, needsUsername, nil
}

// CompleteSetup claims a username for a provisional Google account.
func (s *Service) CompleteSetup(ctx context.Context, dto *CompleteSetupDTO) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"google_id": dto.GoogleID, "needs_username": true}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("find pending user: %w", err)
	}

	if ok, reason := usermod.ValidateUsername(dto.Username); !ok {
		return nil, &usernameError{reason: reason}
	}
	count, err := s.users().CountDocuments(ctx, bson.M{"username": dto.Username})
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, errUsernameTaken
	}

	_, err = s.users().UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$set":   bson.M{"username": dto.Username},
		"$unset": bson.M{"needs_username": ""},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errUsernameTaken
		}
		return nil, fmt.Errorf("set username: %w", err)
	}
	u.Username = dto.Username
	u.NeedsUsername = false
	return &u, nil
}
