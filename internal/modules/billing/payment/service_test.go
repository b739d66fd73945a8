package payment

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/solsticehq/core/internal/config"
)

const testWebhookSecret = "whsec_test_secret"

func newTestService() *Service {
	return NewService(nil, config.StripeConfig{WebhookSecret: testWebhookSecret}, "Solstice", "Core", zap.NewNop())
}

func signedHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := newTestService()
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	err := s.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, errBadSignature)

	err = s.HandleWebhook(context.Background(), payload, signedHeader(t, payload, "whsec_wrong"))
	assert.ErrorIs(t, err, errBadSignature)
}

func TestWebhookAcknowledgesUnknownEvent(t *testing.T) {
	s := newTestService()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":"invoice.paid","data":{"object":{}}}`, stripe.APIVersion))

	err := s.HandleWebhook(context.Background(), payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)
}

func updateSucceeded() bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: 1},
		bson.E{Key: "nModified", Value: 1},
	)
}

func creditSession() *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:       "cs_1",
		Metadata: map[string]string{"credits": "5"},
	}
}

func TestAddCreditsOnlyOnce(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("redelivered completion does not credit twice", func(mt *mtest.T) {
		s := NewService(mt.DB, config.StripeConfig{WebhookSecret: testWebhookSecret}, "Solstice", "Core", zap.NewNop())
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			updateSucceeded(), // completion guard flips
			updateSucceeded(), // balance increment
			mtest.CreateSuccessResponse( // redelivery: guard matches nothing
				bson.E{Key: "n", Value: 0},
				bson.E{Key: "nModified", Value: 0},
			),
		)

		require.NoError(t, s.addCredits(context.Background(), creditSession(), userID))
		require.NoError(t, s.addCredits(context.Background(), creditSession(), userID))

		// The redelivery must stop at the guard: three update commands in
		// total, not four.
		updates := 0
		for _, ev := range mt.GetAllStartedEvents() {
			if ev.CommandName == "update" {
				updates++
			}
		}
		assert.Equal(t, 3, updates)
	})
}

func TestAddCreditsReopensGuardOnFailedIncrement(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("failed increment leaves the grant retryable", func(mt *mtest.T) {
		s := NewService(mt.DB, config.StripeConfig{WebhookSecret: testWebhookSecret}, "Solstice", "Core", zap.NewNop())
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			updateSucceeded(), // guard flips
			mtest.CreateCommandErrorResponse(mtest.CommandError{ // increment fails
				Code:    8,
				Message: "transient store failure",
				Name:    "UnknownError",
			}),
			updateSucceeded(), // guard reopened
			updateSucceeded(), // redelivery: guard flips again
			updateSucceeded(), // increment lands
		)

		err := s.addCredits(context.Background(), creditSession(), userID)
		require.ErrorContains(t, err, "increment credits")

		require.NoError(t, s.addCredits(context.Background(), creditSession(), userID))
	})
}

func TestActivateSubscription(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"sub_1","current_period_end":1767225600,"cancel_at_period_end":true}`)
	}))
	defer ts.Close()

	orig := stripe.GetBackend(stripe.APIBackend)
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(ts.URL),
	}))
	defer stripe.SetBackend(stripe.APIBackend, orig)

	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("user and payment updated from the retrieved subscription", func(mt *mtest.T) {
		s := NewService(mt.DB, config.StripeConfig{SecretKey: "sk_test_1"}, "Solstice", "Core", zap.NewNop())
		mt.AddMockResponses(
			updateSucceeded(), // user subscription fields
			updateSucceeded(), // payment completed
		)

		cs := &stripe.CheckoutSession{ID: "cs_1", Subscription: &stripe.Subscription{ID: "sub_1"}}
		require.NoError(t, s.activateSubscription(context.Background(), cs, primitive.NewObjectID()))
	})
}
