package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v81"
	chsession "github.com/stripe/stripe-go/v81/checkout/session"
	stripesub "github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/solsticehq/core/internal/config"
	"github.com/solsticehq/core/internal/models"
	"github.com/solsticehq/core/internal/pkg/pagination"
	"github.com/solsticehq/core/internal/pkg/response"
)

type Service struct {
	db      *mongo.Database
	cfg     config.StripeConfig
	company string
	product string
	logger  *zap.Logger
}

func NewService(db *mongo.Database, cfg config.StripeConfig, company, product string, logger *zap.Logger) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{db: db, cfg: cfg, company: company, product: product, logger: logger}
}

func (s *Service) users() *mongo.Collection {
	return s.db.Collection(models.User{}.CollectionName())
}

func (s *Service) payments() *mongo.Collection {
	return s.db.Collection(models.Payment{}.CollectionName())
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

// CreateCheckout opens a Stripe checkout session and records a pending
// payment document keyed by the session id.
func (s *Service) CreateCheckout(ctx context.Context, subject string, dto *CheckoutDTO) (*CheckoutResponse, error) {
	if !dto.PaymentType.Valid() || string(dto.PaymentType) != s.cfg.PaymentMode {
		return nil, errModeDisabled
	}
	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("user_id", u.ID.Hex())
	params.AddMetadata("payment_type", string(dto.PaymentType))

	var amount *float64
	switch dto.PaymentType {
	case models.PaymentTypeSubscription:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.cfg.SubscriptionPriceID),
			Quantity: stripe.Int64(1),
		}}
	case models.PaymentTypeCredit:
		if dto.Amount <= 0 {
			return nil, errAmountRequired
		}
		credits := CreditsFor(dto.Amount, s.cfg.CreditValue)
		params.AddMetadata("credits", strconv.FormatFloat(credits, 'f', -1, 64))
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(AmountToCents(dto.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(s.company + " | " + s.product),
				},
			},
			Quantity: stripe.Int64(1),
		}}
		amount = &dto.Amount
	}

	sess, err := chsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	_, err = s.payments().InsertOne(ctx, &models.Payment{
		UserID:      u.ID,
		SessionID:   sess.ID,
		Status:      models.PaymentStatusPending,
		Amount:      amount,
		PaymentType: dto.PaymentType,
		PaymentDate: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}

	return &CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and dispatches a Stripe event. Unknown event types
// are acknowledged without action.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		return errBadSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.completeCheckout(ctx, &cs)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.deactivateSubscription(ctx, sub.ID)
	default:
		s.logger.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Service) completeCheckout(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID, err := primitive.ObjectIDFromHex(cs.Metadata["user_id"])
	if err != nil {
		return fmt.Errorf("bad user_id metadata %q", cs.Metadata["user_id"])
	}

	switch models.PaymentType(cs.Metadata["payment_type"]) {
	case models.PaymentTypeCredit:
		return s.addCredits(ctx, cs, userID)
	case models.PaymentTypeSubscription:
		return s.activateSubscription(ctx, cs, userID)
	default:
		return fmt.Errorf("unknown payment_type metadata %q", cs.Metadata["payment_type"])
	}
}

// addCredits marks the payment completed and increments the balance. The
// credits_added filter makes a redelivered webhook a no-op; when the
// increment itself fails the guard is reopened so the redelivery can retry.
func (s *Service) addCredits(ctx context.Context, cs *stripe.CheckoutSession, userID primitive.ObjectID) error {
	credits, err := strconv.ParseFloat(cs.Metadata["credits"], 64)
	if err != nil {
		return fmt.Errorf("bad credits metadata %q", cs.Metadata["credits"])
	}

	res, err := s.payments().UpdateOne(ctx,
		bson.M{"session_id": cs.ID, "credits_added": false},
		bson.M{"$set": bson.M{"status": models.PaymentStatusCompleted, "credits_added": true}},
	)
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	if res.ModifiedCount == 0 {
		s.logger.Info("credits already added", zap.String("session_id", cs.ID))
		return nil
	}

	_, err = s.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$inc": bson.M{"credits": credits}})
	if err != nil {
		if _, rerr := s.payments().UpdateOne(ctx,
			bson.M{"session_id": cs.ID},
			bson.M{"$set": bson.M{"status": models.PaymentStatusPending, "credits_added": false}},
		); rerr != nil {
			s.logger.Error("reopening credit grant failed",
				zap.String("session_id", cs.ID), zap.Error(rerr))
		}
		return fmt.Errorf("increment credits: %w", err)
	}
	s.logger.Info("credits added", zap.String("user_id", userID.Hex()), zap.Float64("credits", credits))
	return nil
}

func (s *Service) activateSubscription(ctx context.Context, cs *stripe.CheckoutSession, userID primitive.ObjectID) error {
	if cs.Subscription == nil {
		return fmt.Errorf("completed subscription checkout %s carries no subscription", cs.ID)
	}
	sub, err := stripesub.Get(cs.Subscription.ID, nil)
	if err != nil {
		return fmt.Errorf("retrieve subscription: %w", err)
	}
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	_, err = s.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"subscription_status":  models.SubscriptionActive,
		"subscription_id":      sub.ID,
		"current_period_end":   periodEnd,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	}})
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	_, err = s.payments().UpdateOne(ctx,
		bson.M{"session_id": cs.ID},
		bson.M{"$set": bson.M{"status": models.PaymentStatusCompleted}},
	)
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	s.logger.Info("subscription activated", zap.String("user_id", userID.Hex()), zap.String("subscription_id", sub.ID))
	return nil
}

func (s *Service) deactivateSubscription(ctx context.Context, subscriptionID string) error {
	_, err := s.users().UpdateOne(ctx,
		bson.M{"subscription_id": subscriptionID},
		bson.M{
			"$set":   bson.M{"subscription_status": models.SubscriptionInactive},
			"$unset": bson.M{"subscription_id": "", "current_period_end": "", "cancel_at_period_end": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	s.logger.Info("subscription deactivated", zap.String("subscription_id", subscriptionID))
	return nil
}

// Subscription reports the caller's subscription state.
func (s *Service) Subscription(ctx context.Context, subject string) (*SubscriptionStatus, error) {
	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &SubscriptionStatus{
		IsActive:          u.SubscriptionIsActive(),
		CurrentPeriodEnd:  u.CurrentPeriodEnd,
		CancelAtPeriodEnd: u.CancelAtPeriodEnd,
	}, nil
}

// History returns the caller's payments, newest first.
func (s *Service) History(ctx context.Context, subject string, q pagination.Query) ([]models.Payment, response.Pagination, error) {
	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	opts := optionsFindNewestFirst()
	return pagination.Find[models.Payment](ctx, s.payments(), bson.M{"user_id": u.ID}, q, opts)
}

// Credits returns the caller's credit balance.
func (s *Service) Credits(ctx context.Context, subject string) (float64, error) {
	u, err := s.findBySubject(ctx, subject)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}
