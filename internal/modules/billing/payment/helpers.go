package payment

import (
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func optionsFindNewestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "payment_date", Value: -1}})
}

// AmountToCents converts a dollar amount to Stripe's integer cents.
func AmountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreditsFor converts a purchase amount into credits at the configured
// dollar-per-credit rate.
func CreditsFor(amount, creditValue float64) float64 {
	if creditValue <= 0 {
		return 0
	}
	return amount / creditValue
}
