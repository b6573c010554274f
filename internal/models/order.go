package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	OrderTypeOneTime      = "one_time"
	OrderTypeSubscription = "subscription"
)

// Order : intention d'achat. Une ligne est créée à chaque tentative de checkout,
// avant l'appel Stripe. Les montants sont en centimes.
type Order struct {
	ID                      gocql.UUID  `json:"id"`
	UserID                  *gocql.UUID `json:"user_id,omitempty"`
	Type                    string      `json:"type"`
	Status                  OrderStatus `json:"status"`
	Currency                string      `json:"currency"`
	ActualAmount            int64       `json:"actual_amount"`
	AmountInCents           int64       `json:"amount_in_cents"`
	StripeCheckoutSessionID string      `json:"stripe_checkout_session_id,omitempty"`
	StripePaymentIntentID   string      `json:"stripe_payment_intent_id,omitempty"`
	StripeSubscriptionID    string      `json:"stripe_subscription_id,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

const (
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment : règlement constaté via webhook. RawEventID est la clé
// d'idempotence : au plus une ligne par événement Stripe.
type Payment struct {
	ID                    gocql.UUID `json:"id"`
	OrderID               gocql.UUID `json:"order_id"`
	StripePaymentIntentID string     `json:"stripe_payment_intent_id"`
	Status                string     `json:"status"`
	Amount                int64      `json:"amount"`
	Currency              string     `json:"currency"`
	RawEventID            string     `json:"raw_event_id"`
	CreatedAt             time.Time  `json:"created_at"`
}
