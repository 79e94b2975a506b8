package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
)

// ReuseWindow bounds how fresh an incomplete subscription must be to be
// treated as a duplicate click rather than an abandoned attempt.
const ReuseWindow = 10 * time.Second

type Request struct {
	Email    string
	Interval billingdomain.Interval
}

// Intent is what the storefront needs to confirm payment client-side.
type Intent struct {
	SubscriptionID string
	ClientSecret   string
}

// IncompleteSubscription is a prior attempt still waiting on payment.
type IncompleteSubscription struct {
	ID                  string
	PriceID             string
	Created             time.Time
	PaymentClientSecret string
}

// CreatedSubscription is the result of a fresh default_incomplete
// creation, including invoice details for the payment-intent fallbacks.
type CreatedSubscription struct {
	ID                  string
	LatestInvoiceID     string
	PaymentClientSecret string
	InvoiceAmountDue    int64
	InvoiceCurrency     string
	CustomerID          string
}

type Service interface {
	// CreateIntent provisions an incomplete subscription for the
	// platform product and returns the client secret to confirm it.
	CreateIntent(ctx context.Context, req Request) (Intent, error)
}

type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCustomer(ctx context.Context, email string) (string, error)
	ListIncompleteSubscriptions(ctx context.Context, customerID string) ([]IncompleteSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (CreatedSubscription, error)
	GetInvoicePaymentSecret(ctx context.Context, invoiceID string) (string, error)
	FinalizeInvoice(ctx context.Context, invoiceID string) (string, error)
	CreateStandalonePaymentIntent(ctx context.Context, customerID, subscriptionID, currency string, amount int64) (string, error)
}

var (
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrNoPlatformPrice = errors.New("no_platform_price")
	ErrNoPaymentIntent = errors.New("no_payment_intent")
)
