// Package stripe adapts the Stripe SDK to the narrow gateway interfaces
// the billing, checkout and subscription services depend on. Connected
// account scoping and idempotency keys are applied here so callers deal
// only in domain terms.
package stripe

import (
	"context"
	"errors"
	"strings"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

type Client struct {
	api *client.API
	log *zap.Logger
}

func New(secretKey string, log *zap.Logger) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{
		api: api,
		log: log.Named("providers.stripe"),
	}
}

// CreateProduct creates a product on the given connected account.
func (c *Client) CreateProduct(ctx context.Context, account, name string) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(name),
	}
	params.Context = ctx
	if account != "" {
		params.SetStripeAccount(account)
	}

	product, err := c.api.Products.New(params)
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

// CreatePrice mints a recurring price. Stripe prices are immutable, so
// the caller passes a deterministic idempotency key to collapse
// concurrent mints of the same (product, interval, amount, currency).
func (c *Client) CreatePrice(ctx context.Context, account, productID, currency string, unitAmount int64, interval, idempotencyKey string) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(currency),
		UnitAmount: stripe.Int64(unitAmount),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	}
	params.Context = ctx
	if account != "" {
		params.SetStripeAccount(account)
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	price, err := c.api.Prices.New(params)
	if err != nil {
		return "", err
	}
	return price.ID, nil
}

// SessionRequest describes a checkout session to create on a connected
// account. Exactly one of PriceID or Inline is set.
type SessionRequest struct {
	Account             string
	PriceID             string
	Inline              *InlinePrice
	SuccessURL          string
	CancelURL           string
	PromotionCodeID     string
	AllowPromotionCodes bool
	ApplicationFeePct   float64
	CustomerEmail       string
}

// InlinePrice carries price_data for shareable checkout links that skip
// pre-created prices.
type InlinePrice struct {
	ProductName string
	Currency    string
	UnitAmount  int64
	Interval    string
}

// CreateCheckoutSession builds a subscription checkout session and
// returns its hosted URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	if strings.TrimSpace(req.Account) == "" {
		return "", errors.New("stripe: connected account required")
	}

	item := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(1),
	}
	switch {
	case req.PriceID != "":
		item.Price = stripe.String(req.PriceID)
	case req.Inline != nil:
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(req.Inline.Currency),
			UnitAmount: stripe.Int64(req.Inline.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.Inline.ProductName),
			},
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(req.Inline.Interval),
			},
		}
	default:
		return "", errors.New("stripe: price or price data required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			ApplicationFeePercent: stripe.Float64(req.ApplicationFeePct),
		},
	}
	params.Context = ctx
	params.SetStripeAccount(req.Account)

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.PromotionCodeID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(req.PromotionCodeID)},
		}
	} else if req.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// FindCustomerByEmail returns the first customer matching email, or ""
// when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	return "", iter.Err()
}

func (c *Client) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return customer.ID, nil
}

// IncompleteSubscription is the slice of subscription state the
// duplicate-creation guard needs.
type IncompleteSubscription struct {
	ID                  string
	PriceID             string
	Created             int64
	PaymentClientSecret string
}

// ListIncompleteSubscriptions returns the customer's subscriptions in
// status incomplete, newest first, with the latest invoice's payment
// intent expanded.
func (c *Client) ListIncompleteSubscriptions(ctx context.Context, customerID string) ([]IncompleteSubscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusIncomplete)),
	}
	params.Context = ctx
	params.AddExpand("data.latest_invoice.payment_intent")

	var subs []IncompleteSubscription
	iter := c.api.Subscriptions.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		entry := IncompleteSubscription{
			ID:      sub.ID,
			Created: sub.Created,
		}
		if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			entry.PriceID = sub.Items.Data[0].Price.ID
		}
		if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
			entry.PaymentClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
		}
		subs = append(subs, entry)
	}
	return subs, iter.Err()
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := c.api.Subscriptions.Cancel(subscriptionID, params)
	return err
}

// CreatedSubscription is the result of a default_incomplete creation.
type CreatedSubscription struct {
	ID                  string
	LatestInvoiceID     string
	PaymentClientSecret string
	InvoiceAmountDue    int64
	InvoiceCurrency     string
	CustomerID          string
}

func (c *Client) CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (CreatedSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := c.api.Subscriptions.New(params)
	if err != nil {
		return CreatedSubscription{}, err
	}

	created := CreatedSubscription{
		ID:         sub.ID,
		CustomerID: customerID,
	}
	if sub.LatestInvoice != nil {
		created.LatestInvoiceID = sub.LatestInvoice.ID
		created.InvoiceAmountDue = sub.LatestInvoice.AmountDue
		created.InvoiceCurrency = string(sub.LatestInvoice.Currency)
		if sub.LatestInvoice.PaymentIntent != nil {
			created.PaymentClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
		}
	}
	return created, nil
}

// GetInvoicePaymentSecret refetches an invoice with its payment intent
// expanded and returns the client secret when present.
func (c *Client) GetInvoicePaymentSecret(ctx context.Context, invoiceID string) (string, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	invoice, err := c.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return "", err
	}
	if invoice.PaymentIntent != nil {
		return invoice.PaymentIntent.ClientSecret, nil
	}
	return "", nil
}

// FinalizeInvoice forces invoice finalization, which is what attaches a
// payment intent when Stripe's automatic linkage lags.
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string) (string, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	invoice, err := c.api.Invoices.FinalizeInvoice(invoiceID, params)
	if err != nil {
		return "", err
	}
	if invoice.PaymentIntent != nil {
		return invoice.PaymentIntent.ClientSecret, nil
	}
	return "", nil
}

// CreateStandalonePaymentIntent is the last-resort fallback when the
// invoice never produces a payment intent.
func (c *Client) CreateStandalonePaymentIntent(ctx context.Context, customerID, subscriptionID, currency string, amount int64) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.AddMetadata("subscription_id", subscriptionID)

	intent, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}
