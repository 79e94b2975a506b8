package domain

import (
	"context"
	"errors"

	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
)

// Request describes one hosted checkout session to build for a partner
// storefront.
type Request struct {
	Slug          string
	Interval      billingdomain.Interval
	PromoCode     string
	Host          string
	CustomerEmail string
}

// Session is the gateway-facing shape of a checkout session. It mirrors
// what the payment provider needs without leaking its SDK types into the
// domain.
type Session struct {
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

type InlinePrice struct {
	ProductName string
	Currency    string
	UnitAmount  int64
	Interval    string
}

type Service interface {
	// CreateSession builds a hosted checkout session against the
	// partner's provisioned recurring price.
	CreateSession(ctx context.Context, req Request) (string, error)
	// CreateSharedLinkSession builds a session from inline price data,
	// used by shareable GET links that skip price provisioning.
	CreateSharedLinkSession(ctx context.Context, req Request) (string, error)
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, s Session) (string, error)
}

var (
	ErrPromoInactive      = errors.New("promo_inactive")
	ErrPromoNotApplicable = errors.New("promo_not_applicable")
)
