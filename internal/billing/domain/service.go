package domain

import (
	"context"
	"errors"
	"strings"
)

// Interval is a billing interval in Stripe's vocabulary.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func ParseInterval(raw string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "month", "monthly":
		return IntervalMonth, nil
	case "year", "yearly", "annual":
		return IntervalYear, nil
	default:
		return "", ErrInvalidInterval
	}
}

// PriceRef is a provisioned Stripe price together with the terms it was
// minted for.
type PriceRef struct {
	ProductID  string
	PriceID    string
	UnitAmount int64
	Currency   string
}

// Service guarantees Stripe product and price objects exist on a
// partner's connected account for the requested interval. Prices are
// reused only on an exact (amount, currency) match; any drift mints a
// new price and repoints the cached reference.
type Service interface {
	Provision(ctx context.Context, slug string, interval Interval) (PriceRef, error)
	// Terms resolves the (amount, currency) a partner currently charges
	// for an interval without touching Stripe.
	Terms(ctx context.Context, slug string, interval Interval) (int64, string, error)
}

// Gateway is the slice of the Stripe API the provisioner needs.
type Gateway interface {
	CreateProduct(ctx context.Context, account, name string) (string, error)
	CreatePrice(ctx context.Context, account, productID, currency string, unitAmount int64, interval, idempotencyKey string) (string, error)
}

var (
	ErrInvalidInterval     = errors.New("invalid_interval")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrUnsupportedCurrency = errors.New("unsupported_currency")
	ErrNotConnected        = errors.New("not_connected")
)
