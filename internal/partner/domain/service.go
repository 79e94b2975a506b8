package domain

import (
	"context"
	"errors"
)

// Patch carries a partial update to a partner record. Nil fields are
// left untouched; the merged result is the superset of the previous
// record and the patch.
type Patch struct {
	SaasName          *string `json:"saas_name,omitempty"`
	AdminEmail        *string `json:"admin_email,omitempty"`
	SupportEmail      *string `json:"support_email,omitempty"`
	ConnectedAccount  *string `json:"connected_account_id,omitempty"`
	Currency          *string `json:"currency,omitempty"`
	MonthlyPrice      *string `json:"monthly_price,omitempty"`
	YearlyPrice       *string `json:"yearly_price,omitempty"`
	AnnualDiscountPct *int64  `json:"annual_discount_percent,omitempty"`
	AllowPromoCodes   *bool   `json:"allow_promotion_codes,omitempty"`

	StripeProductIDMonth       *string `json:"stripe_product_id_month,omitempty"`
	StripeProductIDYear        *string `json:"stripe_product_id_year,omitempty"`
	StripePriceIDMonth         *string `json:"stripe_price_id_month,omitempty"`
	StripePriceIDYear          *string `json:"stripe_price_id_year,omitempty"`
	StripePriceUnitAmountMonth *int64  `json:"stripe_price_unit_amount_month,omitempty"`
	StripePriceUnitAmountYear  *int64  `json:"stripe_price_unit_amount_year,omitempty"`
	StripePriceCurrencyMonth   *string `json:"stripe_price_currency_month,omitempty"`
	StripePriceCurrencyYear    *string `json:"stripe_price_currency_year,omitempty"`

	EmailDomain         *string `json:"email_domain,omitempty"`
	ResendDomainID      *string `json:"resend_domain_id,omitempty"`
	ResendDomainStatus  *string `json:"resend_domain_status,omitempty"`
	ResendDomainRecords []byte  `json:"resend_domain_records,omitempty"`
	CustomDomain        *string `json:"custom_domain,omitempty"`
}

type Service interface {
	// Bootstrap creates the partner record on first use; the first
	// authenticated requester becomes admin_email. Idempotent.
	Bootstrap(ctx context.Context, slug, adminEmail string) (Partner, error)
	Get(ctx context.Context, slug string) (Partner, error)
	Patch(ctx context.Context, slug string, patch Patch) (Partner, error)

	// ResolveHost maps an inbound host header to its partner: custom
	// domains first, then the <slug>.<platformDomain> convention.
	ResolveHost(ctx context.Context, host string) (Partner, error)
	MapDomain(ctx context.Context, host, slug string) error
	UnmapDomain(ctx context.Context, host string) error

	ListPromoCodes(ctx context.Context, slug string) ([]PromoCode, error)
	PutPromoCodes(ctx context.Context, slug string, codes []PromoCode) ([]PromoCode, error)
	FindPromoCode(ctx context.Context, slug, code string) (PromoCode, error)
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidSlug     = errors.New("invalid_slug")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidHost     = errors.New("invalid_host")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrPromoNotFound   = errors.New("promo_not_found")
)
