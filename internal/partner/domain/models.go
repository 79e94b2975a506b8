package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Partner is the configuration record for one white-label tenant,
// keyed by its slug. Stripe price pointers are cached here together
// with the (amount, currency) they were minted for: Stripe prices are
// immutable, so a change in either mints a new price and repoints.
type Partner struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug              string       `gorm:"not null;uniqueIndex" json:"slug"`
	SaasName          string       `gorm:"not null;default:''" json:"saas_name"`
	AdminEmail        string       `gorm:"not null;default:''" json:"admin_email"`
	SupportEmail      string       `gorm:"not null;default:''" json:"support_email"`
	ConnectedAccount  string       `gorm:"column:connected_account_id;not null;default:''" json:"connected_account_id"`
	Currency          string       `gorm:"not null;default:'eur'" json:"currency"`
	MonthlyPrice      string       `gorm:"not null;default:''" json:"monthly_price"`
	YearlyPrice       string       `gorm:"not null;default:''" json:"yearly_price"`
	AnnualDiscountPct int64        `gorm:"column:annual_discount_percent;not null;default:0" json:"annual_discount_percent"`
	AllowPromoCodes   bool         `gorm:"column:allow_promotion_codes;not null;default:false" json:"allow_promotion_codes"`

	StripeProductIDMonth       string `gorm:"not null;default:''" json:"stripe_product_id_month"`
	StripeProductIDYear        string `gorm:"not null;default:''" json:"stripe_product_id_year"`
	StripePriceIDMonth         string `gorm:"not null;default:''" json:"stripe_price_id_month"`
	StripePriceIDYear          string `gorm:"not null;default:''" json:"stripe_price_id_year"`
	StripePriceUnitAmountMonth int64  `gorm:"not null;default:0" json:"stripe_price_unit_amount_month"`
	StripePriceUnitAmountYear  int64  `gorm:"not null;default:0" json:"stripe_price_unit_amount_year"`
	StripePriceCurrencyMonth   string `gorm:"not null;default:''" json:"stripe_price_currency_month"`
	StripePriceCurrencyYear    string `gorm:"not null;default:''" json:"stripe_price_currency_year"`

	EmailDomain         string         `gorm:"not null;default:''" json:"email_domain"`
	ResendDomainID      string         `gorm:"not null;default:''" json:"resend_domain_id"`
	ResendDomainStatus  string         `gorm:"not null;default:''" json:"resend_domain_status"`
	ResendDomainRecords datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"resend_domain_records"`
	CustomDomain        string         `gorm:"not null;default:''" json:"custom_domain"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// PartnerDomain maps an inbound host to the partner slug it serves.
type PartnerDomain struct {
	Host      string    `gorm:"primaryKey" json:"host"`
	Slug      string    `gorm:"not null;index" json:"slug"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// PromoCode is one entry of a partner's promotion-code list. The code is
// matched case-insensitively at checkout; exclusion flags gate the code
// per billing interval.
type PromoCode struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug            string       `gorm:"not null;index:idx_promo_slug_code,unique" json:"slug"`
	Code            string       `gorm:"not null;index:idx_promo_slug_code,unique" json:"code"`
	PromotionCodeID string       `gorm:"not null;default:''" json:"promotion_code_id"`
	// No column default: gorm would substitute it for an explicit
	// false on insert and resurrect disabled codes.
	Active          bool         `gorm:"not null" json:"active"`
	ExcludeMonthly  bool         `gorm:"not null;default:false" json:"exclude_monthly"`
	ExcludeAnnual   bool         `gorm:"not null;default:false" json:"exclude_annual"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PromoCode) TableName() string {
	return "partner_promo_codes"
}
