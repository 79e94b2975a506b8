package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/stackbundle/partnerhub/internal/billing/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Partners partnerdomain.Service
	Gateway  domain.Gateway
}

type Service struct {
	log      *zap.Logger
	partners partnerdomain.Service
	gateway  domain.Gateway
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("billing.service"),
		partners: p.Partners,
		gateway:  p.Gateway,
	}
}

func (s *Service) Terms(ctx context.Context, slug string, interval domain.Interval) (int64, string, error) {
	partner, err := s.partners.Get(ctx, slug)
	if err != nil {
		return 0, "", err
	}
	return terms(partner, interval)
}

func (s *Service) Provision(ctx context.Context, slug string, interval domain.Interval) (domain.PriceRef, error) {
	partner, err := s.partners.Get(ctx, slug)
	if err != nil {
		return domain.PriceRef{}, err
	}
	if strings.TrimSpace(partner.ConnectedAccount) == "" {
		return domain.PriceRef{}, domain.ErrNotConnected
	}

	amount, currency, err := terms(partner, interval)
	if err != nil {
		return domain.PriceRef{}, err
	}

	productID, err := s.ensureProduct(ctx, &partner, interval)
	if err != nil {
		return domain.PriceRef{}, err
	}

	priceID, err := s.ensurePrice(ctx, &partner, interval, productID, currency, amount)
	if err != nil {
		return domain.PriceRef{}, err
	}

	return domain.PriceRef{
		ProductID:  productID,
		PriceID:    priceID,
		UnitAmount: amount,
		Currency:   currency,
	}, nil
}

func (s *Service) ensureProduct(ctx context.Context, partner *partnerdomain.Partner, interval domain.Interval) (string, error) {
	cached := cachedProductID(partner, interval)
	if cached != "" {
		return cached, nil
	}

	name := productName(partner, interval)
	productID, err := s.gateway.CreateProduct(ctx, partner.ConnectedAccount, name)
	if err != nil {
		return "", err
	}

	patch := partnerdomain.Patch{}
	if interval == domain.IntervalYear {
		patch.StripeProductIDYear = &productID
	} else {
		patch.StripeProductIDMonth = &productID
	}
	updated, err := s.partners.Patch(ctx, partner.Slug, patch)
	if err != nil {
		return "", err
	}
	*partner = updated

	s.log.Info("stripe product created",
		zap.String("slug", partner.Slug),
		zap.String("interval", string(interval)),
		zap.String("product_id", productID),
	)
	return productID, nil
}

func (s *Service) ensurePrice(ctx context.Context, partner *partnerdomain.Partner, interval domain.Interval, productID, currency string, amount int64) (string, error) {
	cachedID, cachedAmount, cachedCurrency := cachedPrice(partner, interval)
	if cachedID != "" && cachedAmount == amount && strings.EqualFold(cachedCurrency, currency) {
		return cachedID, nil
	}

	// Prices are immutable in Stripe: a changed amount or currency mints
	// a new price and abandons the old one. The idempotency key makes
	// concurrent mints for identical terms collapse to one price.
	key := priceIdempotencyKey(partner.Slug, interval, amount, currency)
	priceID, err := s.gateway.CreatePrice(ctx, partner.ConnectedAccount, productID, currency, amount, string(interval), key)
	if err != nil {
		return "", err
	}

	patch := partnerdomain.Patch{}
	if interval == domain.IntervalYear {
		patch.StripePriceIDYear = &priceID
		patch.StripePriceUnitAmountYear = &amount
		patch.StripePriceCurrencyYear = &currency
	} else {
		patch.StripePriceIDMonth = &priceID
		patch.StripePriceUnitAmountMonth = &amount
		patch.StripePriceCurrencyMonth = &currency
	}
	updated, err := s.partners.Patch(ctx, partner.Slug, patch)
	if err != nil {
		return "", err
	}
	*partner = updated

	s.log.Info("stripe price minted",
		zap.String("slug", partner.Slug),
		zap.String("interval", string(interval)),
		zap.String("price_id", priceID),
		zap.Int64("unit_amount", amount),
		zap.String("currency", currency),
		zap.String("replaced", cachedID),
	)
	return priceID, nil
}

func terms(partner partnerdomain.Partner, interval domain.Interval) (int64, string, error) {
	currency, err := domain.NormalizeCurrency(partner.Currency)
	if err != nil {
		return 0, "", err
	}

	switch interval {
	case domain.IntervalMonth:
		amount, err := domain.ParseAmount(partner.MonthlyPrice)
		if err != nil {
			return 0, "", err
		}
		return amount, currency, nil
	case domain.IntervalYear:
		if strings.TrimSpace(partner.YearlyPrice) != "" {
			amount, err := domain.ParseAmount(partner.YearlyPrice)
			if err != nil {
				return 0, "", err
			}
			return amount, currency, nil
		}
		monthly, err := domain.ParseAmount(partner.MonthlyPrice)
		if err != nil {
			return 0, "", err
		}
		return domain.DeriveYearlyAmount(monthly, partner.AnnualDiscountPct), currency, nil
	default:
		return 0, "", domain.ErrInvalidInterval
	}
}

func cachedProductID(partner *partnerdomain.Partner, interval domain.Interval) string {
	if interval == domain.IntervalYear {
		return strings.TrimSpace(partner.StripeProductIDYear)
	}
	return strings.TrimSpace(partner.StripeProductIDMonth)
}

func cachedPrice(partner *partnerdomain.Partner, interval domain.Interval) (string, int64, string) {
	if interval == domain.IntervalYear {
		return strings.TrimSpace(partner.StripePriceIDYear), partner.StripePriceUnitAmountYear, partner.StripePriceCurrencyYear
	}
	return strings.TrimSpace(partner.StripePriceIDMonth), partner.StripePriceUnitAmountMonth, partner.StripePriceCurrencyMonth
}

func productName(partner *partnerdomain.Partner, interval domain.Interval) string {
	name := strings.TrimSpace(partner.SaasName)
	if name == "" {
		name = partner.Slug
	}
	if interval == domain.IntervalYear {
		return name + " (Annual)"
	}
	return name + " (Monthly)"
}

func priceIdempotencyKey(slug string, interval domain.Interval, amount int64, currency string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s", slug, interval, amount, currency)))
	return "price-" + hex.EncodeToString(sum[:16])
}
