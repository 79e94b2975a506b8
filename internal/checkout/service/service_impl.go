package service

import (
	"context"
	"fmt"
	"strings"

	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	"github.com/stackbundle/partnerhub/internal/checkout/domain"
	"github.com/stackbundle/partnerhub/internal/config"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Partners partnerdomain.Service
	Billing  billingdomain.Service
	Gateway  domain.Gateway
}

type Service struct {
	cfg      config.Config
	log      *zap.Logger
	partners partnerdomain.Service
	billing  billingdomain.Service
	gateway  domain.Gateway
}

func New(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		log:      p.Log.Named("checkout.service"),
		partners: p.Partners,
		billing:  p.Billing,
		gateway:  p.Gateway,
	}
}

func (s *Service) CreateSession(ctx context.Context, req domain.Request) (string, error) {
	partner, err := s.partners.Get(ctx, req.Slug)
	if err != nil {
		return "", err
	}
	if partner.ConnectedAccount == "" {
		return "", billingdomain.ErrNotConnected
	}

	promo, err := s.resolvePromo(ctx, partner, req)
	if err != nil {
		return "", err
	}

	ref, err := s.billing.Provision(ctx, req.Slug, req.Interval)
	if err != nil {
		return "", err
	}

	session := s.baseSession(partner, req, promo)
	session.PriceID = ref.PriceID

	url, err := s.gateway.CreateCheckoutSession(ctx, session)
	if err != nil {
		return "", err
	}

	s.log.Info("checkout session created",
		zap.String("slug", req.Slug),
		zap.String("interval", string(req.Interval)),
		zap.String("price_id", ref.PriceID),
	)
	return url, nil
}

func (s *Service) CreateSharedLinkSession(ctx context.Context, req domain.Request) (string, error) {
	partner, err := s.partners.Get(ctx, req.Slug)
	if err != nil {
		return "", err
	}
	if partner.ConnectedAccount == "" {
		return "", billingdomain.ErrNotConnected
	}

	promo, err := s.resolvePromo(ctx, partner, req)
	if err != nil {
		return "", err
	}

	amount, currency, err := s.billing.Terms(ctx, req.Slug, req.Interval)
	if err != nil {
		return "", err
	}

	session := s.baseSession(partner, req, promo)
	session.Inline = &domain.InlinePrice{
		ProductName: productName(partner, req.Interval),
		Currency:    currency,
		UnitAmount:  amount,
		Interval:    string(req.Interval),
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, session)
	if err != nil {
		return "", err
	}

	s.log.Info("shared link session created",
		zap.String("slug", req.Slug),
		zap.String("interval", string(req.Interval)),
	)
	return url, nil
}

// resolvePromo validates an explicit promo code against activation and
// interval exclusions. Returns the zero value when no code was given.
func (s *Service) resolvePromo(ctx context.Context, partner partnerdomain.Partner, req domain.Request) (partnerdomain.PromoCode, error) {
	if strings.TrimSpace(req.PromoCode) == "" {
		return partnerdomain.PromoCode{}, nil
	}

	promo, err := s.partners.FindPromoCode(ctx, partner.Slug, req.PromoCode)
	if err != nil {
		return partnerdomain.PromoCode{}, err
	}
	if !promo.Active {
		return partnerdomain.PromoCode{}, domain.ErrPromoInactive
	}
	if req.Interval == billingdomain.IntervalYear && promo.ExcludeAnnual {
		return partnerdomain.PromoCode{}, domain.ErrPromoNotApplicable
	}
	if req.Interval == billingdomain.IntervalMonth && promo.ExcludeMonthly {
		return partnerdomain.PromoCode{}, domain.ErrPromoNotApplicable
	}
	return promo, nil
}

func (s *Service) baseSession(partner partnerdomain.Partner, req domain.Request, promo partnerdomain.PromoCode) domain.Session {
	base := s.baseURL(partner, req.Host)
	session := domain.Session{
		Account:           partner.ConnectedAccount,
		SuccessURL:        base + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:         base + "/checkout/cancel",
		ApplicationFeePct: s.cfg.ApplicationFeePercent,
		CustomerEmail:     req.CustomerEmail,
	}
	if promo.PromotionCodeID != "" {
		session.PromotionCodeID = promo.PromotionCodeID
	} else {
		// The Stripe-hosted promo field is only sensible when we did
		// not already apply a code ourselves.
		session.AllowPromotionCodes = partner.AllowPromoCodes
	}
	return session
}

// baseURL prefers the partner's custom domain when the request actually
// arrived on it, so redirects stay on the host the buyer sees.
func (s *Service) baseURL(partner partnerdomain.Partner, host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	if partner.CustomDomain != "" && strings.EqualFold(partner.CustomDomain, h) {
		return "https://" + partner.CustomDomain
	}
	return fmt.Sprintf("https://%s.%s", partner.Slug, s.cfg.PlatformDomain)
}

func productName(partner partnerdomain.Partner, interval billingdomain.Interval) string {
	name := partner.SaasName
	if name == "" {
		name = partner.Slug
	}
	if interval == billingdomain.IntervalYear {
		return name + " (Annual)"
	}
	return name + " (Monthly)"
}
