package service

import (
	"context"
	"strings"
	"time"

	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/subscription/domain"
	"github.com/stackbundle/partnerhub/pkg/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Gateway domain.Gateway
}

type Service struct {
	cfg     config.Config
	log     *zap.Logger
	clock   clock.Clock
	gateway domain.Gateway
}

func New(p Params) domain.Service {
	return &Service{
		cfg:     p.Cfg,
		log:     p.Log.Named("subscription.service"),
		clock:   p.Clock,
		gateway: p.Gateway,
	}
}

func (s *Service) CreateIntent(ctx context.Context, req domain.Request) (domain.Intent, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Intent{}, domain.ErrInvalidEmail
	}

	priceID := s.platformPrice(req.Interval)
	if priceID == "" {
		return domain.Intent{}, domain.ErrNoPlatformPrice
	}

	customerID, err := s.findOrCreateCustomer(ctx, email)
	if err != nil {
		return domain.Intent{}, err
	}

	if intent, ok := s.reclaimIncomplete(ctx, customerID, priceID); ok {
		return intent, nil
	}

	created, err := s.gateway.CreateIncompleteSubscription(ctx, customerID, priceID)
	if err != nil {
		return domain.Intent{}, err
	}
	if created.PaymentClientSecret != "" {
		return domain.Intent{SubscriptionID: created.ID, ClientSecret: created.PaymentClientSecret}, nil
	}

	// The payment intent can lag behind subscription creation. Refetch
	// the invoice a few times, then force finalization, then fall back
	// to a standalone intent carrying the subscription id.
	secret, err := s.recoverPaymentSecret(ctx, created)
	if err != nil {
		return domain.Intent{}, err
	}
	return domain.Intent{SubscriptionID: created.ID, ClientSecret: secret}, nil
}

func (s *Service) platformPrice(interval billingdomain.Interval) string {
	if interval == billingdomain.IntervalYear {
		return s.cfg.PlatformPriceIDYear
	}
	return s.cfg.PlatformPriceIDMonth
}

func (s *Service) findOrCreateCustomer(ctx context.Context, email string) (string, error) {
	id, err := s.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return s.gateway.CreateCustomer(ctx, email)
}

// reclaimIncomplete cancels stale incomplete attempts and reuses one
// created within the duplicate-click window for the same price.
func (s *Service) reclaimIncomplete(ctx context.Context, customerID, priceID string) (domain.Intent, bool) {
	subs, err := s.gateway.ListIncompleteSubscriptions(ctx, customerID)
	if err != nil {
		s.log.Warn("list incomplete subscriptions", zap.Error(err))
		return domain.Intent{}, false
	}

	now := s.clock.Now()
	var reuse *domain.IncompleteSubscription
	for i := range subs {
		sub := subs[i]
		age := now.Sub(sub.Created)
		if age <= domain.ReuseWindow && sub.PriceID == priceID && sub.PaymentClientSecret != "" {
			if reuse == nil {
				reuse = &subs[i]
			}
			continue
		}
		if age > domain.ReuseWindow {
			if err := s.gateway.CancelSubscription(ctx, sub.ID); err != nil {
				s.log.Warn("cancel stale subscription",
					zap.String("subscription_id", sub.ID),
					zap.Error(err),
				)
			}
		}
	}

	if reuse == nil {
		return domain.Intent{}, false
	}
	s.log.Info("reusing incomplete subscription",
		zap.String("subscription_id", reuse.ID),
	)
	return domain.Intent{SubscriptionID: reuse.ID, ClientSecret: reuse.PaymentClientSecret}, true
}

func (s *Service) recoverPaymentSecret(ctx context.Context, created domain.CreatedSubscription) (string, error) {
	if created.LatestInvoiceID != "" {
		var secret string
		err := retry.Do(ctx, 3, 500*time.Millisecond, func() error {
			got, err := s.gateway.GetInvoicePaymentSecret(ctx, created.LatestInvoiceID)
			if err != nil {
				return err
			}
			if got == "" {
				return domain.ErrNoPaymentIntent
			}
			secret = got
			return nil
		})
		if err == nil {
			return secret, nil
		}

		secret, err = s.gateway.FinalizeInvoice(ctx, created.LatestInvoiceID)
		if err == nil && secret != "" {
			s.log.Info("payment intent recovered via invoice finalization",
				zap.String("invoice_id", created.LatestInvoiceID),
			)
			return secret, nil
		}
		if err != nil {
			s.log.Warn("finalize invoice", zap.Error(err))
		}
	}

	secret, err := s.gateway.CreateStandalonePaymentIntent(ctx, created.CustomerID, created.ID, created.InvoiceCurrency, created.InvoiceAmountDue)
	if err != nil {
		return "", err
	}
	s.log.Info("standalone payment intent created",
		zap.String("subscription_id", created.ID),
	)
	return secret, nil
}
