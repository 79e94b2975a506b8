package checkout

import (
	"context"

	"github.com/stackbundle/partnerhub/internal/checkout/domain"
	"github.com/stackbundle/partnerhub/internal/checkout/service"
	stripeprovider "github.com/stackbundle/partnerhub/internal/providers/stripe"
	"go.uber.org/fx"
)

type stripeGateway struct {
	client *stripeprovider.Client
}

func (g stripeGateway) CreateCheckoutSession(ctx context.Context, s domain.Session) (string, error) {
	req := stripeprovider.SessionRequest{
		Account:             s.Account,
		PriceID:             s.PriceID,
		SuccessURL:          s.SuccessURL,
		CancelURL:           s.CancelURL,
		PromotionCodeID:     s.PromotionCodeID,
		AllowPromotionCodes: s.AllowPromotionCodes,
		ApplicationFeePct:   s.ApplicationFeePct,
		CustomerEmail:       s.CustomerEmail,
	}
	if s.Inline != nil {
		req.Inline = &stripeprovider.InlinePrice{
			ProductName: s.Inline.ProductName,
			Currency:    s.Inline.Currency,
			UnitAmount:  s.Inline.UnitAmount,
			Interval:    s.Inline.Interval,
		}
	}
	return g.client.CreateCheckoutSession(ctx, req)
}

var Module = fx.Module("checkout.service",
	fx.Provide(
		func(c *stripeprovider.Client) domain.Gateway { return stripeGateway{client: c} },
		service.New,
	),
)
