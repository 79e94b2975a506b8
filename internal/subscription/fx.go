package subscription

import (
	"context"
	"time"

	stripeprovider "github.com/stackbundle/partnerhub/internal/providers/stripe"
	"github.com/stackbundle/partnerhub/internal/subscription/domain"
	"github.com/stackbundle/partnerhub/internal/subscription/service"
	"go.uber.org/fx"
)

type stripeGateway struct {
	client *stripeprovider.Client
}

func (g stripeGateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	return g.client.FindCustomerByEmail(ctx, email)
}

func (g stripeGateway) CreateCustomer(ctx context.Context, email string) (string, error) {
	return g.client.CreateCustomer(ctx, email)
}

func (g stripeGateway) ListIncompleteSubscriptions(ctx context.Context, customerID string) ([]domain.IncompleteSubscription, error) {
	subs, err := g.client.ListIncompleteSubscriptions(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.IncompleteSubscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, domain.IncompleteSubscription{
			ID:                  sub.ID,
			PriceID:             sub.PriceID,
			Created:             time.Unix(sub.Created, 0),
			PaymentClientSecret: sub.PaymentClientSecret,
		})
	}
	return out, nil
}

func (g stripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return g.client.CancelSubscription(ctx, subscriptionID)
}

func (g stripeGateway) CreateIncompleteSubscription(ctx context.Context, customerID, priceID string) (domain.CreatedSubscription, error) {
	created, err := g.client.CreateIncompleteSubscription(ctx, customerID, priceID)
	if err != nil {
		return domain.CreatedSubscription{}, err
	}
	return domain.CreatedSubscription{
		ID:                  created.ID,
		LatestInvoiceID:     created.LatestInvoiceID,
		PaymentClientSecret: created.PaymentClientSecret,
		InvoiceAmountDue:    created.InvoiceAmountDue,
		InvoiceCurrency:     created.InvoiceCurrency,
		CustomerID:          created.CustomerID,
	}, nil
}

func (g stripeGateway) GetInvoicePaymentSecret(ctx context.Context, invoiceID string) (string, error) {
	return g.client.GetInvoicePaymentSecret(ctx, invoiceID)
}

func (g stripeGateway) FinalizeInvoice(ctx context.Context, invoiceID string) (string, error) {
	return g.client.FinalizeInvoice(ctx, invoiceID)
}

func (g stripeGateway) CreateStandalonePaymentIntent(ctx context.Context, customerID, subscriptionID, currency string, amount int64) (string, error) {
	return g.client.CreateStandalonePaymentIntent(ctx, customerID, subscriptionID, currency, amount)
}

var Module = fx.Module("subscription.service",
	fx.Provide(
		func(c *stripeprovider.Client) domain.Gateway { return stripeGateway{client: c} },
		service.New,
	),
)
