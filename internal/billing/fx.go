package billing

import (
	"github.com/stackbundle/partnerhub/internal/billing/domain"
	"github.com/stackbundle/partnerhub/internal/billing/service"
	stripeprovider "github.com/stackbundle/partnerhub/internal/providers/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(func(client *stripeprovider.Client) domain.Gateway { return client }),
	fx.Provide(service.New),
)
