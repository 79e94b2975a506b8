package stripe

import (
	"github.com/stackbundle/partnerhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.stripe",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Client {
		return New(cfg.StripeSecretKey, log)
	}),
)
