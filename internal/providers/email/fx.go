package email

import (
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig, ProvideProvider),
)

func NewFromConfig(cfg config.Config, limiter *ratelimit.TokenBucket) *ResendClient {
	return NewResend(cfg.ResendAPIKey, limiter)
}

func ProvideProvider(cfg config.Config, client *ResendClient) Provider {
	if cfg.ResendAPIKey == "" {
		return &NoOpProvider{}
	}
	return client
}
