package creds

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/stackbundle/partnerhub/internal/discord"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("discord.creds",
	fx.Provide(func(log *zap.Logger, client *discord.Client, cache *redis.Client) *Service {
		return NewService(log, client, cache)
	}),
)
