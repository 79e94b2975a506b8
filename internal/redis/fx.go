package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/stackbundle/partnerhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the shared redis client.
var Module = fx.Module("redis",
	fx.Provide(NewClient),
)

func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable at startup", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})

	return client
}
