package discord

import (
	"github.com/stackbundle/partnerhub/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("discord.client",
	fx.Provide(func(cfg config.Config) *Client {
		return NewClient(cfg.DiscordBotToken)
	}),
)
