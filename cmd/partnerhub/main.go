package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/migration"
	"github.com/stackbundle/partnerhub/internal/observability"
	"github.com/stackbundle/partnerhub/internal/redis"
	"github.com/stackbundle/partnerhub/internal/server"
	"github.com/stackbundle/partnerhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redis.Module,
		clock.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
