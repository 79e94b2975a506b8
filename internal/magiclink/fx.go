package magiclink

import (
	"github.com/stackbundle/partnerhub/internal/magiclink/repository"
	"github.com/stackbundle/partnerhub/internal/magiclink/service"
	"go.uber.org/fx"
)

var Module = fx.Module("magiclink.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
