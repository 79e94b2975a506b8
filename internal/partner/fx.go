package partner

import (
	"github.com/stackbundle/partnerhub/internal/partner/repository"
	"github.com/stackbundle/partnerhub/internal/partner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partner.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
