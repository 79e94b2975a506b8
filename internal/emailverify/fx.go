package emailverify

import (
	"github.com/stackbundle/partnerhub/internal/emailverify/domain"
	"github.com/stackbundle/partnerhub/internal/emailverify/service"
	"github.com/stackbundle/partnerhub/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("emailverify.service",
	fx.Provide(
		func(c *email.ResendClient) domain.Registrar { return c },
		service.New,
	),
)
