package migration

import (
	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/appstate"
	"github.com/stackbundle/partnerhub/internal/config"
	magiclinkdomain "github.com/stackbundle/partnerhub/internal/magiclink/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Non-postgres deployments (local sqlite, tests) rely on
			// gorm schema sync instead of versioned SQL.
			return conn.AutoMigrate(
				&partnerdomain.Partner{},
				&partnerdomain.PartnerDomain{},
				&partnerdomain.PromoCode{},
				&appstate.Entry{},
				&domain.DailyStat{},
				&magiclinkdomain.MagicLink{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
