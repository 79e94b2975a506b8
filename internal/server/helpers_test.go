package server

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/stackbundle/partnerhub/internal/analytics/domain"
	analyticssvc "github.com/stackbundle/partnerhub/internal/analytics/service"
	"github.com/stackbundle/partnerhub/internal/appstate"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	magiclinkdomain "github.com/stackbundle/partnerhub/internal/magiclink/domain"
	"github.com/stackbundle/partnerhub/internal/observability"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	partnerrepo "github.com/stackbundle/partnerhub/internal/partner/repository"
	partnersvc "github.com/stackbundle/partnerhub/internal/partner/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testServer wires a Server around sqlite-backed services and the
// stubs a test provides, mirroring the production wiring minus fx.
func testServer(t *testing.T, mutate func(*Server)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(
		&partnerdomain.Partner{},
		&partnerdomain.PartnerDomain{},
		&partnerdomain.PromoCode{},
		&appstate.Entry{},
		&analyticsdomain.DailyStat{},
		&magiclinkdomain.MagicLink{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Exec(
		"DELETE FROM partners; DELETE FROM partner_domains; DELETE FROM partner_promo_codes; DELETE FROM app_state; DELETE FROM discord_daily_stats; DELETE FROM magic_links;",
	).Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	cfg := config.Config{
		AppName:               "PartnerHub",
		PlatformDomain:        "stackbundle.io",
		ApplicationFeePercent: 50,
		AnalyticsToken:        "op-token",
	}
	fake := clock.NewFakeClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))

	partners := partnersvc.New(partnersvc.Params{
		Cfg:   cfg,
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  partnerrepo.Provide(),
	})
	analytics := analyticssvc.New(analyticssvc.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: fake,
	})

	srv := &Server{
		engine:       NewEngine(observability.Config{}, nil),
		cfg:          cfg,
		partnerSvc:   partners,
		analyticsSvc: analytics,
		state:        appstate.NewStore(conn),
	}
	if mutate != nil {
		mutate(srv)
	}

	srv.registerPartnerRoutes()
	srv.registerCheckoutRoutes()
	srv.registerSubscriptionRoutes()
	srv.registerEmailDomainRoutes()
	srv.registerAuthRoutes()
	srv.registerOperatorRoutes()

	return srv
}
