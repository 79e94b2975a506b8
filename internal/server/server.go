package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stackbundle/partnerhub/internal/analytics"
	analyticsdomain "github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/appstate"
	"github.com/stackbundle/partnerhub/internal/billing"
	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	"github.com/stackbundle/partnerhub/internal/checkout"
	checkoutdomain "github.com/stackbundle/partnerhub/internal/checkout/domain"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/discord"
	"github.com/stackbundle/partnerhub/internal/discord/creds"
	"github.com/stackbundle/partnerhub/internal/emailverify"
	emailverifydomain "github.com/stackbundle/partnerhub/internal/emailverify/domain"
	"github.com/stackbundle/partnerhub/internal/magiclink"
	magiclinkdomain "github.com/stackbundle/partnerhub/internal/magiclink/domain"
	"github.com/stackbundle/partnerhub/internal/observability"
	obsmiddleware "github.com/stackbundle/partnerhub/internal/observability/logger"
	obsmetrics "github.com/stackbundle/partnerhub/internal/observability/metrics"
	obstracing "github.com/stackbundle/partnerhub/internal/observability/tracing"
	"github.com/stackbundle/partnerhub/internal/partner"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"github.com/stackbundle/partnerhub/internal/providers/email"
	stripeprovider "github.com/stackbundle/partnerhub/internal/providers/stripe"
	"github.com/stackbundle/partnerhub/internal/ratelimit"
	"github.com/stackbundle/partnerhub/internal/subscription"
	subscriptiondomain "github.com/stackbundle/partnerhub/internal/subscription/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	ratelimit.Module,
	stripeprovider.Module,
	email.Module,
	discord.Module,
	creds.Module,
	appstate.Module,
	partner.Module,
	billing.Module,
	checkout.Module,
	subscription.Module,
	emailverify.Module,
	magiclink.Module,
	analytics.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	partnerSvc      partnerdomain.Service
	billingSvc      billingdomain.Service
	checkoutSvc     checkoutdomain.Service
	subscriptionSvc subscriptiondomain.Service
	emailVerifySvc  emailverifydomain.Service
	magicLinkSvc    magiclinkdomain.Service
	analyticsSvc    analyticsdomain.Service
	credsSvc        *creds.Service
	state           *appstate.Store
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	PartnerSvc      partnerdomain.Service
	BillingSvc      billingdomain.Service
	CheckoutSvc     checkoutdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	EmailVerifySvc  emailverifydomain.Service
	MagicLinkSvc    magiclinkdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	CredsSvc        *creds.Service
	State           *appstate.Store
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		partnerSvc:      p.PartnerSvc,
		billingSvc:      p.BillingSvc,
		checkoutSvc:     p.CheckoutSvc,
		subscriptionSvc: p.SubscriptionSvc,
		emailVerifySvc:  p.EmailVerifySvc,
		magicLinkSvc:    p.MagicLinkSvc,
		analyticsSvc:    p.AnalyticsSvc,
		credsSvc:        p.CredsSvc,
		state:           p.State,
	}

	svc.registerPartnerRoutes()
	svc.registerCheckoutRoutes()
	svc.registerSubscriptionRoutes()
	svc.registerEmailDomainRoutes()
	svc.registerAuthRoutes()
	svc.registerOperatorRoutes()

	return svc
}
