package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	checkoutdomain "github.com/stackbundle/partnerhub/internal/checkout/domain"
	"github.com/stackbundle/partnerhub/pkg/tenantctx"
)

func (s *Server) registerCheckoutRoutes() {
	s.engine.POST("/api/checkout", s.tenantMiddleware(), s.createCheckoutSession)
	s.engine.GET("/checkout/link", s.tenantMiddleware(), s.sharedCheckoutLink)
}

type checkoutRequest struct {
	Slug          string `json:"slug"`
	Interval      string `json:"interval"`
	PromoCode     string `json:"promo_code"`
	CustomerEmail string `json:"customer_email"`
}

func (s *Server) createCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	interval, err := billingdomain.ParseInterval(req.Interval)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if req.Slug == "" {
		if slug, ok := tenantctx.Slug(c.Request.Context()); ok {
			req.Slug = slug
		}
	}

	url, err := s.checkoutSvc.CreateSession(c.Request.Context(), checkoutdomain.Request{
		Slug:          req.Slug,
		Interval:      interval,
		PromoCode:     req.PromoCode,
		Host:          requestHost(c),
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// sharedCheckoutLink is the GET form partners paste into emails and
// bios. It redirects straight to the hosted checkout.
func (s *Server) sharedCheckoutLink(c *gin.Context) {
	interval, err := billingdomain.ParseInterval(c.DefaultQuery("interval", "month"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	slug := c.Query("slug")
	if slug == "" {
		if resolved, ok := tenantctx.Slug(c.Request.Context()); ok {
			slug = resolved
		}
	}

	url, err := s.checkoutSvc.CreateSharedLinkSession(c.Request.Context(), checkoutdomain.Request{
		Slug:      slug,
		Interval:  interval,
		PromoCode: c.Query("code"),
		Host:      requestHost(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	redirectSeeOther(c, url)
}
