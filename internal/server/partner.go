package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
)

func (s *Server) registerPartnerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/partners/:slug/bootstrap", s.bootstrapPartner)
	api.GET("/partners/:slug", s.getPartner)
	api.PUT("/partners/:slug", s.patchPartner)

	api.GET("/partners/:slug/promo-codes", s.listPromoCodes)
	api.PUT("/partners/:slug/promo-codes", s.putPromoCodes)

	api.POST("/partners/:slug/domains", s.mapDomain)
	api.DELETE("/partners/:slug/domains/:host", s.unmapDomain)

	api.GET("/resolve", s.resolveHost)
}

type bootstrapRequest struct {
	AdminEmail string `json:"admin_email"`
}

func (s *Server) bootstrapPartner(c *gin.Context) {
	var req bootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partner, err := s.partnerSvc.Bootstrap(c.Request.Context(), c.Param("slug"), req.AdminEmail)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (s *Server) getPartner(c *gin.Context) {
	partner, err := s.partnerSvc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (s *Server) patchPartner(c *gin.Context) {
	// Strict decode: a typo'd field name in a patch must fail loudly
	// instead of silently dropping the update.
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()

	var patch partnerdomain.Patch
	if err := dec.Decode(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partner, err := s.partnerSvc.Patch(c.Request.Context(), c.Param("slug"), patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}

func (s *Server) listPromoCodes(c *gin.Context) {
	codes, err := s.partnerSvc.ListPromoCodes(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

type putPromoCodesRequest struct {
	Codes []partnerdomain.PromoCode `json:"codes"`
}

func (s *Server) putPromoCodes(c *gin.Context) {
	var req putPromoCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	codes, err := s.partnerSvc.PutPromoCodes(c.Request.Context(), c.Param("slug"), req.Codes)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

type mapDomainRequest struct {
	Host string `json:"host"`
}

func (s *Server) mapDomain(c *gin.Context) {
	var req mapDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.partnerSvc.MapDomain(c.Request.Context(), req.Host, c.Param("slug")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "mapped"})
}

func (s *Server) unmapDomain(c *gin.Context) {
	if err := s.partnerSvc.UnmapDomain(c.Request.Context(), c.Param("host")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unmapped"})
}

func (s *Server) resolveHost(c *gin.Context) {
	host := c.Query("host")
	if host == "" {
		host = requestHost(c)
	}

	partner, err := s.partnerSvc.ResolveHost(c.Request.Context(), host)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner)
}
