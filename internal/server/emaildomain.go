package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerEmailDomainRoutes() {
	api := s.engine.Group("/api")

	api.POST("/partners/:slug/email-domain", s.ensureEmailDomain)
	api.GET("/partners/:slug/email-domain", s.checkEmailDomain)
}

func (s *Server) ensureEmailDomain(c *gin.Context) {
	status, err := s.emailVerifySvc.EnsureDomain(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) checkEmailDomain(c *gin.Context) {
	status, err := s.emailVerifySvc.CheckDomain(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
