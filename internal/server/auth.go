package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	magiclinkdomain "github.com/stackbundle/partnerhub/internal/magiclink/domain"
)

func (s *Server) registerAuthRoutes() {
	api := s.engine.Group("/api")

	api.POST("/auth/magic-link", s.issueMagicLink)
	api.GET("/auth/verify", s.verifyMagicLink)
}

type magicLinkRequest struct {
	Email      string `json:"email"`
	Slug       string `json:"slug"`
	RedirectTo string `json:"redirect_to"`
}

func (s *Server) issueMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.magicLinkSvc.Issue(c.Request.Context(), magiclinkdomain.IssueRequest{
		Email:      req.Email,
		Slug:       req.Slug,
		RedirectTo: req.RedirectTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// Always a neutral answer so the endpoint cannot be used to probe
	// which emails exist.
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (s *Server) verifyMagicLink(c *gin.Context) {
	link, err := s.magicLinkSvc.Consume(c.Request.Context(), c.Query("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":       link.Email,
		"slug":        link.Slug,
		"redirect_to": link.RedirectTo,
	})
}
