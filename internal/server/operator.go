package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/stackbundle/partnerhub/internal/analytics/domain"
	"gorm.io/datatypes"
)

// registerOperatorRoutes wires the internal endpoints used by the
// scraper and operator tooling, all behind the static bearer token.
func (s *Server) registerOperatorRoutes() {
	api := s.engine.Group("/api", bearerAuth(s.cfg.AnalyticsToken))

	api.POST("/discord/analytics", s.upsertDiscordAnalytics)
	api.DELETE("/discord/analytics", s.deleteDiscordAnalytics)
	api.GET("/discord/analytics", s.rangeDiscordAnalytics)
	api.GET("/discord/credentials", s.discordCredentials)

	api.GET("/state/:key", s.getState)
	api.PUT("/state/:key", s.putState)
	api.DELETE("/state/:key", s.deleteState)
}

type analyticsUpsertRequest struct {
	Date string                `json:"date"`
	Rows []analyticsdomain.Row `json:"rows"`
}

func (s *Server) upsertDiscordAnalytics(c *gin.Context) {
	var req analyticsUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.analyticsSvc.Upsert(c.Request.Context(), req.Date, req.Rows); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) deleteDiscordAnalytics(c *gin.Context) {
	var req analyticsUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.analyticsSvc.DeleteDate(c.Request.Context(), req.Date); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) rangeDiscordAnalytics(c *gin.Context) {
	stats, err := s.analyticsSvc.Range(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *Server) discordCredentials(c *gin.Context) {
	channel := c.Query("channel")
	if channel == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	credentials, err := s.credsSvc.Latest(c.Request.Context(), channel)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, credentials)
}

func (s *Server) getState(c *gin.Context) {
	value, err := s.state.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

func (s *Server) putState(c *gin.Context) {
	var value datatypes.JSONMap
	if err := c.ShouldBindJSON(&value); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.state.Put(c.Request.Context(), c.Param("key"), value); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) deleteState(c *gin.Context) {
	if err := s.state.Delete(c.Request.Context(), c.Param("key")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
