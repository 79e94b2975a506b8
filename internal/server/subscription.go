package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	subscriptiondomain "github.com/stackbundle/partnerhub/internal/subscription/domain"
)

func (s *Server) registerSubscriptionRoutes() {
	s.engine.POST("/api/subscriptions/intent", s.createSubscriptionIntent)
}

type subscriptionIntentRequest struct {
	Email    string `json:"email"`
	Interval string `json:"interval"`
}

func (s *Server) createSubscriptionIntent(c *gin.Context) {
	var req subscriptionIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	interval, err := billingdomain.ParseInterval(req.Interval)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	intent, err := s.subscriptionSvc.CreateIntent(c.Request.Context(), subscriptiondomain.Request{
		Email:    req.Email,
		Interval: interval,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription_id": intent.SubscriptionID,
		"client_secret":   intent.ClientSecret,
	})
}
