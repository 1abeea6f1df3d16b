package server

import (
	"io"
	"net/http"

	billingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/billing/domain"
	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resp, err := s.billingSvc.Checkout(c.Request.Context(), billingdomain.CheckoutRequest{
		Email: req.Email,
		Type:  req.Type,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type portalRequest struct {
	Email string `json:"email"`
}

func (s *Server) CreatePortal(c *gin.Context) {
	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resp, err := s.billingSvc.Portal(c.Request.Context(), billingdomain.PortalRequest{
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPayload)
		return
	}

	if err := s.billingSvc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
