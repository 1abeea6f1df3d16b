package server

import (
	"net/http"

	entitlementdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/entitlement/domain"
	"github.com/gin-gonic/gin"
)

type entitlementStatusRequest struct {
	Email string `json:"email"`
}

func (s *Server) EntitlementStatus(c *gin.Context) {
	var req entitlementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	resp, err := s.entitlementSvc.Status(c.Request.Context(), entitlementdomain.StatusRequest{
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
