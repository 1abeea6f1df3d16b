package server

import (
	"net/http"

	readingdomain "github.com/TAROSUKE-Cyber/tarot-app/internal/reading/domain"
	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type drawReadingRequest struct {
	Email  string `json:"email"`
	Spread string `json:"spread"`
}

func (s *Server) DrawReading(c *gin.Context) {
	var req drawReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	spread, ok := tarot.ParseSpreadType(req.Spread)
	if !ok {
		AbortWithError(c, readingdomain.ErrInvalidSpread)
		return
	}

	if s.readingLimiter.Enabled() {
		allowed, err := s.readingLimiter.Allow(c.Request.Context(), req.Email)
		if err != nil {
			// Redis trouble must not take readings down.
			s.log.Warn("rate limiter check failed", zap.Error(err))
		} else if !allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	resp, err := s.readingSvc.Draw(c.Request.Context(), readingdomain.DrawRequest{
		Email:  req.Email,
		Spread: spread,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
