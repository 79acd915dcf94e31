package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type webhookHandler func(ctx context.Context, payload []byte, headers http.Header) error

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	s.handleWebhook(c, paymentdomain.ProviderStripe, s.webhookSvc.HandleCard)
}

func (s *Server) HandleCryptoWebhook(c *gin.Context) {
	s.handleWebhook(c, paymentdomain.ProviderCryptomus, s.webhookSvc.HandleCrypto)
}

// handleWebhook acknowledges every delivery except one with a bad signature.
func (s *Server) handleWebhook(c *gin.Context, provider string, handle webhookHandler) {
	c.Set("webhook_provider", provider)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		s.log.Warn("webhook body unreadable, acknowledged", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := handle(c.Request.Context(), payload, c.Request.Header); err != nil {
		if errors.Is(err, paymentdomain.ErrInvalidSignature) {
			AbortWithError(c, err)
			return
		}
		s.log.Warn("webhook handler error acknowledged", zap.String("provider", provider), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
