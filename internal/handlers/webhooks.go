package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"tiketi/internal/models"

	"github.com/gin-gonic/gin"
)

// OnGatewayNotification - POST /api/payments/webhook
// Receives asynchronous charge status updates from the payment gateway and
// reconciles them against the ledger. The gateway signs the raw body; an
// unsigned or badly signed request is rejected before parsing.
func (h *Handlers) OnGatewayNotification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("X-Gateway-Signature")
	if signature == "" || !h.paymentClient.ValidateWebhookSignature(body, signature) {
		slog.Warn("Rejected gateway notification with bad signature",
			"client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload models.GatewayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	if payload.Data.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing order_id"})
		return
	}

	if err := h.services.Purchases.HandleGatewayNotification(c.Request.Context(), &payload); err != nil {
		slog.Error("Failed to handle gateway notification",
			"error", err,
			"order_id", payload.Data.OrderID)
		// Non-200 makes the gateway redeliver; the transition is
		// status-guarded so redelivery is safe.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process notification"})
		return
	}

	c.Status(http.StatusOK)
}
