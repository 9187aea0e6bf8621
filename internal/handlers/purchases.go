package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "tiketi/internal/errors"
	"tiketi/internal/models"

	"github.com/gin-gonic/gin"
)

// CreatePurchase - POST /api/purchases
// Runs the full purchase pipeline: reserve capacity, charge, record, notify.
func (h *Handlers) CreatePurchase(c *gin.Context) {
	var req models.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Header form wins over the body field when both are present
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	payerID, ok := callerID(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	log, err := h.services.Purchases.Purchase(c.Request.Context(), payerID, &req)
	if err != nil {
		h.respondPurchaseError(c, err)
		return
	}

	// A PENDING result means the charge is still in flight at the gateway;
	// the webhook or the reconciliation job settles it.
	status := http.StatusCreated
	if log.Status == models.StatusPending {
		status = http.StatusAccepted
	}

	c.JSON(status, toPurchaseResponse(log))
}

func (h *Handlers) respondPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrGatewayDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable, please retry", "retryable": true})
	case errors.Is(err, apperrors.ErrPersistenceFailure):
		slog.Error("Purchase persistence failure surfaced to client", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purchase could not be recorded; support has been alerted"})
	default:
		slog.Error("Failed to process purchase", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process purchase"})
	}
}

func toPurchaseResponse(log *models.TransactionLog) models.PurchaseResponse {
	return models.PurchaseResponse{
		ID:               log.ID,
		OrderID:          log.OrderID,
		EventID:          log.EventID,
		EventTitle:       log.EventTitle,
		Amount:           log.Amount,
		Currency:         log.Currency,
		Fee:              log.Fee,
		Quantity:         log.Quantity,
		Status:           log.Status,
		GatewayReference: log.GatewayReference,
		CreatedAt:        log.CreatedAt,
	}
}
