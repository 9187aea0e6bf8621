package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Transaction history handlers

// ConsumerTransactions - GET /api/transactions/consumer
// The caller's own purchases, newest first
func (h *Handlers) ConsumerTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	items, err := h.services.Transactions.ConsumerHistory(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list consumer transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// CreatorTransactions - GET /api/transactions/creator
// Sales for events the caller owns, newest first
func (h *Handlers) CreatorTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	items, err := h.services.Transactions.CreatorHistory(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to list creator transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, items)
}
