package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"tiketi/internal/models"

	"github.com/gin-gonic/gin"
)

// Events handlers

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID, ok := callerID(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		slog.Error("Failed to create event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}

	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	response, err := h.services.Events.List(c.Request.Context(), query, page, pageSize)
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEvent - GET /api/events/:id
// Event details with the ledger-derived availability, cached for a few
// seconds since this is display data only.
func (h *Handlers) GetEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if h.valkeyClient != nil {
		if raw, err := h.valkeyClient.GetAvailabilityRaw(c.Request.Context(), eventID); err == nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	response, err := h.services.Events.Availability(c.Request.Context(), eventID)
	if err != nil {
		slog.Error("Failed to get event", "error", err, "event_id", eventID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get event"})
		return
	}
	if response == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if h.valkeyClient != nil {
		if raw, err := json.Marshal(response); err == nil {
			if err := h.valkeyClient.SetAvailability(c.Request.Context(), eventID, raw); err != nil {
				slog.Debug("Failed to cache availability", "error", err, "event_id", eventID)
			}
		}
	}

	c.JSON(http.StatusOK, response)
}
