package handlers

import (
	"net/http"

	"tiketi/internal/cache"
	"tiketi/internal/external"
	"tiketi/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services      *service.Services
	paymentClient *external.PaymentClient
	valkeyClient  *cache.ValkeyClient
}

func NewHandlers(services *service.Services, paymentClient *external.PaymentClient, valkeyClient *cache.ValkeyClient) *Handlers {
	return &Handlers{
		services:      services,
		paymentClient: paymentClient,
		valkeyClient:  valkeyClient,
	}
}

// callerID extracts the authenticated user id set by the BasicAuth middleware.
func callerID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func abortUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}
