package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DatabasePinger checks connectivity to the API key and wallet store.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// ChainHealthChecker checks connectivity to the configured RPC endpoints.
type ChainHealthChecker interface {
	IsHealthy(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db     DatabasePinger
	chains ChainHealthChecker
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db DatabasePinger, chains ChainHealthChecker) *HealthHandler {
	return &HealthHandler{db: db, chains: chains}
}

// GetHealth returns the overall health status with per-dependency detail.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	status := "healthy"
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	if err := h.chains.IsHealthy(ctx); err != nil {
		checks["rpc"] = gin.H{"status": "unhealthy", "error": err.Error()}
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		checks["rpc"] = gin.H{"status": "healthy"}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"services":  checks,
		"timestamp": time.Now().UTC(),
	})
}

// GetLiveness returns a simple liveness check.
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// GetReadiness reports whether the service can take traffic. The database is
// required; RPC endpoints are checked per request and degrade gracefully.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"message":   "database not available",
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
	})
}

// GetDatabaseHealth reports database connectivity on its own.
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
