package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/balaghcms/notification-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// StoreHealth reports whether the Firestore client's breaker is closed.
type StoreHealth interface {
	Healthy() bool
}

type HealthHandler struct {
	queue  Publisher
	redis  *redis.Client
	store  StoreHealth
	mailer services.Mailer
}

func NewHealthHandler(
	queue Publisher,
	redisClient *redis.Client,
	storeHealth StoreHealth,
	mailer services.Mailer,
) *HealthHandler {
	return &HealthHandler{
		queue:  queue,
		redis:  redisClient,
		store:  storeHealth,
		mailer: mailer,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)

	// Check RabbitMQ
	if h.queue.IsConnected() {
		checks["rabbitmq"] = "healthy"
	} else {
		checks["rabbitmq"] = "unhealthy"
	}

	// Check Redis
	if err := h.redis.Ping(ctx).Err(); err == nil {
		checks["redis"] = "healthy"
	} else {
		checks["redis"] = "unhealthy"
	}

	// Firestore breaker state (open breaker means recent failures)
	if h.store.Healthy() {
		checks["firestore"] = "healthy"
	} else {
		checks["firestore"] = "degraded"
	}

	// Mail transport configuration
	if err := h.mailer.Ready(); err == nil {
		checks["mail"] = "healthy"
	} else {
		checks["mail"] = "degraded"
	}

	// Determine overall status
	overallStatus := "healthy"
	for _, status := range checks {
		if status == "unhealthy" {
			overallStatus = "unhealthy"
			break
		} else if status == "degraded" {
			overallStatus = "degraded"
		}
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
		"version":   "1.0.0",
	})
}
