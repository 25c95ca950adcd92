package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/balaghcms/notification-service/internal/models"
	"github.com/balaghcms/notification-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RecipientFilter narrows a candidate recipient list to what the sender may
// notify.
type RecipientFilter interface {
	FilterRecipients(ctx context.Context, senderEmail string, candidates []string) ([]string, error)
}

// NotificationSender dispatches a rendered notification to each recipient.
type NotificationSender interface {
	SendNotificationEmails(ctx context.Context, notification models.Notification, recipients []string) ([]models.SendResult, error)
}

// Publisher pushes audit and failed-batch messages to the queue.
type Publisher interface {
	PublishAudit(ctx context.Context, message interface{}) error
	PublishFailed(ctx context.Context, message interface{}) error
	IsConnected() bool
}

type NotificationHandler struct {
	filter   RecipientFilter
	notifier NotificationSender
	redis    *redis.Client
	queue    Publisher
	log      *zap.Logger
}

func NewNotificationHandler(
	filter RecipientFilter,
	notifier NotificationSender,
	redisClient *redis.Client,
	queue Publisher,
	log *zap.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		filter:   filter,
		notifier: notifier,
		redis:    redisClient,
		queue:    queue,
		log:      log,
	}
}

// Status is the GET health probe of the send-emails endpoint.
func (n *NotificationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Notification email API is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// SendEmails handles POST /api/notifications/send-emails: validate the
// event, apply the recipient access policy and dispatch. Individual send
// failures never fail the request; outcomes are reported per recipient.
func (n *NotificationHandler) SendEmails(c *gin.Context) {
	ctx := c.Request.Context()
	correlationID := c.GetString("correlation_id")

	var req models.SendEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}
	if req.Notification == nil || req.Recipients == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing notification or recipients",
			"received": gin.H{
				"notification": req.Notification != nil,
				"recipients":   req.Recipients != nil,
			},
		})
		return
	}
	notification := *req.Notification
	recipients := *req.Recipients

	if notification.PerformedBy == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing performedBy",
		})
		return
	}

	// Empty list is a successful no-op, distinct from an invalid sender.
	if len(recipients) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No recipients to send to",
		})
		return
	}

	if notification.NotificationID == "" {
		notification.NotificationID = uuid.New().String()
	}

	allowed, err := n.filter.FilterRecipients(ctx, notification.PerformedBy, recipients)
	if err != nil {
		if errors.Is(err, services.ErrSenderNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Sender not found",
			})
			return
		}
		n.log.Error("recipient filtering failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send email notifications",
			"details": err.Error(),
		})
		return
	}

	if len(allowed) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No allowed recipients after filtering",
		})
		return
	}

	isDuplicate, err := n.alreadyProcessed(ctx, notification.NotificationID)
	if err != nil {
		n.log.Warn("idempotency check failed", zap.Error(err))
	}
	if isDuplicate {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Notification already processed",
		})
		return
	}

	results, err := n.notifier.SendNotificationEmails(ctx, notification, allowed)
	if err != nil {
		n.log.Error("email dispatch aborted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send email notifications",
			"details": err.Error(),
		})
		return
	}

	// Stamped only once a dispatch attempt happened, so a rejected or
	// hard-failed request stays retryable under the same id.
	if err := n.markProcessed(ctx, notification.NotificationID); err != nil {
		n.log.Warn("failed to mark notification processed", zap.Error(err))
	}

	n.publishOutcome(ctx, notification, allowed, results, correlationID)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("Email notifications sent to %d recipients", len(allowed)),
		"recipients": allowed,
		"results":    results,
	})
}

func (n *NotificationHandler) alreadyProcessed(ctx context.Context, notificationID string) (bool, error) {
	exists, err := n.redis.Exists(ctx, idempotencyKey(notificationID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (n *NotificationHandler) markProcessed(ctx context.Context, notificationID string) error {
	return n.redis.Set(ctx, idempotencyKey(notificationID), "processed", 24*time.Hour).Err()
}

func idempotencyKey(notificationID string) string {
	return fmt.Sprintf("notification:idempotency:%s", notificationID)
}

// publishOutcome pushes the audit record, and the batch to the failed queue
// when any recipient's delivery failed. Both are best-effort.
func (n *NotificationHandler) publishOutcome(ctx context.Context, notification models.Notification, recipients []string, results []models.SendResult, correlationID string) {
	message := models.AuditMessage{
		NotificationID: notification.NotificationID,
		Action:         notification.Action,
		EntityType:     notification.EntityType,
		EntityID:       notification.EntityID,
		PerformedBy:    notification.PerformedBy,
		Recipients:     recipients,
		Results:        results,
		CorrelationID:  correlationID,
		Timestamp:      time.Now(),
	}
	if err := n.queue.PublishAudit(ctx, message); err != nil {
		n.log.Warn("failed to publish audit message", zap.Error(err))
	}
	for _, r := range results {
		if !r.Success {
			if err := n.queue.PublishFailed(ctx, message); err != nil {
				n.log.Warn("failed to publish failed-batch message", zap.Error(err))
			}
			return
		}
	}
}
