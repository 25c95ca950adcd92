package services

import (
	"context"
	"time"

	"github.com/balaghcms/notification-service/internal/models"
	"go.uber.org/zap"
)

// Notifier renders a notification email once and dispatches it to each
// allowed recipient independently. Sends run sequentially with a short
// delay in between to stay friendly with the provider's rate limits; a
// failed send is recorded and never blocks the remaining recipients.
type Notifier struct {
	mailer   Mailer
	renderer *Renderer
	delay    time.Duration
	log      *zap.Logger
}

func NewNotifier(mailer Mailer, renderer *Renderer, delay time.Duration, log *zap.Logger) *Notifier {
	return &Notifier{
		mailer:   mailer,
		renderer: renderer,
		delay:    delay,
		log:      log,
	}
}

// SendNotificationEmails dispatches to every recipient and returns one
// result per recipient. It returns a non-nil error only when the transport
// itself is unusable, in which case no send was attempted. An empty
// recipient list is a no-op.
func (n *Notifier) SendNotificationEmails(ctx context.Context, notification models.Notification, recipients []string) ([]models.SendResult, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	if err := n.mailer.Ready(); err != nil {
		return nil, err
	}

	subject := n.renderer.Subject(notification)
	body := n.renderer.Body(notification)

	n.log.Info("dispatching notification emails",
		zap.String("notification_id", notification.NotificationID),
		zap.String("action", notification.Action),
		zap.String("entity_type", notification.EntityType),
		zap.Int("recipients", len(recipients)))

	results := make([]models.SendResult, 0, len(recipients))
	for i, recipient := range recipients {
		messageID, err := n.mailer.Send(ctx, recipient, subject, body)
		if err != nil {
			n.log.Warn("failed to send notification email",
				zap.String("recipient", recipient),
				zap.Error(err))
			results = append(results, models.SendResult{
				Email:   recipient,
				Success: false,
				Error:   err.Error(),
			})
		} else {
			results = append(results, models.SendResult{
				Email:     recipient,
				Success:   true,
				MessageID: messageID,
			})
		}

		if n.delay > 0 && i < len(recipients)-1 {
			select {
			case <-time.After(n.delay):
			case <-ctx.Done():
			}
		}
	}

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	n.log.Info("notification email results",
		zap.String("notification_id", notification.NotificationID),
		zap.Int("successful", successful),
		zap.Int("failed", len(results)-successful))

	return results, nil
}
