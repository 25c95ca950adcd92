package services

import (
	"context"
	"errors"
	"testing"

	"github.com/balaghcms/notification-service/internal/auth"
	"github.com/balaghcms/notification-service/internal/config"
	"github.com/balaghcms/notification-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Ready() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	args := m.Called(ctx, to, subject, html)
	return args.String(0), args.Error(1)
}

func testNotification() models.Notification {
	return models.Notification{
		Action:         "created",
		EntityType:     "activities",
		EntityName:     "مهرجان",
		PerformedBy:    "editor@x.com",
		Timestamp:      1700000000000,
		NotificationID: "n-1",
	}
}

func newTestNotifier(mailer Mailer) *Notifier {
	return NewNotifier(mailer, NewRenderer("https://balagh-admin.vercel.app"), 0, zap.NewNop())
}

func TestSendNotificationEmails_EmptyRecipientsIsNoOp(t *testing.T) {
	mailer := new(mockMailer)

	notifier := newTestNotifier(mailer)
	results, err := notifier.SendNotificationEmails(context.Background(), testNotification(), nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
	mailer.AssertNotCalled(t, "Ready")
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNotificationEmails_TransportFailureAbortsBeforeAnySend(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("Ready").Return(ErrTransportUnavailable)

	notifier := newTestNotifier(mailer)
	results, err := notifier.SendNotificationEmails(context.Background(), testNotification(),
		[]string{"a@x.com", "b@x.com"})

	assert.ErrorIs(t, err, ErrTransportUnavailable)
	assert.Nil(t, results)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNotificationEmails_MissingCredentialsAbortWholeBatch(t *testing.T) {
	mailer := NewGmailMailer(config.MailConfig{FromAddress: "support@balagh.org"},
		auth.NewTokenSource(config.GoogleConfig{}), zap.NewNop())

	notifier := newTestNotifier(mailer)
	results, err := notifier.SendNotificationEmails(context.Background(), testNotification(),
		[]string{"e1@x.com", "e2@x.com"})

	// hard failure with no per-recipient records, not a 2-entry failure list
	assert.ErrorIs(t, err, ErrTransportUnavailable)
	assert.Nil(t, results)
}

func TestSendNotificationEmails_AttemptsEveryRecipientDespiteFailures(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("Ready").Return(nil)
	mailer.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.Anything).Return("msg-1", nil)
	mailer.On("Send", mock.Anything, "b@x.com", mock.Anything, mock.Anything).
		Return("", errors.New("mailbox full"))
	mailer.On("Send", mock.Anything, "c@x.com", mock.Anything, mock.Anything).Return("msg-3", nil)

	notifier := newTestNotifier(mailer)
	results, err := notifier.SendNotificationEmails(context.Background(), testNotification(),
		[]string{"a@x.com", "b@x.com", "c@x.com"})

	assert.NoError(t, err)
	assert.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, "msg-1", results[0].MessageID)

	assert.False(t, results[1].Success)
	assert.Equal(t, "b@x.com", results[1].Email)
	assert.Contains(t, results[1].Error, "mailbox full")

	assert.True(t, results[2].Success)
	mailer.AssertExpectations(t)
}

func TestSendNotificationEmails_RendersOncePerBatch(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("Ready").Return(nil)

	var subjects []string
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			subjects = append(subjects, args.String(2))
		}).
		Return("id", nil)

	notifier := newTestNotifier(mailer)
	_, err := notifier.SendNotificationEmails(context.Background(), testNotification(),
		[]string{"a@x.com", "b@x.com"})

	assert.NoError(t, err)
	assert.Len(t, subjects, 2)
	assert.Equal(t, subjects[0], subjects[1])
	assert.Equal(t, "بلاغ - إنشاء نشاط: مهرجان", subjects[0])
}
