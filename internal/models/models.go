package models

import "time"

// User roles as stored in the users collection.
const (
	RoleMainAdmin     = "main"
	RoleSecondary     = "secondary"
	RoleVillageEditor = "village_editor"
)

// UserRecord is a user document from the directory store.
type UserRecord struct {
	Email             string `json:"email"`
	Role              string `json:"role"`
	AssignedVillageID string `json:"assignedVillageId"`
}

// Notification describes a single content-management event (create/update/
// delete of a martyr, activity, news item, ...). It is built by the admin
// panel at the moment of the mutation and consumed exactly once here.
type Notification struct {
	Action          string `json:"action"`
	EntityType      string `json:"entityType"`
	EntityID        string `json:"entityId"`
	EntityName      string `json:"entityName"`
	PerformedBy     string `json:"performedBy"`
	PerformedByName string `json:"performedByName"`
	Details         string `json:"details"`
	Timestamp       int64  `json:"timestamp"` // epoch millis
	NotificationID  string `json:"notificationId"`
}

// SendEmailsRequest is the body of POST /api/notifications/send-emails.
// Recipients is a pointer so a missing field can be told apart from an
// empty list: missing is a client error, empty is a successful no-op.
type SendEmailsRequest struct {
	Notification *Notification `json:"notification"`
	Recipients   *[]string     `json:"recipients"`
}

// SendResult records the outcome of one recipient's delivery attempt.
type SendResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AuditMessage is published to RabbitMQ after a dispatch attempt so
// downstream consumers can track notification traffic.
type AuditMessage struct {
	NotificationID string       `json:"notification_id"`
	Action         string       `json:"action"`
	EntityType     string       `json:"entity_type"`
	EntityID       string       `json:"entity_id"`
	PerformedBy    string       `json:"performed_by"`
	Recipients     []string     `json:"recipients"`
	Results        []SendResult `json:"results"`
	CorrelationID  string       `json:"correlation_id"`
	Timestamp      time.Time    `json:"timestamp"`
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
}

type VerificationRequest struct {
	Email    string `json:"email" binding:"required"`
	UserName string `json:"userName"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}
