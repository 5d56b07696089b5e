package domain

import "time"

const (
	NotifyComplaintUpdate = "complaint_update"
	NotifyAssignment      = "assignment"
	NotifyResolved        = "resolved"
	NotifyComment         = "comment"
	NotifySystem          = "system"
)

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	Type           string    `json:"type" dynamodbav:"type"`
	Title          string    `json:"title" dynamodbav:"title"`
	Message        string    `json:"message" dynamodbav:"message"`
	ComplaintID    string    `json:"complaint_id,omitempty" dynamodbav:"complaint_id"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	ExpiresAt      int64     `json:"-" dynamodbav:"expires_at"` // DynamoDB TTL (Unix seconds)
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}
