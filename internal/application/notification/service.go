package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/grievance-portal/api/internal/pkg/id"
)

// retention controls the DynamoDB TTL on notification items. Read or not,
// a notification disappears after this window.
const retention = 30 * 24 * time.Hour

type Service interface {
	// Notify records a notification for a user. Failures are logged, never
	// returned; a lost notification must not fail the operation that
	// produced it.
	Notify(ctx context.Context, userID, typ, title, message, complaintID string)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
}

type store interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	notifications store
	now           func() time.Time
}

func NewService(notifications store, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{notifications: notifications, now: now}
}

func (s *service) Notify(ctx context.Context, userID, typ, title, message, complaintID string) {
	now := s.now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Type:           typ,
		Title:          title,
		Message:        message,
		ComplaintID:    complaintID,
		ExpiresAt:      now.Add(retention).Unix(),
		CreatedAt:      now,
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		slog.Warn("failed to store notification", "user_id", userID, "type", typ, "err", err)
	}
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.notifications.ListUnread(ctx, userID)
}

func (s *service) MarkAsRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if n.IsRead {
		return n, nil
	}
	return s.notifications.MarkAsRead(ctx, notificationID)
}
