package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]domain.Notification)
	return list, args.Error(1)
}
func (m *mockStore) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNotify_SetsRetentionTTL(t *testing.T) {
	store := &mockStore{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var stored *domain.Notification
	store.On("Put", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Notification) }).Return(nil)

	NewService(store, func() time.Time { return now }).
		Notify(context.Background(), "u1", domain.NotifySystem, "Hello", "Welcome", "")

	require.NotNil(t, stored)
	assert.Equal(t, now.Add(retention).Unix(), stored.ExpiresAt)
	assert.False(t, stored.IsRead)
	assert.NotEmpty(t, stored.NotificationID)
}

func TestNotify_StoreFailureSwallowed(t *testing.T) {
	store := &mockStore{}
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	// Must not panic or surface the error.
	NewService(store, nil).Notify(context.Background(), "u1", domain.NotifySystem, "t", "m", "")
}

func TestMarkAsRead_OwnershipEnforced(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "someone-else"}, nil)

	_, err := NewService(store, nil).MarkAsRead(context.Background(), "u1", "n1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	store.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestMarkAsRead_AlreadyRead_NoWrite(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", UserID: "u1", IsRead: true}, nil)

	n, err := NewService(store, nil).MarkAsRead(context.Background(), "u1", "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	store.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}
