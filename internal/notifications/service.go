package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitstreak/backend/internal/models"
)

// Store persists in-app notifications.
type Store interface {
	Create(ctx context.Context, notification models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// Service provides notification delivery and read-state management.
type Service struct {
	store   Store
	nowFunc func() time.Time
}

// NewService constructs the notification service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Notify stores a notification for its target user, assigning an id and
// timestamp when the caller left them empty.
func (s *Service) Notify(ctx context.Context, notification models.Notification) error {
	if notification.UserID == "" {
		return fmt.Errorf("notification requires a target user")
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.Kind == "" {
		notification.Kind = models.NotificationGeneral
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.now()
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	notifications, err := s.store.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a single notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.store.MarkRead(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread notification for the user as read in a
// single write.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.store.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Subscribe starts a polling subscription over this service's store. The
// caller owns the returned Subscriber and must Close it.
func (s *Service) Subscribe(ctx context.Context, userID string, interval time.Duration) *Subscriber {
	return Subscribe(ctx, s.store, userID, interval)
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
