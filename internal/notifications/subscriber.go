package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
)

const subscriberBatchLimit = 50

// Subscriber polls the store for one user's unread notifications and
// delivers changed batches on Updates. It is owned by whoever serves the
// user's session: construct it with an explicit user id, tear it down with
// Close. There is deliberately no process-wide shared instance.
type Subscriber struct {
	store    Store
	userID   string
	interval time.Duration

	updates chan []models.Notification
	done    chan struct{}
	once    sync.Once

	lastSeen string
}

// Subscribe starts a polling subscription for the user's unread
// notifications. The caller must Close it when the session ends.
func Subscribe(ctx context.Context, store Store, userID string, interval time.Duration) *Subscriber {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s := &Subscriber{
		store:    store,
		userID:   userID,
		interval: interval,
		updates:  make(chan []models.Notification, 1),
		done:     make(chan struct{}),
	}

	go s.run(ctx)
	return s
}

// Updates delivers each changed batch of unread notifications. The channel
// is closed after Close or when the subscription context ends.
func (s *Subscriber) Updates() <-chan []models.Notification {
	return s.updates
}

// Close stops polling and closes the updates channel. Safe to call more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.updates)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Subscriber) poll(ctx context.Context) {
	unread, err := s.store.ListForUser(ctx, s.userID, true, subscriberBatchLimit)
	if err != nil {
		logging.FromContext(ctx).Warn("notification poll failed", "userId", s.userID, "error", err)
		return
	}

	fingerprint := fingerprint(unread)
	if fingerprint == s.lastSeen {
		return
	}
	s.lastSeen = fingerprint

	// Replace a stale undelivered batch rather than blocking the poll loop.
	select {
	case <-s.updates:
	default:
	}

	select {
	case s.updates <- unread:
	case <-s.done:
	case <-ctx.Done():
	}
}

func fingerprint(notifications []models.Notification) string {
	if len(notifications) == 0 {
		return ""
	}
	ids := make([]string, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
	}
	return strings.Join(ids, "|")
}
