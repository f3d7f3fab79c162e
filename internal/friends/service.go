package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
)

// EdgeStore persists directed friend edges. Pair operations must be atomic:
// a torn pair (one direction updated, the other stale) must never be
// observable by a concurrent reader.
type EdgeStore interface {
	Get(ctx context.Context, ownerID, otherID string) (models.FriendEdge, error)
	CreatePair(ctx context.Context, outgoing, incoming models.FriendEdge) error
	AcceptPair(ctx context.Context, accepterID, requesterID string) error
	DeletePair(ctx context.Context, userA, userB string) error
	ListForOwner(ctx context.Context, ownerID string, status models.FriendStatus) ([]models.FriendEdge, error)
}

// UserDirectory resolves user records for validation and result hydration.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]models.User, error)
}

// Notifier delivers in-app notifications triggered by friend activity.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// Service owns the friend-relationship state machine. Each directed edge
// moves none -> pending -> friends (or the mirrored none -> requested ->
// friends), with rejection deleting the pair. friends is terminal.
type Service struct {
	edges    EdgeStore
	users    UserDirectory
	notifier Notifier
	nowFunc  func() time.Time
}

// NewService constructs the friend graph service. The notifier may be nil.
func NewService(edges EdgeStore, users UserDirectory, notifier Notifier) *Service {
	return &Service{edges: edges, users: users, notifier: notifier}
}

// Result pairs a user with their edge status relative to the acting user.
type Result struct {
	User   models.User
	Status models.FriendStatus
}

// SendRequest records a friend request from one user to another. When the
// target has already requested the sender, the call accepts that request
// instead of creating a duplicate pair.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == toID {
		return ErrSelfRequest
	}

	target, err := s.users.FindByID(ctx, toID)
	if err != nil {
		return fmt.Errorf("resolve request target: %w", err)
	}

	edge, err := s.edges.Get(ctx, fromID, toID)
	switch {
	case err == nil:
		switch edge.Status {
		case models.FriendStatusFriends:
			return ErrAlreadyFriends
		case models.FriendStatusPending:
			return ErrAlreadyPending
		case models.FriendStatusRequested:
			// Reverse request already exists; this send is an accept.
			return s.accept(ctx, fromID, toID)
		default:
			return fmt.Errorf("unexpected edge status %q", edge.Status)
		}
	case errors.Is(err, repositories.ErrNotFound):
		// No prior edge; fall through to create the pair.
	default:
		return fmt.Errorf("load friend edge: %w", err)
	}

	now := s.now()
	outgoing := models.FriendEdge{OwnerID: fromID, OtherID: toID, Status: models.FriendStatusPending, UpdatedAt: now}
	incoming := models.FriendEdge{OwnerID: toID, OtherID: fromID, Status: models.FriendStatusRequested, UpdatedAt: now}

	if err := s.edges.CreatePair(ctx, outgoing, incoming); err != nil {
		return fmt.Errorf("create friend edge pair: %w", err)
	}

	s.notify(ctx, fromID, target.ID, models.NotificationFriendRequest, "sent you a friend request")
	return nil
}

// AcceptRequest promotes a (pending, requested) edge pair to friends. Only
// the recipient of the request holds the requested edge, so the accepter is
// always the side whose own edge reads requested.
func (s *Service) AcceptRequest(ctx context.Context, accepterID, requesterID string) error {
	edge, err := s.edges.Get(ctx, accepterID, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("load friend edge: %w", err)
	}

	switch edge.Status {
	case models.FriendStatusRequested:
		return s.accept(ctx, accepterID, requesterID)
	case models.FriendStatusFriends:
		return ErrAlreadyFriends
	default:
		return ErrInvalidTransition
	}
}

// RejectRequest deletes a (pending, requested) edge pair, returning both
// sides to the implicit none state. Either participant may reject.
func (s *Service) RejectRequest(ctx context.Context, userID, otherID string) error {
	edge, err := s.edges.Get(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidTransition
		}
		return fmt.Errorf("load friend edge: %w", err)
	}

	if edge.Status != models.FriendStatusPending && edge.Status != models.FriendStatusRequested {
		return ErrInvalidTransition
	}

	if err := s.edges.DeletePair(ctx, userID, otherID); err != nil {
		return fmt.Errorf("delete friend edge pair: %w", err)
	}

	return nil
}

// Search matches usernames by case-sensitive prefix, excluding the acting
// user, and annotates every hit with the actor-relative edge status.
func (s *Service) Search(ctx context.Context, actorID, prefix string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	users, err := s.users.SearchByUsernamePrefix(ctx, prefix, limit+1)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	statuses, err := s.statusesForOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(users))
	for _, user := range users {
		if user.ID == actorID {
			continue
		}
		if len(results) == limit {
			break
		}

		status := models.FriendStatusNone
		if st, ok := statuses[user.ID]; ok {
			status = st
		}
		results = append(results, Result{User: user, Status: status})
	}

	return results, nil
}

// ListFriends returns the users the owner has an accepted relationship with.
func (s *Service) ListFriends(ctx context.Context, ownerID string) ([]Result, error) {
	return s.listByStatus(ctx, ownerID, models.FriendStatusFriends)
}

// ListIncoming returns the users with an unanswered request to the owner.
func (s *Service) ListIncoming(ctx context.Context, ownerID string) ([]Result, error) {
	return s.listByStatus(ctx, ownerID, models.FriendStatusRequested)
}

func (s *Service) listByStatus(ctx context.Context, ownerID string, status models.FriendStatus) ([]Result, error) {
	edges, err := s.edges.ListForOwner(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("list friend edges: %w", err)
	}

	results := make([]Result, 0, len(edges))
	for _, edge := range edges {
		user, err := s.users.FindByID(ctx, edge.OtherID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve friend %s: %w", edge.OtherID, err)
		}
		results = append(results, Result{User: user, Status: edge.Status})
	}

	return results, nil
}

func (s *Service) accept(ctx context.Context, accepterID, requesterID string) error {
	if err := s.edges.AcceptPair(ctx, accepterID, requesterID); err != nil {
		return fmt.Errorf("accept friend edge pair: %w", err)
	}

	s.notify(ctx, accepterID, requesterID, models.NotificationFriendAccept, "accepted your friend request")
	return nil
}

// notify is best effort: edge-pair consistency is the invariant worth
// failing the operation for, a missed notification is not.
func (s *Service) notify(ctx context.Context, fromID, toID string, kind models.NotificationKind, message string) {
	if s.notifier == nil {
		return
	}

	fromUsername := ""
	if from, err := s.users.FindByID(ctx, fromID); err == nil {
		fromUsername = from.Username
		message = fmt.Sprintf("%s %s", from.Username, message)
	}

	notification := models.Notification{
		UserID:       toID,
		Message:      message,
		FromUserID:   fromID,
		FromUsername: fromUsername,
		Kind:         kind,
		CreatedAt:    s.now(),
	}

	if err := s.notifier.Notify(ctx, notification); err != nil {
		logging.FromContext(ctx).Warn("friend notification not delivered", "kind", kind, "userId", toID, "error", err)
	}
}

func (s *Service) statusesForOwner(ctx context.Context, ownerID string) (map[string]models.FriendStatus, error) {
	statuses := make(map[string]models.FriendStatus)
	for _, status := range []models.FriendStatus{models.FriendStatusPending, models.FriendStatusRequested, models.FriendStatusFriends} {
		edges, err := s.edges.ListForOwner(ctx, ownerID, status)
		if err != nil {
			return nil, fmt.Errorf("list %s edges: %w", status, err)
		}
		for _, edge := range edges {
			statuses[edge.OtherID] = edge.Status
		}
	}
	return statuses, nil
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
