package friends

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
)

type edgeKey struct {
	owner, other string
}

type inMemoryEdgeStore struct {
	edges map[edgeKey]models.FriendEdge
}

func newInMemoryEdgeStore() *inMemoryEdgeStore {
	return &inMemoryEdgeStore{edges: make(map[edgeKey]models.FriendEdge)}
}

func (s *inMemoryEdgeStore) Get(_ context.Context, ownerID, otherID string) (models.FriendEdge, error) {
	edge, ok := s.edges[edgeKey{ownerID, otherID}]
	if !ok {
		return models.FriendEdge{}, repositories.ErrNotFound
	}
	return edge, nil
}

func (s *inMemoryEdgeStore) CreatePair(_ context.Context, outgoing, incoming models.FriendEdge) error {
	outKey := edgeKey{outgoing.OwnerID, outgoing.OtherID}
	inKey := edgeKey{incoming.OwnerID, incoming.OtherID}
	if _, exists := s.edges[outKey]; exists {
		return repositories.ErrConflict
	}
	if _, exists := s.edges[inKey]; exists {
		return repositories.ErrConflict
	}
	s.edges[outKey] = outgoing
	s.edges[inKey] = incoming
	return nil
}

func (s *inMemoryEdgeStore) AcceptPair(_ context.Context, accepterID, requesterID string) error {
	accepterEdge, ok := s.edges[edgeKey{accepterID, requesterID}]
	if !ok || accepterEdge.Status != models.FriendStatusRequested {
		return repositories.ErrConflict
	}
	requesterEdge, ok := s.edges[edgeKey{requesterID, accepterID}]
	if !ok || requesterEdge.Status != models.FriendStatusPending {
		return repositories.ErrConflict
	}

	accepterEdge.Status = models.FriendStatusFriends
	requesterEdge.Status = models.FriendStatusFriends
	s.edges[edgeKey{accepterID, requesterID}] = accepterEdge
	s.edges[edgeKey{requesterID, accepterID}] = requesterEdge
	return nil
}

func (s *inMemoryEdgeStore) DeletePair(_ context.Context, userA, userB string) error {
	deleted := 0
	for _, key := range []edgeKey{{userA, userB}, {userB, userA}} {
		edge, ok := s.edges[key]
		if !ok {
			continue
		}
		if edge.Status != models.FriendStatusPending && edge.Status != models.FriendStatusRequested {
			continue
		}
		delete(s.edges, key)
		deleted++
	}
	switch deleted {
	case 2:
		return nil
	case 0:
		return repositories.ErrNotFound
	default:
		return repositories.ErrConflict
	}
}

func (s *inMemoryEdgeStore) ListForOwner(_ context.Context, ownerID string, status models.FriendStatus) ([]models.FriendEdge, error) {
	var out []models.FriendEdge
	for key, edge := range s.edges {
		if key.owner == ownerID && edge.Status == status {
			out = append(out, edge)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OtherID < out[j].OtherID })
	return out, nil
}

type inMemoryDirectory struct {
	users map[string]models.User
}

func newInMemoryDirectory(users ...models.User) *inMemoryDirectory {
	dir := &inMemoryDirectory{users: make(map[string]models.User)}
	for _, user := range users {
		dir.users[user.ID] = user
	}
	return dir
}

func (d *inMemoryDirectory) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (d *inMemoryDirectory) SearchByUsernamePrefix(_ context.Context, prefix string, limit int) ([]models.User, error) {
	var out []models.User
	for _, user := range d.users {
		if strings.HasPrefix(user.Username, prefix) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingNotifier struct {
	delivered []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.delivered = append(n.delivered, notification)
	return nil
}

func newTestService() (*Service, *inMemoryEdgeStore, *recordingNotifier) {
	alice := models.User{ID: "alice", Username: "alice_a"}
	bob := models.User{ID: "bob", Username: "bob_b"}
	jordan := models.User{ID: "jordan", Username: "jordan_j"}
	joanna := models.User{ID: "joanna", Username: "joanna_j"}

	edges := newInMemoryEdgeStore()
	notifier := &recordingNotifier{}
	svc := NewService(edges, newInMemoryDirectory(alice, bob, jordan, joanna), notifier)
	svc.nowFunc = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc, edges, notifier
}

func TestSendRequestCreatesPendingRequestedPair(t *testing.T) {
	svc, edges, notifier := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}

	outgoing, err := edges.Get(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("load outgoing edge: %v", err)
	}
	if outgoing.Status != models.FriendStatusPending {
		t.Fatalf("expected sender edge pending, got %s", outgoing.Status)
	}

	incoming, err := edges.Get(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("load incoming edge: %v", err)
	}
	if incoming.Status != models.FriendStatusRequested {
		t.Fatalf("expected recipient edge requested, got %s", incoming.Status)
	}

	if len(notifier.delivered) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.delivered))
	}
	if notifier.delivered[0].UserID != "bob" || notifier.delivered[0].Kind != models.NotificationFriendRequest {
		t.Fatalf("unexpected notification: %+v", notifier.delivered[0])
	}
	if !strings.Contains(notifier.delivered[0].Message, "alice_a") {
		t.Fatalf("expected sender username in message, got %q", notifier.delivered[0].Message)
	}
}

func TestSendThenAcceptMakesBothFriends(t *testing.T) {
	svc, edges, notifier := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		edge, err := edges.Get(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("load edge %v: %v", pair, err)
		}
		if edge.Status != models.FriendStatusFriends {
			t.Fatalf("expected %v friends, got %s", pair, edge.Status)
		}
	}

	if len(notifier.delivered) != 2 {
		t.Fatalf("expected request + accept notifications, got %d", len(notifier.delivered))
	}
	if notifier.delivered[1].UserID != "alice" || notifier.delivered[1].Kind != models.NotificationFriendAccept {
		t.Fatalf("unexpected accept notification: %+v", notifier.delivered[1])
	}
}

func TestSendThenRejectRemovesBothEdges(t *testing.T) {
	svc, edges, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.RejectRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("reject request: %v", err)
	}

	if _, err := edges.Get(ctx, "alice", "bob"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected sender edge gone, got %v", err)
	}
	if _, err := edges.Get(ctx, "bob", "alice"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected recipient edge gone, got %v", err)
	}
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.SendRequest(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
}

func TestSendRequestDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
}

func TestSendRequestToExistingFriend(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if err := svc.SendRequest(ctx, "alice", "bob"); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
}

func TestSendRequestToUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.SendRequest(context.Background(), "alice", "ghost"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCrossingRequestsBecomeAccept(t *testing.T) {
	svc, edges, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Bob sends back instead of accepting; this resolves the pair.
	if err := svc.SendRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("reverse request: %v", err)
	}

	edge, err := edges.Get(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("load edge: %v", err)
	}
	if edge.Status != models.FriendStatusFriends {
		t.Fatalf("expected friends after crossing requests, got %s", edge.Status)
	}
}

func TestAcceptWithoutIncomingRequest(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.AcceptRequest(ctx, "bob", "alice"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition with no edge, got %v", err)
	}

	// The sender holds the pending side and cannot accept their own request.
	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.AcceptRequest(ctx, "alice", "bob"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for sender accept, got %v", err)
	}
}

func TestRejectFriendsIsInvalid(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := svc.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if err := svc.RejectRequest(ctx, "bob", "alice"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition rejecting friends, got %v", err)
	}
}

func TestSearchAnnotatesStatusesAndExcludesActor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "jordan", "joanna"); err != nil {
		t.Fatalf("send request: %v", err)
	}

	results, err := svc.Search(ctx, "jordan", "jo", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected only joanna (actor excluded), got %d results", len(results))
	}
	if results[0].User.ID != "joanna" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if results[0].Status != models.FriendStatusPending {
		t.Fatalf("expected pending annotation, got %s", results[0].Status)
	}

	results, err = svc.Search(ctx, "joanna", "jo", 10)
	if err != nil {
		t.Fatalf("search as recipient: %v", err)
	}
	if len(results) != 1 || results[0].Status != models.FriendStatusRequested {
		t.Fatalf("expected requested annotation for recipient, got %+v", results)
	}
}

func TestListFriendsAndIncoming(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("request to bob: %v", err)
	}
	if err := svc.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.SendRequest(ctx, "jordan", "alice"); err != nil {
		t.Fatalf("request from jordan: %v", err)
	}

	friendsList, err := svc.ListFriends(ctx, "alice")
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friendsList) != 1 || friendsList[0].User.ID != "bob" {
		t.Fatalf("unexpected friends list: %+v", friendsList)
	}

	incoming, err := svc.ListIncoming(ctx, "alice")
	if err != nil {
		t.Fatalf("list incoming: %v", err)
	}
	if len(incoming) != 1 || incoming[0].User.ID != "jordan" {
		t.Fatalf("unexpected incoming list: %+v", incoming)
	}
}
