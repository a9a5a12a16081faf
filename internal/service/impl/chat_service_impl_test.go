package impl

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"farmlink/internal/domain"
	"farmlink/internal/observability/metrics"
	"farmlink/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	metrics.MustRegister("farmlink")
	os.Exit(m.Run())
}

type memoryChatStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	convs  map[uuid.UUID]*domain.Conversation
	byPair map[string]uuid.UUID
	msgs   map[uuid.UUID][]domain.Message

	// When set, the next GetByPair misses even if the row exists, so the
	// caller walks the lookup-then-insert race path.
	missPairOnce bool
}

func newMemoryChatStore() *memoryChatStore {
	return &memoryChatStore{
		users:  make(map[uuid.UUID]*domain.User),
		convs:  make(map[uuid.UUID]*domain.Conversation),
		byPair: make(map[string]uuid.UUID),
		msgs:   make(map[uuid.UUID][]domain.Message),
	}
}

func (m *memoryChatStore) addUser(name string) uuid.UUID {
	id := uuid.New()
	m.users[id] = &domain.User{ID: id, Username: name}
	return id
}

func (m *memoryChatStore) WithTx(ctx context.Context, fn func(tx chatTx) error) error {
	return fn(memoryChatTx{store: m})
}

func (m *memoryChatStore) Users() chatUserStore             { return memoryChatUsers{store: m} }
func (m *memoryChatStore) Conversations() conversationStore { return memoryConvStore{store: m} }
func (m *memoryChatStore) Messages() messageStore           { return memoryMsgStore{store: m} }

type memoryChatTx struct{ store *memoryChatStore }

func (t memoryChatTx) Conversations() conversationStore { return memoryConvStore{store: t.store} }
func (t memoryChatTx) Messages() messageStore           { return memoryMsgStore{store: t.store} }

type memoryChatUsers struct{ store *memoryChatStore }

func (u memoryChatUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	usr, ok := u.store.users[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *usr
	return &copy, nil
}

type memoryConvStore struct{ store *memoryChatStore }

func (c memoryConvStore) Create(ctx context.Context, conv *domain.Conversation) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.UserA, conv.UserB = domain.SortPair(conv.UserA, conv.UserB)
	conv.PairKey = domain.PairKey(conv.UserA, conv.UserB)
	if _, exists := c.store.byPair[conv.PairKey]; exists {
		return gorm.ErrDuplicatedKey
	}
	copy := *conv
	c.store.convs[conv.ID] = &copy
	c.store.byPair[conv.PairKey] = conv.ID
	return nil
}

func (c memoryConvStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	conv, ok := c.store.convs[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *conv
	return &copy, nil
}

func (c memoryConvStore) GetByPair(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.missPairOnce {
		c.store.missPairOnce = false
		return nil, store.ErrRecordNotFound
	}
	id, ok := c.store.byPair[domain.PairKey(a, b)]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *c.store.convs[id]
	return &copy, nil
}

func (c memoryConvStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range c.store.convs {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity().After(out[j].LastActivity())
	})
	return out, nil
}

func (c memoryConvStore) SetPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	conv, ok := c.store.convs[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	conv.LastMessage = preview
	conv.LastMessageAt = &at
	conv.UpdatedAt = at
	return nil
}

type memoryMsgStore struct{ store *memoryChatStore }

func (s memoryMsgStore) Create(ctx context.Context, msg *domain.Message) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	s.store.msgs[msg.ConversationID] = append(s.store.msgs[msg.ConversationID], *msg)
	return nil
}

func (s memoryMsgStore) ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := append([]domain.Message(nil), s.store.msgs[convID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func newChatService(st *memoryChatStore) *ChatServiceImpl {
	return &ChatServiceImpl{Store: st, now: time.Now}
}

func TestGetOrCreateIsOrderInsensitive(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	svc := newChatService(st)

	first, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("first get-or-create: %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), bob, alice)
	if err != nil {
		t.Fatalf("second get-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same conversation for (A,B) and (B,A), got %s and %s", first.ID, second.ID)
	}
	if len(st.convs) != 1 {
		t.Fatalf("expected exactly one stored conversation, got %d", len(st.convs))
	}
}

func TestGetOrCreateRejectsSelfPair(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	svc := newChatService(st)

	if _, err := svc.GetOrCreate(context.Background(), alice, alice); !errors.Is(err, domain.ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
	if _, err := svc.GetOrCreate(context.Background(), alice, uuid.Nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for nil other id, got %v", err)
	}
}

func TestGetOrCreateRejectsUnknownUser(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	svc := newChatService(st)

	if _, err := svc.GetOrCreate(context.Background(), alice, uuid.New()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetOrCreateLosingRaceReturnsWinner(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	svc := newChatService(st)

	winner, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("setup get-or-create: %v", err)
	}

	// Force the next lookup to miss so the create races the existing row.
	st.missPairOnce = true
	loser, err := svc.GetOrCreate(context.Background(), bob, alice)
	if err != nil {
		t.Fatalf("racing get-or-create: %v", err)
	}
	if loser.ID != winner.ID {
		t.Fatalf("race produced a second conversation: %s vs %s", loser.ID, winner.ID)
	}
	if len(st.convs) != 1 {
		t.Fatalf("expected exactly one stored conversation, got %d", len(st.convs))
	}
}

func TestSendAndHistoryScenario(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	svc := newChatService(st)

	conv, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}
	convID := uuid.MustParse(conv.ID)

	msg, err := svc.Send(context.Background(), alice, convID, "Hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "Hi" || msg.SenderID != alice.String() {
		t.Fatalf("unexpected message %+v", msg)
	}

	msgs, err := svc.ListMessages(context.Background(), bob, convID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(msgs))
	}
	if msgs[0].Content != "Hi" || msgs[0].SenderID != alice.String() {
		t.Fatalf("unexpected history entry %+v", msgs[0])
	}

	for _, uid := range []uuid.UUID{alice, bob} {
		convs, err := svc.ListConversations(context.Background(), uid)
		if err != nil {
			t.Fatalf("list conversations for %s: %v", uid, err)
		}
		if len(convs) != 1 || convs[0].LastMessage != "Hi" {
			t.Fatalf("expected preview %q for %s, got %+v", "Hi", uid, convs)
		}
	}
}

func TestSendEmptyContentDoesNotMutate(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	svc := newChatService(st)

	conv, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}
	convID := uuid.MustParse(conv.ID)

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Send(context.Background(), alice, convID, content); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("content %q: expected ErrEmptyContent, got %v", content, err)
		}
	}
	if len(st.msgs[convID]) != 0 {
		t.Fatalf("store mutated by rejected sends: %d messages", len(st.msgs[convID]))
	}
	if got := st.convs[convID].LastMessage; got != "" {
		t.Fatalf("preview mutated by rejected send: %q", got)
	}
}

func TestSendUnknownConversation(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	svc := newChatService(st)

	if _, err := svc.Send(context.Background(), alice, uuid.New(), "hello"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestSendByNonParticipantRejected(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	mallory := st.addUser("mallory")
	svc := newChatService(st)

	conv, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("get-or-create: %v", err)
	}
	convID := uuid.MustParse(conv.ID)

	if _, err := svc.Send(context.Background(), mallory, convID, "intruding"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.ListMessages(context.Background(), mallory, convID); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant on read, got %v", err)
	}
}

func TestListMessagesUnknownConversationIsEmpty(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	svc := newChatService(st)

	msgs, err := svc.ListMessages(context.Background(), alice, uuid.New())
	if err != nil {
		t.Fatalf("expected empty list, got error %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	st := newMemoryChatStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	carol := st.addUser("carol")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc := &ChatServiceImpl{Store: st, now: func() time.Time { return clock }}

	withBob, err := svc.GetOrCreate(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("get-or-create bob: %v", err)
	}
	clock = clock.Add(time.Minute)
	withCarol, err := svc.GetOrCreate(context.Background(), alice, carol)
	if err != nil {
		t.Fatalf("get-or-create carol: %v", err)
	}

	// Newer conversation first while neither has messages.
	convs, err := svc.ListConversations(context.Background(), alice)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(convs) != 2 || convs[0].ID != withCarol.ID {
		t.Fatalf("expected carol conversation first, got %+v", convs)
	}

	// A message in the older conversation moves it to the top.
	clock = clock.Add(time.Minute)
	if _, err := svc.Send(context.Background(), alice, uuid.MustParse(withBob.ID), "ping"); err != nil {
		t.Fatalf("send: %v", err)
	}
	convs, err = svc.ListConversations(context.Background(), alice)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if convs[0].ID != withBob.ID {
		t.Fatalf("expected bob conversation first after send, got %+v", convs)
	}
}
