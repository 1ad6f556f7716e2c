package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"webchat/models"
)

// fakeDirectory serves canned friend/group data, optionally failing.
type fakeDirectory struct {
	friends map[int][]int
	groups  map[int][]int
	fail    bool
}

func (d *fakeDirectory) FriendIDs(_ context.Context, userID int) ([]int, error) {
	if d.fail {
		return nil, errors.New("directory down")
	}
	return d.friends[userID], nil
}

func (d *fakeDirectory) GroupIDs(_ context.Context, userID int) ([]int, error) {
	if d.fail {
		return nil, errors.New("directory down")
	}
	return d.groups[userID], nil
}

func (d *fakeDirectory) UsersByID(_ context.Context, ids []int) (map[int]models.PublicUser, error) {
	if d.fail {
		return nil, errors.New("directory down")
	}
	out := make(map[int]models.PublicUser)
	for _, id := range ids {
		out[id] = models.PublicUser{ID: uint(id), Username: fmt.Sprintf("user%d", id)}
	}
	return out, nil
}

// fakeStore keeps messages in memory, optionally failing every call.
type fakeStore struct {
	mu       sync.Mutex
	fail     bool
	messages []*models.Message
	nextID   int
}

func (s *fakeStore) Append(_ context.Context, m *models.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", errors.New("store down")
	}
	s.nextID++
	m.ID = fmt.Sprintf("m%d", s.nextID)
	stored := *m
	stored.ReadBy = append([]int(nil), m.ReadBy...)
	s.messages = append(s.messages, &stored)
	return m.ID, nil
}

func (s *fakeStore) Recent(_ context.Context, conversationID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store down")
	}
	var out []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeStore) MarkRead(_ context.Context, conversationID string, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		already := false
		for _, r := range m.ReadBy {
			if r == userID {
				already = true
				break
			}
		}
		if !already {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return nil
}

func newTestHub() (*Hub, *fakeDirectory, *fakeStore) {
	dir := &fakeDirectory{friends: map[int][]int{}, groups: map[int][]int{}}
	st := &fakeStore{}
	return NewHub(dir, st), dir, st
}

// connect attaches a pumpless client; tests drive it through handleEvent and
// read frames straight from the send buffer.
func connect(h *Hub) *Client {
	c := NewClient(h, nil)
	h.Attach(c)
	return c
}

func emit(t *testing.T, h *Hub, c *Client, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", event, err)
	}
	h.handleEvent(c, Event{Event: event, Data: data})
}

func goOnline(t *testing.T, h *Hub, c *Client, userID int, username string) {
	t.Helper()
	emit(t, h, c, EvUserOnline, UserOnlinePayload{UserID: userID, Username: username})
}

// drain decodes every frame currently buffered for the client.
func drain(t *testing.T, c *Client) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case frame := <-c.send:
			var ev Event
			if err := json.Unmarshal(frame, &ev); err != nil {
				t.Fatalf("decode frame %q: %v", frame, err)
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventsNamed(events []Event, name string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestFanoutDeliversOncePerJoinedConnection(t *testing.T) {
	h, _, _ := newTestHub()
	alice := connect(h)
	bob := connect(h)
	eve := connect(h)

	conv := PrivateConversationID(1, 2)
	h.Join(alice, conv)
	h.Join(bob, conv)

	emit(t, h, alice, EvSendMessage, SendMessagePayload{
		ConversationID: conv,
		Username:       "alice",
		SenderID:       1,
		Message:        "hi",
	})

	for _, tc := range []struct {
		name   string
		client *Client
		want   int
	}{
		{"sender", alice, 1},
		{"recipient", bob, 1},
		{"outsider", eve, 0},
	} {
		got := eventsNamed(drain(t, tc.client), EvReceiveMessage)
		if len(got) != tc.want {
			t.Fatalf("%s: expected %d receive_message, got %d", tc.name, tc.want, len(got))
		}
		if tc.want == 0 {
			continue
		}
		var msg models.Message
		if err := json.Unmarshal(got[0].Data, &msg); err != nil {
			t.Fatalf("%s: decode message: %v", tc.name, err)
		}
		if msg.Content != "hi" || msg.SenderID != 1 {
			t.Errorf("%s: got content=%q senderId=%d", tc.name, msg.Content, msg.SenderID)
		}
		if msg.ID == "" {
			t.Errorf("%s: message broadcast without an id", tc.name)
		}
		if msg.ConversationType != "private" {
			t.Errorf("%s: expected derived type private, got %q", tc.name, msg.ConversationType)
		}
	}
}

func TestRegisterRecordsIdentity(t *testing.T) {
	h, _, _ := newTestHub()
	c := connect(h)
	goOnline(t, h, c, 7, "carol")

	h.mu.RLock()
	userID, username := c.userID, c.username
	h.mu.RUnlock()
	if userID != 7 || username != "carol" {
		t.Errorf("identity = (%d, %q), want (7, %q)", userID, username, "carol")
	}
}

func TestFanoutPreservesSubmissionOrder(t *testing.T) {
	h, _, _ := newTestHub()
	alice := connect(h)
	bob := connect(h)

	conv := PrivateConversationID(1, 2)
	h.Join(alice, conv)
	h.Join(bob, conv)

	const n = 5
	for i := 0; i < n; i++ {
		emit(t, h, alice, EvSendMessage, SendMessagePayload{
			ConversationID: conv,
			Username:       "alice",
			SenderID:       1,
			Message:        fmt.Sprintf("msg %d", i),
		})
	}

	got := eventsNamed(drain(t, bob), EvReceiveMessage)
	if len(got) != n {
		t.Fatalf("expected %d receive_message, got %d", n, len(got))
	}
	for i, ev := range got {
		var msg models.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			t.Fatalf("decode message %d: %v", i, err)
		}
		if want := fmt.Sprintf("msg %d", i); msg.Content != want {
			t.Errorf("position %d: got %q, want %q", i, msg.Content, want)
		}
	}
}

func TestFanoutDegradesWhenStoreDown(t *testing.T) {
	h, _, st := newTestHub()
	st.fail = true

	sender := connect(h)
	receiver := connect(h)
	h.Join(sender, "group_7")
	h.Join(receiver, "group_7")

	emit(t, h, sender, EvSendMessage, SendMessagePayload{
		ConversationID: "group_7",
		Username:       "alice",
		SenderID:       1,
		Message:        "still there?",
	})

	got := eventsNamed(drain(t, receiver), EvReceiveMessage)
	if len(got) != 1 {
		t.Fatalf("expected degraded broadcast, got %d receive_message", len(got))
	}
	var msg models.Message
	if err := json.Unmarshal(got[0].Data, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ID == "" {
		t.Error("degraded message should carry a synthetic id")
	}
	if len(st.messages) != 0 {
		t.Errorf("store is down, nothing should be persisted, got %d", len(st.messages))
	}
}

func TestMessageValidation(t *testing.T) {
	h, _, st := newTestHub()
	sender := connect(h)
	receiver := connect(h)
	h.Join(sender, "group_1")
	h.Join(receiver, "group_1")

	long := make([]byte, models.MaxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	emit(t, h, sender, EvSendMessage, SendMessagePayload{
		ConversationID: "group_1", SenderID: 1, Message: string(long),
	})
	emit(t, h, sender, EvSendMessage, SendMessagePayload{
		ConversationID: "group_1", SenderID: 1, Message: "x", Type: "gif",
	})

	if got := drain(t, receiver); len(got) != 0 {
		t.Fatalf("invalid messages must be dropped, got %d events", len(got))
	}
	if len(st.messages) != 0 {
		t.Fatalf("invalid messages must not be persisted, got %d", len(st.messages))
	}
}

func TestPresenceOnlineThenOfflineOrder(t *testing.T) {
	h, _, _ := newTestHub()
	watcher := connect(h)
	target := connect(h)

	goOnline(t, h, target, 9, "nine")
	h.Disconnect(target)

	changes := eventsNamed(drain(t, watcher), EvUserStatusChange)
	if len(changes) != 2 {
		t.Fatalf("expected exactly 2 presence events, got %d", len(changes))
	}
	var first, second StatusChangePayload
	if err := json.Unmarshal(changes[0].Data, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(changes[1].Data, &second); err != nil {
		t.Fatal(err)
	}
	if first.UserID != 9 || first.Status != "online" {
		t.Errorf("first event = %+v, want user 9 online", first)
	}
	if second.UserID != 9 || second.Status != "offline" {
		t.Errorf("second event = %+v, want user 9 offline", second)
	}
	if h.IsOnline(9) {
		t.Error("user 9 should be offline after disconnect")
	}
}

func TestDisconnectWithoutIdentityIsSilent(t *testing.T) {
	h, _, _ := newTestHub()
	watcher := connect(h)
	anon := connect(h)

	h.Disconnect(anon)

	if got := eventsNamed(drain(t, watcher), EvUserStatusChange); len(got) != 0 {
		t.Fatalf("anonymous disconnect must not broadcast presence, got %d", len(got))
	}
}

func TestCheckOnlineStatus(t *testing.T) {
	h, _, _ := newTestHub()
	online := connect(h)
	goOnline(t, h, online, 6, "six")
	drain(t, online)

	asker := connect(h)
	emit(t, h, asker, EvCheckOnlineStatus, CheckOnlinePayload{UserIDs: []int{5, 6, 7}})

	replies := eventsNamed(drain(t, asker), EvOnlineStatus)
	if len(replies) != 1 {
		t.Fatalf("expected one online_status reply, got %d", len(replies))
	}
	var status OnlineStatusPayload
	if err := json.Unmarshal(replies[0].Data, &status); err != nil {
		t.Fatal(err)
	}
	if len(status.OnlineIDs) != 1 || status.OnlineIDs[0] != 6 {
		t.Errorf("expected [6], got %v", status.OnlineIDs)
	}
}

func TestAutoJoinFromDirectory(t *testing.T) {
	h, dir, _ := newTestHub()
	dir.friends[1] = []int{2, 5}
	dir.groups[1] = []int{3}

	c := connect(h)
	goOnline(t, h, c, 1, "one")

	for _, room := range []string{
		PrivateConversationID(1, 2),
		PrivateConversationID(1, 5),
		GroupConversationID(3),
		"1", // personal room
	} {
		if _, ok := c.rooms[room]; !ok {
			t.Errorf("expected auto-join to %q", room)
		}
	}
}

func TestAutoJoinSurvivesDirectoryFailure(t *testing.T) {
	h, dir, _ := newTestHub()
	dir.fail = true

	c := connect(h)
	goOnline(t, h, c, 1, "one")

	if !h.IsOnline(1) {
		t.Fatal("registration must succeed even when the directory is down")
	}
	// only the personal room
	if len(c.rooms) != 1 {
		t.Errorf("expected zero auto-joined conversations, rooms = %v", c.rooms)
	}
}

func TestJoinLeaveAreIdempotent(t *testing.T) {
	h, _, _ := newTestHub()
	c := connect(h)

	h.Join(c, "group_1")
	h.Join(c, "group_1")
	h.Leave(c, "group_1")
	h.Leave(c, "group_1")
	h.Leave(c, "never_joined")

	if len(c.rooms) != 0 {
		t.Errorf("expected no rooms, got %v", c.rooms)
	}
}

func TestTypingRelayExcludesSender(t *testing.T) {
	h, _, _ := newTestHub()
	typer := connect(h)
	peer := connect(h)
	h.Join(typer, "private_1_2")
	h.Join(peer, "private_1_2")

	emit(t, h, typer, EvTyping, TypingPayload{ConversationID: "private_1_2", Username: "alice"})
	emit(t, h, typer, EvStopTyping, TypingPayload{ConversationID: "private_1_2", Username: "alice"})

	if got := drain(t, typer); len(got) != 0 {
		t.Errorf("sender must not receive its own typing events, got %d", len(got))
	}
	peerEvents := drain(t, peer)
	if n := len(eventsNamed(peerEvents, EvUserTyping)); n != 1 {
		t.Errorf("expected 1 user_typing, got %d", n)
	}
	if n := len(eventsNamed(peerEvents, EvUserStopTyping)); n != 1 {
		t.Errorf("expected 1 user_stop_typing, got %d", n)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	h, _, st := newTestHub()
	reader := connect(h)
	other := connect(h)
	conv := PrivateConversationID(1, 2)
	h.Join(reader, conv)
	h.Join(other, conv)

	for i := 0; i < 3; i++ {
		st.messages = append(st.messages, &models.Message{
			ID: fmt.Sprintf("seed%d", i), ConversationID: conv, SenderID: 1, ReadBy: []int{1},
		})
	}

	emit(t, h, reader, EvMarkRead, MarkReadPayload{ConversationID: conv, UserID: 2})
	emit(t, h, reader, EvMarkRead, MarkReadPayload{ConversationID: conv, UserID: 2})

	for _, m := range st.messages {
		count := 0
		for _, r := range m.ReadBy {
			if r == 2 {
				count++
			}
		}
		if count != 1 {
			t.Errorf("message %s: user 2 appears %d times in readBy", m.ID, count)
		}
	}
	if got := eventsNamed(drain(t, other), EvMessagesRead); len(got) == 0 {
		t.Error("other members should be notified that the conversation was read")
	}
	if got := drain(t, reader); len(got) != 0 {
		t.Errorf("reader must not be notified of its own read, got %d events", len(got))
	}
}

func TestMalformedPayloadsAreIgnored(t *testing.T) {
	h, _, _ := newTestHub()
	c := connect(h)

	h.handleEvent(c, Event{Event: EvSendMessage, Data: json.RawMessage(`"not an object"`)})
	h.handleEvent(c, Event{Event: EvUserOnline, Data: nil})
	h.handleEvent(c, Event{Event: EvJoinConversation, Data: json.RawMessage(`{}`)})
	h.handleEvent(c, Event{Event: "bogus_event", Data: json.RawMessage(`{}`)})

	if h.IsOnline(0) {
		t.Error("user id 0 must never be registered")
	}
	if len(c.rooms) != 0 {
		t.Errorf("no rooms should have been joined, got %v", c.rooms)
	}
}
