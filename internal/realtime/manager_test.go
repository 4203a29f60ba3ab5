package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	frames       chan Frame
	unsubscribed bool
	mu           sync.Mutex
}

func (s *fakeSubscription) C() <-chan Frame { return s.frames }

func (s *fakeSubscription) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = true
	return nil
}

func (s *fakeSubscription) isUnsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

type fakeSession struct {
	mu       sync.Mutex
	subs     map[string]*fakeSubscription
	subCalls map[string]int
	closed   bool

	done     chan struct{}
	doneOnce sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		subs:     make(map[string]*fakeSubscription),
		subCalls: make(map[string]int),
		done:     make(chan struct{}),
	}
}

func (s *fakeSession) Subscribe(destination string) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subCalls[destination]++
	sub := &fakeSubscription{frames: make(chan Frame, 16)}
	s.subs[destination] = sub
	return sub, nil
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }

// lose simulates the broker dropping the connection.
func (s *fakeSession) lose() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.lose()
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) subscribeCalls(destination string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subCalls[destination]
}

func (s *fakeSession) subscription(destination string) *fakeSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[destination]
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int
	tokens   []string
	sessions []*fakeSession
}

func (d *fakeDialer) dial(ctx context.Context, token string) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens = append(d.tokens, token)
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("broker unreachable")
	}
	sess := newFakeSession()
	d.sessions = append(d.sessions, sess)
	return sess, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tokens)
}

func (d *fakeDialer) dialedTokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...)
}

func (d *fakeDialer) session(i int) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.sessions) {
		return nil
	}
	return d.sessions[i]
}

func newTestManager(t *testing.T, dialer *fakeDialer) *Manager {
	t.Helper()
	m := NewManager(dialer.dial, zerolog.Nop())
	m.delay = 10 * time.Millisecond
	t.Cleanup(m.Close)
	return m
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return m.State() == want },
		2*time.Second, 5*time.Millisecond, "state never reached %s", want)
}

func TestInactiveManagerNeverDials(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	assert.Equal(t, Disconnected, m.State())

	// Subscribing without a credential only records intent.
	m.Subscribe(NotificationQueue, func([]byte) {})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, d.dialCount())
	assert.Equal(t, Disconnected, m.State())
}

func TestActivationDialsOnce(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("T1")
	waitForState(t, m, Connected)
	require.Equal(t, 1, d.dialCount())
	assert.Equal(t, []string{"T1"}, d.dialedTokens())

	// Re-entrant activation with the same credential is a no-op.
	m.SetToken("T1")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, d.dialCount())
	assert.Equal(t, Connected, m.State())
}

func TestDeactivationClosesAndForgets(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("T1")
	waitForState(t, m, Connected)
	m.Subscribe(NotificationQueue, func([]byte) {})

	m.SetToken("")
	waitForState(t, m, Disconnected)
	require.Eventually(t, func() bool { return d.session(0).isClosed() },
		time.Second, 5*time.Millisecond)

	// The subscription set did not survive deactivation: a fresh
	// credential connects with nothing to re-establish.
	m.SetToken("T2")
	waitForState(t, m, Connected)
	assert.Equal(t, 0, d.session(1).subscribeCalls(NotificationQueue))
}

func TestCredentialRotation(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("old")
	waitForState(t, m, Connected)

	m.SetToken("new")
	require.Eventually(t, func() bool { return d.dialCount() == 2 },
		2*time.Second, 5*time.Millisecond)
	waitForState(t, m, Connected)

	assert.True(t, d.session(0).isClosed())
	assert.Equal(t, []string{"old", "new"}, d.dialedTokens())

	// The superseded loop's final transition must not override the
	// replacement's Connected state.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, Connected, m.State())
}

func TestLateTeardownLeavesReplacementAlone(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("old")
	cancel := m.Subscribe(NotificationQueue, func([]byte) {})
	waitForState(t, m, Connected)

	m.SetToken("new")
	require.Eventually(t, func() bool {
		s := d.session(1)
		return s != nil && s.subscribeCalls(NotificationQueue) == 1
	}, 2*time.Second, 5*time.Millisecond)
	waitForState(t, m, Connected)

	// A teardown of the superseded session arriving after the
	// replacement connected must not detach its registrations.
	m.teardown(d.session(0))

	sub := d.session(1).subscription(NotificationQueue)
	require.NotNil(t, sub)
	cancel()
	assert.True(t, sub.isUnsubscribed())
	assert.Equal(t, Connected, m.State())
}

func TestReconnectAfterLoss(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("T1")
	m.Subscribe(NotificationQueue, func([]byte) {})
	waitForState(t, m, Connected)
	require.Equal(t, 1, d.session(0).subscribeCalls(NotificationQueue))

	d.session(0).lose()
	require.Eventually(t, func() bool { return d.dialCount() == 2 },
		2*time.Second, 5*time.Millisecond)
	waitForState(t, m, Connected)

	// Same credential, and the wanted subscription came back on its own.
	assert.Equal(t, []string{"T1", "T1"}, d.dialedTokens())
	assert.Equal(t, 1, d.session(1).subscribeCalls(NotificationQueue))
}

func TestRetriesAfterDialFailure(t *testing.T) {
	d := &fakeDialer{failures: 2}
	m := newTestManager(t, d)

	m.SetToken("T1")
	waitForState(t, m, Connected)
	assert.Equal(t, 3, d.dialCount())
}

func TestSubscribeIdempotent(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	m.SetToken("T1")
	waitForState(t, m, Connected)

	cancel1 := m.Subscribe(NotificationQueue, func([]byte) {})
	cancel2 := m.Subscribe(NotificationQueue, func([]byte) {})
	assert.Equal(t, 1, d.session(0).subscribeCalls(NotificationQueue))

	sub := d.session(0).subscription(NotificationQueue)
	require.NotNil(t, sub)

	cancel1()
	assert.True(t, sub.isUnsubscribed())

	// Releasing an already-released registration does nothing.
	cancel2()
	assert.Equal(t, 1, d.session(0).subscribeCalls(NotificationQueue))
}

func TestHandlerReceivesFrames(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	var mu sync.Mutex
	var got []string
	m.SetToken("T1")
	m.Subscribe(ConversationTopic(7), func(body []byte) {
		mu.Lock()
		got = append(got, string(body))
		mu.Unlock()
	})
	waitForState(t, m, Connected)

	sub := d.session(0).subscription(ConversationTopic(7))
	require.NotNil(t, sub)
	sub.frames <- Frame{Body: []byte(`{"id":1}`)}
	sub.frames <- Frame{Body: []byte(`{"id":2}`)}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{`{"id":1}`, `{"id":2}`}, got)
	mu.Unlock()
}

func TestStateTransitions(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d)

	var mu sync.Mutex
	var states []State
	m.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	m.SetToken("T1")
	waitForState(t, m, Connected)
	m.SetToken("")
	waitForState(t, m, Disconnected)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 3
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []State{Connecting, Connected, Disconnected}, states)
	mu.Unlock()
}

func TestJSONHandlerDropsMalformedPayloads(t *testing.T) {
	type payload struct {
		ID int64 `json:"id"`
	}
	var got []int64
	h := JSONHandler(zerolog.Nop(), NotificationQueue, func(p payload) {
		got = append(got, p.ID)
	})

	h([]byte(`{"id":41}`))
	h([]byte(`not json at all`))
	h([]byte(`{"id":42}`))

	assert.Equal(t, []int64{41, 42}, got)
}

func TestWebsocketURL(t *testing.T) {
	got := websocketURL("https://bookstore.example.com/")
	assert.True(t, strings.HasPrefix(got, "wss://bookstore.example.com/ws/"), got)
	assert.True(t, strings.HasSuffix(got, "/websocket"), got)

	got = websocketURL("http://localhost:8080")
	assert.True(t, strings.HasPrefix(got, "ws://localhost:8080/ws/"), got)

	// Each dial gets its own SockJS session id.
	assert.NotEqual(t, websocketURL("http://h"), websocketURL("http://h"))
}

func TestConversationTopic(t *testing.T) {
	assert.Equal(t, "/topic/conversacion/12", ConversationTopic(12))
}
