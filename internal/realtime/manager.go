package realtime

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State of the channel manager's single connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// NotificationQueue is the per-user destination for notification pushes.
const NotificationQueue = "/user/queue/notifications"

// ConversationTopic returns the destination for a chat room's pushes.
func ConversationTopic(conversationID int64) string {
	return "/topic/conversacion/" + strconv.FormatInt(conversationID, 10)
}

// reconnectDelay is the fixed interval between reconnection attempts.
// There is no backoff growth and no retry ceiling: the manager retries
// until the credential is cleared.
const reconnectDelay = 5 * time.Second

// Handler receives the raw body of an inbound frame for one destination.
type Handler func(body []byte)

// registration is a wanted subscription; it survives reconnects.
type registration struct {
	destination string
	handler     Handler
	active      Subscription
	cancelled   bool
}

// Manager owns the single realtime connection of an authenticated session.
// Its lifecycle follows the session credential: SetToken with a non-empty
// token activates the connection, SetToken("") deactivates it. On an
// unexpected disconnect it retries with the same credential at a fixed
// interval until deactivated. Exactly one connection exists per credential
// lifetime; re-entrant activation is a no-op.
//
// Handlers parse frame bodies themselves; a parse failure must be logged
// and the frame dropped, never propagated (see DecodeJSON).
type Manager struct {
	dial   DialFunc
	logger zerolog.Logger

	mu      sync.Mutex
	token   string
	active  bool
	cancel  context.CancelFunc
	state   State
	sess    Session
	wanted  map[string]*registration
	onState func(State)

	// gen identifies the current run loop. A superseded loop winding down
	// after a credential rotation must not touch state or registrations
	// the replacement loop owns.
	gen uint64

	delay time.Duration
}

// NewManager creates an inactive manager using the given dialer.
func NewManager(dial DialFunc, logger zerolog.Logger) *Manager {
	return &Manager{
		dial:   dial,
		logger: logger,
		wanted: make(map[string]*registration),
		delay:  reconnectDelay,
	}
}

// OnStateChange registers a callback invoked after every state transition.
// It runs on the manager's connection goroutine; keep it cheap.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetToken is the credential-change event. An empty token deactivates the
// connection and drops the subscription set; a new token activates one
// connection; an unchanged token while active is a no-op.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()

	if token == m.token && m.active == (token != "") {
		m.mu.Unlock()
		return
	}

	// Stop the current connection on credential loss or rotation.
	if m.active {
		m.cancel()
		m.active = false
	}
	m.token = token

	if token == "" {
		m.wanted = make(map[string]*registration)
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.active = true
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	go m.run(ctx, token, gen)
}

// Close deactivates the connection; safe to call on every exit path.
func (m *Manager) Close() {
	m.SetToken("")
}

// Subscribe registers a destination handler. Subscribing twice to the same
// destination is idempotent: the second call returns the existing
// registration's cancel function without touching the broker. The
// registration survives reconnects; cancel releases it.
func (m *Manager) Subscribe(destination string, handler Handler) (cancel func()) {
	m.mu.Lock()

	reg, exists := m.wanted[destination]
	if !exists {
		reg = &registration{destination: destination, handler: handler}
		m.wanted[destination] = reg
		if m.sess != nil {
			m.establish(m.sess, reg)
		}
	}
	m.mu.Unlock()

	return func() { m.unsubscribe(reg) }
}

func (m *Manager) unsubscribe(reg *registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reg.cancelled {
		return
	}
	reg.cancelled = true
	delete(m.wanted, reg.destination)
	if reg.active != nil {
		if err := reg.active.Unsubscribe(); err != nil {
			m.logger.Debug().Str("destination", reg.destination).Err(err).
				Msg("unsubscribe failed")
		}
		reg.active = nil
	}
}

// establish creates the broker subscription for reg and starts its pump.
// Caller holds m.mu.
func (m *Manager) establish(sess Session, reg *registration) {
	sub, err := sess.Subscribe(reg.destination)
	if err != nil {
		m.logger.Error().Str("destination", reg.destination).Err(err).
			Msg("subscription failed")
		return
	}
	reg.active = sub

	handler := reg.handler
	dest := reg.destination
	go func() {
		for frame := range sub.C() {
			if frame.Err != nil {
				m.logger.Warn().Str("destination", dest).Err(frame.Err).
					Msg("subscription error")
				return
			}
			handler(frame.Body)
		}
	}()
}

// run is the connection loop: dial, resubscribe, wait for loss, retry.
// It exits only when ctx is cancelled (credential loss or rotation).
func (m *Manager) run(ctx context.Context, token string, gen uint64) {
	defer m.setState(gen, Disconnected)

	for {
		m.setState(gen, Connecting)

		sess, err := m.dial(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn().Err(err).Dur("retry_in", m.delay).
				Msg("realtime connect failed")
			m.setState(gen, Disconnected)
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.delay):
				continue
			}
		}

		m.mu.Lock()
		m.sess = sess
		for _, reg := range m.wanted {
			m.establish(sess, reg)
		}
		m.mu.Unlock()
		m.setState(gen, Connected)
		m.logger.Info().Msg("realtime connected")

		select {
		case <-ctx.Done():
			m.teardown(sess)
			return
		case <-sess.Done():
			m.teardown(sess)
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn().Dur("retry_in", m.delay).Msg("realtime connection lost")
			m.setState(gen, Disconnected)
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.delay):
			}
		}
	}
}

// teardown closes the session and detaches every active subscription so
// they get re-established on the next connect. When the session is no
// longer current, a replacement loop already owns the registrations and
// they are left alone.
func (m *Manager) teardown(sess Session) {
	m.mu.Lock()
	if m.sess == sess {
		m.sess = nil
		for _, reg := range m.wanted {
			reg.active = nil
		}
	}
	m.mu.Unlock()
	sess.Close()
}

// setState applies a transition on behalf of run loop gen; a superseded
// loop's transitions are dropped.
func (m *Manager) setState(gen uint64, s State) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	changed := m.state != s
	m.state = s
	fn := m.onState
	m.mu.Unlock()
	if changed && fn != nil {
		fn(s)
	}
}

