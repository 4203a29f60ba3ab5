package realtime

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Frame is one inbound message from a subscription. Err is set when the
// broker connection failed underneath the subscription.
type Frame struct {
	Body []byte
	Err  error
}

// Subscription is an active broker subscription.
type Subscription interface {
	// C delivers inbound frames in broker order. The channel closes when
	// the subscription ends or the connection dies.
	C() <-chan Frame
	// Unsubscribe releases the broker subscription.
	Unsubscribe() error
}

// Session is one established connection to the realtime broker.
type Session interface {
	Subscribe(destination string) (Subscription, error)
	// Done is closed when the connection is lost or closed.
	Done() <-chan struct{}
	Close() error
}

// DialFunc establishes a Session using the given credential. Injected into
// the Manager so tests can substitute a fake broker.
type DialFunc func(ctx context.Context, token string) (Session, error)

// StompDialer returns a DialFunc that speaks STOMP over the backend's
// SockJS websocket endpoint. baseURL is the REST root; the realtime
// endpoint is derived from it, using the SockJS session URL scheme
// (ws://host/ws/<server-id>/<session-id>/websocket). Each dial gets a
// fresh session id.
func StompDialer(baseURL string) DialFunc {
	return func(ctx context.Context, token string) (Session, error) {
		wsURL := websocketURL(baseURL)
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		ws, _, err := dialer.DialContext(ctx, wsURL, http.Header{})
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
		}

		conn, err := stomp.Connect(newWSConn(ws),
			stomp.ConnOpt.Header("Authorization", "Bearer "+token),
			stomp.ConnOpt.HeartBeat(4*time.Second, 4*time.Second),
		)
		if err != nil {
			ws.Close()
			return nil, fmt.Errorf("stomp connect: %w", err)
		}

		return &stompSession{conn: conn, ws: ws, done: make(chan struct{})}, nil
	}
}

func websocketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	serverID := fmt.Sprintf("%03d", rand.Intn(1000))
	return fmt.Sprintf("%s/ws/%s/%s/websocket", u, serverID, uuid.NewString())
}

type stompSession struct {
	conn     *stomp.Conn
	ws       *websocket.Conn
	done     chan struct{}
	doneOnce sync.Once
}

func (s *stompSession) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *stompSession) Subscribe(destination string) (Subscription, error) {
	sub, err := s.conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", destination, err)
	}

	out := make(chan Frame, 16)
	wrapped := &stompSubscription{sub: sub, frames: out}
	go func() {
		defer close(out)
		for msg := range sub.C {
			if msg.Err != nil {
				out <- Frame{Err: msg.Err}
				s.markDone()
				return
			}
			out <- Frame{Body: msg.Body}
		}
		// sub.C closed without an error frame: an explicit unsubscribe
		// ends only this subscription, anything else means the
		// connection is gone.
		if !wrapped.unsubscribed.Load() {
			s.markDone()
		}
	}()

	return wrapped, nil
}

func (s *stompSession) Done() <-chan struct{} {
	return s.done
}

func (s *stompSession) Close() error {
	s.markDone()
	err := s.conn.Disconnect()
	if wsErr := s.ws.Close(); err == nil {
		err = wsErr
	}
	return err
}

type stompSubscription struct {
	sub          *stomp.Subscription
	frames       chan Frame
	unsubscribed atomic.Bool
}

func (s *stompSubscription) C() <-chan Frame {
	return s.frames
}

func (s *stompSubscription) Unsubscribe() error {
	s.unsubscribed.Store(true)
	return s.sub.Unsubscribe()
}
