package updates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Subscription.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StatePolling
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StatePolling:
		return "polling"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscription is one live order-update feed.
type Subscription struct {
	ch       *Channel
	ctx      context.Context
	cancel   context.CancelFunc
	onUpdate func(Update)
	onError  func(error)
	done     chan struct{}

	closeOnce sync.Once

	mu    sync.Mutex
	state State
	conn  *websocket.Conn
}

// State reports the current state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the subscription has reached StateClosed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close tears the subscription down: an open socket is closed with a normal
// closure frame (so no fallback happens) and polling stops. It blocks until
// no further callbacks can fire. Safe to call repeatedly and after the
// subscription closed on its own.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeSocket()
	})
	<-s.done
}

func (s *Subscription) run() {
	defer close(s.done)

	state := StateConnecting
	var conn *websocket.Conn
	for state != StateClosed {
		s.enter(state)
		switch state {
		case StateConnecting:
			state, conn = s.connect()
		case StateStreaming:
			state = s.stream(conn)
			conn = nil
		case StatePolling:
			state = s.poll()
		}
	}
	s.closeSocket()
	s.enter(StateClosed)
}

func (s *Subscription) enter(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.ch.metrics.ObserveTransition(state.String())
	s.ch.logger.Debug("update channel state", zap.Stringer("state", state))
	if s.ch.onState != nil {
		s.ch.onState(state)
	}
}

// connect resolves the backend and dials the socket within the connect
// timeout. Any failure moves to polling.
func (s *Subscription) connect() (State, *websocket.Conn) {
	if s.ctx.Err() != nil {
		return StateClosed, nil
	}

	// Resolving has its own per-candidate timeout; the connect timeout
	// bounds the handshake only.
	base, err := s.ch.resolver.Resolve(s.ctx)
	if err != nil {
		return s.fallback("resolve backend", err), nil
	}
	wsURL, err := SocketURL(base, s.ch.path)
	if err != nil {
		return s.fallback("build socket url", err), nil
	}

	connectCtx, cancel := context.WithTimeout(s.ctx, s.ch.connectTimeout)
	defer cancel()
	conn, resp, err := s.ch.dialer.DialContext(connectCtx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return s.fallback("dial "+wsURL, err), nil
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return StateClosed, nil
	}
	s.conn = conn
	s.mu.Unlock()

	s.ch.logger.Info("order updates streaming", zap.String("url", wsURL))
	return StateStreaming, conn
}

func (s *Subscription) fallback(step string, err error) State {
	if s.ctx.Err() != nil {
		return StateClosed
	}
	s.ch.logger.Info("socket unavailable, polling instead",
		zap.String("step", step),
		zap.Error(err))
	return StatePolling
}

type readResult struct {
	data []byte
	err  error
}

// stream forwards socket messages until the socket ends. An abnormal end
// falls back to polling; a normal closure or teardown closes.
func (s *Subscription) stream(conn *websocket.Conn) State {
	reads := make(chan readResult)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			select {
			case reads <- readResult{data: data, err: err}:
			case <-s.ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.closeSocket()
			return StateClosed
		case r := <-reads:
			if r.err == nil {
				s.handleMessage(r.data)
				continue
			}
			s.dropSocket(conn)
			if s.ctx.Err() != nil {
				return StateClosed
			}
			if websocket.IsCloseError(r.err, websocket.CloseNormalClosure) {
				s.ch.logger.Info("order updates socket closed by server")
				return StateClosed
			}
			s.ch.logger.Warn("order updates socket dropped, polling instead", zap.Error(r.err))
			return StatePolling
		}
	}
}

func (s *Subscription) handleMessage(data []byte) {
	u, err := parseUpdate(data, s.ch.now())
	if err != nil {
		s.ch.logger.Debug("dropping socket message",
			zap.ByteString("message", truncate(data, 256)),
			zap.Error(err))
		return
	}
	s.deliver(u)
}

// poll fetches immediately and then on every tick until teardown.
func (s *Subscription) poll() State {
	ticker := time.NewTicker(s.ch.pollInterval)
	defer ticker.Stop()

	for {
		s.pollOnce()
		select {
		case <-s.ctx.Done():
			return StateClosed
		case <-ticker.C:
		}
	}
}

func (s *Subscription) pollOnce() {
	env := s.ch.fetcher.PendingOrderCount(s.ctx)
	if s.ctx.Err() != nil {
		return
	}
	if !env.Success {
		s.reportError(fmt.Errorf("%w: %v", ErrPollFailure, env.Err()))
		return
	}
	count, err := env.PendingCount()
	if err != nil {
		s.reportError(fmt.Errorf("%w: %v", ErrPollFailure, err))
		return
	}
	raw, _ := env.MarshalJSON()
	s.deliver(Update{
		Type:      TypeOrderCount,
		Count:     count,
		Timestamp: s.ch.now(),
		Transport: TransportPoll,
		Raw:       raw,
	})
}

func (s *Subscription) deliver(u Update) {
	if s.ctx.Err() != nil {
		return
	}
	s.ch.metrics.ObserveUpdate(string(u.Transport))
	s.onUpdate(u)
}

func (s *Subscription) reportError(err error) {
	s.ch.metrics.ObservePollFailure()
	s.ch.logger.Warn("order count poll failed", zap.Error(err))
	s.onError(err)
}

// closeSocket sends a normal closure frame and closes the current socket.
func (s *Subscription) closeSocket() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	_ = conn.Close()
}

// dropSocket releases a socket that already failed.
func (s *Subscription) dropSocket(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
