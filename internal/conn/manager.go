// Package conn manages the widget's persistent duplex connection to the backend.
package conn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrNotConnected is returned when sending without an open connection.
	ErrNotConnected = errors.New("connection is not open")
	// ErrClosedByClient is the disconnect reason after Close.
	ErrClosedByClient = errors.New("connection closed by client")
	// ErrAlreadyOpen is returned by Open when a connection is active or being dialed.
	ErrAlreadyOpen = errors.New("connection already open")
	// ErrBufferFull is returned when the send queue cannot take another frame.
	ErrBufferFull = errors.New("send buffer full")
)

// State is the lifecycle state of a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Status is the current state plus, when disconnected, why.
// Reason is nil before the first Open.
type Status struct {
	State  State
	Reason error
}

// Connected reports whether frames can be sent.
func (s Status) Connected() bool {
	return s.State == StateConnected
}

// Options tunes the underlying WebSocket.
type Options struct {
	DialTimeout    time.Duration
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	SendBuffer     int
	Header         http.Header
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		DialTimeout:    10 * time.Second,
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 65536,
		SendBuffer:     256,
	}
}

// Handler receives connection events. OnMessage is called from a single
// goroutine in receipt order. OnClose is called once when the connection ends
// for any reason other than Close.
type Handler struct {
	OnMessage func(data []byte)
	OnClose   func(reason error)
}

// link is one physical connection. A Manager owns at most one at a time.
type link struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Manager owns a single duplex connection per expanded session.
type Manager struct {
	opts    Options
	dialer  *websocket.Dialer
	handler Handler

	mu     sync.Mutex
	state  State
	reason error
	link   *link
}

// NewManager creates a disconnected manager.
func NewManager(opts Options, h Handler) *Manager {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &Manager{
		opts:    opts,
		handler: h,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.DialTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

// Status returns the current lifecycle status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, Reason: m.reason}
}

// Open dials addr and starts the read and write pumps. The client sends
// nothing on open; the backend is expected to push a welcome message.
func (m *Manager) Open(ctx context.Context, addr string) error {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return ErrAlreadyOpen
	}
	m.state = StateConnecting
	m.reason = nil
	m.mu.Unlock()

	if m.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.DialTimeout)
		defer cancel()
	}

	ws, resp, err := m.dialer.DialContext(ctx, addr, m.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("dial %s: %w", addr, err)
		m.mu.Lock()
		if m.state == StateConnecting {
			m.state = StateDisconnected
			m.reason = err
		}
		m.mu.Unlock()
		return err
	}

	if m.opts.MaxMessageSize > 0 {
		ws.SetReadLimit(m.opts.MaxMessageSize)
	}

	l := &link{
		ws:   ws,
		send: make(chan []byte, m.opts.SendBuffer),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	if m.state != StateConnecting {
		// Closed while dialing.
		m.mu.Unlock()
		ws.Close()
		return ErrClosedByClient
	}
	m.state = StateConnected
	m.link = l
	m.mu.Unlock()

	go m.writePump(l)
	go m.readPump(l)
	return nil
}

// Send encodes v as JSON and queues it. It transmits only when connected.
func (m *Manager) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	m.mu.Lock()
	l := m.link
	connected := m.state == StateConnected
	m.mu.Unlock()
	if !connected || l == nil {
		return ErrNotConnected
	}

	select {
	case <-l.done:
		return ErrNotConnected
	default:
	}

	select {
	case l.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close tears down the connection. It is safe to call at any time and more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	l := m.link
	if l == nil {
		if m.state == StateConnecting {
			m.state = StateDisconnected
			m.reason = ErrClosedByClient
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.terminate(l, ErrClosedByClient)
	return nil
}

// terminate ends l exactly once and records reason.
func (m *Manager) terminate(l *link, reason error) {
	first := false
	l.once.Do(func() {
		first = true
		m.mu.Lock()
		if m.link == l {
			m.link = nil
			m.state = StateDisconnected
			m.reason = reason
		}
		m.mu.Unlock()

		close(l.done)
		if errors.Is(reason, ErrClosedByClient) {
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = l.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		l.ws.Close()
	})

	if first && !errors.Is(reason, ErrClosedByClient) && m.handler.OnClose != nil {
		m.handler.OnClose(reason)
	}
}

// readPump reads frames until the connection fails.
func (m *Manager) readPump(l *link) {
	if m.opts.ReadTimeout > 0 {
		l.ws.SetReadDeadline(time.Now().Add(m.opts.ReadTimeout))
		l.ws.SetPongHandler(func(string) error {
			return l.ws.SetReadDeadline(time.Now().Add(m.opts.ReadTimeout))
		})
	}

	for {
		_, data, err := l.ws.ReadMessage()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.terminate(l, fmt.Errorf("connection closed by server: %w", err))
			} else {
				log.Printf("WebSocket read error: %v", err)
				m.terminate(l, fmt.Errorf("read: %w", err))
			}
			return
		}

		if m.opts.ReadTimeout > 0 {
			l.ws.SetReadDeadline(time.Now().Add(m.opts.ReadTimeout))
		}
		if m.handler.OnMessage != nil {
			m.handler.OnMessage(data)
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (m *Manager) writePump(l *link) {
	var tick <-chan time.Time
	if m.opts.PingInterval > 0 {
		ticker := time.NewTicker(m.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-l.done:
			return

		case data := <-l.send:
			if m.opts.WriteTimeout > 0 {
				l.ws.SetWriteDeadline(time.Now().Add(m.opts.WriteTimeout))
			}
			if err := l.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Failed to write message: %v", err)
				m.terminate(l, fmt.Errorf("write: %w", err))
				return
			}

		case <-tick:
			deadline := time.Now().Add(time.Second)
			if m.opts.WriteTimeout > 0 {
				deadline = time.Now().Add(m.opts.WriteTimeout)
			}
			if err := l.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				m.terminate(l, fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}
