// Package widget implements the chat widget session: the live controller that talks to a
// backend agent and the designer preview that simulates one.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/xiaot623/gogo/widget/internal/conn"
	"github.com/xiaot623/gogo/widget/internal/form"
	"github.com/xiaot623/gogo/widget/internal/messages"
	"github.com/xiaot623/gogo/widget/internal/protocol"
)

// Synthetic chat-log texts.
const (
	ConnectErrorText  = "Error: Could not connect to the chat service."
	UnavailableText   = "Error: Chat service not available."
	FormSubmittedText = "Form submitted. Thank you!"
)

// Notification texts for handoff.
const (
	HandoffSuccessText = "You are being connected to a human agent."
	HandoffFailureText = "Could not reach a human agent. Please try again."
)

var (
	// ErrNotConnected is returned when sending while the connection is not open.
	ErrNotConnected = conn.ErrNotConnected
	// ErrCollapsed is returned when sending to a collapsed widget.
	ErrCollapsed = errors.New("widget is collapsed")
	// ErrFormActive is returned by SendText while a form awaits submission.
	ErrFormActive = errors.New("a form is awaiting submission")
	// ErrHandoffUnavailable is returned when no handoff client is configured.
	ErrHandoffUnavailable = errors.New("handoff is not configured")
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a transient message shown outside the chat log.
type Notification struct {
	Level Level
	Text  string
}

// HandoffClient requests a human takeover of a session.
type HandoffClient interface {
	Handoff(ctx context.Context, sessionID string) error
}

// View is a snapshot of everything the presentation layer needs.
type View struct {
	Expanded bool
	Status   conn.Status
	Messages []messages.ChatMessage
	Form     *form.Request
}

// Options configures a Controller.
type Options struct {
	Identity   conn.Identity
	BackendURL string
	Conn       conn.Options
	Handoff    HandoffClient

	// OnChange is called with a fresh snapshot after every state change.
	// It may run on the connection's read goroutine.
	OnChange func(View)
	// OnNotify receives handoff outcomes.
	OnNotify func(Notification)
}

// Controller is one widget instance's live conversation. It owns exactly one
// connection per expanded session.
type Controller struct {
	opts    Options
	address string
	store   *messages.Store
	forms   *form.Controller

	mu         sync.Mutex
	expanded   bool
	generation uint64
	conn       *conn.Manager
}

// New creates a collapsed controller for the given session identity.
func New(opts Options) (*Controller, error) {
	address, err := conn.Address(opts.BackendURL, opts.Identity)
	if err != nil {
		return nil, fmt.Errorf("invalid widget options: %w", err)
	}
	return &Controller{
		opts:    opts,
		address: address,
		store:   messages.NewStore(),
		forms:   form.NewController(),
	}, nil
}

// Address returns the duplex connection address of the session.
func (c *Controller) Address() string {
	return c.address
}

// Expand starts a fresh session: the log is cleared and a new connection is
// opened. A failed open is reported in the chat log and returned.
func (c *Controller) Expand(ctx context.Context) error {
	c.mu.Lock()
	if c.expanded {
		c.mu.Unlock()
		return nil
	}
	c.expanded = true
	c.generation++
	gen := c.generation
	c.store.Reset()
	c.forms.Clear()

	m := conn.NewManager(c.opts.Conn, conn.Handler{
		OnMessage: func(data []byte) { c.handleFrame(gen, data) },
		OnClose:   func(reason error) { c.handleClose(gen, reason) },
	})
	c.conn = m
	c.mu.Unlock()

	err := m.Open(ctx, c.address)
	if err != nil {
		log.Printf("Failed to open chat connection for session %s: %v", c.opts.Identity.SessionID, err)
		c.mu.Lock()
		if gen == c.generation {
			c.store.Append(ConnectErrorText, messages.SenderBot)
		}
		c.mu.Unlock()
	}
	c.changed()
	return err
}

// Collapse closes the connection and discards the session's history.
func (c *Controller) Collapse() {
	c.mu.Lock()
	if !c.expanded {
		c.mu.Unlock()
		return
	}
	c.expanded = false
	c.generation++
	m := c.conn
	c.conn = nil
	c.store.Reset()
	c.forms.Clear()
	c.mu.Unlock()

	if m != nil {
		m.Close()
	}
	c.changed()
}

// SendText sends a free-text user message. Blank text is ignored and a
// collapsed widget rejects it without touching the chat. When the connection
// is not open exactly one error message is logged to the chat and nothing is
// transmitted.
func (c *Controller) SendText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if !c.expanded {
		c.mu.Unlock()
		return ErrCollapsed
	}
	if _, ok := c.forms.Active(); ok {
		c.mu.Unlock()
		return ErrFormActive
	}
	if !c.connectedLocked() {
		c.store.Append(UnavailableText, messages.SenderBot)
		c.mu.Unlock()
		c.changed()
		return ErrNotConnected
	}

	c.store.Append(text, messages.SenderUser)
	err := c.conn.Send(protocol.NewTextMessage(text))
	if err != nil {
		log.Printf("Failed to send message for session %s: %v", c.opts.Identity.SessionID, err)
		c.store.Append(UnavailableText, messages.SenderBot)
	}
	c.mu.Unlock()

	c.changed()
	return err
}

// SubmitForm sends the active form's values. Invalid values are returned as
// an error and keep the form open. Otherwise the form is cleared whether or
// not the send succeeds, and the chat shows either the confirmation or the
// unavailable error.
func (c *Controller) SubmitForm(values map[string]string) error {
	c.mu.Lock()
	fields, err := c.forms.Submit(values)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	var sendErr error
	if c.connectedLocked() {
		sendErr = c.conn.Send(protocol.NewFormSubmission(fields))
	} else {
		sendErr = ErrNotConnected
	}

	if sendErr != nil {
		log.Printf("Failed to send form submission for session %s: %v", c.opts.Identity.SessionID, sendErr)
		c.store.Append(UnavailableText, messages.SenderBot)
	} else {
		c.store.Append(FormSubmittedText, messages.SenderUser)
	}
	c.mu.Unlock()

	c.changed()
	return sendErr
}

// Handoff asks the backend to route the conversation to a human agent. The
// outcome is reported through OnNotify; session state is not touched. An
// outcome that arrives after the session was collapsed is dropped.
func (c *Controller) Handoff(ctx context.Context) error {
	if c.opts.Handoff == nil {
		c.notify(Notification{Level: LevelError, Text: HandoffFailureText})
		return ErrHandoffUnavailable
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	err := c.opts.Handoff.Handoff(ctx, c.opts.Identity.SessionID)

	c.mu.Lock()
	stale := gen != c.generation
	c.mu.Unlock()

	if err != nil {
		log.Printf("Handoff failed for session %s: %v", c.opts.Identity.SessionID, err)
		if !stale {
			c.notify(Notification{Level: LevelError, Text: HandoffFailureText})
		}
		return err
	}
	if !stale {
		c.notify(Notification{Level: LevelInfo, Text: HandoffSuccessText})
	}
	return nil
}

// View returns a snapshot of the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Expanded: c.expanded,
		Messages: c.store.Messages(),
	}
	if c.conn != nil {
		v.Status = c.conn.Status()
	}
	if req, ok := c.forms.Active(); ok {
		v.Form = &req
	}
	return v
}

// Status returns the connection status of the current session.
func (c *Controller) Status() conn.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return conn.Status{State: conn.StateDisconnected}
	}
	return c.conn.Status()
}

func (c *Controller) connectedLocked() bool {
	return c.conn != nil && c.conn.Status().Connected()
}

// handleFrame applies a backend push to the session it was received on.
func (c *Controller) handleFrame(gen uint64, data []byte) {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		log.Printf("Dropping frame for session %s: %v", c.opts.Identity.SessionID, err)
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if msg.IsForm() {
		req := c.forms.Activate(msg.Text(), msg.Fields)
		title := req.Title
		if title == "" {
			title = form.FallbackTitle
		}
		c.store.Append(title, messages.SenderBot)
	} else {
		c.store.Append(msg.Text(), messages.NormalizeSender(msg.Sender))
	}
	c.mu.Unlock()

	c.changed()
}

// handleClose reports a connection that ended without Collapse.
func (c *Controller) handleClose(gen uint64, reason error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	log.Printf("Chat connection lost for session %s: %v", c.opts.Identity.SessionID, reason)
	c.store.Append(ConnectErrorText, messages.SenderBot)
	c.mu.Unlock()

	c.changed()
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.View())
	}
}

func (c *Controller) notify(n Notification) {
	if c.opts.OnNotify != nil {
		c.opts.OnNotify(n)
	}
}
