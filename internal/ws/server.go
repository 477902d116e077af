// Package ws serves the widget's public WebSocket endpoint on the development backend.
package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/widget/internal/config"
	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/form"
	"github.com/xiaot623/gogo/widget/internal/hub"
	"github.com/xiaot623/gogo/widget/internal/policy"
	"github.com/xiaot623/gogo/widget/internal/protocol"
	"github.com/xiaot623/gogo/widget/internal/repository"
)

// Scripted replies.
const (
	EchoPrefix      = "You said: "
	ContactFormText = "Please share your contact details and we will get back to you."
	HandoffHintText = "I can connect you with a human agent. Use the handoff option at any time."
	AckText         = "Thanks, we received your details."
)

// ContactFields is the form pushed for contact requests.
var ContactFields = []protocol.FormField{
	{Name: "name", Label: "Name", Type: form.TypeText},
	{Name: "email", Label: "Email", Type: form.TypeEmail},
	{Name: "phone", Label: "Phone", Type: form.TypeTel},
}

// Server handles widget WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	store    *repository.SQLiteStore
	policy   *policy.Engine
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, store *repository.SQLiteStore, engine *policy.Engine) *Server {
	return &Server{
		cfg:    cfg,
		hub:    h,
		store:  store,
		policy: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Widgets are embedded on arbitrary host pages.
				return true
			},
		},
	}
}

// HandleWebSocket upgrades /ws/public/:company_id/:agent_id/:session_id and
// greets the visitor with the agent's welcome message.
func (s *Server) HandleWebSocket(c echo.Context) error {
	if ut := c.QueryParam("user_type"); ut != "" && ut != "user" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported user_type"})
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws, c.Param("company_id"), c.Param("agent_id"), c.Param("session_id"))
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	// Queued before the pumps start so it is the first frame the widget sees.
	welcome := s.customization(c.Request().Context(), conn.AgentID).WelcomeMessage
	if err := s.hub.SendJSONToConnection(conn, protocol.InboundText(welcome, protocol.SenderAgent)); err != nil {
		log.Printf("Failed to send welcome for session %s: %v", conn.SessionID, err)
	}

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

func (s *Server) customization(ctx context.Context, agentID string) customization.Customization {
	saved, err := s.store.GetCustomization(ctx, agentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("Failed to load customization for agent %s: %v", agentID, err)
		}
		return customization.Default()
	}
	return *saved
}

// readPump reads frames from the widget.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(conn, message)
	}
}

// writePump writes queued frames and pings the widget.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{}, deadline)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message, deadline); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// handleMessage answers one widget frame as the policy decides.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	input, sender, err := protocol.DecodeOutbound(data)
	if err != nil {
		if s.cfg.Debug() {
			log.Printf("Dropping frame for session %s: %v", conn.SessionID, err)
		}
		return
	}
	if sender != protocol.SenderUser && s.cfg.Debug() {
		log.Printf("Unexpected sender %q for session %s", sender, conn.SessionID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handedOff, err := s.store.IsHandedOff(ctx, conn.SessionID)
	if err != nil {
		log.Printf("Failed to check handoff for session %s: %v", conn.SessionID, err)
	}

	action, err := s.policy.Decide(ctx, policy.Input{
		Text:           input.Text,
		FormSubmission: input.Values != nil,
		HandedOff:      handedOff,
		AgentID:        conn.AgentID,
	})
	if err != nil {
		log.Printf("Policy evaluation failed for session %s: %v", conn.SessionID, err)
		action = policy.ActionEcho
	}

	var reply any
	switch action {
	case policy.ActionSilent:
		if s.cfg.Debug() {
			log.Printf("Session %s is handled by a human, no bot reply", conn.SessionID)
		}
		return
	case policy.ActionForm:
		reply = protocol.InboundForm(ContactFormText, ContactFields)
	case policy.ActionHandoffHint:
		reply = protocol.InboundText(HandoffHintText, protocol.SenderAgent)
	case policy.ActionAck:
		reply = protocol.InboundText(AckText, protocol.SenderAgent)
	default:
		text := input.Text
		if input.Values != nil {
			text = "your form"
		}
		reply = protocol.InboundText(EchoPrefix+text, protocol.SenderAgent)
	}

	if err := s.hub.SendJSONToConnection(conn, reply); err != nil {
		log.Printf("Failed to send reply for session %s: %v", conn.SessionID, err)
	}
}
