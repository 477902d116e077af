// Package http provides the development backend's HTTP server.
package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/hub"
	"github.com/xiaot623/gogo/widget/internal/protocol"
	"github.com/xiaot623/gogo/widget/internal/repository"
	"github.com/xiaot623/gogo/widget/internal/ws"
)

// HandoffNoticeText is pushed to the widget when a handoff is recorded.
const HandoffNoticeText = "Conversation transferred to a human agent."

// Server is the development backend's HTTP server.
type Server struct {
	echo  *echo.Echo
	hub   *hub.Hub
	store *repository.SQLiteStore
}

// NewServer creates the server and registers every route. wsServer may be
// nil when only the REST endpoints are needed.
func NewServer(h *hub.Hub, store *repository.SQLiteStore, wsServer *ws.Server) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:  e,
		hub:   h,
		store: store,
	}

	e.GET("/health", s.handleHealth)
	if wsServer != nil {
		e.GET("/ws/public/:company_id/:agent_id/:session_id", wsServer.HandleWebSocket)
	}

	v1 := e.Group("/api/v1")
	v1.POST("/conversations/:session_id/handoff", s.handleHandoff)
	v1.GET("/agents/:agent_id/customization", s.handleGetCustomization)
	v1.PUT("/agents/:agent_id/customization", s.handlePutCustomization)

	e.POST("/internal/send", s.handleInternalSend)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"connections": s.hub.ConnectionCount(),
		"sessions":    s.hub.SessionCount(),
	})
}

// HandoffResponse is the body of a successful handoff.
type HandoffResponse struct {
	OK      bool                `json:"ok"`
	Handoff *repository.Handoff `json:"handoff"`
}

func (s *Server) handleHandoff(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	h, err := s.store.CreateHandoff(c.Request().Context(), sessionID)
	if err != nil {
		log.Printf("Failed to record handoff: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to record handoff"})
	}

	if err := s.hub.BroadcastJSON(sessionID, protocol.InboundText(HandoffNoticeText, protocol.SenderTool)); err != nil {
		log.Printf("Failed to announce handoff: %v", err)
	}
	log.Printf("Handoff requested for session: %s", sessionID)

	return c.JSON(http.StatusOK, HandoffResponse{OK: true, Handoff: h})
}

func (s *Server) handleGetCustomization(c echo.Context) error {
	agentID := c.Param("agent_id")
	saved, err := s.store.GetCustomization(c.Request().Context(), agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, customization.Default())
	}
	if err != nil {
		log.Printf("Failed to load customization: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load customization"})
	}
	return c.JSON(http.StatusOK, saved)
}

func (s *Server) handlePutCustomization(c echo.Context) error {
	var cust customization.Customization
	if err := c.Bind(&cust); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := cust.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.store.SaveCustomization(c.Request().Context(), c.Param("agent_id"), cust); err != nil {
		log.Printf("Failed to save customization: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save customization"})
	}
	return c.JSON(http.StatusOK, cust)
}

// SendRequest is the body of POST /internal/send. It pushes a chat message
// or, with message_type "form", a form into a session.
type SendRequest struct {
	SessionID   string               `json:"session_id"`
	Message     string               `json:"message"`
	Sender      string               `json:"sender"`
	MessageType string               `json:"message_type"`
	Fields      []protocol.FormField `json:"fields"`
}

// SendResponse is the response of POST /internal/send.
type SendResponse struct {
	OK        bool `json:"ok"`
	Delivered bool `json:"delivered"`
}

func (s *Server) handleInternalSend(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	var msg protocol.InboundMessage
	switch req.MessageType {
	case "":
		if req.Message == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
		}
		sender := req.Sender
		if sender == "" {
			sender = protocol.SenderAgent
		}
		msg = protocol.InboundText(req.Message, sender)
	case protocol.MessageTypeForm:
		if len(req.Fields) == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "fields are required"})
		}
		msg = protocol.InboundForm(req.Message, req.Fields)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown message_type: " + req.MessageType})
	}

	hasConnections := s.hub.HasActiveConnections(req.SessionID)
	if err := s.hub.BroadcastJSON(req.SessionID, msg); err != nil {
		log.Printf("Failed to broadcast message: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to broadcast message"})
	}

	log.Printf("Message sent to session %s: delivered=%v", req.SessionID, hasConnections)
	return c.JSON(http.StatusOK, SendResponse{OK: true, Delivered: hasConnections})
}
