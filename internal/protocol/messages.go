// Package protocol defines the JSON envelopes exchanged between the widget and the backend.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sender values on the wire.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
	SenderTool  = "tool"
	SenderBot   = "bot"
)

// MessageTypeForm marks a backend push that requests structured input.
const MessageTypeForm = "form"

// FormField describes one required input of a form push.
type FormField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// InboundMessage is a backend to widget envelope. It covers both the chat
// shape ({message, sender}) and the form shape ({message_type, message, fields}).
type InboundMessage struct {
	MessageType string          `json:"message_type,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	Sender      string          `json:"sender,omitempty"`
	Fields      []FormField     `json:"fields,omitempty"`
}

// IsForm reports whether the envelope is a form push.
func (m *InboundMessage) IsForm() bool {
	return m.MessageType == MessageTypeForm
}

// Text returns the display text of the message field. Strings are returned
// as-is; any other JSON value is returned in its compact encoding.
func (m *InboundMessage) Text() string {
	if len(m.Message) == 0 || bytes.Equal(m.Message, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Message, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, m.Message); err != nil {
		return string(m.Message)
	}
	return buf.String()
}

// InboundText builds a chat push.
func InboundText(text, sender string) InboundMessage {
	raw, _ := json.Marshal(text)
	return InboundMessage{Message: raw, Sender: sender}
}

// InboundForm builds a form push.
func InboundForm(title string, fields []FormField) InboundMessage {
	raw, _ := json.Marshal(title)
	return InboundMessage{MessageType: MessageTypeForm, Message: raw, Fields: fields}
}

// ErrNoMessage is returned for a chat frame without a message field.
var ErrNoMessage = errors.New("inbound frame has no message")

// DecodeInbound parses a raw frame received from the backend. Frames that are
// neither a form nor carry a message, such as null or {}, are rejected.
func DecodeInbound(data []byte) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid inbound message: %w", err)
	}
	if !msg.IsForm() && (len(msg.Message) == 0 || bytes.Equal(msg.Message, []byte("null"))) {
		return nil, ErrNoMessage
	}
	return &msg, nil
}

// OutboundMessage is a widget to backend envelope. Message is a string for
// free text or a flat field-name to value map for form submissions.
type OutboundMessage struct {
	Message any    `json:"message"`
	Sender  string `json:"sender"`
}

// NewTextMessage builds the envelope for a free-text user message.
func NewTextMessage(text string) OutboundMessage {
	return OutboundMessage{Message: text, Sender: SenderUser}
}

// NewFormSubmission builds the envelope for a submitted form.
func NewFormSubmission(values map[string]string) OutboundMessage {
	return OutboundMessage{Message: values, Sender: SenderUser}
}

// UserInput is an outbound envelope as seen by the backend.
type UserInput struct {
	Text   string
	Values map[string]string
}

// DecodeOutbound parses a frame sent by the widget. Exactly one of Text or
// Values is populated on success.
func DecodeOutbound(data []byte) (*UserInput, string, error) {
	var raw struct {
		Message json.RawMessage `json:"message"`
		Sender  string          `json:"sender"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("invalid outbound message: %w", err)
	}

	out := &UserInput{}
	trimmed := bytes.TrimSpace(raw.Message)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &out.Values); err != nil {
			return nil, "", fmt.Errorf("invalid form submission: %w", err)
		}
		return out, raw.Sender, nil
	}
	if err := json.Unmarshal(trimmed, &out.Text); err != nil {
		return nil, "", fmt.Errorf("invalid message text: %w", err)
	}
	return out, raw.Sender, nil
}
