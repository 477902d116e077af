// Package messages holds the ordered chat log shown by the widget.
package messages

import (
	"sync"
	"time"

	"github.com/xiaot623/gogo/widget/internal/protocol"
)

// Sender classifies who authored a displayed message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
	SenderTool Sender = "tool"
)

// NormalizeSender maps a wire sender to a display sender. Human agents are
// shown as bot; unknown values fall back to bot.
func NormalizeSender(raw string) Sender {
	switch raw {
	case protocol.SenderUser:
		return SenderUser
	case protocol.SenderTool:
		return SenderTool
	default:
		return SenderBot
	}
}

// ChatMessage is a single entry of the chat log.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is an append-only, insertion-ordered log of chat messages.
// Ids come from a counter owned by the store and restart on Reset.
type Store struct {
	mu       sync.RWMutex
	messages []ChatMessage
	lastID   int64
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Append adds a message to the end of the log and returns it.
func (s *Store) Append(text string, sender Sender) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	msg := ChatMessage{
		ID:        s.lastID,
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Reset clears the log and restarts the id sequence.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.lastID = 0
}

// Seed replaces the log with a single message.
func (s *Store) Seed(text string, sender Sender) ChatMessage {
	s.Reset()
	return s.Append(text, sender)
}

// Messages returns a copy of the log in insertion order.
func (s *Store) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
