package hub

import (
	"testing"
	"time"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestRegisterAndBroadcast(t *testing.T) {
	h := newRunningHub(t)

	a := h.NewConnection(nil, "acme", "agent-1", "s1")
	b := h.NewConnection(nil, "acme", "agent-1", "s1")
	other := h.NewConnection(nil, "acme", "agent-1", "s2")
	h.Register(a)
	h.Register(b)
	h.Register(other)

	waitFor(t, func() bool { return h.ConnectionCount() == 3 })
	if h.SessionCount() != 2 {
		t.Fatalf("expected 2 sessions, got %d", h.SessionCount())
	}
	if !h.HasActiveConnections("s1") || h.HasActiveConnections("s3") {
		t.Fatal("unexpected session activity")
	}

	if err := h.BroadcastJSON("s1", map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}

	for _, c := range []*Connection{a, b} {
		select {
		case data := <-c.Send:
			if string(data) != `{"message":"hi"}` {
				t.Fatalf("unexpected frame: %s", data)
			}
		case <-time.After(time.Second):
			t.Fatalf("connection %s got nothing", c.ID)
		}
	}

	select {
	case data := <-other.Send:
		t.Fatalf("other session received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := newRunningHub(t)

	c := h.NewConnection(nil, "acme", "agent-1", "s1")
	h.Register(c)
	waitFor(t, func() bool { return h.ConnectionCount() == 1 })

	h.Unregister(c)
	waitFor(t, func() bool { return h.ConnectionCount() == 0 })

	if _, ok := <-c.Send; ok {
		t.Fatal("expected send channel closed")
	}
	if h.SessionCount() != 0 {
		t.Fatalf("expected no sessions, got %d", h.SessionCount())
	}

	// A second unregister is a no-op.
	h.Unregister(c)
}

func TestSendJSONToConnectionBufferFull(t *testing.T) {
	h := NewHub()
	c := h.NewConnection(nil, "acme", "agent-1", "s1")
	c.Send = make(chan []byte, 1)

	if err := h.SendJSONToConnection(c, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.SendJSONToConnection(c, "second"); err != ErrBufferFull {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}

func TestSendAfterEvictionReturnsClosed(t *testing.T) {
	h := newRunningHub(t)

	c := h.NewConnection(nil, "acme", "agent-1", "s1")
	c.Send = make(chan []byte, 1)
	h.Register(c)
	waitFor(t, func() bool { return h.ConnectionCount() == 1 })

	if err := h.SendJSONToConnection(c, "fill"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The buffer is full, so the broadcast evicts the connection.
	h.Broadcast("s1", []byte(`"overflow"`))
	waitFor(t, func() bool { return h.ConnectionCount() == 0 })

	if err := h.SendJSONToConnection(c, "late reply"); err != ErrConnectionClosed {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestUnregisterAfterCloseIsSafe(t *testing.T) {
	h := NewHub()
	c := h.NewConnection(nil, "acme", "agent-1", "s1")
	c.closeSend()
	c.closeSend()
	if err := c.trySend([]byte("x")); err != ErrConnectionClosed {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}
