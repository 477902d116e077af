package widget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/messages"
)

func TestPreviewExpandSeedsWelcome(t *testing.T) {
	cust := customization.Default()
	cust.WelcomeMessage = "Welcome to Acme!"
	p := NewPreview(cust, time.Millisecond, nil)

	p.Expand()
	got := p.View().Messages
	require.Len(t, got, 1)
	assert.Equal(t, "Welcome to Acme!", got[0].Text)
	assert.Equal(t, messages.SenderBot, got[0].Sender)
}

func TestPreviewEmptyWelcomeFallsBack(t *testing.T) {
	p := NewPreview(customization.Customization{}, time.Millisecond, nil)
	p.Expand()
	assert.Equal(t, customization.Default().WelcomeMessage, p.View().Messages[0].Text)
}

func TestPreviewSimulatedReply(t *testing.T) {
	p := NewPreview(customization.Default(), 10*time.Millisecond, nil)
	p.Expand()
	require.NoError(t, p.SendText("hello"))

	got := p.View().Messages
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[1].Text)

	require.Eventually(t, func() bool { return len(p.View().Messages) == 3 }, time.Second, 5*time.Millisecond)
	reply := p.View().Messages[2]
	assert.Equal(t, PreviewReplyText, reply.Text)
	assert.Equal(t, messages.SenderBot, reply.Sender)
}

func TestPreviewCollapseCancelsReply(t *testing.T) {
	p := NewPreview(customization.Default(), 30*time.Millisecond, nil)
	p.Expand()
	require.NoError(t, p.SendText("hello"))
	p.Collapse()

	assert.Empty(t, p.View().Messages)
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, p.View().Messages)

	p.Expand()
	assert.Len(t, p.View().Messages, 1)
}

func TestPreviewSendWhileCollapsed(t *testing.T) {
	p := NewPreview(customization.Default(), time.Millisecond, nil)
	assert.ErrorIs(t, p.SendText("hi"), ErrCollapsed)
}

func TestPreviewSetCustomizationReseeds(t *testing.T) {
	var views int
	p := NewPreview(customization.Default(), time.Hour, func(View) { views++ })
	p.Expand()
	require.NoError(t, p.SendText("hello"))

	cust := customization.Default()
	cust.WelcomeMessage = "Updated welcome"
	p.SetCustomization(cust)

	got := p.View().Messages
	require.Len(t, got, 1)
	assert.Equal(t, "Updated welcome", got[0].Text)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Updated welcome", p.Customization().WelcomeMessage)
	assert.Equal(t, 3, views)
}

func TestPreviewForgetsFiredReplies(t *testing.T) {
	p := NewPreview(customization.Default(), time.Millisecond, nil)
	p.Expand()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.SendText("hello"))
	}

	require.Eventually(t, func() bool { return len(p.View().Messages) == 11 }, time.Second, 5*time.Millisecond)
	p.mu.Lock()
	pending := len(p.timers)
	p.mu.Unlock()
	assert.Zero(t, pending)
}
