package widget

import (
	"strings"
	"sync"
	"time"

	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/messages"
)

// PreviewReplyText is the simulated bot answer in the designer preview.
const PreviewReplyText = "This is a preview. Your agent's replies will appear here."

// Preview is the designer-preview variant of the widget. It has no
// connection: it seeds the welcome message and answers every user message
// with a fixed reply after a fixed delay.
type Preview struct {
	store    *messages.Store
	delay    time.Duration
	onChange func(View)

	mu         sync.Mutex
	cust       customization.Customization
	expanded   bool
	generation uint64

	// timers holds replies that have not fired yet.
	timers    map[uint64]*time.Timer
	nextTimer uint64
}

// NewPreview creates a collapsed preview.
func NewPreview(cust customization.Customization, delay time.Duration, onChange func(View)) *Preview {
	return &Preview{
		store:    messages.NewStore(),
		delay:    delay,
		onChange: onChange,
		cust:     cust,
		timers:   make(map[uint64]*time.Timer),
	}
}

// Expand seeds the log with the welcome message.
func (p *Preview) Expand() {
	p.mu.Lock()
	if p.expanded {
		p.mu.Unlock()
		return
	}
	p.expanded = true
	p.generation++
	p.store.Seed(p.welcomeLocked(), messages.SenderBot)
	p.mu.Unlock()
	p.changed()
}

// Collapse cancels pending replies and empties the log.
func (p *Preview) Collapse() {
	p.mu.Lock()
	if !p.expanded {
		p.mu.Unlock()
		return
	}
	p.expanded = false
	p.generation++
	p.stopTimersLocked()
	p.store.Reset()
	p.mu.Unlock()
	p.changed()
}

// SendText appends the user message and schedules the simulated reply.
func (p *Preview) SendText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	p.mu.Lock()
	if !p.expanded {
		p.mu.Unlock()
		return ErrCollapsed
	}
	p.store.Append(text, messages.SenderUser)
	gen := p.generation
	p.nextTimer++
	id := p.nextTimer
	p.timers[id] = time.AfterFunc(p.delay, func() { p.reply(gen, id) })
	p.mu.Unlock()

	p.changed()
	return nil
}

// SetCustomization applies new settings; an expanded preview is re-seeded
// with the new welcome message.
func (p *Preview) SetCustomization(cust customization.Customization) {
	p.mu.Lock()
	p.cust = cust
	if !p.expanded {
		p.mu.Unlock()
		return
	}
	p.generation++
	p.stopTimersLocked()
	p.store.Seed(p.welcomeLocked(), messages.SenderBot)
	p.mu.Unlock()
	p.changed()
}

// Customization returns the settings in use.
func (p *Preview) Customization() customization.Customization {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cust
}

// View returns a snapshot of the preview.
func (p *Preview) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Expanded: p.expanded,
		Messages: p.store.Messages(),
	}
}

func (p *Preview) reply(gen, id uint64) {
	p.mu.Lock()
	delete(p.timers, id)
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.store.Append(PreviewReplyText, messages.SenderBot)
	p.mu.Unlock()
	p.changed()
}

func (p *Preview) welcomeLocked() string {
	if p.cust.WelcomeMessage != "" {
		return p.cust.WelcomeMessage
	}
	return customization.Default().WelcomeMessage
}

func (p *Preview) stopTimersLocked() {
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

func (p *Preview) changed() {
	if p.onChange != nil {
		p.onChange(p.View())
	}
}
