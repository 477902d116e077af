package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiaot623/gogo/widget/internal/conn"
	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/skin"
	"github.com/xiaot623/gogo/widget/internal/widget"
)

var errPreviewOnly = errors.New("not available in preview mode")

// session is what the input loop drives: a live controller or a preview.
type session interface {
	Expand(ctx context.Context) error
	Collapse()
	SendText(text string) error
	SubmitForm(values map[string]string) error
	Handoff(ctx context.Context) error
	View() widget.View
}

// previewSession adapts widget.Preview to session.
type previewSession struct {
	*widget.Preview
}

func (p previewSession) Expand(context.Context) error {
	p.Preview.Expand()
	return nil
}

func (p previewSession) SubmitForm(map[string]string) error { return errPreviewOnly }

func (p previewSession) Handoff(context.Context) error { return errPreviewOnly }

// host draws session views to the terminal.
type host struct {
	out io.Writer

	mu      sync.Mutex
	skin    skin.Skin
	cust    customization.Customization
	rtl     bool
	width   int
	preview bool
}

func (h *host) setSkin(s skin.Skin) {
	h.mu.Lock()
	h.skin = s
	h.mu.Unlock()
}

func (h *host) setCustomization(c customization.Customization) {
	h.mu.Lock()
	h.cust = c
	h.mu.Unlock()
}

// render redraws the widget. It is safe to call from connection goroutines.
func (h *host) render(v widget.View) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !v.Expanded {
		launcher := lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color(h.cust.PrimaryColor)).
			Padding(0, 1).
			Render("💬 " + h.cust.HeaderTitle)
		fmt.Fprintf(h.out, "\n%s  (/expand to open, position: %s)\n", launcher, h.cust.Position)
		return
	}

	status := v.Status
	if h.preview {
		status = conn.Status{State: conn.StateConnected}
	}

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, h.skin(skin.View{
		Messages:      v.Messages,
		Form:          v.Form,
		Customization: h.cust,
		Status:        status,
		RTL:           h.rtl,
		Width:         h.width,
	}))
}

func (h *host) notify(n widget.Notification) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	if n.Level == widget.LevelError {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintln(h.out, style.Render("[" + string(n.Level) + "] " + n.Text))
}
