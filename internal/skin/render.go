package skin

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiaot623/gogo/widget/internal/conn"
	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/form"
	"github.com/xiaot623/gogo/widget/internal/messages"
)

// theme holds what differs between channels. Empty colors fall back to the
// customization's primary color.
type theme struct {
	userColor   lipgloss.Color
	botColor    lipgloss.Color
	userLabel   string
	botLabel    string
	placeholder string
	thread      bool
}

var (
	textStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	toolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func render(t theme, v View) string {
	cust := v.Customization
	if cust.PrimaryColor == "" {
		cust = customization.Merge(customization.Default(), cust)
	}
	primary := lipgloss.Color(cust.PrimaryColor)
	if t.userColor == "" {
		t.userColor = primary
	}
	if t.botColor == "" {
		t.botColor = lipgloss.Color("238")
	}
	if t.placeholder == "" {
		t.placeholder = InputPlaceholder
	}

	width := v.Width
	if width <= 0 {
		width = DefaultWidth
	}

	border := lipgloss.NormalBorder()
	if cust.BorderRadius > 0 {
		border = lipgloss.RoundedBorder()
	}

	sections := []string{
		header(cust, primary, width),
		status(v.Status),
		"",
	}

	for _, msg := range v.Messages {
		if t.thread {
			sections = append(sections, threadEntry(t, msg, width))
		} else {
			sections = append(sections, bubble(t, msg, border, width, v.RTL))
		}
	}

	sections = append(sections, "")
	if v.Form != nil {
		sections = append(sections, formBox(v, primary, border, width))
	} else {
		sections = append(sections, inputBox(t, v.Input, primary, border, width))
	}

	frame := lipgloss.NewStyle().
		Border(border).
		BorderForeground(primary)
	return frame.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func header(cust customization.Customization, primary lipgloss.Color, width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("231")).
		Background(primary).
		Padding(0, 1).
		Width(width).
		Render(cust.HeaderTitle)
	meta := mutedStyle.Render(fmt.Sprintf("font: %s | position: %s", cust.FontFamily, cust.Position))
	return lipgloss.JoinVertical(lipgloss.Left, title, meta)
}

func status(s conn.Status) string {
	switch s.State {
	case conn.StateConnected:
		return okStyle.Render("● connected")
	case conn.StateConnecting:
		return mutedStyle.Render("○ connecting...")
	}
	if s.Reason != nil {
		return errorStyle.Render("○ disconnected: " + s.Reason.Error())
	}
	return mutedStyle.Render("○ disconnected")
}

func bubble(t theme, msg messages.ChatMessage, border lipgloss.Border, width int, rtl bool) string {
	if msg.Sender == messages.SenderTool {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, toolStyle.Render(msg.Text))
	}

	color, label, pos := t.botColor, t.botLabel, lipgloss.Left
	if msg.Sender == messages.SenderUser {
		color, label, pos = t.userColor, t.userLabel, lipgloss.Right
	}
	if rtl {
		if pos == lipgloss.Left {
			pos = lipgloss.Right
		} else {
			pos = lipgloss.Left
		}
	}

	style := lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Padding(0, 1)
	if maxWidth := width * 3 / 4; lipgloss.Width(msg.Text)+4 > maxWidth {
		style = style.Width(maxWidth - 2)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		mutedStyle.Render(label+" · "+msg.Timestamp.Format("15:04")),
		style.Render(textStyle.Render(msg.Text)),
	)
	return lipgloss.PlaceHorizontal(width, pos, body)
}

func threadEntry(t theme, msg messages.ChatMessage, width int) string {
	from := t.botLabel
	switch msg.Sender {
	case messages.SenderUser:
		from = t.userLabel
	case messages.SenderTool:
		from = "system"
	}

	head := lipgloss.NewStyle().Bold(true).Foreground(t.userColor).Render(from) +
		mutedStyle.Render("  "+msg.Timestamp.Format("Jan 2, 15:04"))
	body := lipgloss.NewStyle().Width(width).Render(msg.Text)
	if msg.Sender == messages.SenderTool {
		body = toolStyle.Width(width).Render(msg.Text)
	}
	rule := mutedStyle.Render(strings.Repeat("─", width))
	return lipgloss.JoinVertical(lipgloss.Left, head, body, rule)
}

func formBox(v View, primary lipgloss.Color, border lipgloss.Border, width int) string {
	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(primary)

	title := v.Form.Title
	if title == "" {
		title = form.FallbackTitle
	}
	lines := make([]string, 0, len(v.Form.Fields)+2)
	lines = append(lines, textStyle.Bold(true).Render(title))
	for _, f := range v.Form.Fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(label), mutedStyle.Render("("+f.Name+", "+f.Type+")")))
	}
	lines = append(lines, mutedStyle.Render("submit with /form name=value ..."))

	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(primary).
		Padding(0, 1).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}

func inputBox(t theme, input string, primary lipgloss.Color, border lipgloss.Border, width int) string {
	text := mutedStyle.Render(t.placeholder)
	if input != "" {
		text = textStyle.Render(input)
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(primary).
		Padding(0, 1).
		Width(width - 2).
		Render("> " + text)
}
