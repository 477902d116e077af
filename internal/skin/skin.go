// Package skin renders a widget view in the look of a messaging channel.
//
// A skin is a pure function of the view. Skins are looked up by name and never
// share state, so a host can switch skins between renders.
package skin

import (
	"fmt"
	"maps"
	"slices"

	"github.com/xiaot623/gogo/widget/internal/conn"
	"github.com/xiaot623/gogo/widget/internal/customization"
	"github.com/xiaot623/gogo/widget/internal/form"
	"github.com/xiaot623/gogo/widget/internal/messages"
)

// DefaultWidth is used when View.Width is unset.
const DefaultWidth = 56

// InputPlaceholder is shown in an empty text input.
const InputPlaceholder = "Type a message..."

// View is everything a skin may draw.
type View struct {
	Messages      []messages.ChatMessage
	Form          *form.Request
	Input         string
	Customization customization.Customization
	Status        conn.Status
	RTL           bool
	Width         int
}

// Skin renders a view to terminal text.
type Skin func(View) string

var registry = map[string]Skin{
	"generic":   Generic,
	"messenger": Messenger,
	"instagram": Instagram,
	"telegram":  Telegram,
	"gmail":     Gmail,
}

// Lookup returns the skin registered under name.
func Lookup(name string) (Skin, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown skin %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names lists the registered skins in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Generic is the default widget look, colored entirely by the customization.
func Generic(v View) string {
	return render(theme{
		userLabel: "You",
		botLabel:  "Agent",
	}, v)
}

// Messenger mimics a Facebook Messenger conversation.
func Messenger(v View) string {
	return render(theme{
		userColor:   "#0084FF",
		botColor:    "#3E4042",
		userLabel:   "You",
		botLabel:    "Page",
		placeholder: "Aa",
	}, v)
}

// Instagram mimics an Instagram direct message thread.
func Instagram(v View) string {
	return render(theme{
		userColor:   "#C13584",
		botColor:    "#262626",
		userLabel:   "you",
		botLabel:    "business",
		placeholder: "Message...",
	}, v)
}

// Telegram mimics a Telegram bot chat.
func Telegram(v View) string {
	return render(theme{
		userColor:   "#2AABEE",
		botColor:    "#182533",
		userLabel:   "You",
		botLabel:    "Bot",
		placeholder: "Write a message...",
	}, v)
}

// Gmail shows the conversation as an email thread.
func Gmail(v View) string {
	return render(theme{
		userColor:   "#1A73E8",
		userLabel:   "me",
		botLabel:    "Support",
		placeholder: "Reply...",
		thread:      true,
	}, v)
}
