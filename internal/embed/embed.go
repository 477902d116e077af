// Package embed reads and writes the host-page script tag that mounts the widget.
package embed

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xiaot623/gogo/widget/internal/customization"
)

// RootElementID is the id of the element the widget mounts into.
const RootElementID = "chat-widget-root"

// DefaultLanguage is used when data-language is absent.
const DefaultLanguage = "en"

// ErrNoWidgetScript is returned when the page carries no widget script tag.
var ErrNoWidgetScript = errors.New("no script tag with data-agent-id found")

// Config is the widget configuration declared by the host page.
type Config struct {
	AgentID    string
	CompanyID  string
	BackendURL string
	RTL        bool
	Language   string
	Position   string
}

// Parse finds the first script element carrying data-agent-id and reads its
// data attributes.
func Parse(r io.Reader) (*Config, error) {
	z := xhtml.NewTokenizer(r)
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil, ErrNoWidgetScript
			}
			return nil, fmt.Errorf("failed to parse page: %w", z.Err())

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Script {
				continue
			}
			attrs := make(map[string]string, len(tok.Attr))
			for _, a := range tok.Attr {
				attrs[a.Key] = a.Val
			}
			if _, ok := attrs["data-agent-id"]; !ok {
				continue
			}
			return fromAttrs(attrs)
		}
	}
}

func fromAttrs(attrs map[string]string) (*Config, error) {
	cfg := &Config{
		AgentID:    strings.TrimSpace(attrs["data-agent-id"]),
		CompanyID:  strings.TrimSpace(attrs["data-company-id"]),
		BackendURL: strings.TrimSpace(attrs["data-backend-url"]),
		Language:   strings.TrimSpace(attrs["data-language"]),
		Position:   strings.TrimSpace(attrs["data-position"]),
	}
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("data-agent-id is empty")
	}
	if cfg.CompanyID == "" {
		return nil, fmt.Errorf("data-company-id is required")
	}
	if raw, ok := attrs["data-rtl"]; ok {
		// A bare data-rtl attribute means true.
		if raw == "" {
			cfg.RTL = true
		} else {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid data-rtl %q: %w", raw, err)
			}
			cfg.RTL = v
		}
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Position == "" {
		cfg.Position = customization.PositionBottomRight
	}
	return cfg, nil
}

// Snippet returns the markup a host page pastes to mount the widget.
func Snippet(cfg Config, scriptURL string) string {
	var b strings.Builder
	b.WriteString(`<script src="` + html.EscapeString(scriptURL) + `"`)
	attr := func(name, value string) {
		if value != "" {
			b.WriteString(` ` + name + `="` + html.EscapeString(value) + `"`)
		}
	}
	attr("data-agent-id", cfg.AgentID)
	attr("data-company-id", cfg.CompanyID)
	attr("data-backend-url", cfg.BackendURL)
	if cfg.RTL {
		attr("data-rtl", "true")
	}
	attr("data-language", cfg.Language)
	attr("data-position", cfg.Position)
	b.WriteString(` defer></script>` + "\n")
	b.WriteString(`<div id="` + RootElementID + `"></div>` + "\n")
	return b.String()
}
