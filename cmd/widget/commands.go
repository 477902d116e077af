package main

import (
	"fmt"
	"strings"
)

// command is one line of user input. A line that does not start with "/"
// is a chat message and has an empty name.
type command struct {
	name string
	args string
}

func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{args: line}
	}
	name, args, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), args: strings.TrimSpace(args)}
}

// parseFormValues reads "name=value" pairs. A word without "=" continues the
// previous value, so "name=Ada Lovelace email=ada@example.com" has two fields.
// Blank args give an empty map, which submits a form that has no fields.
func parseFormValues(args string) (map[string]string, error) {
	values := make(map[string]string)
	last := ""
	for _, word := range strings.Fields(args) {
		key, value, ok := strings.Cut(word, "=")
		if !ok {
			if last == "" {
				return nil, fmt.Errorf("expected name=value, got %q", word)
			}
			values[last] += " " + word
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("missing field name in %q", word)
		}
		values[key] = value
		last = key
	}
	return values, nil
}

const helpText = `Commands:
  /expand            open the widget and start a session
  /collapse          close the widget and discard the conversation
  /form k=v ...      submit the active form
  /handoff           ask for a human agent
  /skin NAME         switch the channel skin
  /reload            re-read the customization file (preview only)
  /status            show the connection status
  /quit              exit
Anything else is sent as a chat message.`
