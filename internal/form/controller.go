// Package form tracks the structured input request pushed by the backend mid-conversation.
package form

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xiaot623/gogo/widget/internal/protocol"
)

// FallbackTitle is announced when a form push carries no title.
const FallbackTitle = "Please fill out the form below."

// Input types with dedicated validation. Any other type only requires a value.
const (
	TypeText   = "text"
	TypeEmail  = "email"
	TypeNumber = "number"
	TypeTel    = "tel"
	TypeURL    = "url"
	TypeDate   = "date"
)

// ErrNoActiveForm is returned when submitting without an active form.
var ErrNoActiveForm = errors.New("no active form")

var telPattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{3,}$`)

// Request is an active form request.
type Request struct {
	Title  string
	Fields []protocol.FormField
}

// FieldError reports an invalid or missing field value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Controller holds at most one active form request.
type Controller struct {
	mu     sync.Mutex
	active *Request
}

// NewController creates a controller with no active form.
func NewController() *Controller {
	return &Controller{}
}

// Activate sets the active form, replacing any previous one.
func (c *Controller) Activate(title string, fields []protocol.FormField) Request {
	req := Request{
		Title:  title,
		Fields: append([]protocol.FormField(nil), fields...),
	}

	c.mu.Lock()
	c.active = &req
	c.mu.Unlock()
	return req
}

// Active returns a copy of the active form.
func (c *Controller) Active() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Request{}, false
	}
	return Request{
		Title:  c.active.Title,
		Fields: append([]protocol.FormField(nil), c.active.Fields...),
	}, true
}

// Clear drops the active form.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
}

// Validate checks values against the active form.
func (c *Controller) Validate(values map[string]string) error {
	req, ok := c.Active()
	if !ok {
		return ErrNoActiveForm
	}
	_, err := req.Collect(values)
	return err
}

// Submit validates values against the active form, clears it, and returns the
// field map restricted to the declared fields. An invalid submission keeps the form.
func (c *Controller) Submit(values map[string]string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return nil, ErrNoActiveForm
	}
	out, err := c.active.Collect(values)
	if err != nil {
		return nil, err
	}
	c.active = nil
	return out, nil
}

// Collect validates values and returns the declared fields only, trimmed.
func (r *Request) Collect(values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(r.Fields))
	for _, field := range r.Fields {
		value := strings.TrimSpace(values[field.Name])
		if value == "" {
			return nil, &FieldError{Field: field.Name, Reason: "required"}
		}
		if err := checkType(field.Type, value); err != nil {
			return nil, &FieldError{Field: field.Name, Reason: err.Error()}
		}
		out[field.Name] = value
	}
	return out, nil
}

func checkType(inputType, value string) error {
	switch strings.ToLower(inputType) {
	case TypeEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return errors.New("invalid email address")
		}
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return errors.New("invalid number")
		}
	case TypeTel:
		if !telPattern.MatchString(value) {
			return errors.New("invalid phone number")
		}
	case TypeURL:
		u, err := url.ParseRequestURI(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("invalid url")
		}
	case TypeDate:
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return errors.New("invalid date, expected YYYY-MM-DD")
		}
	}
	return nil
}
