package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/widget/internal/protocol"
)

var emailField = protocol.FormField{Name: "email", Label: "Email", Type: "email"}

func TestActivateReplacesExisting(t *testing.T) {
	c := NewController()
	c.Activate("first", []protocol.FormField{emailField})
	c.Activate("second", []protocol.FormField{
		{Name: "name", Label: "Name", Type: "text"},
		{Name: "age", Label: "Age", Type: "number"},
	})

	req, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "second", req.Title)
	assert.Len(t, req.Fields, 2)
}

func TestSubmitClearsForm(t *testing.T) {
	c := NewController()
	c.Activate("Contact", []protocol.FormField{emailField})

	values, err := c.Submit(map[string]string{"email": "a@b.com", "extra": "dropped"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "a@b.com"}, values)

	_, ok := c.Active()
	assert.False(t, ok)
}

func TestSubmitInvalidKeepsForm(t *testing.T) {
	c := NewController()
	c.Activate("Contact", []protocol.FormField{emailField})

	_, err := c.Submit(map[string]string{"email": "not-an-email"})
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "email", fieldErr.Field)

	_, ok := c.Active()
	assert.True(t, ok)
}

func TestSubmitWithoutForm(t *testing.T) {
	c := NewController()
	_, err := c.Submit(map[string]string{})
	assert.ErrorIs(t, err, ErrNoActiveForm)
	assert.ErrorIs(t, c.Validate(nil), ErrNoActiveForm)
}

func TestCollectRequiredAndTyped(t *testing.T) {
	req := Request{Fields: []protocol.FormField{
		{Name: "email", Type: "email"},
		{Name: "age", Type: "number"},
		{Name: "phone", Type: "tel"},
		{Name: "site", Type: "url"},
		{Name: "day", Type: "date"},
		{Name: "note", Type: "textarea"},
	}}
	valid := map[string]string{
		"email": "a@b.com",
		"age":   "42",
		"phone": "+1 (555) 010-2000",
		"site":  "https://example.com",
		"day":   "2026-10-19",
		"note":  " hi ",
	}

	out, err := req.Collect(valid)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["note"])

	cases := map[string]string{
		"email": "a@",
		"age":   "forty",
		"phone": "call me",
		"site":  "example",
		"day":   "19/10/2026",
		"note":  "   ",
	}
	for field, bad := range cases {
		t.Run(field, func(t *testing.T) {
			values := make(map[string]string, len(valid))
			for k, v := range valid {
				values[k] = v
			}
			values[field] = bad

			_, err := req.Collect(values)
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, field, fieldErr.Field)
		})
	}
}

func TestActiveReturnsCopy(t *testing.T) {
	c := NewController()
	c.Activate("Contact", []protocol.FormField{emailField})

	req, _ := c.Active()
	req.Fields[0].Name = "changed"

	again, _ := c.Active()
	assert.Equal(t, "email", again.Fields[0].Name)
}
