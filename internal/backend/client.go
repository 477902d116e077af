// Package backend provides a REST client for the platform endpoints the widget consumes.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xiaot623/gogo/widget/internal/customization"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
}

// errorResponse is the backend's JSON error body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Client is an HTTP client for the backend REST API.
type Client struct {
	http *resty.Client
}

// NewClient creates a client rooted at baseURL. A zero timeout leaves
// requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{http: rc}
}

// Handoff asks the backend to route the session to a human agent.
// POST /api/v1/conversations/{sessionId}/handoff
func (c *Client) Handoff(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	res, err := c.http.R().
		SetContext(ctx).
		Post("/api/v1/conversations/" + url.PathEscape(sessionID) + "/handoff")
	if err != nil {
		return fmt.Errorf("failed to request handoff: %w", err)
	}
	if !res.IsSuccess() {
		return newError("handoff", res)
	}
	return nil
}

// GetCustomization fetches the saved widget customization of an agent.
// GET /api/v1/agents/{agentId}/customization
func (c *Client) GetCustomization(ctx context.Context, agentID string) (customization.Customization, error) {
	var out customization.Customization
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/agents/" + url.PathEscape(agentID) + "/customization")
	if err != nil {
		return customization.Customization{}, fmt.Errorf("failed to fetch customization: %w", err)
	}
	if !res.IsSuccess() {
		return customization.Customization{}, newError("get customization", res)
	}
	return out, nil
}

// SaveCustomization stores the widget customization of an agent.
// PUT /api/v1/agents/{agentId}/customization
func (c *Client) SaveCustomization(ctx context.Context, agentID string, cust customization.Customization) error {
	if err := cust.Validate(); err != nil {
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(cust).
		Put("/api/v1/agents/" + url.PathEscape(agentID) + "/customization")
	if err != nil {
		return fmt.Errorf("failed to save customization: %w", err)
	}
	if !res.IsSuccess() {
		return newError("save customization", res)
	}
	return nil
}

func newError(op string, res *resty.Response) *Error {
	e := &Error{Op: op, StatusCode: res.StatusCode()}
	var body errorResponse
	if json.Unmarshal(res.Body(), &body) == nil {
		if body.Error != "" {
			e.Message = body.Error
		} else {
			e.Message = body.Detail
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(res.String())
	}
	return e
}
