package conn

import (
	"fmt"
	"net/url"
	"strings"
)

// Identity scopes a widget session on the backend.
type Identity struct {
	CompanyID string
	AgentID   string
	SessionID string
}

// Validate checks that every identity component is present.
func (id Identity) Validate() error {
	switch {
	case id.CompanyID == "":
		return fmt.Errorf("company id is required")
	case id.AgentID == "":
		return fmt.Errorf("agent id is required")
	case id.SessionID == "":
		return fmt.Errorf("session id is required")
	}
	return nil
}

// Address derives the duplex connection address from the REST base URL:
// scheme://host/ws/public/{companyId}/{agentId}/{sessionId}?user_type=user.
func Address(baseURL string, id Identity) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid backend url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("backend url has no host: %q", baseURL)
	}

	base := u.EscapedPath()
	u.Path = u.Path + "/ws/public/" + id.CompanyID + "/" + id.AgentID + "/" + id.SessionID
	u.RawPath = base + "/ws/public/" +
		url.PathEscape(id.CompanyID) + "/" +
		url.PathEscape(id.AgentID) + "/" +
		url.PathEscape(id.SessionID)
	u.RawQuery = url.Values{"user_type": {"user"}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}
