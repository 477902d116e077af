package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressSchemes(t *testing.T) {
	id := Identity{CompanyID: "c1", AgentID: "a1", SessionID: "s1"}

	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws/public/c1/a1/s1?user_type=user"},
		{"https://api.example.com/", "wss://api.example.com/ws/public/c1/a1/s1?user_type=user"},
		{"https://api.example.com/chat", "wss://api.example.com/chat/ws/public/c1/a1/s1?user_type=user"},
		{"wss://edge.example.com", "wss://edge.example.com/ws/public/c1/a1/s1?user_type=user"},
	}
	for _, tc := range cases {
		got, err := Address(tc.base, id)
		require.NoError(t, err, tc.base)
		assert.Equal(t, tc.want, got)
	}
}

func TestAddressEscapesSegments(t *testing.T) {
	got, err := Address("http://localhost", Identity{CompanyID: "acme inc", AgentID: "a/1", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost/ws/public/acme%20inc/a%2F1/s1?user_type=user", got)
}

func TestAddressErrors(t *testing.T) {
	id := Identity{CompanyID: "c1", AgentID: "a1", SessionID: "s1"}

	_, err := Address("ftp://example.com", id)
	assert.Error(t, err)

	_, err = Address("http://", id)
	assert.Error(t, err)

	_, err = Address("http://localhost", Identity{CompanyID: "c1", AgentID: "a1"})
	assert.Error(t, err)
}
