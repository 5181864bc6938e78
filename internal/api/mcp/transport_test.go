package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioTransportServe(t *testing.T) {
	srv := newTestServer(t)

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n" +
			"\n" + // blank lines are skipped
			`{"jsonrpc":"2.0","id":2,"method":"get_active_context"}` + "\n")
	var out bytes.Buffer

	transport := NewStdioTransport(srv, in, &out)
	require.NoError(t, transport.Serve(context.Background()), "Serve should return nil when stdin closes")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "one response line per request")

	for i, line := range lines {
		var resp JSONRPCResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "line %d is not valid JSON", i)
		assert.Equal(t, "2.0", resp.JSONRPC)
		assert.Nil(t, resp.Error)
	}
}

func TestStdioTransportCancelledContext(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := NewStdioTransport(srv, strings.NewReader(""), &bytes.Buffer{})
	err := transport.Serve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInternalErrorResponseRecoversID(t *testing.T) {
	srv := newTestServer(t)
	transport := NewStdioTransport(srv, strings.NewReader(""), &bytes.Buffer{})

	raw := transport.internalErrorResponse([]byte(`{"jsonrpc":"2.0","id":42,"method":"x"}`), assert.AnError)

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
	assert.Equal(t, float64(42), resp.ID)
}
