package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlog-ai/devlog/internal/engine"
	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err, "Open(:memory:)")
	t.Cleanup(func() { _ = store.Close() })

	eng, err := engine.New(store, nil, nil, nil, engine.DefaultConfig())
	require.NoError(t, err, "engine.New")

	return NewServer(eng)
}

// call sends a JSON-RPC request and decodes the response.
func call(t *testing.T, srv *Server, request string) JSONRPCResponse {
	t.Helper()

	respJSON, err := srv.HandleRequest(context.Background(), []byte(request))
	require.NoError(t, err, "HandleRequest")

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(respJSON, &resp), "unmarshal response")
	return resp
}

// callTool invokes a tool through tools/call and decodes the envelope from
// the text content block.
func callTool(t *testing.T, srv *Server, name, args string) Envelope {
	t.Helper()

	request := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"` + name + `","arguments":` + args + `}}`
	resp := call(t, srv, request)
	require.Nil(t, resp.Error, "tools/call %s returned protocol error", name)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result MCPToolCallResult
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Content, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &env))
	return env
}

func TestHandleRequestParseError(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParseError, resp.Error.Code)
}

func TestHandleRequestInvalidVersion(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRequest, resp.Error.Code)
}

func TestHandleRequestMethodNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"2.0","id":1,"method":"no_such_method"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestInitialize(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test-client","version":"0.1"}}}`)
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result MCPInitializeResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "devlog", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result MCPToolsListResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Len(t, result.Tools, 17)

	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		assert.NotEmpty(t, tool.Description, "tool %s has no description", tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s has no schema", tool.Name)
		names[tool.Name] = true
	}
	for _, want := range []string{"set_project_brief", "update_active_context", "search_memory", "start_working_on", "force_close_stale_sessions"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestProjectBriefTools(t *testing.T) {
	srv := newTestServer(t)

	// Reading before any write reports not_found in the envelope.
	env := callTool(t, srv, "get_project_brief", `{}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindNotFound, env.ErrorKind)

	env = callTool(t, srv, "set_project_brief", `{"name":"devlog","description":"memory for agents","goals":["persist decisions"]}`)
	require.True(t, env.OK, "set_project_brief failed: %s", env.Error)

	env = callTool(t, srv, "get_project_brief", `{}`)
	require.True(t, env.OK)

	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"devlog"`)
}

func TestTaskToolsErrorKinds(t *testing.T) {
	srv := newTestServer(t)

	env := callTool(t, srv, "create_task", `{"title":"wire the envelope"}`)
	require.True(t, env.OK, "create_task failed: %s", env.Error)

	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var task struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(payload, &task))

	// pending -> done skips in_progress.
	env = callTool(t, srv, "update_task_status", `{"id":"`+task.ID+`","status":"done"}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindInvalidTransition, env.ErrorKind)

	env = callTool(t, srv, "update_task_status", `{"id":"task:missing","status":"in_progress"}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindNotFound, env.ErrorKind)

	env = callTool(t, srv, "create_task", `{}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindValidation, env.ErrorKind)
}

func TestSessionToolsErrorKinds(t *testing.T) {
	srv := newTestServer(t)

	env := callTool(t, srv, "end_work_session", `{}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindNoActiveSession, env.ErrorKind)

	env = callTool(t, srv, "start_working_on", `{"task":"first session"}`)
	require.True(t, env.OK, "start_working_on failed: %s", env.Error)

	env = callTool(t, srv, "start_working_on", `{"task":"second session"}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindSessionActive, env.ErrorKind)

	env = callTool(t, srv, "end_work_session", `{"learnings":["envelope kinds are stable"]}`)
	require.True(t, env.OK, "end_work_session failed: %s", env.Error)

	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var result SessionResult
	require.NoError(t, json.Unmarshal(payload, &result))
	require.NotNil(t, result.Session)
	assert.NotNil(t, result.Session.EndTime)
	assert.False(t, result.ReflectionQueued, "no text generator configured")
}

func TestSearchMemoryToolValidation(t *testing.T) {
	srv := newTestServer(t)

	env := callTool(t, srv, "search_memory", `{"query":"anything","from":"yesterday"}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindValidation, env.ErrorKind)

	env = callTool(t, srv, "search_memory", `{"query":"anything","entity_types":["widget"]}`)
	require.False(t, env.OK)
	assert.Equal(t, storage.KindValidation, env.ErrorKind)
}

func TestSearchMemoryTool(t *testing.T) {
	srv := newTestServer(t)

	env := callTool(t, srv, "save_memory", `{"content":"the scanner buffer needs four megabytes"}`)
	require.True(t, env.OK, "save_memory failed: %s", env.Error)

	env = callTool(t, srv, "search_memory", `{"query":"scanner buffer"}`)
	require.True(t, env.OK, "search_memory failed: %s", env.Error)

	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var result SearchMemoryResult
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, 1, result.Total)
	assert.True(t, result.Degraded, "no embedder configured")
}

func TestToolsCallIsErrorFlag(t *testing.T) {
	srv := newTestServer(t)

	request := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_project_brief","arguments":{}}}`
	resp := call(t, srv, request)
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result MCPToolCallResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.IsError, "not_found envelope should set isError")
}

func TestNativeMethodDispatch(t *testing.T) {
	srv := newTestServer(t)

	// Tool names work as plain JSON-RPC methods for non-MCP callers.
	resp := call(t, srv, `{"jsonrpc":"2.0","id":7,"method":"log_decision","params":{"title":"expose native methods","rationale":"simpler scripting"}}`)
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.True(t, env.OK)
}

func TestUnknownToolViaToolsCall(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeServerError, resp.Error.Code)
}
