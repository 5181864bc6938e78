// Package mcp implements the Model Context Protocol server for the devlog
// memory store. It exposes JSON-RPC 2.0 based tools for recording project
// metadata, decisions, tasks, work sessions, and for searching memory.
package mcp

import (
	"encoding/json"
	"strings"

	"github.com/devlog-ai/devlog/internal/engine"
	"github.com/devlog-ai/devlog/pkg/types"
)

// Envelope is the uniform tool result wrapper. Callers branch on ErrorKind,
// which carries one of the stable kind strings from the storage package.
type Envelope struct {
	OK        bool        `json:"ok"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Error     string      `json:"error,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SetProjectBriefArgs contains arguments for the set_project_brief tool.
type SetProjectBriefArgs struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Goals       []string `json:"goals,omitempty"`
}

// UnmarshalJSON accepts goals either as a JSON array or as a JSON-encoded
// string array; some MCP clients send list arguments in the latter form.
func (a *SetProjectBriefArgs) UnmarshalJSON(data []byte) error {
	type Alias SetProjectBriefArgs
	aux := &struct {
		Goals json.RawMessage `json:"goals,omitempty"`
		*Alias
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	a.Goals = flexibleStringList(aux.Goals)
	return nil
}

// SetTechStackArgs contains arguments for the set_tech_stack tool.
type SetTechStackArgs struct {
	Technologies []string `json:"technologies"`
}

// UnmarshalJSON accepts technologies as an array or a JSON-encoded string.
func (a *SetTechStackArgs) UnmarshalJSON(data []byte) error {
	type Alias SetTechStackArgs
	aux := &struct {
		Technologies json.RawMessage `json:"technologies,omitempty"`
		*Alias
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	a.Technologies = flexibleStringList(aux.Technologies)
	return nil
}

// UpdateActiveContextArgs contains arguments for the update_active_context tool.
type UpdateActiveContextArgs struct {
	Value string `json:"value"`
}

// LogDecisionArgs contains arguments for the log_decision tool.
type LogDecisionArgs struct {
	Title     string `json:"title"`
	Rationale string `json:"rationale,omitempty"`
}

// ListDecisionsArgs contains arguments for the list_decisions tool.
type ListDecisionsArgs struct {
	Limit int `json:"limit,omitempty"`
}

// CreateTaskArgs contains arguments for the create_task tool.
type CreateTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTaskStatusArgs contains arguments for the update_task_status tool.
type UpdateTaskStatusArgs struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListTasksArgs contains arguments for the list_tasks tool.
type ListTasksArgs struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// StartWorkingOnArgs contains arguments for the start_working_on tool.
type StartWorkingOnArgs struct {
	Task string `json:"task"`
}

// EndWorkSessionArgs contains arguments for the end_work_session tool.
type EndWorkSessionArgs struct {
	Learnings  []string `json:"learnings,omitempty"`
	Challenges []string `json:"challenges,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// UnmarshalJSON accepts both list fields as arrays or JSON-encoded strings.
func (a *EndWorkSessionArgs) UnmarshalJSON(data []byte) error {
	type Alias EndWorkSessionArgs
	aux := &struct {
		Learnings  json.RawMessage `json:"learnings,omitempty"`
		Challenges json.RawMessage `json:"challenges,omitempty"`
		*Alias
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	a.Learnings = flexibleStringList(aux.Learnings)
	a.Challenges = flexibleStringList(aux.Challenges)
	return nil
}

// HowWasMyDayArgs contains arguments for the how_was_my_day tool.
type HowWasMyDayArgs struct {
	// Date is a "2006-01-02" journal date. Empty means today.
	Date string `json:"date,omitempty"`
}

// SearchMemoryArgs contains arguments for the search_memory tool.
type SearchMemoryArgs struct {
	Query string `json:"query"`

	// EntityTypes restricts results (brief, decision, task, note,
	// reflection). Empty means all.
	EntityTypes []string `json:"entity_types,omitempty"`

	// From and To are RFC-3339 timestamps bounding entity creation time.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Limit int `json:"limit,omitempty"`
}

// UnmarshalJSON accepts entity_types as an array or JSON-encoded string.
func (a *SearchMemoryArgs) UnmarshalJSON(data []byte) error {
	type Alias SearchMemoryArgs
	aux := &struct {
		EntityTypes json.RawMessage `json:"entity_types,omitempty"`
		*Alias
	}{Alias: (*Alias)(a)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	a.EntityTypes = flexibleStringList(aux.EntityTypes)
	return nil
}

// SearchMemoryResult contains the result of a search_memory call.
type SearchMemoryResult struct {
	Results []engine.SearchResult `json:"results"`

	// Degraded is true when semantic search was unavailable and only
	// keyword matching ran.
	Degraded bool `json:"degraded"`

	Total int `json:"total"`
}

// SaveMemoryArgs contains arguments for the save_memory tool.
type SaveMemoryArgs struct {
	Content string `json:"content"`
}

// ForceCloseStaleSessionsArgs contains arguments for the
// force_close_stale_sessions tool.
type ForceCloseStaleSessionsArgs struct {
	// MaxAgeHours overrides the configured stale-session age when > 0.
	MaxAgeHours int `json:"max_age_hours,omitempty"`
}

// ForceCloseStaleSessionsResult reports how many sessions were closed.
type ForceCloseStaleSessionsResult struct {
	Closed int `json:"closed"`
}

// SessionResult is the payload for session lifecycle tools.
type SessionResult struct {
	Session *types.WorkSession `json:"session"`

	// DurationMinutes is set when the session is closed.
	DurationMinutes int `json:"duration_minutes,omitempty"`

	// ReflectionQueued reports whether a reflection will be generated.
	ReflectionQueued bool `json:"reflection_queued,omitempty"`
}

// flexibleStringList decodes a JSON value that is either an array of strings,
// a JSON-encoded string array, or a comma-separated string.
func flexibleStringList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		_ = json.Unmarshal([]byte(s), &list)
		return list
	}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      interface{}   `json:"id"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
	ErrCodeServerError    = -32000
)

// ---------------------------------------------------------------------------
// Standard MCP protocol types (initialize / tools/list / tools/call)
// ---------------------------------------------------------------------------

// MCPInitializeParams holds the parameters of the initialize request.
type MCPInitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities,omitempty"`
	ClientInfo      MCPClientInfo          `json:"clientInfo"`
}

// MCPClientInfo identifies the connecting MCP client.
type MCPClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPServerInfo identifies this MCP server.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPServerCapabilities describes what this server supports.
type MCPServerCapabilities struct {
	Tools *MCPToolsCapability `json:"tools,omitempty"`
}

// MCPToolsCapability signals that the server exposes tools.
type MCPToolsCapability struct{}

// MCPInitializeResult is the response to the initialize request.
type MCPInitializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    MCPServerCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo         `json:"serverInfo"`
}

// MCPTool describes a single tool exposed via tools/list.
type MCPTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// MCPToolsListResult is the response to tools/list.
type MCPToolsListResult struct {
	Tools []MCPTool `json:"tools"`
}

// MCPToolCallParams holds the parameters of a tools/call request.
type MCPToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// MCPToolCallContent is a single content block in a tool call response.
type MCPToolCallContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCPToolCallResult is the response to a tools/call request.
type MCPToolCallResult struct {
	Content []MCPToolCallContent `json:"content"`
	IsError bool                 `json:"isError,omitempty"`
}
