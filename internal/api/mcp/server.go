package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/devlog-ai/devlog/internal/engine"
	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// ServerVersion is reported in the MCP initialize handshake.
const ServerVersion = "1.0.0"

// Server implements the Model Context Protocol for the devlog memory store.
type Server struct {
	engine    *engine.Engine
	sessionID string
}

// NewServer creates a new MCP server around an engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		engine:    eng,
		sessionID: uuid.NewString(),
	}
	log.Printf("devlog-mcp: session ID: %s", s.sessionID)
	return s
}

// HandleRequest processes a JSON-RPC 2.0 request and returns a response.
// Protocol failures (bad JSON, unknown methods) surface as JSON-RPC errors;
// domain failures travel inside the envelope with a stable error kind.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "Parse error", err)
	}

	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version", nil)
	}

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result, err = s.handleInitialize(req.Params)
	case "initialized", "notifications/initialized":
		result = map[string]interface{}{}
	case "tools/list":
		result = MCPToolsListResult{Tools: toolCatalog()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)
	default:
		// Tool names double as native JSON-RPC methods for direct callers.
		env, known := s.dispatchTool(ctx, req.Method, req.Params)
		if !known {
			return s.errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
		}
		result = env
	}

	if err != nil {
		return s.errorResponse(req.ID, ErrCodeServerError, err.Error(), nil)
	}
	return s.successResponse(req.ID, result)
}

func (s *Server) handleInitialize(params json.RawMessage) (interface{}, error) {
	var p MCPInitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid initialize params: %w", err)
		}
	}
	if p.ClientInfo.Name != "" {
		log.Printf("devlog-mcp: client connected: %s %s", p.ClientInfo.Name, p.ClientInfo.Version)
	}

	return MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities:    MCPServerCapabilities{Tools: &MCPToolsCapability{}},
		ServerInfo:      MCPServerInfo{Name: "devlog", Version: ServerVersion},
	}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p MCPToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid tools/call params: %w", err)
	}

	env, known := s.dispatchTool(ctx, p.Name, p.Arguments)
	if !known {
		return nil, fmt.Errorf("unknown tool: %s", p.Name)
	}

	text, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: string(text)}},
		IsError: !env.OK,
	}, nil
}

// dispatchTool routes a tool name to its handler. The second return value is
// false for unknown tools.
func (s *Server) dispatchTool(ctx context.Context, name string, args json.RawMessage) (Envelope, bool) {
	switch name {
	case "set_project_brief":
		return s.setProjectBrief(ctx, args), true
	case "get_project_brief":
		return s.getProjectBrief(ctx), true
	case "set_tech_stack":
		return s.setTechStack(ctx, args), true
	case "get_tech_stack":
		return s.getTechStack(ctx), true
	case "update_active_context":
		return s.updateActiveContext(ctx, args), true
	case "get_active_context":
		return s.getActiveContext(ctx), true
	case "log_decision":
		return s.logDecision(ctx, args), true
	case "list_decisions":
		return s.listDecisions(ctx, args), true
	case "create_task":
		return s.createTask(ctx, args), true
	case "update_task_status":
		return s.updateTaskStatus(ctx, args), true
	case "list_tasks":
		return s.listTasks(ctx, args), true
	case "start_working_on":
		return s.startWorkingOn(ctx, args), true
	case "end_work_session":
		return s.endWorkSession(ctx, args), true
	case "how_was_my_day":
		return s.howWasMyDay(ctx, args), true
	case "search_memory":
		return s.searchMemory(ctx, args), true
	case "save_memory":
		return s.saveMemory(ctx, args), true
	case "force_close_stale_sessions":
		return s.forceCloseStaleSessions(ctx, args), true
	default:
		return Envelope{}, false
	}
}

// ok wraps a payload in a success envelope.
func ok(payload interface{}) Envelope {
	return Envelope{OK: true, Payload: payload}
}

// fail wraps an error in a failure envelope with its stable kind.
func fail(err error) Envelope {
	return Envelope{OK: false, ErrorKind: storage.KindOf(err), Error: err.Error()}
}

// badArgs is the failure envelope for undecodable tool arguments.
func badArgs(err error) Envelope {
	return Envelope{OK: false, ErrorKind: storage.KindValidation, Error: "invalid arguments: " + err.Error()}
}

func (s *Server) setProjectBrief(ctx context.Context, raw json.RawMessage) Envelope {
	var args SetProjectBriefArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	brief, err := s.engine.SetProjectBrief(ctx, args.Name, args.Description, args.Goals)
	if err != nil {
		return fail(err)
	}
	return ok(brief)
}

func (s *Server) getProjectBrief(ctx context.Context) Envelope {
	brief, err := s.engine.GetProjectBrief(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(brief)
}

func (s *Server) setTechStack(ctx context.Context, raw json.RawMessage) Envelope {
	var args SetTechStackArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	stack, err := s.engine.SetTechStack(ctx, args.Technologies)
	if err != nil {
		return fail(err)
	}
	return ok(stack)
}

func (s *Server) getTechStack(ctx context.Context) Envelope {
	stack, err := s.engine.GetTechStack(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(stack)
}

func (s *Server) updateActiveContext(ctx context.Context, raw json.RawMessage) Envelope {
	var args UpdateActiveContextArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	ac, err := s.engine.UpdateActiveContext(ctx, args.Value)
	if err != nil {
		return fail(err)
	}
	return ok(ac)
}

func (s *Server) getActiveContext(ctx context.Context) Envelope {
	ac, err := s.engine.GetActiveContext(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(ac)
}

func (s *Server) logDecision(ctx context.Context, raw json.RawMessage) Envelope {
	var args LogDecisionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	d, err := s.engine.LogDecision(ctx, args.Title, args.Rationale)
	if err != nil {
		return fail(err)
	}
	return ok(d)
}

func (s *Server) listDecisions(ctx context.Context, raw json.RawMessage) Envelope {
	var args ListDecisionsArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return badArgs(err)
		}
	}
	decisions, err := s.engine.ListDecisions(ctx, args.Limit)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]interface{}{"decisions": decisions, "total": len(decisions)})
}

func (s *Server) createTask(ctx context.Context, raw json.RawMessage) Envelope {
	var args CreateTaskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	t, err := s.engine.CreateTask(ctx, args.Title, args.Description)
	if err != nil {
		return fail(err)
	}
	return ok(t)
}

func (s *Server) updateTaskStatus(ctx context.Context, raw json.RawMessage) Envelope {
	var args UpdateTaskStatusArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	t, err := s.engine.UpdateTaskStatus(ctx, args.ID, types.TaskStatus(args.Status))
	if err != nil {
		return fail(err)
	}
	return ok(t)
}

func (s *Server) listTasks(ctx context.Context, raw json.RawMessage) Envelope {
	var args ListTasksArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return badArgs(err)
		}
	}
	tasks, err := s.engine.ListTasks(ctx, types.TaskStatus(args.Status), args.Limit)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]interface{}{"tasks": tasks, "total": len(tasks)})
}

func (s *Server) startWorkingOn(ctx context.Context, raw json.RawMessage) Envelope {
	var args StartWorkingOnArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	session, err := s.engine.StartWorkingOn(ctx, args.Task)
	if err != nil {
		return fail(err)
	}
	return ok(SessionResult{Session: session})
}

func (s *Server) endWorkSession(ctx context.Context, raw json.RawMessage) Envelope {
	var args EndWorkSessionArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return badArgs(err)
		}
	}
	session, queued, err := s.engine.EndWorkSession(ctx, args.Learnings, args.Challenges, args.Note)
	if err != nil {
		return fail(err)
	}
	return ok(SessionResult{
		Session:          session,
		DurationMinutes:  int(session.Duration() / time.Minute),
		ReflectionQueued: queued,
	})
}

func (s *Server) howWasMyDay(ctx context.Context, raw json.RawMessage) Envelope {
	var args HowWasMyDayArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return badArgs(err)
		}
	}
	summary, err := s.engine.HowWasMyDay(ctx, args.Date)
	if err != nil {
		return fail(err)
	}
	return ok(summary)
}

func (s *Server) searchMemory(ctx context.Context, raw json.RawMessage) Envelope {
	var args SearchMemoryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}

	filter := storage.SearchFilter{
		Query:       args.Query,
		EntityTypes: args.EntityTypes,
		Limit:       args.Limit,
	}
	var err error
	if filter.From, err = parseTimeArg(args.From); err != nil {
		return fail(fmt.Errorf("%w: invalid 'from' timestamp %q", storage.ErrValidation, args.From))
	}
	if filter.To, err = parseTimeArg(args.To); err != nil {
		return fail(fmt.Errorf("%w: invalid 'to' timestamp %q", storage.ErrValidation, args.To))
	}
	for _, et := range args.EntityTypes {
		if !types.IsValidEntityType(et) {
			return fail(fmt.Errorf("%w: unknown entity type %q", storage.ErrValidation, et))
		}
	}

	results, degraded, err := s.engine.SearchMemory(ctx, filter)
	if err != nil {
		return fail(err)
	}
	return ok(SearchMemoryResult{Results: results, Degraded: degraded, Total: len(results)})
}

func (s *Server) saveMemory(ctx context.Context, raw json.RawMessage) Envelope {
	var args SaveMemoryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return badArgs(err)
	}
	entry, err := s.engine.SaveMemory(ctx, args.Content)
	if err != nil {
		return fail(err)
	}
	return ok(entry)
}

func (s *Server) forceCloseStaleSessions(ctx context.Context, raw json.RawMessage) Envelope {
	var args ForceCloseStaleSessionsArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return badArgs(err)
		}
	}
	closed, err := s.engine.ForceCloseStaleSessions(ctx, time.Duration(args.MaxAgeHours)*time.Hour)
	if err != nil {
		return fail(err)
	}
	return ok(ForceCloseStaleSessionsResult{Closed: closed})
}

// parseTimeArg parses an optional RFC-3339 timestamp argument.
func parseTimeArg(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: id})
}

func (s *Server) errorResponse(id interface{}, code int, message string, err error) ([]byte, error) {
	rpcErr := &JSONRPCError{Code: code, Message: message}
	if err != nil {
		rpcErr.Data = err.Error()
	}
	return json.Marshal(JSONRPCResponse{JSONRPC: "2.0", Error: rpcErr, ID: id})
}
