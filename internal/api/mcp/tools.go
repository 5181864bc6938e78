package mcp

// toolCatalog returns the tool descriptors served by tools/list. Schemas are
// deliberately minimal: required fields plus short descriptions, which is all
// MCP clients need to call the tools correctly.
func toolCatalog() []MCPTool {
	strProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	intProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc}
	}
	listProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": desc,
		}
	}
	schema := func(required []string, props map[string]interface{}) map[string]interface{} {
		s := map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			s["required"] = required
		}
		return s
	}

	return []MCPTool{
		{
			Name:        "set_project_brief",
			Description: "Create or overwrite the project brief (name, description, goals).",
			InputSchema: schema([]string{"name", "description"}, map[string]interface{}{
				"name":        strProp("Project name"),
				"description": strProp("What the project is"),
				"goals":       listProp("Project goals"),
			}),
		},
		{
			Name:        "get_project_brief",
			Description: "Return the current project brief.",
			InputSchema: schema(nil, map[string]interface{}{}),
		},
		{
			Name:        "set_tech_stack",
			Description: "Create or overwrite the list of technologies in use.",
			InputSchema: schema([]string{"technologies"}, map[string]interface{}{
				"technologies": listProp("Technology names"),
			}),
		},
		{
			Name:        "get_tech_stack",
			Description: "Return the current technology list.",
			InputSchema: schema(nil, map[string]interface{}{}),
		},
		{
			Name:        "update_active_context",
			Description: "Replace the active working context. Concurrent updates are retried and may fail with concurrency_conflict.",
			InputSchema: schema([]string{"value"}, map[string]interface{}{
				"value": strProp("The new working context text"),
			}),
		},
		{
			Name:        "get_active_context",
			Description: "Return the active working context and its version.",
			InputSchema: schema(nil, map[string]interface{}{}),
		},
		{
			Name:        "log_decision",
			Description: "Append an immutable entry to the decision log.",
			InputSchema: schema([]string{"title"}, map[string]interface{}{
				"title":     strProp("Short decision title"),
				"rationale": strProp("Why the decision was made"),
			}),
		},
		{
			Name:        "list_decisions",
			Description: "List logged decisions, newest first.",
			InputSchema: schema(nil, map[string]interface{}{
				"limit": intProp("Maximum results (default 50)"),
			}),
		},
		{
			Name:        "create_task",
			Description: "Create a new task in pending status.",
			InputSchema: schema([]string{"title"}, map[string]interface{}{
				"title":       strProp("Task title"),
				"description": strProp("Task description"),
			}),
		},
		{
			Name:        "update_task_status",
			Description: "Move a task through its lifecycle: pending, in_progress, done, cancelled. Illegal transitions fail with invalid_transition.",
			InputSchema: schema([]string{"id", "status"}, map[string]interface{}{
				"id":     strProp("Task ID"),
				"status": strProp("New status (pending, in_progress, done, cancelled)"),
			}),
		},
		{
			Name:        "list_tasks",
			Description: "List tasks, newest first, optionally filtered by status.",
			InputSchema: schema(nil, map[string]interface{}{
				"status": strProp("Filter by status (empty for all)"),
				"limit":  intProp("Maximum results (default 50)"),
			}),
		},
		{
			Name:        "start_working_on",
			Description: "Open a work session for a task. Fails with session_already_active while another session is open.",
			InputSchema: schema([]string{"task"}, map[string]interface{}{
				"task": strProp("What you are working on"),
			}),
		},
		{
			Name:        "end_work_session",
			Description: "Close the open work session, recording learnings, challenges, and a note. Long sessions get a background reflection.",
			InputSchema: schema(nil, map[string]interface{}{
				"learnings":  listProp("Things learned this session"),
				"challenges": listProp("Difficulties hit this session"),
				"note":       strProp("Free-form closing note"),
			}),
		},
		{
			Name:        "how_was_my_day",
			Description: "Summarize a day's journal: sessions, total time, learnings, challenges, and reflections.",
			InputSchema: schema(nil, map[string]interface{}{
				"date": strProp("Journal date YYYY-MM-DD (default: today)"),
			}),
		},
		{
			Name:        "search_memory",
			Description: "Hybrid semantic + keyword search over briefs, decisions, tasks, notes, and reflections.",
			InputSchema: schema([]string{"query"}, map[string]interface{}{
				"query":        strProp("Free-text query"),
				"entity_types": listProp("Restrict to entity types (brief, decision, task, note, reflection)"),
				"from":         strProp("RFC-3339 lower bound on creation time"),
				"to":           strProp("RFC-3339 upper bound on creation time"),
				"limit":        intProp("Maximum results (default 10, max 100)"),
			}),
		},
		{
			Name:        "save_memory",
			Description: "Store a free-form memory note.",
			InputSchema: schema([]string{"content"}, map[string]interface{}{
				"content": strProp("The note text"),
			}),
		},
		{
			Name:        "force_close_stale_sessions",
			Description: "Maintenance: close open sessions older than the stale threshold.",
			InputSchema: schema(nil, map[string]interface{}{
				"max_age_hours": intProp("Override the stale-session age in hours"),
			}),
		},
	}
}
