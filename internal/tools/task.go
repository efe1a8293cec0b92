package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mresendiz/tempo/internal/store"
)

// ─── TaskAddTool ─────────────────────────────────────────────────────────────

// TaskAddTool handles the task_add MCP tool.
type TaskAddTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskAddTool creates a TaskAddTool with the given store.
func NewTaskAddTool(st *store.Store, defaultUser string) *TaskAddTool {
	return &TaskAddTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_add.
func (t *TaskAddTool) Definition() mcp.Tool {
	return mcp.NewTool("task_add",
		mcp.WithDescription(
			"Add a task. Category and focus level feed the pattern analyzer, so set them when known.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer free-form details"),
		),
		mcp.WithString("category",
			mcp.Description("Grouping label, e.g. admin, writing, errands"),
		),
		mcp.WithString("focus_level",
			mcp.Description("Effort classification: low, medium, or high"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority label, e.g. low, normal, urgent"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date as YYYY-MM-DD"),
		),
		mcp.WithString("user",
			mcp.Description("User the task belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_add tool call.
func (t *TaskAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	task, err := t.store.CreateTask(store.CreateTaskParams{
		UserID:      req.GetString("user", t.defaultUser),
		Title:       title,
		Description: req.GetString("description", ""),
		Category:    req.GetString("category", ""),
		FocusLevel:  strings.ToLower(req.GetString("focus_level", "")),
		Priority:    req.GetString("priority", ""),
		DueDate:     req.GetString("due_date", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add task: %v", err)), nil
	}

	response := fmt.Sprintf("Task added: %q\nID: %s", task.Title, task.ID)
	if task.DueDate != nil {
		response += fmt.Sprintf("\nDue: %s", *task.DueDate)
	}
	return mcp.NewToolResultText(response), nil
}

// ─── TaskCompleteTool ────────────────────────────────────────────────────────

// TaskCompleteTool handles the task_complete MCP tool.
type TaskCompleteTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskCompleteTool creates a TaskCompleteTool.
func NewTaskCompleteTool(st *store.Store, defaultUser string) *TaskCompleteTool {
	return &TaskCompleteTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_complete.
func (t *TaskCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_complete",
		mcp.WithDescription("Mark a task as done. Completion is logged to the event history that powers insights."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
		mcp.WithString("user",
			mcp.Description("User the task belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_complete tool call.
func (t *TaskCompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	task, err := t.store.CompleteTask(req.GetString("user", t.defaultUser), id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task completed: %q", task.Title)), nil
}

// ─── TaskSnoozeTool ──────────────────────────────────────────────────────────

// TaskSnoozeTool handles the task_snooze MCP tool.
type TaskSnoozeTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskSnoozeTool creates a TaskSnoozeTool.
func NewTaskSnoozeTool(st *store.Store, defaultUser string) *TaskSnoozeTool {
	return &TaskSnoozeTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_snooze.
func (t *TaskSnoozeTool) Definition() mcp.Tool {
	return mcp.NewTool("task_snooze",
		mcp.WithDescription("Push a task's due date forward by a number of days."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
		mcp.WithNumber("days",
			mcp.Description("Days to push the due date forward (default 1)"),
		),
		mcp.WithString("user",
			mcp.Description("User the task belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_snooze tool call.
func (t *TaskSnoozeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	task, err := t.store.SnoozeTask(req.GetString("user", t.defaultUser), id, intArg(req, "days", 1))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to snooze task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task snoozed: %q now due %s", task.Title, *task.DueDate)), nil
}

// ─── TaskUpdateTool ──────────────────────────────────────────────────────────

// TaskUpdateTool handles the task_update MCP tool.
type TaskUpdateTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskUpdateTool creates a TaskUpdateTool.
func NewTaskUpdateTool(st *store.Store, defaultUser string) *TaskUpdateTool {
	return &TaskUpdateTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_update.
func (t *TaskUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_update",
		mcp.WithDescription("Update a task's fields. Omitted fields are left unchanged."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("category",
			mcp.Description("New category"),
		),
		mcp.WithString("focus_level",
			mcp.Description("New focus level: low, medium, or high"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date as YYYY-MM-DD"),
		),
		mcp.WithString("user",
			mcp.Description("User the task belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_update tool call.
func (t *TaskUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	var params store.UpdateTaskParams
	set := func(dst **string, key string, lower bool) {
		if v, ok := req.GetArguments()[key].(string); ok {
			if lower {
				v = strings.ToLower(v)
			}
			*dst = &v
		}
	}
	set(&params.Title, "title", false)
	set(&params.Description, "description", false)
	set(&params.Category, "category", false)
	set(&params.FocusLevel, "focus_level", true)
	set(&params.Priority, "priority", false)
	set(&params.DueDate, "due_date", false)

	task, err := t.store.UpdateTask(req.GetString("user", t.defaultUser), id, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task updated: %q", task.Title)), nil
}

// ─── TaskListTool ────────────────────────────────────────────────────────────

// TaskListTool handles the task_list MCP tool.
type TaskListTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskListTool creates a TaskListTool.
func NewTaskListTool(st *store.Store, defaultUser string) *TaskListTool {
	return &TaskListTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_list.
func (t *TaskListTool) Definition() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription("List open tasks, oldest first."),
		mcp.WithString("user",
			mcp.Description("User whose tasks to list (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_list tool call.
func (t *TaskListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := t.store.OpenTasks(req.GetString("user", t.defaultUser))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}

	if len(tasks) == 0 {
		return mcp.NewToolResultText("No open tasks."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Open Tasks (%d)\n\n", len(tasks))
	for _, task := range tasks {
		line := fmt.Sprintf("- %s (id: %s", task.Title, task.ID)
		if task.Category != nil {
			line += ", " + *task.Category
		}
		if task.DueDate != nil {
			line += ", due " + *task.DueDate
		}
		line += ")"
		sb.WriteString(line + "\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── TaskDeleteTool ──────────────────────────────────────────────────────────

// TaskDeleteTool handles the task_delete MCP tool.
type TaskDeleteTool struct {
	store       *store.Store
	defaultUser string
}

// NewTaskDeleteTool creates a TaskDeleteTool.
func NewTaskDeleteTool(st *store.Store, defaultUser string) *TaskDeleteTool {
	return &TaskDeleteTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for task_delete.
func (t *TaskDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_delete",
		mcp.WithDescription("Delete a task. Its event history is kept."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task ID"),
		),
		mcp.WithString("user",
			mcp.Description("User the task belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the task_delete tool call.
func (t *TaskDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.DeleteTask(req.GetString("user", t.defaultUser), id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted.", id)), nil
}
