// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the PlanWise task list as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/pkg/models"
)

// TaskService is the part of the sync coordinator the tools drive.
type TaskService interface {
	Reload(ctx context.Context) error
	View(q models.ViewQuery) []models.Task
	Create(ctx context.Context, in models.TaskCreate) (*core.SyncResult, error)
	ToggleComplete(ctx context.Context, id string) (*core.SyncResult, error)
	Delete(ctx context.Context, id string) (*core.SyncResult, error)
	Reorder(ctx context.Context, q models.ViewQuery, oldIndex, newIndex int) (*core.SyncResult, error)
}

// Server wraps the PlanWise services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	tasks       TaskService
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	now         func() time.Time
}

// NewServer creates a new MCP server. metricsCalc and alertEngine may be nil
// when the event log is unavailable.
func NewServer(tasks TaskService, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		tasks:       tasks,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		now:         func() time.Time { return time.Now().UTC() },
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "planwise", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	EstimatedDuration int    `json:"estimated_duration"`
	CognitiveLoad     int    `json:"cognitive_load"`
	IsDeepWork        bool   `json:"is_deep_work"`
	Completed         bool   `json:"completed"`
	Order             int    `json:"order"`
	Points            int    `json:"points,omitempty"`
}

type listTasksInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"completion filter: all, active or completed. Defaults to all."`
	Search string `json:"search,omitempty" jsonschema:"case-insensitive text matched against title and description"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type moveTaskInput struct {
	From   int    `json:"from" jsonschema:"1-based position of the task in the filtered list"`
	To     int    `json:"to" jsonschema:"1-based position to move the task to"`
	Filter string `json:"filter,omitempty" jsonschema:"completion filter the positions refer to: all, active or completed"`
	Search string `json:"search,omitempty" jsonschema:"search text the positions refer to"`
}

type moveTaskOutput struct {
	Message string               `json:"message"`
	Sent    bool                 `json:"sent"`
	Payload []models.ReorderItem `json:"payload,omitempty"`
	Warning string               `json:"warning,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier as shown by list_tasks"`
}

type mutationOutput struct {
	Message string      `json:"message"`
	Task    *taskOutput `json:"task,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

type createTaskInput struct {
	Title             string `json:"title" jsonschema:"task title, must not be blank"`
	Description       string `json:"description,omitempty" jsonschema:"optional longer description"`
	Category          string `json:"category,omitempty" jsonschema:"study, coding, fitness, reading, writing, organizing, creativity, social or other"`
	Priority          string `json:"priority,omitempty" jsonschema:"low, medium, high or urgent"`
	EstimatedDuration int    `json:"estimated_duration,omitempty" jsonschema:"estimated minutes, positive. Defaults to 30."`
	CognitiveLoad     int    `json:"cognitive_load,omitempty" jsonschema:"mental effort from 1 to 10"`
	IsDeepWork        bool   `json:"is_deep_work,omitempty" jsonschema:"whether the task needs uninterrupted focus"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksDeleted   int            `json:"tasks_deleted"`
	Reorders       int            `json:"reorders"`
	PointsPreview  int            `json:"points_preview"`
	SyncFailures   int            `json:"sync_failures"`
	FailuresByKind map[string]int `json:"failures_by_kind"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks in display order, optionally filtered by completion state and search text. Positions in the result are what move_task refers to.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Move a task from one 1-based position to another within the filtered list and save the new order.",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between completed and not completed.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Permanently delete a task.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a task. Unset fields take the defaults: category other, priority medium, 30 minutes, load 5.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get counters from the local event log: tasks created, completed, reordered, and sync failures by kind.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate sync health alerts (rejected session, repeated failures, stale list).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	q, err := viewQuery(input.Filter, input.Search)
	if err != nil {
		return errorResult(err.Error()), listTasksOutput{}, nil
	}
	if err := s.reload(ctx); err != nil {
		return errorResult(fmt.Sprintf("loading tasks: %s", err)), listTasksOutput{}, nil
	}

	view := s.tasks.View(q)
	out := listTasksOutput{
		Tasks: make([]taskOutput, len(view)),
		Count: len(view),
	}
	for i, t := range view {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleMoveTask(ctx context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, moveTaskOutput, error) {
	q, err := viewQuery(input.Filter, input.Search)
	if err != nil {
		return errorResult(err.Error()), moveTaskOutput{}, nil
	}
	if input.From < 1 || input.To < 1 {
		return errorResult("from and to are 1-based positions"), moveTaskOutput{}, nil
	}
	if err := s.reload(ctx); err != nil {
		return errorResult(fmt.Sprintf("loading tasks: %s", err)), moveTaskOutput{}, nil
	}

	res, err := s.tasks.Reorder(ctx, q, input.From-1, input.To-1)
	if err != nil {
		return errorResult(fmt.Sprintf("moving task: %s [%s]", err, models.KindOf(err))), moveTaskOutput{}, nil
	}

	out := moveTaskOutput{Sent: !res.NoOp, Payload: res.Payload}
	if res.NoOp {
		out.Message = fmt.Sprintf("task already at position %d", input.To)
	} else {
		out.Message = fmt.Sprintf("moved task from position %d to %d", input.From, input.To)
	}
	out.Warning = reloadWarning(res)
	return nil, out, nil
}

func (s *Server) handleToggleTask(ctx context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, mutationOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), mutationOutput{}, nil
	}
	if err := s.reload(ctx); err != nil {
		return errorResult(fmt.Sprintf("loading tasks: %s", err)), mutationOutput{}, nil
	}

	res, err := s.tasks.ToggleComplete(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("toggling task %s: %s", input.TaskID, err)), mutationOutput{}, nil
	}

	out := mutationOutput{Warning: reloadWarning(res)}
	if res.Task != nil {
		t := taskToOutput(*res.Task)
		out.Task = &t
		if res.Task.Completed {
			out.Message = fmt.Sprintf("task %s completed", input.TaskID)
		} else {
			out.Message = fmt.Sprintf("task %s reopened", input.TaskID)
		}
	} else {
		out.Message = fmt.Sprintf("task %s toggled", input.TaskID)
	}
	return nil, out, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, mutationOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), mutationOutput{}, nil
	}

	res, err := s.tasks.Delete(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("deleting task %s: %s", input.TaskID, err)), mutationOutput{}, nil
	}
	return nil, mutationOutput{
		Message: fmt.Sprintf("task %s deleted", input.TaskID),
		Warning: reloadWarning(res),
	}, nil
}

func (s *Server) handleCreateTask(ctx context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, mutationOutput, error) {
	res, err := s.tasks.Create(ctx, models.TaskCreate{
		Title:             input.Title,
		Description:       input.Description,
		Category:          models.Category(input.Category),
		Priority:          models.Priority(input.Priority),
		EstimatedDuration: input.EstimatedDuration,
		CognitiveLoad:     input.CognitiveLoad,
		IsDeepWork:        input.IsDeepWork,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("creating task: %s", err)), mutationOutput{}, nil
	}

	t := taskToOutput(*res.Task)
	return nil, mutationOutput{
		Message: fmt.Sprintf("task %s created", t.ID),
		Task:    &t,
		Warning: reloadWarning(res),
	}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log disabled)"), emptyMetricsOutput(), nil
	}

	since, err := observability.ParseSince(input.Since, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:   metrics.TasksCreated,
		TasksCompleted: metrics.TasksCompleted,
		TasksDeleted:   metrics.TasksDeleted,
		Reorders:       metrics.Reorders,
		PointsPreview:  metrics.PointsPreview,
		SyncFailures:   metrics.SyncFailures,
		FailuresByKind: metrics.FailuresByKind,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

// reload refreshes the store. Losing to a concurrent reload still leaves a
// fresh list behind, so it is not an error here.
func (s *Server) reload(ctx context.Context) error {
	err := s.tasks.Reload(ctx)
	if errors.Is(err, core.ErrStaleReload) {
		return nil
	}
	return err
}

func viewQuery(filter, search string) (models.ViewQuery, error) {
	status, err := core.ParseStatusFilter(filter)
	if err != nil {
		return models.ViewQuery{}, err
	}
	return models.ViewQuery{Status: status, Search: search}, nil
}

func reloadWarning(res *core.SyncResult) string {
	if res == nil || res.ReloadErr == nil {
		return ""
	}
	return fmt.Sprintf("saved, but the list could not be refreshed: %s", res.ReloadErr)
}

func taskToOutput(t models.Task) taskOutput {
	out := taskOutput{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Category:          string(t.Category),
		Priority:          string(t.Priority),
		EstimatedDuration: t.EstimatedDuration,
		CognitiveLoad:     t.CognitiveLoad,
		IsDeepWork:        t.IsDeepWork,
		Completed:         t.Completed,
		Order:             t.Order,
	}
	if !t.Completed {
		out.Points = core.TaskPoints(t)
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{FailuresByKind: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
