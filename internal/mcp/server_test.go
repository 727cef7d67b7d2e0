package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/pkg/models"
)

// --- Fake implementations ---

// fakeBackend implements core.TaskAPI in memory.
type fakeBackend struct {
	mu       sync.Mutex
	tasks    []models.Task
	nextID   int
	listErr  error
	reorders [][]models.ReorderItem
}

func newFakeBackend(tasks ...models.Task) *fakeBackend {
	return &fakeBackend{tasks: append([]models.Task(nil), tasks...), nextID: len(tasks) + 1}
}

func (f *fakeBackend) ListTasks(_ context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Task(nil), f.tasks...), nil
}

func (f *fakeBackend) CreateTask(_ context.Context, c models.TaskCreate) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{
		ID:                fmt.Sprintf("t%d", f.nextID),
		Title:             c.Title,
		Category:          c.Category,
		Priority:          c.Priority,
		EstimatedDuration: c.EstimatedDuration,
		CognitiveLoad:     c.CognitiveLoad,
		Order:             len(f.tasks),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeBackend) UpdateTask(_ context.Context, id string, p models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i] = p.Apply(f.tasks[i])
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, notFound(id)
}

func (f *fakeBackend) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func (f *fakeBackend) ReorderTasks(_ context.Context, items []models.ReorderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, items)
	for _, it := range items {
		for i := range f.tasks {
			if f.tasks[i].ID == it.ID {
				f.tasks[i].Order = it.Order
			}
		}
	}
	return nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "task " + string(e) + " not found" }
func (e notFoundErr) ErrorKind() models.ErrorKind { return models.KindNotFound }

func notFound(id string) error { return notFoundErr(id) }

type fakeMetrics struct{ m *observability.Metrics }

func (f fakeMetrics) Calculate(time.Time) (*observability.Metrics, error) { return f.m, nil }

type fakeAlerts struct{ alerts []observability.Alert }

func (f fakeAlerts) Evaluate() ([]observability.Alert, error) { return f.alerts, nil }

// --- Test helpers ---

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "a", Title: "Write report", Category: models.CategoryWriting, Priority: models.PriorityHigh, EstimatedDuration: 60, CognitiveLoad: 7, Order: 0},
		{ID: "b", Title: "Read book", Category: models.CategoryReading, Priority: models.PriorityLow, EstimatedDuration: 30, CognitiveLoad: 3, Completed: true, Order: 1},
		{ID: "c", Title: "Gym", Category: models.CategoryFitness, Priority: models.PriorityMedium, EstimatedDuration: 45, CognitiveLoad: 2, Order: 2},
	}
}

func newTestServer(backend *fakeBackend) *Server {
	coord := core.NewSyncCoordinator(core.NewTaskStore(), backend, core.SyncOptions{
		ReorderScope:      models.ScopeGlobal,
		RollbackOnFailure: true,
	}, core.SyncDeps{})
	return NewServer(coord, nil, nil, "test")
}

// callTool connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

// decode reads the structured output of a successful call into out.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if err := json.Unmarshal([]byte(extractText(result)), out); err == nil {
		return
	}
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshalling structured content: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling tool output: %v", err)
	}
}

func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- Tests ---

func TestListTasks(t *testing.T) {
	srv := newTestServer(newFakeBackend(sampleTasks()...))

	var out listTasksOutput
	decode(t, callTool(t, srv, "list_tasks", nil), &out)

	if out.Count != 3 {
		t.Fatalf("expected 3 tasks, got %d", out.Count)
	}
	if out.Tasks[0].ID != "a" || out.Tasks[2].ID != "c" {
		t.Errorf("unexpected order: %+v", out.Tasks)
	}
	if out.Tasks[0].Points == 0 {
		t.Error("incomplete task should carry a points preview")
	}
	if out.Tasks[1].Points != 0 {
		t.Error("completed task should not carry a points preview")
	}
}

func TestListTasksFilterAndSearch(t *testing.T) {
	srv := newTestServer(newFakeBackend(sampleTasks()...))

	var active listTasksOutput
	decode(t, callTool(t, srv, "list_tasks", map[string]any{"filter": "active"}), &active)
	if active.Count != 2 {
		t.Errorf("active count = %d, want 2", active.Count)
	}

	var found listTasksOutput
	decode(t, callTool(t, srv, "list_tasks", map[string]any{"search": "rea"}), &found)
	if found.Count != 1 || found.Tasks[0].ID != "b" {
		t.Errorf("search rea = %+v, want only b", found.Tasks)
	}
}

func TestListTasksInvalidFilter(t *testing.T) {
	srv := newTestServer(newFakeBackend(sampleTasks()...))
	result := callTool(t, srv, "list_tasks", map[string]any{"filter": "someday"})
	if !result.IsError {
		t.Fatal("expected error for invalid filter")
	}
}

func TestListTasksBackendDown(t *testing.T) {
	backend := newFakeBackend(sampleTasks()...)
	backend.listErr = fmt.Errorf("connection refused")
	srv := newTestServer(backend)

	result := callTool(t, srv, "list_tasks", nil)
	if !result.IsError {
		t.Fatal("expected error when the backend is unreachable")
	}
	if !strings.Contains(extractText(result), "loading tasks") {
		t.Errorf("unexpected message: %s", extractText(result))
	}
}

func TestMoveTask(t *testing.T) {
	backend := newFakeBackend(sampleTasks()...)
	srv := newTestServer(backend)

	var out moveTaskOutput
	decode(t, callTool(t, srv, "move_task", map[string]any{"from": 3, "to": 1}), &out)

	if !out.Sent {
		t.Fatal("expected the reorder to be sent")
	}
	want := []models.ReorderItem{{ID: "c", Order: 0}, {ID: "a", Order: 1}, {ID: "b", Order: 2}}
	if len(backend.reorders) != 1 {
		t.Fatalf("expected one reorder request, got %d", len(backend.reorders))
	}
	for i, it := range backend.reorders[0] {
		if it != want[i] {
			t.Errorf("payload[%d] = %+v, want %+v", i, it, want[i])
		}
	}
}

func TestMoveTaskSamePosition(t *testing.T) {
	backend := newFakeBackend(sampleTasks()...)
	srv := newTestServer(backend)

	var out moveTaskOutput
	decode(t, callTool(t, srv, "move_task", map[string]any{"from": 2, "to": 2}), &out)

	if out.Sent {
		t.Error("moving onto the same position should not send anything")
	}
	if len(backend.reorders) != 0 {
		t.Errorf("expected no reorder requests, got %d", len(backend.reorders))
	}
}

func TestMoveTaskOutOfRange(t *testing.T) {
	srv := newTestServer(newFakeBackend(sampleTasks()...))

	for _, args := range []map[string]any{
		{"from": 0, "to": 1},
		{"from": 1, "to": 9},
	} {
		if result := callTool(t, srv, "move_task", args); !result.IsError {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestToggleTask(t *testing.T) {
	backend := newFakeBackend(sampleTasks()...)
	srv := newTestServer(backend)

	var out mutationOutput
	decode(t, callTool(t, srv, "toggle_task", map[string]any{"task_id": "a"}), &out)
	if out.Task == nil || !out.Task.Completed {
		t.Fatalf("expected task a completed, got %+v", out)
	}

	decode(t, callTool(t, srv, "toggle_task", map[string]any{"task_id": "a"}), &out)
	if out.Task == nil || out.Task.Completed {
		t.Fatalf("expected task a reopened, got %+v", out)
	}
}

func TestToggleTaskUnknown(t *testing.T) {
	srv := newTestServer(newFakeBackend(sampleTasks()...))
	if result := callTool(t, srv, "toggle_task", map[string]any{"task_id": "zzz"}); !result.IsError {
		t.Fatal("expected error for unknown task")
	}
	if result := callTool(t, srv, "toggle_task", map[string]any{"task_id": ""}); !result.IsError {
		t.Fatal("expected error for empty task_id")
	}
}

func TestDeleteTask(t *testing.T) {
	backend := newFakeBackend(sampleTasks()...)
	srv := newTestServer(backend)

	var out mutationOutput
	decode(t, callTool(t, srv, "delete_task", map[string]any{"task_id": "b"}), &out)

	if len(backend.tasks) != 2 {
		t.Errorf("expected 2 tasks left on the backend, got %d", len(backend.tasks))
	}

	result := callTool(t, srv, "delete_task", map[string]any{"task_id": "b"})
	if !result.IsError {
		t.Fatal("deleting twice should fail")
	}
	if !strings.Contains(extractText(result), "not found") {
		t.Errorf("unexpected message: %s", extractText(result))
	}
}

func TestCreateTask(t *testing.T) {
	backend := newFakeBackend()
	srv := newTestServer(backend)

	var out mutationOutput
	decode(t, callTool(t, srv, "create_task", map[string]any{"title": "Plan week"}), &out)

	if out.Task == nil || out.Task.Title != "Plan week" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Task.Category != "other" || out.Task.Priority != "medium" || out.Task.EstimatedDuration != 30 || out.Task.CognitiveLoad != 5 {
		t.Errorf("defaults not applied: %+v", out.Task)
	}
}

func TestCreateTaskInvalid(t *testing.T) {
	backend := newFakeBackend()
	srv := newTestServer(backend)

	result := callTool(t, srv, "create_task", map[string]any{"title": "   ", "priority": "whenever"})
	if !result.IsError {
		t.Fatal("expected validation error")
	}
	if len(backend.tasks) != 0 {
		t.Error("invalid task must not reach the backend")
	}
}

func TestGetMetrics(t *testing.T) {
	oldest := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	coord := core.NewSyncCoordinator(core.NewTaskStore(), newFakeBackend(), core.SyncOptions{}, core.SyncDeps{})
	srv := NewServer(coord, fakeMetrics{m: &observability.Metrics{
		TasksCreated:   4,
		Reorders:       2,
		SyncFailures:   1,
		FailuresByKind: map[string]int{"network": 1},
		FailuresByOp:   map[string]int{"reorder": 1},
		EventCount:     7,
		OldestEvent:    &oldest,
	}}, nil, "test")

	var out metricsOutput
	decode(t, callTool(t, srv, "get_metrics", map[string]any{"since": "30d"}), &out)

	if out.TasksCreated != 4 || out.Reorders != 2 || out.FailuresByKind["network"] != 1 {
		t.Errorf("unexpected metrics: %+v", out)
	}
	if out.OldestEvent != oldest.Format(time.RFC3339) {
		t.Errorf("oldest event = %s", out.OldestEvent)
	}
}

func TestGetMetricsBadSince(t *testing.T) {
	coord := core.NewSyncCoordinator(core.NewTaskStore(), newFakeBackend(), core.SyncOptions{}, core.SyncDeps{})
	srv := NewServer(coord, fakeMetrics{m: &observability.Metrics{}}, nil, "test")
	if result := callTool(t, srv, "get_metrics", map[string]any{"since": "soon"}); !result.IsError {
		t.Fatal("expected error for invalid since")
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := newTestServer(newFakeBackend())
	if result := callTool(t, srv, "get_metrics", nil); !result.IsError {
		t.Fatal("expected error when metrics are disabled")
	}
}

func TestGetAlerts(t *testing.T) {
	coord := core.NewSyncCoordinator(core.NewTaskStore(), newFakeBackend(), core.SyncOptions{}, core.SyncDeps{})
	srv := NewServer(coord, nil, fakeAlerts{alerts: []observability.Alert{{
		ID:          "session-rejected",
		Condition:   "session_rejected",
		Severity:    observability.SeverityHigh,
		Message:     "log in again",
		TriggeredAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}}}, "test")

	var out getAlertsOutput
	decode(t, callTool(t, srv, "get_alerts", nil), &out)

	if out.Count != 1 || out.Alerts[0].Condition != "session_rejected" || out.Alerts[0].Severity != "high" {
		t.Errorf("unexpected alerts: %+v", out)
	}
}
