package cli

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/internal/storage"
	"github.com/valter-silva-au/planwise/pkg/models"
)

type kindError struct {
	kind models.ErrorKind
	msg  string
}

func (e kindError) Error() string { return e.msg }
func (e kindError) ErrorKind() models.ErrorKind { return e.kind }

// fakeAPI is an in-memory backend implementing core.TaskAPI and
// BackendClient.
type fakeAPI struct {
	mu     sync.Mutex
	tasks  []models.Task
	nextID int

	listErr    error
	reorderErr error
	loginResp  *models.LoginResponse
	loginErr   error

	reorders [][]models.ReorderItem
	logins   []string
}

func newFakeAPI(tasks ...models.Task) *fakeAPI {
	return &fakeAPI{tasks: append([]models.Task(nil), tasks...), nextID: len(tasks) + 1}
}

func (f *fakeAPI) ListTasks(_ context.Context) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Task(nil), f.tasks...), nil
}

func (f *fakeAPI) GetTask(_ context.Context, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, kindError{models.KindNotFound, "task " + id + " not found"}
}

func (f *fakeAPI) CreateTask(_ context.Context, c models.TaskCreate) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{
		ID:                fmt.Sprintf("t%d", f.nextID),
		Title:             c.Title,
		Description:       c.Description,
		Category:          c.Category,
		Priority:          c.Priority,
		EstimatedDuration: c.EstimatedDuration,
		CognitiveLoad:     c.CognitiveLoad,
		IsDeepWork:        c.IsDeepWork,
		Order:             len(f.tasks),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, p models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i] = p.Apply(f.tasks[i])
			t := f.tasks[i]
			return &t, nil
		}
	}
	return nil, kindError{models.KindNotFound, "task " + id + " not found"}
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return kindError{models.KindNotFound, "task " + id + " not found"}
}

func (f *fakeAPI) ReorderTasks(_ context.Context, items []models.ReorderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reorders = append(f.reorders, items)
	if f.reorderErr != nil {
		return f.reorderErr
	}
	f.tasks = core.ApplyReorder(f.tasks, items)
	return nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*models.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, email)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAPI) task(id string) (models.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "a", Title: "Write report", Category: models.CategoryWriting, Priority: models.PriorityHigh, EstimatedDuration: 60, CognitiveLoad: 7, Order: 0},
		{ID: "b", Title: "Read book", Category: models.CategoryReading, Priority: models.PriorityLow, EstimatedDuration: 30, CognitiveLoad: 3, Completed: true, Order: 1},
		{ID: "c", Title: "Gym", Category: models.CategoryFitness, Priority: models.PriorityMedium, EstimatedDuration: 45, CognitiveLoad: 2, Order: 2},
	}
}

type cliFixture struct {
	api      *fakeAPI
	coord    *core.SyncCoordinator
	notices  *observability.NoticeQueue
	session  storage.SessionManager
	snapshot storage.SnapshotStore
}

// setupCLI points the package-level services at an in-memory backend and
// restores them when the test ends.
func setupCLI(t *testing.T, tasks ...models.Task) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	f := &cliFixture{
		api:      newFakeAPI(tasks...),
		notices:  observability.NewNoticeQueue(20),
		session:  storage.NewSessionManager(dir),
		snapshot: storage.NewSnapshotStore(dir),
	}
	f.coord = core.NewSyncCoordinator(core.NewTaskStore(), f.api, core.SyncOptions{
		ReorderScope:      models.ScopeGlobal,
		RollbackOnFailure: true,
	}, core.SyncDeps{Notifier: f.notices, Cache: f.snapshot})

	origTasks, origBackend, origSession, origSnapshot, origNotices, origConfig :=
		Tasks, Backend, Session, Snapshot, Notices, Config
	t.Cleanup(func() {
		Tasks, Backend, Session, Snapshot, Notices, Config =
			origTasks, origBackend, origSession, origSnapshot, origNotices, origConfig
	})

	Tasks = f.coord
	Backend = f.api
	Session = f.session
	Snapshot = f.snapshot
	Notices = f.notices
	Config = core.DefaultGlobalConfig()
	return f
}
