package cli

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/internal/storage"
	"github.com/valter-silva-au/planwise/pkg/models"
)

// TaskService is the sync coordinator surface the commands drive.
type TaskService interface {
	Reload(ctx context.Context) error
	View(q models.ViewQuery) []models.Task
	Create(ctx context.Context, in models.TaskCreate) (*core.SyncResult, error)
	Update(ctx context.Context, id string, p models.TaskPatch) (*core.SyncResult, error)
	ToggleComplete(ctx context.Context, id string) (*core.SyncResult, error)
	Delete(ctx context.Context, id string) (*core.SyncResult, error)
	Reorder(ctx context.Context, q models.ViewQuery, oldIndex, newIndex int) (*core.SyncResult, error)
}

// BackendClient covers the backend calls that do not go through the store.
type BackendClient interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Config   *models.GlobalConfig
	Logger   *log.Logger

	Tasks    TaskService
	Backend  BackendClient
	Session  storage.SessionManager
	Snapshot storage.SnapshotStore
	Notices  *observability.NoticeQueue
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
