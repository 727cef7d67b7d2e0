// Package internal provides the App struct that wires all components of the
// PlanWise client together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/planwise/internal/cli"
	"github.com/valter-silva-au/planwise/internal/core"
	"github.com/valter-silva-au/planwise/internal/integration"
	"github.com/valter-silva-au/planwise/internal/observability"
	"github.com/valter-silva-au/planwise/internal/storage"
	"github.com/valter-silva-au/planwise/pkg/models"
)

// noticeQueueSize bounds the notices kept for the interactive views.
const noticeQueueSize = 20

// App holds all service dependencies of the PlanWise client.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	Logger    *log.Logger

	// Storage layer
	Session  storage.SessionManager
	Snapshot storage.SnapshotStore

	// Backend
	Client *integration.TaskAPIClient

	// Core services
	Store   *core.TaskStore
	Sync    *core.SyncCoordinator
	Notices *observability.NoticeQueue

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the directory holding
// the configuration, session, snapshot and event log (typically ~/.planwise).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Logger, err = observability.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", basePath, err)
	}

	// --- Storage layer ---
	app.Session = storage.NewSessionManager(basePath)
	if err := app.Session.Load(); err != nil {
		// Non-fatal: requests go out unauthenticated and the backend says so.
		app.Logger.WithError(err).Warn("ignoring unreadable session file")
	}
	app.Snapshot = storage.NewSnapshotStore(basePath)

	// --- Backend ---
	app.Client = integration.NewTaskAPIClient(integration.ClientConfig{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		ReorderRetries: cfg.Sync.ReorderRetries,
		RetryBackoff:   cfg.Sync.RetryBackoff,
		Tokens:         app.Session,
	})

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".planwise_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.Logger.WithError(err).Warn("event log disabled")
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, observability.DefaultAlertThresholds())
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	app.Notices = observability.NewNoticeQueue(noticeQueueSize)

	// --- Core services ---
	deps := core.SyncDeps{
		Logger:   app.Logger,
		Notifier: app.Notices,
	}
	if app.EventLog != nil {
		deps.Events = &eventLogAdapter{log: app.EventLog}
	}
	if cfg.CacheEnabled {
		deps.Cache = app.Snapshot
	}
	app.Store = core.NewTaskStore()
	app.Sync = core.NewSyncCoordinator(app.Store, app.Client, core.SyncOptions{
		ReorderScope:      cfg.Sync.ReorderScope,
		RollbackOnFailure: cfg.Sync.RollbackOnFailure,
	}, deps)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Logger = app.Logger
	cli.Tasks = app.Sync
	cli.Backend = app.Client
	cli.Session = app.Session
	cli.Snapshot = app.Snapshot
	cli.Notices = app.Notices

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the PlanWise data directory. PLANWISE_HOME
// wins; otherwise the nearest directory at or above the working directory
// holding .planwise.yaml; otherwise ~/.planwise.
func ResolveBasePath() string {
	if home := os.Getenv("PLANWISE_HOME"); home != "" {
		return home
	}

	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".planwise"
	}
	return filepath.Join(home, ".planwise")
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
	now func() time.Time
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	return a.log.Write(observability.Event{
		Time:    now().UTC(),
		Level:   observability.LevelForType(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
