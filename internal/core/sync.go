package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/valter-silva-au/planwise/pkg/models"
)

const tracerName = "github.com/valter-silva-au/planwise/internal/core"

// TaskAPI is the subset of the backend client the coordinator needs.
// Defining it here keeps core free of transport code.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, c models.TaskCreate) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, p models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ReorderTasks(ctx context.Context, items []models.ReorderItem) error
}

// Notifier receives notices the user should see.
type Notifier interface {
	Notify(n models.Notice)
}

// TaskCache persists the last successfully reloaded collection so it can be
// shown when the backend is unreachable.
type TaskCache interface {
	SaveTasks(tasks []models.Task) error
}

// SyncOptions controls coordinator behavior.
type SyncOptions struct {
	ReorderScope      models.ReorderScope
	RollbackOnFailure bool
}

// SyncDeps are the optional collaborators of a SyncCoordinator. Nil fields
// are replaced with no-op implementations.
type SyncDeps struct {
	Logger   *log.Logger
	Events   EventLogger
	Notifier Notifier
	Cache    TaskCache
}

// SyncResult describes what a mutating call did beyond its own error.
type SyncResult struct {
	// Task is the backend's copy of a created or updated task.
	Task *models.Task
	// View and Payload are set for reorders.
	View    []models.Task
	Payload []models.ReorderItem
	// NoOp is true when nothing needed to be sent.
	NoOp bool
	// Reloaded is true when the follow-up reload replaced the store.
	Reloaded bool
	// StaleReload is true when the follow-up reload lost to a newer one.
	StaleReload bool
	// ReloadErr is the error of a failed follow-up reload. The mutation
	// itself succeeded and the local state was kept.
	ReloadErr error
	// RolledBack is true when a failed mutation restored the previous state.
	RolledBack bool
}

// SyncCoordinator sequences user mutations against the backend and keeps
// the TaskStore consistent by reloading the full collection after each one.
type SyncCoordinator struct {
	store    *TaskStore
	api      TaskAPI
	opts     SyncOptions
	logger   *log.Logger
	events   EventLogger
	notifier Notifier
	cache    TaskCache

	tickets atomic.Uint64

	applyMu sync.Mutex
	applied uint64

	now func() time.Time
}

// NewSyncCoordinator creates a coordinator that owns store and talks to api.
func NewSyncCoordinator(store *TaskStore, api TaskAPI, opts SyncOptions, deps SyncDeps) *SyncCoordinator {
	if opts.ReorderScope == "" {
		opts.ReorderScope = models.ScopeGlobal
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &SyncCoordinator{
		store:    store,
		api:      api,
		opts:     opts,
		logger:   logger,
		events:   deps.Events,
		notifier: deps.Notifier,
		cache:    deps.Cache,
		now:      time.Now,
	}
}

// Store returns the store the coordinator keeps in sync.
func (c *SyncCoordinator) Store() *TaskStore { return c.store }

// View projects the current store contents through q.
func (c *SyncCoordinator) View(q models.ViewQuery) []models.Task {
	return Project(c.store.Tasks(), q)
}

// Reload fetches the full collection and replaces the store with it.
// Every reload takes a ticket when it starts; a response whose ticket is not
// newer than the last applied reload or local mutation is discarded and
// ErrStaleReload returned. A failed reload leaves the store untouched.
func (c *SyncCoordinator) Reload(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "reload", "")
	defer span.End()

	stale, err := c.reload(ctx)
	if err != nil {
		c.fail(span, "reload", "", err, "Could not load tasks: %v")
		return err
	}
	if stale {
		span.SetStatus(codes.Ok, "stale")
		return ErrStaleReload
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *SyncCoordinator) reload(ctx context.Context) (stale bool, err error) {
	ticket := c.tickets.Add(1)
	entry := c.logger.WithFields(log.Fields{"op": "reload", "ticket": ticket})

	tasks, err := c.api.ListTasks(ctx)
	if err != nil {
		return false, fmt.Errorf("reloading tasks: %w", err)
	}

	c.applyMu.Lock()
	if ticket <= c.applied {
		applied := c.applied
		c.applyMu.Unlock()
		entry.WithField("applied", applied).Debug("discarding stale reload")
		c.record("sync.stale_discarded", map[string]any{"ticket": ticket, "applied": applied})
		return true, nil
	}
	c.applied = ticket
	c.store.SetTasks(tasks)
	if c.cache != nil {
		// Saved under applyMu so snapshots land in ticket order.
		if err := c.cache.SaveTasks(tasks); err != nil {
			entry.WithError(err).Warn("saving task snapshot")
		}
	}
	c.applyMu.Unlock()

	entry.WithField("count", len(tasks)).Debug("reload applied")
	c.record("sync.reloaded", map[string]any{"ticket": ticket, "count": len(tasks)})
	return false, nil
}

// mutateLocal runs apply against the store and fences off every reload
// issued before it: their responses predate the change and are discarded.
// It returns the state before apply and the store version after it.
func (c *SyncCoordinator) mutateLocal(apply func()) (StoreSnapshot, uint64) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	snap := c.store.Snapshot()
	apply()
	c.applied = c.tickets.Add(1)
	return snap, c.store.Version()
}

// fence discards reloads issued before the backend confirmed a mutation.
func (c *SyncCoordinator) fence() {
	c.applyMu.Lock()
	c.applied = c.tickets.Add(1)
	c.applyMu.Unlock()
}

// Create validates c, sends it and reloads. The created task is added to
// the store as soon as the backend confirms it.
func (c *SyncCoordinator) Create(ctx context.Context, in models.TaskCreate) (*SyncResult, error) {
	ctx, span := c.startSpan(ctx, "create", "")
	defer span.End()

	in = in.WithDefaults()
	if err := ValidateCreate(in); err != nil {
		c.fail(span, "create", "", err, "Task not created: %v")
		return nil, err
	}

	created, err := c.api.CreateTask(ctx, in)
	if err != nil {
		err = fmt.Errorf("creating task: %w", err)
		c.fail(span, "create", "", err, "Task not created: %v")
		return nil, err
	}
	c.mutateLocal(func() { c.store.AddTask(*created) })
	span.SetAttributes(attribute.String("planwise.task_id", created.ID))
	c.record("task.created", map[string]any{
		"task_id":  created.ID,
		"title":    created.Title,
		"category": string(created.Category),
		"priority": string(created.Priority),
	})

	res := &SyncResult{Task: created}
	c.followUp(ctx, "create", created.ID, res)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// Update validates p, applies it locally, sends it and reloads.
func (c *SyncCoordinator) Update(ctx context.Context, id string, p models.TaskPatch) (*SyncResult, error) {
	ctx, span := c.startSpan(ctx, "update", id)
	defer span.End()

	if err := ValidatePatch(p); err != nil {
		c.fail(span, "update", id, err, "Task not updated: %v")
		return nil, err
	}
	res, err := c.update(ctx, id, p)
	if err != nil {
		c.fail(span, "update", id, err, "Task not updated: %v")
		return res, err
	}
	c.record("task.updated", map[string]any{"task_id": id, "fields": patchFields(p)})
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ToggleComplete flips the completion state of a cached task. The request
// carries the negation of the state the store currently holds.
func (c *SyncCoordinator) ToggleComplete(ctx context.Context, id string) (*SyncResult, error) {
	ctx, span := c.startSpan(ctx, "toggle", id)
	defer span.End()

	current, ok := c.store.Get(id)
	if !ok {
		err := fmt.Errorf("toggling task %s: %w", id, ErrTaskNotCached)
		c.fail(span, "toggle", id, err, "Task not updated: %v")
		return nil, err
	}

	completed := !current.Completed
	res, err := c.update(ctx, id, models.TaskPatch{Completed: &completed})
	if err != nil {
		c.fail(span, "toggle", id, err, "Task not updated: %v")
		return res, err
	}

	if completed {
		c.record("task.completed", map[string]any{"task_id": id, "points": TaskPoints(current)})
	} else {
		c.record("task.reopened", map[string]any{"task_id": id})
	}
	span.SetAttributes(attribute.Bool("planwise.completed", completed))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

func (c *SyncCoordinator) update(ctx context.Context, id string, p models.TaskPatch) (*SyncResult, error) {
	snap, version := c.mutateLocal(func() { c.store.UpdateTask(id, p) })

	updated, err := c.api.UpdateTask(ctx, id, p)
	if err != nil {
		res := &SyncResult{RolledBack: c.rollback(snap, version)}
		return res, fmt.Errorf("updating task %s: %w", id, err)
	}
	c.fence()

	res := &SyncResult{Task: updated}
	c.followUp(ctx, "update", id, res)
	return res, nil
}

// Delete removes the task locally, sends the delete and reloads. When the
// reload fails the task stays removed.
func (c *SyncCoordinator) Delete(ctx context.Context, id string) (*SyncResult, error) {
	ctx, span := c.startSpan(ctx, "delete", id)
	defer span.End()

	snap, version := c.mutateLocal(func() { c.store.DeleteTask(id) })

	if err := c.api.DeleteTask(ctx, id); err != nil {
		res := &SyncResult{RolledBack: c.rollback(snap, version)}
		err = fmt.Errorf("deleting task %s: %w", id, err)
		c.fail(span, "delete", id, err, "Task not deleted: %v")
		return res, err
	}
	c.fence()
	c.record("task.deleted", map[string]any{"task_id": id})

	res := &SyncResult{}
	c.followUp(ctx, "delete", id, res)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// Reorder moves the task at oldIndex of the view selected by q to newIndex,
// shows the result immediately, submits the payload and reloads. Moving a
// task onto its own position sends nothing.
func (c *SyncCoordinator) Reorder(ctx context.Context, q models.ViewQuery, oldIndex, newIndex int) (*SyncResult, error) {
	ctx, span := c.startSpan(ctx, "reorder", "")
	defer span.End()
	span.SetAttributes(
		attribute.Int("planwise.old_index", oldIndex),
		attribute.Int("planwise.new_index", newIndex),
		attribute.String("planwise.scope", string(c.opts.ReorderScope)),
	)

	snap := c.store.Snapshot()
	all := snap.tasks
	plan, err := PlanReorder(all, q, oldIndex, newIndex, c.opts.ReorderScope)
	if err != nil {
		err = fmt.Errorf("reordering tasks: %w", err)
		c.fail(span, "reorder", "", err, "Tasks not reordered: %v")
		return nil, err
	}

	res := &SyncResult{View: plan.View, Payload: plan.Payload, NoOp: plan.NoOp}
	if plan.NoOp {
		span.SetStatus(codes.Ok, "no-op")
		return res, nil
	}

	movedID := plan.View[newIndex].ID
	before, version := c.mutateLocal(func() { c.store.SetTasks(ApplyReorder(all, plan.Payload)) })

	if err := c.api.ReorderTasks(ctx, plan.Payload); err != nil {
		res.RolledBack = c.rollback(before, version)
		err = fmt.Errorf("reordering tasks: %w", err)
		c.fail(span, "reorder", movedID, err, "Tasks not reordered: %v")
		return res, err
	}
	c.fence()
	c.record("task.reordered", map[string]any{
		"task_id": movedID,
		"from":    oldIndex,
		"to":      newIndex,
		"scope":   string(c.opts.ReorderScope),
		"count":   len(plan.Payload),
	})

	c.followUp(ctx, "reorder", movedID, res)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// followUp reloads after a successful mutation and records the outcome in
// res. A failed reload is reported but never undoes the mutation.
func (c *SyncCoordinator) followUp(ctx context.Context, op, taskID string, res *SyncResult) {
	stale, err := c.reload(ctx)
	switch {
	case err != nil:
		res.ReloadErr = err
		c.logger.WithFields(log.Fields{
			"op":      op,
			"task_id": taskID,
			"kind":    models.KindOf(err),
		}).WithError(err).Warn("reload after mutation failed")
		c.record("sync.failed", map[string]any{"op": "reload", "after": op, "kind": string(models.KindOf(err)), "error": err.Error()})
		c.notify(models.Notice{
			Level:   models.NoticeWarn,
			Op:      op,
			TaskID:  taskID,
			Kind:    models.KindOf(err),
			Message: fmt.Sprintf("Saved, but the list could not be refreshed: %v", err),
		})
	case stale:
		res.StaleReload = true
	default:
		res.Reloaded = true
	}
}

// rollback restores snap when the policy allows it and nothing else has
// touched the store since the optimistic change at version.
func (c *SyncCoordinator) rollback(snap StoreSnapshot, version uint64) bool {
	if !c.opts.RollbackOnFailure {
		return false
	}
	return c.store.RestoreIfVersion(snap, version)
}

func (c *SyncCoordinator) fail(span trace.Span, op, taskID string, err error, format string) {
	kind := models.KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("planwise.error_kind", string(kind)))

	c.logger.WithFields(log.Fields{
		"op":      op,
		"task_id": taskID,
		"kind":    kind,
	}).WithError(err).Warn("sync operation failed")
	c.record("sync.failed", map[string]any{"op": op, "task_id": taskID, "kind": string(kind), "error": err.Error()})
	c.notify(models.Notice{
		Level:   models.NoticeError,
		Op:      op,
		TaskID:  taskID,
		Kind:    kind,
		Message: fmt.Sprintf(format, err),
	})
}

func (c *SyncCoordinator) startSpan(ctx context.Context, op, taskID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("planwise.op", op)}
	if taskID != "" {
		attrs = append(attrs, attribute.String("planwise.task_id", taskID))
	}
	return otel.Tracer(tracerName).Start(ctx, "planwise.sync."+op, trace.WithAttributes(attrs...))
}

func (c *SyncCoordinator) notify(n models.Notice) {
	if c.notifier == nil {
		return
	}
	n.Time = c.now().UTC()
	c.notifier.Notify(n)
}

func (c *SyncCoordinator) record(eventType string, data map[string]any) {
	if c.events == nil {
		return
	}
	if err := c.events.LogEvent(eventType, data); err != nil {
		c.logger.WithError(err).WithField("event", eventType).Debug("recording event")
	}
}

func patchFields(p models.TaskPatch) []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Category != nil {
		fields = append(fields, "category")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.EstimatedDuration != nil {
		fields = append(fields, "estimated_duration")
	}
	if p.CognitiveLoad != nil {
		fields = append(fields, "cognitive_load")
	}
	if p.IsDeepWork != nil {
		fields = append(fields, "is_deep_work")
	}
	if p.Completed != nil {
		fields = append(fields, "completed")
	}
	if p.Order != nil {
		fields = append(fields, "order")
	}
	return fields
}
