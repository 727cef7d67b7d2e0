package core

import (
	"sync"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// TaskStore holds the last fetched task collection for the current user.
// It is a passive cache: it never raises errors and never talks to the
// backend. The SyncCoordinator replaces it wholesale after every mutation.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   []models.Task
	version uint64
}

// StoreSnapshot is an immutable copy of the store contents used to roll
// back optimistic local mutations.
type StoreSnapshot struct {
	tasks []models.Task
}

// Len returns the number of tasks captured in the snapshot.
func (s StoreSnapshot) Len() int { return len(s.tasks) }

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{}
}

// SetTasks replaces the entire collection. Tasks not included are treated
// as no longer existing.
func (s *TaskStore) SetTasks(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneTasks(tasks)
	s.version++
}

// AddTask appends a task locally.
func (s *TaskStore) AddTask(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	s.version++
}

// UpdateTask applies patch to the task with the given ID. It returns false
// when no such task is cached.
func (s *TaskStore) UpdateTask(id string, patch models.TaskPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = patch.Apply(s.tasks[i])
			s.version++
			return true
		}
	}
	return false
}

// DeleteTask removes the task with the given ID. It returns false when no
// such task is cached.
func (s *TaskStore) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
			s.version++
			return true
		}
	}
	return false
}

// Get returns the cached task with the given ID.
func (s *TaskStore) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Tasks returns a copy of the cached collection in store order.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Len returns the number of cached tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Version returns a counter that increases on every change to the store.
func (s *TaskStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot captures the current contents.
func (s *TaskStore) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreSnapshot{tasks: cloneTasks(s.tasks)}
}

// Restore replaces the contents with a previously captured snapshot.
func (s *TaskStore) Restore(snap StoreSnapshot) {
	s.SetTasks(snap.tasks)
}

// RestoreIfVersion restores snap only when the store is still at version,
// so a rollback never clobbers a reload that landed in the meantime. It
// reports whether the snapshot was restored.
func (s *TaskStore) RestoreIfVersion(snap StoreSnapshot, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.tasks = cloneTasks(snap.tasks)
	s.version++
	return true
}

func cloneTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return nil
	}
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
