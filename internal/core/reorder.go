package core

import (
	"fmt"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// ReorderPlan is the outcome of a drag-style move: the new displayed
// sequence for immediate feedback and the payload to persist it.
type ReorderPlan struct {
	View    []models.Task
	Payload []models.ReorderItem
	NoOp    bool
}

// Move returns a copy of view with the task at oldIndex moved to newIndex.
// Tasks between the two positions shift by one, as in a drag-and-drop list.
func Move(view []models.Task, oldIndex, newIndex int) ([]models.Task, error) {
	n := len(view)
	if oldIndex < 0 || oldIndex >= n {
		return nil, fmt.Errorf("moving from position %d of %d: %w", oldIndex, n, ErrIndexOutOfRange)
	}
	if newIndex < 0 || newIndex >= n {
		return nil, fmt.Errorf("moving to position %d of %d: %w", newIndex, n, ErrIndexOutOfRange)
	}

	out := cloneTasks(view)
	if oldIndex == newIndex {
		return out, nil
	}

	moved := out[oldIndex]
	if oldIndex < newIndex {
		copy(out[oldIndex:newIndex], out[oldIndex+1:newIndex+1])
	} else {
		copy(out[newIndex+1:oldIndex+1], out[newIndex:oldIndex])
	}
	out[newIndex] = moved
	return out, nil
}

// BuildReorder produces the reorder payload for a reordered view.
//
// With ScopeVisible the payload holds only the view's tasks, numbered by
// their position in the view. Tasks hidden by the active filter are left
// out and keep their backend order, which may then collide with the new
// values.
//
// With ScopeGlobal the whole collection is renumbered 0..N-1: the slots the
// visible tasks occupied in the collection are refilled with the reordered
// view, and hidden tasks stay in their slots. View tasks missing from all
// are appended at the end.
func BuildReorder(all, view []models.Task, scope models.ReorderScope) []models.ReorderItem {
	if scope != models.ScopeGlobal {
		payload := make([]models.ReorderItem, len(view))
		for i, t := range view {
			payload[i] = models.ReorderItem{ID: t.ID, Order: i}
		}
		return payload
	}

	known := make(map[string]bool, len(all))
	for _, t := range all {
		known[t.ID] = true
	}

	inView := make(map[string]bool, len(view))
	var queue, extra []string
	for _, t := range view {
		inView[t.ID] = true
		if known[t.ID] {
			queue = append(queue, t.ID)
		} else {
			extra = append(extra, t.ID)
		}
	}

	payload := make([]models.ReorderItem, 0, len(all)+len(extra))
	for _, t := range SortByOrder(all) {
		id := t.ID
		if inView[id] && len(queue) > 0 {
			id, queue = queue[0], queue[1:]
		}
		payload = append(payload, models.ReorderItem{ID: id, Order: len(payload)})
	}
	for _, id := range extra {
		payload = append(payload, models.ReorderItem{ID: id, Order: len(payload)})
	}
	return payload
}

// PlanReorder projects all through q, moves oldIndex to newIndex within the
// projected view and builds the payload for scope.
func PlanReorder(all []models.Task, q models.ViewQuery, oldIndex, newIndex int, scope models.ReorderScope) (*ReorderPlan, error) {
	view := Project(all, q)
	moved, err := Move(view, oldIndex, newIndex)
	if err != nil {
		return nil, err
	}
	return &ReorderPlan{
		View:    moved,
		Payload: BuildReorder(all, moved, scope),
		NoOp:    oldIndex == newIndex,
	}, nil
}

// ApplyReorder returns a copy of tasks with the orders from payload
// written in. Tasks absent from the payload are unchanged.
func ApplyReorder(tasks []models.Task, payload []models.ReorderItem) []models.Task {
	orders := make(map[string]int, len(payload))
	for _, item := range payload {
		orders[item.ID] = item.Order
	}
	out := cloneTasks(tasks)
	for i := range out {
		if o, ok := orders[out[i].ID]; ok {
			out[i].Order = o
		}
	}
	return out
}
