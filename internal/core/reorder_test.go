package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/valter-silva-au/planwise/pkg/models"
)

func TestMove(t *testing.T) {
	view := []models.Task{task("a", 0), task("b", 1), task("c", 2), task("d", 3)}
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"down", 0, 2, []string{"b", "c", "a", "d"}},
		{"up", 3, 1, []string{"a", "d", "b", "c"}},
		{"to end", 1, 3, []string{"a", "c", "d", "b"}},
		{"to start", 2, 0, []string{"c", "a", "b", "d"}},
		{"same", 2, 2, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Move(view, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Move: %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Move(%d, %d) = %v, want %v", tt.from, tt.to, ids(got), tt.want)
			}
		})
	}
	if !equalIDs(ids(view), []string{"a", "b", "c", "d"}) {
		t.Errorf("Move modified its input: %v", ids(view))
	}
}

func TestMove_OutOfRange(t *testing.T) {
	view := []models.Task{task("a", 0), task("b", 1)}
	for _, tc := range [][2]int{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		_, err := Move(view, tc[0], tc[1])
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Move(%d, %d) error = %v, want ErrIndexOutOfRange", tc[0], tc[1], err)
		}
		if models.KindOf(err) != models.KindValidation {
			t.Errorf("Move(%d, %d) kind = %q, want validation", tc[0], tc[1], models.KindOf(err))
		}
	}
	if _, err := Move(nil, 0, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Move on empty view: %v", err)
	}
}

// filterScenario is A (active), B (completed), C (active) with the active
// filter on, and C dragged above A.
func filterScenario(t *testing.T) (all, moved []models.Task) {
	t.Helper()
	all = []models.Task{
		{ID: "A", Title: "A", Order: 0},
		{ID: "B", Title: "B", Order: 1, Completed: true},
		{ID: "C", Title: "C", Order: 2},
	}
	view := Project(all, models.ViewQuery{Status: models.FilterActive})
	moved, err := Move(view, 1, 0)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	return all, moved
}

func TestBuildReorder_VisibleScopeLeavesHiddenTasksColliding(t *testing.T) {
	all, moved := filterScenario(t)

	payload := BuildReorder(all, moved, models.ScopeVisible)
	want := []models.ReorderItem{{ID: "C", Order: 0}, {ID: "A", Order: 1}}
	if !reflect.DeepEqual(payload, want) {
		t.Fatalf("payload = %v, want %v", payload, want)
	}

	after := ApplyReorder(all, payload)
	orders := map[string]int{}
	for _, task := range after {
		orders[task.ID] = task.Order
	}
	if orders["B"] != 1 {
		t.Errorf("B order = %d, want untouched 1", orders["B"])
	}
	if orders["A"] != orders["B"] {
		t.Errorf("expected A and B to collide on order 1, got A=%d B=%d", orders["A"], orders["B"])
	}
}

func TestBuildReorder_GlobalScopeRenumbersEverything(t *testing.T) {
	all, moved := filterScenario(t)

	payload := BuildReorder(all, moved, models.ScopeGlobal)
	want := []models.ReorderItem{{ID: "C", Order: 0}, {ID: "B", Order: 1}, {ID: "A", Order: 2}}
	if !reflect.DeepEqual(payload, want) {
		t.Fatalf("payload = %v, want %v", payload, want)
	}
}

func TestBuildReorder_GlobalAppendsUnknownViewTasks(t *testing.T) {
	all := []models.Task{task("a", 0)}
	view := []models.Task{task("x", 0), task("a", 1)}

	payload := BuildReorder(all, view, models.ScopeGlobal)
	want := []models.ReorderItem{{ID: "x", Order: 0}, {ID: "a", Order: 1}}
	if !reflect.DeepEqual(payload, want) {
		t.Fatalf("payload = %v, want %v", payload, want)
	}
}

func TestPlanReorder(t *testing.T) {
	all := sampleTasks()

	plan, err := PlanReorder(all, models.ViewQuery{}, 0, 3, models.ScopeGlobal)
	if err != nil {
		t.Fatalf("PlanReorder: %v", err)
	}
	if plan.NoOp {
		t.Error("NoOp = true for a real move")
	}
	if got := ids(plan.View); !equalIDs(got, []string{"3", "1", "4", "2"}) {
		t.Errorf("View = %v", got)
	}
	if len(plan.Payload) != 4 {
		t.Errorf("payload has %d items, want 4", len(plan.Payload))
	}

	plan, err = PlanReorder(all, models.ViewQuery{}, 1, 1, models.ScopeGlobal)
	if err != nil {
		t.Fatalf("PlanReorder: %v", err)
	}
	if !plan.NoOp {
		t.Error("NoOp = false for same-index move")
	}

	if _, err := PlanReorder(all, models.ViewQuery{Status: models.FilterCompleted}, 0, 2, models.ScopeGlobal); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestApplyReorder_LeavesUnlistedTasks(t *testing.T) {
	all := []models.Task{task("a", 5), task("b", 7)}
	got := ApplyReorder(all, []models.ReorderItem{{ID: "b", Order: 0}})
	if got[0].Order != 5 || got[1].Order != 0 {
		t.Errorf("orders = %d,%d, want 5,0", got[0].Order, got[1].Order)
	}
	if all[1].Order != 7 {
		t.Error("ApplyReorder modified its input")
	}
}
