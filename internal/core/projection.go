package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// ParseStatusFilter converts user input into a StatusFilter. The empty
// string means FilterAll.
func ParseStatusFilter(s string) (models.StatusFilter, error) {
	switch models.StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", models.FilterAll:
		return models.FilterAll, nil
	case models.FilterActive:
		return models.FilterActive, nil
	case models.FilterCompleted:
		return models.FilterCompleted, nil
	default:
		return "", fmt.Errorf("invalid status filter %q: must be one of all, active, completed", s)
	}
}

// Project derives the displayed sequence from the full collection: tasks
// matching the status filter and the search text, sorted ascending by
// order. Ties keep their collection order. The input slice is never
// modified or aliased.
func Project(tasks []models.Task, q models.ViewQuery) []models.Task {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesStatus(t, q.Status) {
			continue
		}
		if needle != "" && !matchesSearch(t, needle) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// SortByOrder returns a copy of tasks sorted ascending by order.
func SortByOrder(tasks []models.Task) []models.Task {
	return Project(tasks, models.ViewQuery{Status: models.FilterAll})
}

func matchesStatus(t models.Task, f models.StatusFilter) bool {
	switch f {
	case models.FilterActive:
		return !t.Completed
	case models.FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// matchesSearch expects needle to be lowercased already.
func matchesSearch(t models.Task, needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}
