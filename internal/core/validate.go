package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/planwise/pkg/models"
)

var validCategories = func() map[models.Category]bool {
	m := make(map[models.Category]bool, len(models.Categories))
	for _, c := range models.Categories {
		m[c] = true
	}
	return m
}()

var validPriorities = func() map[models.Priority]bool {
	m := make(map[models.Priority]bool, len(models.Priorities))
	for _, p := range models.Priorities {
		m[p] = true
	}
	return m
}()

// ValidateCreate checks a create payload against the backend schema so a
// request that would be rejected is never sent. Defaults must already be
// applied; a zero duration or load is reported as invalid.
func ValidateCreate(c models.TaskCreate) error {
	var problems []string
	problems = checkTitle(problems, c.Title)
	problems = checkCategory(problems, c.Category)
	problems = checkPriority(problems, c.Priority)
	problems = checkDuration(problems, c.EstimatedDuration)
	problems = checkLoad(problems, c.CognitiveLoad)
	if len(problems) > 0 {
		return &models.ValidationError{Problems: problems}
	}
	return nil
}

// ValidatePatch applies the create rules to every field the patch sets.
// An empty patch is rejected.
func ValidatePatch(p models.TaskPatch) error {
	if p.IsEmpty() {
		return &models.ValidationError{Problems: []string{"update sets no fields"}}
	}

	var problems []string
	if p.Title != nil {
		problems = checkTitle(problems, *p.Title)
	}
	if p.Category != nil {
		problems = checkCategory(problems, *p.Category)
	}
	if p.Priority != nil {
		problems = checkPriority(problems, *p.Priority)
	}
	if p.EstimatedDuration != nil {
		problems = checkDuration(problems, *p.EstimatedDuration)
	}
	if p.CognitiveLoad != nil {
		problems = checkLoad(problems, *p.CognitiveLoad)
	}
	if p.Order != nil && *p.Order < 0 {
		problems = append(problems, fmt.Sprintf("order must be non-negative, got %d", *p.Order))
	}
	if len(problems) > 0 {
		return &models.ValidationError{Problems: problems}
	}
	return nil
}

func checkTitle(problems []string, title string) []string {
	if strings.TrimSpace(title) == "" {
		return append(problems, "title must not be empty")
	}
	return problems
}

func checkCategory(problems []string, c models.Category) []string {
	if !validCategories[c] {
		return append(problems, fmt.Sprintf("category %q is invalid, must be one of: %s", c, joinValues(models.Categories)))
	}
	return problems
}

func checkPriority(problems []string, p models.Priority) []string {
	if !validPriorities[p] {
		return append(problems, fmt.Sprintf("priority %q is invalid, must be one of: %s", p, joinValues(models.Priorities)))
	}
	return problems
}

func checkDuration(problems []string, minutes int) []string {
	if minutes <= 0 {
		return append(problems, fmt.Sprintf("estimated_duration must be positive, got %d", minutes))
	}
	return problems
}

func checkLoad(problems []string, load int) []string {
	if load < models.MinCognitiveLoad || load > models.MaxCognitiveLoad {
		return append(problems, fmt.Sprintf("cognitive_load %d is invalid, must be between %d and %d",
			load, models.MinCognitiveLoad, models.MaxCognitiveLoad))
	}
	return problems
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
