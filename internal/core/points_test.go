package core

import (
	"testing"

	"github.com/valter-silva-au/planwise/pkg/models"
)

func TestTaskPoints(t *testing.T) {
	tests := []struct {
		name string
		task models.Task
		want int
	}{
		{"medium 30 min", models.Task{EstimatedDuration: 30, Priority: models.PriorityMedium, CognitiveLoad: 5}, 4},
		{"low 60 min", models.Task{EstimatedDuration: 60, Priority: models.PriorityLow, CognitiveLoad: 5}, 6},
		{"high 45 min", models.Task{EstimatedDuration: 45, Priority: models.PriorityHigh, CognitiveLoad: 5}, 8},
		{"urgent 20 min", models.Task{EstimatedDuration: 20, Priority: models.PriorityUrgent, CognitiveLoad: 5}, 6},
		{"deep work bonus", models.Task{EstimatedDuration: 30, Priority: models.PriorityLow, IsDeepWork: true}, 8},
		{"high load bonus", models.Task{EstimatedDuration: 30, Priority: models.PriorityLow, CognitiveLoad: 8}, 6},
		{"both bonuses", models.Task{EstimatedDuration: 90, Priority: models.PriorityHigh, CognitiveLoad: 9, IsDeepWork: true}, 26},
		{"minimum", models.Task{EstimatedDuration: 5, Priority: models.PriorityLow}, 1},
		{"unknown priority", models.Task{EstimatedDuration: 40, Priority: "whatever"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TaskPoints(tt.task); got != tt.want {
				t.Errorf("TaskPoints() = %d, want %d", got, tt.want)
			}
		})
	}
}
