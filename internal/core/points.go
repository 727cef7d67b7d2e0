package core

import "github.com/valter-silva-au/planwise/pkg/models"

// priorityMultipliers mirror the backend's completion reward table.
var priorityMultipliers = map[models.Priority]float64{
	models.PriorityLow:    1.0,
	models.PriorityMedium: 1.5,
	models.PriorityHigh:   2.0,
	models.PriorityUrgent: 3.0,
}

const (
	deepWorkBonus     = 5
	highLoadBonus     = 3
	highLoadThreshold = 8
	minutesPerBasePt  = 10
	minimumTaskPoints = 1
)

// TaskPoints previews the points the backend awards when the task is
// completed. The backend remains authoritative; this is display only.
func TaskPoints(t models.Task) int {
	base := t.EstimatedDuration / minutesPerBasePt

	mult, ok := priorityMultipliers[t.Priority]
	if !ok {
		mult = 1.0
	}

	total := int(float64(base) * mult)
	if t.IsDeepWork {
		total += deepWorkBonus
	}
	if t.CognitiveLoad >= highLoadThreshold {
		total += highLoadBonus
	}

	if total < minimumTaskPoints {
		return minimumTaskPoints
	}
	return total
}
