package swarm

import "github.com/beargallbladder/golfswarm/internal/domain"

// Task categories recognized by the classifier.
const (
	categoryPerformance = "performance"
	categoryUI          = "ui"
	categoryMobile      = "mobile"
	categorySEO         = "seo"
)

// Classification partitions a task batch into the four lanes.
type Classification struct {
	Critical    []domain.Task
	Performance []domain.Task
	UI          []domain.Task
	Background  []domain.Task
}

// Lane returns the tasks classified into the given lane.
func (c Classification) Lane(lane domain.Lane) []domain.Task {
	switch lane {
	case domain.LaneCritical:
		return c.Critical
	case domain.LanePerformance:
		return c.Performance
	case domain.LaneUI:
		return c.UI
	case domain.LaneBackground:
		return c.Background
	default:
		return nil
	}
}

// Classify partitions tasks into lanes by priority and category. It is a
// pure function with no side effects.
//
// Lane membership is not exclusive: a task whose fields satisfy more than
// one predicate appears in every matching lane and executes once per lane.
// Lanes are independent priority views over the batch, so a critical
// performance task legitimately needs both the urgency of the critical
// lane and the caching of the performance lane.
func Classify(tasks []domain.Task) Classification {
	var c Classification
	for _, task := range tasks {
		if task.Priority == domain.TaskPriorityCritical {
			c.Critical = append(c.Critical, task)
		}
		if task.Category == categoryPerformance {
			c.Performance = append(c.Performance, task)
		}
		if task.Category == categoryUI || task.Category == categoryMobile {
			c.UI = append(c.UI, task)
		}
		if task.Priority == domain.TaskPriorityLow || task.Category == categorySEO {
			c.Background = append(c.Background, task)
		}
	}
	return c
}
