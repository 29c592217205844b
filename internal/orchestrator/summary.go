package orchestrator

import (
	"strings"

	"github.com/taskwright/taskwright/pkg/models"
)

// BuildSummary reports the batch's outcome: per-status counts and one line
// per task with its reason for not completing, if any.
func BuildSummary(batch *models.Batch) *models.Summary {
	s := &models.Summary{
		BatchID: batch.ID,
		Total:   len(batch.Tasks),
	}

	for _, task := range batch.Tasks {
		if task.Safety.Safe {
			s.Safe++
		} else {
			s.Unsafe++
		}

		report := models.TaskReport{
			Order:       task.Order,
			Type:        task.Type,
			Description: task.Description,
			Status:      task.Status,
			Result:      task.Result,
		}

		switch task.Status {
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusFailed:
			s.Failed++
			report.Reason = task.ErrorMessage
		case models.TaskStatusSkipped:
			s.Skipped++
			report.Reason = task.ErrorMessage
		case models.TaskStatusRejected:
			report.Reason = task.ErrorMessage
		case models.TaskStatusAwaitingInfo:
			s.NeedingInfo++
			report.Reason = "missing information: " + strings.Join(task.MissingInfo, ", ")
		case models.TaskStatusAwaitingApproval:
			s.AwaitingApproval++
			report.Reason = "awaiting approval"
		case models.TaskStatusPending, models.TaskStatusApproved:
			s.ReadyToExecute++
		}

		s.Tasks = append(s.Tasks, report)
	}

	return s
}
