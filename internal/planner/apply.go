package planner

import (
	"strings"
	"time"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// Apply commits an accepted diff to a copy of the patient and returns it.
// Only the record areas named by non-empty diff arrays are touched; every
// other field passes through unchanged. The ward entry is the audit
// artifact for the applied card.
func Apply(patient model.Patient, diff model.WardUpdateDiff, entry model.WardEntry) model.Patient {
	updated := patient
	updated.Issues = append([]model.Issue(nil), patient.Issues...)
	updated.Investigations = append([]model.Investigation(nil), patient.Investigations...)
	updated.Tasks = append([]model.Task(nil), patient.Tasks...)
	updated.WardEntries = append([]model.WardEntry(nil), patient.WardEntries...)

	updated.Issues = append(updated.Issues, diff.IssuesAdded...)
	for _, iu := range diff.IssuesUpdated {
		for i := range updated.Issues {
			if updated.Issues[i].ID == iu.IssueID {
				subs := append([]model.Subpoint(nil), updated.Issues[i].Subpoints...)
				updated.Issues[i].Subpoints = append(subs, iu.Subpoints...)
				break
			}
		}
	}

	updated.Investigations = append(updated.Investigations, diff.InvestigationsAdded...)
	for _, vu := range diff.InvestigationsUpdated {
		for i := range updated.Investigations {
			if updated.Investigations[i].ID == vu.InvestigationID {
				if vu.Result != "" {
					updated.Investigations[i].Result = vu.Result
				}
				if vu.Status != "" {
					updated.Investigations[i].Status = vu.Status
				}
				break
			}
		}
	}

	updated.Tasks = append(updated.Tasks, diff.TasksAdded...)
	for _, tu := range diff.TasksUpdated {
		for i := range updated.Tasks {
			if updated.Tasks[i].ID == tu.ID {
				updated.Tasks[i].Text = tu.Text
				updated.Tasks[i].Category = tu.Category
				updated.Tasks[i].Priority = tu.Priority
				break
			}
		}
	}

	completedAt := entry.Timestamp
	for _, id := range diff.TasksCompletedByID {
		completeTask(updated.Tasks, completedAt, func(t *model.Task) bool { return t.ID == id })
	}
	for _, text := range diff.TasksCompletedByText {
		completeTask(updated.Tasks, completedAt, func(t *model.Task) bool {
			return !t.Completed && strings.EqualFold(strings.TrimSpace(t.Text), strings.TrimSpace(text))
		})
	}

	updated.WardEntries = append(updated.WardEntries, entry)
	updated.LastUpdatedAt = entry.Timestamp
	return updated
}

func completeTask(tasks []model.Task, at time.Time, match func(*model.Task) bool) {
	for i := range tasks {
		if match(&tasks[i]) {
			tasks[i].Completed = true
			done := at
			tasks[i].CompletedAt = &done
			return
		}
	}
}
