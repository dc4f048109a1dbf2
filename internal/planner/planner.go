// Package planner converts a clinical model proposal into a typed diff and
// decides whether it can be applied or must wait for an operator. It is the
// only decision logic in the pipeline and performs no I/O.
package planner

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// Status is the planner's verdict for one card. The planner itself only
// produces apply or pending; skip originates upstream in the importer.
type Status string

const (
	StatusApply   Status = "apply"
	StatusPending Status = "pending"
	StatusSkip    Status = "skip"
)

// Thresholds are the confidence gates.
type Thresholds struct {
	MinOverallConfidence float64
	MinRegionConfidence  float64
	CriticalRegions      []string
}

// PlannedUpdate is the planner's output: either a diff ready to commit or
// a pending update awaiting manual resolution.
type PlannedUpdate struct {
	Status  Status
	Diff    *model.WardUpdateDiff
	Pending *model.PendingWardRoundUpdate
	Reason  model.PendingReason
}

// Plan gates the proposal and, when it passes, builds the diff. Conflict
// is checked first: a record edited after the round's export snapshot
// always pends regardless of confidence. The patient is never mutated
// here.
func Plan(
	patient model.Patient,
	res *model.ClinicalLLMResult,
	th Thresholds,
	regionConf map[string]float64,
	exportedAt *time.Time,
	sourceImage string,
) PlannedUpdate {
	if exportedAt == nil {
		// Fail-open: without a snapshot time there is nothing to compare
		// against, so concurrent edits go undetected for this round.
		zap.L().Warn("planner: round has no exported_at, conflict detection skipped",
			zap.String("patient", patient.ID),
			zap.String("round", res.RoundID),
		)
	}

	if reason, pends := gate(patient, res, th, regionConf, exportedAt); pends {
		return PlannedUpdate{
			Status: StatusPending,
			Reason: reason,
			Pending: &model.PendingWardRoundUpdate{
				ID:              uuid.NewString(),
				PatientID:       patient.ID,
				RoundID:         res.RoundID,
				CreatedAt:       time.Now().UTC(),
				ProposedChanges: res.ProposedChanges,
				Reason:          reason,
				LLMNotes:        res.LLMNotes,
				Confidence:      res.OverallConfidence,
				SourceImage:     sourceImage,
			},
		}
	}

	diff := BuildDiff(patient, res.ProposedChanges)
	return PlannedUpdate{Status: StatusApply, Diff: &diff}
}

// gate returns the pending reason, conflict taking precedence.
func gate(
	patient model.Patient,
	res *model.ClinicalLLMResult,
	th Thresholds,
	regionConf map[string]float64,
	exportedAt *time.Time,
) (model.PendingReason, bool) {
	if exportedAt != nil && patient.LastUpdatedAt.After(*exportedAt) {
		return model.PendingReasonConflict, true
	}
	if res.OverallConfidence < th.MinOverallConfidence {
		return model.PendingReasonLowConfidence, true
	}
	for _, region := range th.CriticalRegions {
		if conf, ok := regionConf[region]; ok && conf < th.MinRegionConfidence {
			return model.PendingReasonLowConfidence, true
		}
	}
	return "", false
}

// BuildDiff turns proposed changes into a typed diff against the patient.
func BuildDiff(patient model.Patient, changes model.ProposedChanges) model.WardUpdateDiff {
	now := time.Now().UTC()
	var diff model.WardUpdateDiff

	for _, ch := range changes.Issues {
		switch ch.Action {
		case model.IssueActionCreate:
			diff.IssuesAdded = append(diff.IssuesAdded, newIssue(ch.Label, ch.Subpoint.Text, now))

		case model.IssueActionAppendSubpoint:
			sub := model.Subpoint{ID: uuid.NewString(), Text: ch.Subpoint.Text, Timestamp: now}
			if idx := patient.FindIssue(ch.IssueID, ch.IssueLabel); idx >= 0 {
				appendIssueUpdate(&diff, patient.Issues[idx].ID, sub)
				continue
			}
			// The card references an issue the record does not have. An
			// issue created earlier in this same proposal may match; failing
			// that, create a new issue carrying the subpoint.
			if i := findAddedIssue(diff.IssuesAdded, ch.IssueLabel); i >= 0 {
				diff.IssuesAdded[i].Subpoints = append(diff.IssuesAdded[i].Subpoints, sub)
				continue
			}
			label := ch.IssueLabel
			if label == "" {
				label = ch.Label
			}
			issue := newIssue(label, "", now)
			issue.Subpoints = append(issue.Subpoints, sub)
			diff.IssuesAdded = append(diff.IssuesAdded, issue)
		}
	}

	for _, ch := range changes.Investigations {
		switch ch.Action {
		case model.InvestigationActionAdd, "":
			status := ch.Status
			if status == "" {
				status = "requested"
			}
			diff.InvestigationsAdded = append(diff.InvestigationsAdded, model.Investigation{
				ID:          uuid.NewString(),
				Type:        mapInvestigationType(ch.InvestigationType),
				Name:        ch.Name,
				Details:     ch.Details,
				Result:      ch.Result,
				Status:      status,
				RequestedAt: now,
			})
		case model.InvestigationActionUpdate:
			if ch.InvestigationID == "" {
				continue
			}
			diff.InvestigationsUpdated = append(diff.InvestigationsUpdated, model.InvestigationUpdate{
				InvestigationID: ch.InvestigationID,
				Result:          ch.Result,
				Status:          ch.Status,
			})
		}
	}

	for _, ch := range changes.Tasks {
		switch ch.Action {
		case model.TaskActionAdd, "":
			category := ch.Category
			if category == "" {
				category = "general"
			}
			diff.TasksAdded = append(diff.TasksAdded, model.Task{
				ID:        uuid.NewString(),
				Text:      ch.Task,
				Category:  category,
				Priority:  ch.Priority,
				CreatedAt: now,
			})
		case model.TaskActionComplete:
			if ch.TaskID != "" {
				diff.TasksCompletedByID = append(diff.TasksCompletedByID, ch.TaskID)
			} else if ch.Task != "" {
				diff.TasksCompletedByText = append(diff.TasksCompletedByText, ch.Task)
			}
		}
	}

	return diff
}

func newIssue(label, initialSubpoint string, now time.Time) model.Issue {
	issue := model.Issue{
		ID:        uuid.NewString(),
		Label:     label,
		Status:    "active",
		CreatedAt: now,
	}
	if initialSubpoint != "" {
		issue.Subpoints = append(issue.Subpoints, model.Subpoint{
			ID:        uuid.NewString(),
			Text:      initialSubpoint,
			Timestamp: now,
		})
	}
	return issue
}

func appendIssueUpdate(diff *model.WardUpdateDiff, issueID string, sub model.Subpoint) {
	for i := range diff.IssuesUpdated {
		if diff.IssuesUpdated[i].IssueID == issueID {
			diff.IssuesUpdated[i].Subpoints = append(diff.IssuesUpdated[i].Subpoints, sub)
			return
		}
	}
	diff.IssuesUpdated = append(diff.IssuesUpdated, model.IssueUpdate{
		IssueID:   issueID,
		Subpoints: []model.Subpoint{sub},
	})
}

func findAddedIssue(added []model.Issue, label string) int {
	if label == "" {
		return -1
	}
	for i := range added {
		if strings.EqualFold(strings.TrimSpace(added[i].Label), strings.TrimSpace(label)) {
			return i
		}
	}
	return -1
}

// mapInvestigationType normalizes card shorthand to record types. Bloods
// are filed as lab investigations; everything else passes through.
func mapInvestigationType(t string) string {
	if strings.EqualFold(strings.TrimSpace(t), "bloods") {
		return "lab"
	}
	return t
}
