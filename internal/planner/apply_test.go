package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

func testEntry(at time.Time) model.WardEntry {
	return model.WardEntry{
		ID:          "entry-1",
		RoundID:     "R1",
		Timestamp:   at,
		Transcript:  "issues: chest pain settled",
		SourceImage: "P1_R1_T1_annotated.png",
	}
}

func TestApplyAddsAndUpdates(t *testing.T) {
	now := time.Now().UTC()
	patient := testPatient(now.Add(-24 * time.Hour))

	diff := model.WardUpdateDiff{
		IssuesAdded: []model.Issue{{ID: "issue-2", Label: "AKI", Status: "active"}},
		IssuesUpdated: []model.IssueUpdate{{
			IssueID:   "issue-1",
			Subpoints: []model.Subpoint{{ID: "sub-2", Text: "pain settled"}},
		}},
		TasksAdded:         []model.Task{{ID: "task-2", Text: "repeat ECG", Category: "general"}},
		TasksCompletedByID: []string{"task-1"},
	}

	updated := Apply(patient, diff, testEntry(now))

	require.Len(t, updated.Issues, 2)
	assert.Len(t, updated.Issues[0].Subpoints, 2)
	assert.Equal(t, "pain settled", updated.Issues[0].Subpoints[1].Text)
	assert.Equal(t, "AKI", updated.Issues[1].Label)

	require.Len(t, updated.Tasks, 2)
	assert.True(t, updated.Tasks[0].Completed)
	require.NotNil(t, updated.Tasks[0].CompletedAt)
	assert.Equal(t, now, *updated.Tasks[0].CompletedAt)
	assert.False(t, updated.Tasks[1].Completed)

	require.Len(t, updated.WardEntries, 1)
	assert.Equal(t, "R1", updated.WardEntries[0].RoundID)
	assert.Equal(t, now, updated.LastUpdatedAt)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	now := time.Now().UTC()
	patient := testPatient(now.Add(-24 * time.Hour))
	before := patient.LastUpdatedAt

	_ = Apply(patient, model.WardUpdateDiff{
		IssuesUpdated: []model.IssueUpdate{{
			IssueID:   "issue-1",
			Subpoints: []model.Subpoint{{ID: "sub-2", Text: "pain settled"}},
		}},
		TasksCompletedByID: []string{"task-1"},
	}, testEntry(now))

	assert.Len(t, patient.Issues[0].Subpoints, 1)
	assert.False(t, patient.Tasks[0].Completed)
	assert.Empty(t, patient.WardEntries)
	assert.Equal(t, before, patient.LastUpdatedAt)
}

func TestApplyTouchesOnlyDiffedAreas(t *testing.T) {
	now := time.Now().UTC()
	patient := testPatient(now.Add(-24 * time.Hour))
	patient.Investigations = []model.Investigation{
		{ID: "inv-1", Type: "lab", Name: "UEC", Status: "requested"},
	}

	diff := model.WardUpdateDiff{
		InvestigationsAdded: []model.Investigation{
			{ID: "inv-2", Type: "imaging", Name: "CXR", Status: "requested"},
		},
	}

	updated := Apply(patient, diff, testEntry(now))

	assert.Equal(t, patient.Issues, updated.Issues)
	assert.Equal(t, patient.Tasks, updated.Tasks)
	require.Len(t, updated.Investigations, 2)
	assert.Equal(t, "CXR", updated.Investigations[1].Name)
}

func TestApplyInvestigationUpdatePatchesResult(t *testing.T) {
	now := time.Now().UTC()
	patient := testPatient(now.Add(-24 * time.Hour))
	patient.Investigations = []model.Investigation{
		{ID: "inv-1", Type: "lab", Name: "UEC", Details: "daily", Status: "requested"},
	}

	updated := Apply(patient, model.WardUpdateDiff{
		InvestigationsUpdated: []model.InvestigationUpdate{
			{InvestigationID: "inv-1", Result: "K 5.9", Status: "resulted"},
		},
	}, testEntry(now))

	require.Len(t, updated.Investigations, 1)
	assert.Equal(t, "K 5.9", updated.Investigations[0].Result)
	assert.Equal(t, "resulted", updated.Investigations[0].Status)
	assert.Equal(t, "daily", updated.Investigations[0].Details)
}

func TestApplyCompleteByTextSkipsCompleted(t *testing.T) {
	now := time.Now().UTC()
	done := now.Add(-time.Hour)
	patient := testPatient(now.Add(-24 * time.Hour))
	patient.Tasks = []model.Task{
		{ID: "task-1", Text: "Chase Potassium", Completed: true, CompletedAt: &done},
		{ID: "task-2", Text: "chase potassium"},
	}

	updated := Apply(patient, model.WardUpdateDiff{
		TasksCompletedByText: []string{"  chase potassium "},
	}, testEntry(now))

	// The already-completed task keeps its original timestamp; the match
	// lands on the open duplicate.
	assert.Equal(t, done, *updated.Tasks[0].CompletedAt)
	assert.True(t, updated.Tasks[1].Completed)
	require.NotNil(t, updated.Tasks[1].CompletedAt)
	assert.Equal(t, now, *updated.Tasks[1].CompletedAt)
}
