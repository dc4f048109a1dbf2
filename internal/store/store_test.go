package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// eachDriver runs fn against every store driver over a fresh temp-dir
// backing file.
func eachDriver(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	drivers := map[string]string{
		"sqlite":   "state.db",
		"jsonfile": "state.json",
	}
	for name, file := range drivers {
		t.Run(name, func(t *testing.T) {
			s, err := New(name, filepath.Join(t.TempDir(), file))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			require.NoError(t, s.Migrate(context.Background()))
			fn(t, s)
		})
	}
}

func samplePatient(id string) model.Patient {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Patient{
		ID:            id,
		Name:          "Alex Rivera",
		MRN:           "MRN-100",
		Bed:           "12A",
		Status:        model.PatientStatusActive,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Issues: []model.Issue{
			{ID: "issue-1", Label: "Chest pain", Status: "active", CreatedAt: now},
		},
		Tasks: []model.Task{
			{ID: "task-1", Text: "chase potassium", Category: "general", CreatedAt: now},
		},
	}
}

func samplePending(id, patientID, roundID string) model.PendingWardRoundUpdate {
	return model.PendingWardRoundUpdate{
		ID:        id,
		PatientID: patientID,
		RoundID:   roundID,
		Reason:    model.PendingReasonLowConfidence,
		ProposedChanges: model.ProposedChanges{
			Tasks: []model.TaskChange{{Action: model.TaskActionAdd, Task: "repeat ECG"}},
		},
		Confidence:  0.4,
		SourceImage: "P1_R1_T1_annotated.png",
	}
}

func TestStoreSaveAndLoadPatient(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := samplePatient("P1")

		require.NoError(t, s.SavePatient(ctx, p))

		got, err := s.LoadPatient(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.Equal(t, p.Issues, got.Issues)
		assert.Equal(t, p.Tasks, got.Tasks)
	})
}

func TestStoreSavePatientUpserts(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := samplePatient("P1")
		require.NoError(t, s.SavePatient(ctx, p))

		p.Bed = "3C"
		p.Tasks = append(p.Tasks, model.Task{ID: "task-2", Text: "repeat ECG", Category: "general"})
		require.NoError(t, s.SavePatient(ctx, p))

		got, err := s.LoadPatient(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, "3C", got.Bed)
		assert.Len(t, got.Tasks, 2)

		patients, err := s.ListPatients(ctx)
		require.NoError(t, err)
		assert.Len(t, patients, 1)
	})
}

func TestStoreSavePatientRequiresID(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		err := s.SavePatient(context.Background(), model.Patient{Name: "No ID"})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestStoreLoadPatientNotFound(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		_, err := s.LoadPatient(context.Background(), "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestStoreListPatientsEmpty(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		patients, err := s.ListPatients(context.Background())
		require.NoError(t, err)
		assert.Empty(t, patients)
	})
}

func TestStoreQuickAddPatient(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		p, err := s.QuickAddPatient(ctx, "  Jordan Lee ", "fell at home, query NOF", "8 East")
		require.NoError(t, err)
		assert.Equal(t, "Jordan Lee", p.Name)
		assert.Equal(t, "8 East", p.Site)
		assert.Equal(t, model.PatientStatusActive, p.Status)
		assert.NotEmpty(t, p.ID)
		require.Len(t, p.IntakeNotes, 1)
		assert.Equal(t, "fell at home, query NOF", p.IntakeNotes[0].Text)

		got, err := s.LoadPatient(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
	})
}

func TestStoreQuickAddPatientRequiresName(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		_, err := s.QuickAddPatient(context.Background(), "   ", "", "")
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestStorePendingLifecycle(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		saved, err := s.SavePendingUpdate(ctx, samplePending("", "P1", "R1"))
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())

		_, err = s.SavePendingUpdate(ctx, samplePending("pend-2", "P2", "R2"))
		require.NoError(t, err)

		all, err := s.ListPendingUpdates(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		r1, err := s.ListPendingUpdates(ctx, "R1")
		require.NoError(t, err)
		require.Len(t, r1, 1)
		assert.Equal(t, saved.ID, r1[0].ID)
		assert.Equal(t, model.PendingReasonLowConfidence, r1[0].Reason)
		require.Len(t, r1[0].ProposedChanges.Tasks, 1)
		assert.Equal(t, "repeat ECG", r1[0].ProposedChanges.Tasks[0].Task)

		require.NoError(t, s.DeletePendingUpdate(ctx, saved.ID))

		all, err = s.ListPendingUpdates(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "pend-2", all[0].ID)
	})
}

func TestStoreDeletePendingNotFound(t *testing.T) {
	eachDriver(t, func(t *testing.T, s Store) {
		err := s.DeletePendingUpdate(context.Background(), "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New("oracle", "state")
	assert.Error(t, err)
}

func TestJSONFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewJSONFile(path)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SavePatient(ctx, samplePatient("P1")))
	_, err := s.SavePendingUpdate(ctx, samplePending("pend-1", "P1", "R1"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// No temp file left behind after the rename.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reopened := NewJSONFile(path)
	got, err := reopened.LoadPatient(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Rivera", got.Name)

	pending, err := reopened.ListPendingUpdates(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestJSONFileCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewJSONFile(path)
	_, err := s.ListPatients(context.Background())
	assert.Error(t, err)
}
