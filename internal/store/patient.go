package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// newQuickPatient builds a minimal active patient, optionally seeded with a
// scratchpad intake note. Shared by both store drivers.
func newQuickPatient(name, scratchpad, ward string) (*model.Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.Wrap(model.ErrValidation, "store: patient name is required")
	}

	now := time.Now().UTC()
	p := &model.Patient{
		ID:             "patient-" + uuid.NewString(),
		Name:           name,
		Status:         model.PatientStatusActive,
		Site:           strings.TrimSpace(ward),
		CreatedAt:      now,
		LastUpdatedAt:  now,
		Tags:           []string{},
		IntakeNotes:    []model.IntakeNote{},
		Issues:         []model.Issue{},
		Investigations: []model.Investigation{},
		Tasks:          []model.Task{},
		WardEntries:    []model.WardEntry{},
	}
	if scratch := strings.TrimSpace(scratchpad); scratch != "" {
		p.IntakeNotes = append(p.IntakeNotes, model.IntakeNote{
			ID:        "intake-" + uuid.NewString(),
			Timestamp: now,
			Text:      scratch,
		})
	}
	return p, nil
}

// New creates the configured store driver.
func New(driver, path string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(path)
	case "jsonfile":
		return NewJSONFile(path), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
