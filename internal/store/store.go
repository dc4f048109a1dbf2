// Package store persists patient snapshots and the pending-update queue.
package store

import (
	"context"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// Store is the persistence interface for the ward round pipeline. All
// writes originate from the importer's single thread of control, plus the
// HTTP server's pending deletes; implementations serialize internally.
type Store interface {
	// Patients
	LoadPatient(ctx context.Context, patientID string) (*model.Patient, error)
	SavePatient(ctx context.Context, patient model.Patient) error
	ListPatients(ctx context.Context) ([]model.Patient, error)
	QuickAddPatient(ctx context.Context, name, scratchpad, ward string) (*model.Patient, error)

	// Pending updates
	ListPendingUpdates(ctx context.Context, roundID string) ([]model.PendingWardRoundUpdate, error)
	SavePendingUpdate(ctx context.Context, update model.PendingWardRoundUpdate) (*model.PendingWardRoundUpdate, error)
	DeletePendingUpdate(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
