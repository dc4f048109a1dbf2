package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// StateDocument is the single-file layout the original daemon kept in
// Logs/ward_round_state.json.
type StateDocument struct {
	Patients []model.Patient                `json:"patients"`
	Pending  []model.PendingWardRoundUpdate `json:"pending"`
}

// JSONFileStore implements Store over one JSON document. Kept for drop-in
// compatibility with existing state files; every save is
// write-temp-then-rename so a crash mid-write cannot truncate state.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile creates a JSON-file store at path. The file is created on
// first save.
func NewJSONFile(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Migrate(_ context.Context) error {
	return eris.Wrap(os.MkdirAll(filepath.Dir(s.path), 0o755), "jsonfile: create state dir")
}

func (s *JSONFileStore) Close() error { return nil }

// load reads the whole document. A missing file is an empty document.
func (s *JSONFileStore) load() (*StateDocument, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &StateDocument{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "jsonfile: read %s", s.path)
	}
	var doc StateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "jsonfile: decode %s", s.path)
	}
	return &doc, nil
}

// save writes the document atomically.
func (s *JSONFileStore) save(doc *StateDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "jsonfile: encode state")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "jsonfile: create state dir")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return eris.Wrapf(err, "jsonfile: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "jsonfile: rename %s", tmp)
	}
	return nil
}

func (s *JSONFileStore) LoadPatient(_ context.Context, patientID string) (*model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Patients {
		if doc.Patients[i].ID == patientID {
			p := doc.Patients[i]
			return &p, nil
		}
	}
	return nil, eris.Wrapf(model.ErrNotFound, "jsonfile: patient %s", patientID)
}

func (s *JSONFileStore) SavePatient(_ context.Context, patient model.Patient) error {
	if patient.ID == "" {
		return eris.Wrap(model.ErrValidation, "jsonfile: patient missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range doc.Patients {
		if doc.Patients[i].ID == patient.ID {
			doc.Patients[i] = patient
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Patients = append(doc.Patients, patient)
	}
	return s.save(doc)
}

func (s *JSONFileStore) ListPatients(_ context.Context) ([]model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Patients, nil
}

func (s *JSONFileStore) QuickAddPatient(ctx context.Context, name, scratchpad, ward string) (*model.Patient, error) {
	p, err := newQuickPatient(name, scratchpad, ward)
	if err != nil {
		return nil, err
	}
	if err := s.SavePatient(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *JSONFileStore) ListPendingUpdates(_ context.Context, roundID string) ([]model.PendingWardRoundUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if roundID == "" {
		return doc.Pending, nil
	}
	var filtered []model.PendingWardRoundUpdate
	for _, u := range doc.Pending {
		if u.RoundID == roundID {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (s *JSONFileStore) SavePendingUpdate(_ context.Context, update model.PendingWardRoundUpdate) (*model.PendingWardRoundUpdate, error) {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	doc.Pending = append(doc.Pending, update)
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &update, nil
}

func (s *JSONFileStore) DeletePendingUpdate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Pending {
		if doc.Pending[i].ID == id {
			doc.Pending = append(doc.Pending[:i], doc.Pending[i+1:]...)
			return s.save(doc)
		}
	}
	return eris.Wrapf(model.ErrNotFound, "jsonfile: pending update %s", id)
}
