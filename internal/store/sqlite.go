package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Each patient and
// pending update is one row with a JSON document column, so a write
// touches only its own key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS patients (
	id         TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pending_updates (
	id         TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	round_id   TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pending_round_id ON pending_updates(round_id);
CREATE INDEX IF NOT EXISTS idx_pending_patient_id ON pending_updates(patient_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadPatient(ctx context.Context, patientID string) (*model.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM patients WHERE id = ?`, patientID)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: patient %s", patientID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load patient %s", patientID)
	}

	var p model.Patient
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal patient %s", patientID)
	}
	return &p, nil
}

func (s *SQLiteStore) SavePatient(ctx context.Context, patient model.Patient) error {
	if patient.ID == "" {
		return eris.Wrap(model.ErrValidation, "sqlite: patient missing id")
	}
	doc, err := json.Marshal(patient)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal patient")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO patients (id, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		patient.ID, string(doc), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save patient %s", patient.ID)
}

func (s *SQLiteStore) ListPatients(ctx context.Context) ([]model.Patient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM patients ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list patients")
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan patient")
		}
		var p model.Patient
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal patient")
		}
		patients = append(patients, p)
	}
	return patients, eris.Wrap(rows.Err(), "sqlite: list patients iterate")
}

func (s *SQLiteStore) QuickAddPatient(ctx context.Context, name, scratchpad, ward string) (*model.Patient, error) {
	p, err := newQuickPatient(name, scratchpad, ward)
	if err != nil {
		return nil, err
	}
	if err := s.SavePatient(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) ListPendingUpdates(ctx context.Context, roundID string) ([]model.PendingWardRoundUpdate, error) {
	query := `SELECT doc FROM pending_updates`
	var args []any
	if roundID != "" {
		query += ` WHERE round_id = ?`
		args = append(args, roundID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending")
	}
	defer rows.Close()

	var pending []model.PendingWardRoundUpdate
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pending")
		}
		var u model.PendingWardRoundUpdate
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pending")
		}
		pending = append(pending, u)
	}
	return pending, eris.Wrap(rows.Err(), "sqlite: list pending iterate")
}

func (s *SQLiteStore) SavePendingUpdate(ctx context.Context, update model.PendingWardRoundUpdate) (*model.PendingWardRoundUpdate, error) {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(update)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal pending")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_updates (id, patient_id, round_id, doc, created_at) VALUES (?, ?, ?, ?, ?)`,
		update.ID, update.PatientID, update.RoundID, string(doc), update.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert pending %s", update.ID)
	}
	return &update, nil
}

func (s *SQLiteStore) DeletePendingUpdate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_updates WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete pending %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "sqlite: pending update %s", id)
	}
	return nil
}
