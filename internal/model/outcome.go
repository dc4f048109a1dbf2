package model

import "time"

// OutcomeStatus is the per-card result inside a round's import log.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomePending OutcomeStatus = "pending"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// PatientImportOutcome records what happened to one card.
type PatientImportOutcome struct {
	PatientID string        `json:"patientId,omitempty"`
	CardFile  string        `json:"cardFile"`
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	PendingID string        `json:"pendingId,omitempty"`
}

// WardRoundImportResult is the aggregate log written once per round. Its
// existence on disk is the at-most-once gate against reprocessing.
type WardRoundImportResult struct {
	RoundID    string                 `json:"roundId"`
	Metadata   *Round                 `json:"metadata,omitempty"`
	Patients   []PatientImportOutcome `json:"patients"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Error      string                 `json:"error,omitempty"`
}
