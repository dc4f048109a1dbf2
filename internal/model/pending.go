package model

import "time"

// PendingReason says why a proposal was withheld from application.
type PendingReason string

const (
	PendingReasonConflict      PendingReason = "conflict"
	PendingReasonLowConfidence PendingReason = "low_confidence"
)

// PendingWardRoundUpdate is a withheld proposal awaiting manual resolution.
// It persists until an operator deletes it; it is never silently promoted
// to an apply.
type PendingWardRoundUpdate struct {
	ID              string          `json:"id"`
	PatientID       string          `json:"patientId"`
	RoundID         string          `json:"roundId"`
	CreatedAt       time.Time       `json:"createdAt"`
	ProposedChanges ProposedChanges `json:"proposedChanges"`
	Reason          PendingReason   `json:"reason"`
	LLMNotes        string          `json:"llmNotes,omitempty"`
	Confidence      float64         `json:"confidence,omitempty"`
	SourceImage     string          `json:"sourceImage,omitempty"`
}
