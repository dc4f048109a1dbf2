package model

import (
	"strings"
	"time"
)

// PatientStatus represents the lifecycle state of a patient on the round list.
type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
)

// Patient is the clinical record snapshot read and diff-applied by the
// import pipeline. The record system owns the schema; fields the pipeline
// does not write are carried through untouched.
type Patient struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	MRN                string         `json:"mrn"`
	Bed                string         `json:"bed"`
	OneLiner           string         `json:"oneLiner"`
	Status             PatientStatus  `json:"status"`
	Site               string         `json:"site"`
	CreatedAt          time.Time      `json:"createdAt"`
	LastUpdatedAt      time.Time      `json:"lastUpdatedAt"`
	RoundOrder         *int           `json:"roundOrder"`
	Tags               []string       `json:"tags"`
	IntakeNotes        []IntakeNote   `json:"intakeNotes"`
	Issues             []Issue        `json:"issues"`
	Investigations     []Investigation `json:"investigations"`
	Tasks              []Task         `json:"tasks"`
	WardEntries        []WardEntry    `json:"wardEntries"`
	RoundCompletedDate *string        `json:"roundCompletedDate"`
}

// IntakeNote is free-text captured at patient creation.
type IntakeNote struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Issue is one active clinical problem with its running subpoints.
type Issue struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Status    string     `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Subpoints []Subpoint `json:"subpoints"`
}

// Subpoint is one dated line under an issue.
type Subpoint struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Investigation is an ordered or resulted test on the record.
type Investigation struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Details     string    `json:"details,omitempty"`
	Result      string    `json:"result,omitempty"`
	Status      string    `json:"status,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Task is a single actionable item for the team.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// WardEntry is the audit artifact attached when a round's card is applied
// to the record.
type WardEntry struct {
	ID          string    `json:"id"`
	RoundID     string    `json:"roundId"`
	Timestamp   time.Time `json:"timestamp"`
	Transcript  string    `json:"transcript"`
	SourceImage string    `json:"sourceImage,omitempty"`
}

// FindIssue locates an issue by id, then by case-insensitive label.
// Returns the index or -1.
func (p *Patient) FindIssue(id, label string) int {
	if id != "" {
		for i := range p.Issues {
			if p.Issues[i].ID == id {
				return i
			}
		}
	}
	if label != "" {
		for i := range p.Issues {
			if strings.EqualFold(strings.TrimSpace(p.Issues[i].Label), strings.TrimSpace(label)) {
				return i
			}
		}
	}
	return -1
}
