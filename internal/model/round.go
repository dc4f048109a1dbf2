package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// CardSuffix is the filename suffix that marks an annotated card image
// inside a round folder.
const CardSuffix = "_annotated.png"

// Round is the metadata file (round.json) describing one batch of cards.
// ExportedAt is the record-snapshot time used for conflict detection; when
// absent, conflict detection is skipped.
type Round struct {
	RoundID       string     `json:"round_id"`
	CreatedAt     time.Time  `json:"created_at"`
	Ward          string     `json:"ward"`
	Consultant    string     `json:"consultant"`
	PatientCount  int        `json:"patient_count"`
	TemplateID    string     `json:"template_id"`
	LayoutVersion int        `json:"layout_version"`
	ExportedAt    *time.Time `json:"exported_at,omitempty"`
}

// Validate checks the fields the importer depends on.
func (r *Round) Validate() error {
	if r.RoundID == "" {
		return eris.Wrap(ErrValidation, "round: missing round_id")
	}
	if r.TemplateID == "" {
		return eris.Wrap(ErrValidation, "round: missing template_id")
	}
	if r.LayoutVersion <= 0 {
		return eris.Wrap(ErrValidation, "round: layout_version must be positive")
	}
	return nil
}

// CardName carries the identifiers a card filename encodes.
type CardName struct {
	PatientID  string
	RoundID    string
	TemplateID string
}

// ParseCardName decodes {patientId}_{roundId}_{templateId}_annotated.png.
// The round id is everything between the first and last underscore-joined
// segment, so underscores inside patient or template ids are ambiguous;
// callers cross-check the result against round.json.
func ParseCardName(filename string) (CardName, error) {
	if !strings.HasSuffix(filename, CardSuffix) {
		return CardName{}, eris.Wrapf(ErrBadFilename, "card %q: missing %s suffix", filename, CardSuffix)
	}
	stem := strings.TrimSuffix(filename, CardSuffix)
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return CardName{}, eris.Wrapf(ErrBadFilename, "card %q: want patient_round_template segments", filename)
	}
	name := CardName{
		PatientID:  parts[0],
		RoundID:    strings.Join(parts[1:len(parts)-1], "_"),
		TemplateID: parts[len(parts)-1],
	}
	if name.PatientID == "" || name.RoundID == "" || name.TemplateID == "" {
		return CardName{}, eris.Wrapf(ErrBadFilename, "card %q: empty segment", filename)
	}
	return name, nil
}
