package model

// VisionModelResult is what the vision model reads off one card. Ephemeral;
// it survives only inside the round's import log.
type VisionModelResult struct {
	PatientIDFromCard string             `json:"patient_id_from_card"`
	RoundIDFromCard   string             `json:"round_id_from_card"`
	Regions           map[string]string  `json:"regions"`
	Confidence        map[string]float64 `json:"confidence"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// ClinicalLLMResult is the clinical model's proposal for one patient.
type ClinicalLLMResult struct {
	PatientID         string          `json:"patient_id"`
	RoundID           string          `json:"round_id"`
	ProposedChanges   ProposedChanges `json:"proposed_changes"`
	LLMNotes          string          `json:"llm_notes,omitempty"`
	OverallConfidence float64         `json:"overall_confidence"`
}

// ProposedChanges groups the change proposals by record area.
type ProposedChanges struct {
	Issues         []IssueChange         `json:"issues"`
	Investigations []InvestigationChange `json:"investigations"`
	Tasks          []TaskChange          `json:"tasks"`
}

// Empty reports whether the proposal contains no changes at all.
func (c ProposedChanges) Empty() bool {
	return len(c.Issues) == 0 && len(c.Investigations) == 0 && len(c.Tasks) == 0
}

// Issue change actions.
const (
	IssueActionCreate         = "create_issue"
	IssueActionAppendSubpoint = "append_subpoint"
)

// IssueChange proposes creating an issue or appending to an existing one.
// For append_subpoint, IssueID or IssueLabel identifies the target; when
// neither matches an existing issue, the planner falls back to creating a
// new issue carrying the subpoint.
type IssueChange struct {
	Action     string         `json:"action"`
	Label      string         `json:"label,omitempty"`
	IssueID    string         `json:"issue_id,omitempty"`
	IssueLabel string         `json:"issue_label,omitempty"`
	Subpoint   SubpointChange `json:"subpoint"`
}

// SubpointChange is the text of a proposed subpoint.
type SubpointChange struct {
	Text string `json:"text"`
}

// Investigation change actions.
const (
	InvestigationActionAdd    = "add_investigation"
	InvestigationActionUpdate = "update_investigation"
)

// InvestigationChange proposes a new or updated investigation.
type InvestigationChange struct {
	Action            string `json:"action"`
	InvestigationID   string `json:"investigation_id,omitempty"`
	InvestigationType string `json:"investigation_type,omitempty"`
	Name              string `json:"name,omitempty"`
	Details           string `json:"details,omitempty"`
	Result            string `json:"result,omitempty"`
	Status            string `json:"status,omitempty"`
}

// Task change actions.
const (
	TaskActionAdd      = "add_task"
	TaskActionComplete = "complete_task"
)

// TaskChange proposes adding or completing a task. complete_task targets a
// task by id when the model echoes one, otherwise by exact text.
type TaskChange struct {
	Action   string `json:"action"`
	Task     string `json:"task,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
}
