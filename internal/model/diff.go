package model

// WardUpdateDiff is the typed diff the planner produces and the applier
// consumes. Only the record areas named by non-empty arrays are touched.
type WardUpdateDiff struct {
	IssuesAdded          []Issue         `json:"issuesAdded,omitempty"`
	IssuesUpdated        []IssueUpdate   `json:"issuesUpdated,omitempty"`
	InvestigationsAdded  []Investigation `json:"investigationsAdded,omitempty"`
	InvestigationsUpdated []InvestigationUpdate `json:"investigationsUpdated,omitempty"`
	TasksAdded           []Task          `json:"tasksAdded,omitempty"`
	TasksUpdated         []Task          `json:"tasksUpdated,omitempty"`
	TasksCompletedByID   []string        `json:"tasksCompletedById,omitempty"`
	TasksCompletedByText []string        `json:"tasksCompletedByText,omitempty"`
}

// IssueUpdate appends subpoints to an existing issue.
type IssueUpdate struct {
	IssueID   string     `json:"issueId"`
	Subpoints []Subpoint `json:"subpoints"`
}

// InvestigationUpdate patches result/status on an existing investigation.
type InvestigationUpdate struct {
	InvestigationID string `json:"investigationId"`
	Result          string `json:"result,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Empty reports whether the diff would change nothing.
func (d WardUpdateDiff) Empty() bool {
	return len(d.IssuesAdded) == 0 && len(d.IssuesUpdated) == 0 &&
		len(d.InvestigationsAdded) == 0 && len(d.InvestigationsUpdated) == 0 &&
		len(d.TasksAdded) == 0 && len(d.TasksUpdated) == 0 &&
		len(d.TasksCompletedByID) == 0 && len(d.TasksCompletedByText) == 0
}
