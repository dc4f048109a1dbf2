// Package clinical turns region text plus a patient snapshot into proposed
// structured changes to the record.
package clinical

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/operator-ingest/wardround-cli/internal/model"
	"github.com/operator-ingest/wardround-cli/pkg/modelchat"
)

// Client is the proposeChanges capability.
type Client interface {
	ProposeChanges(ctx context.Context, req ProposeRequest) (*model.ClinicalLLMResult, error)
}

// ProposeRequest carries everything the clinical model sees: the patient
// snapshot, the round metadata, and the vision output.
type ProposeRequest struct {
	Patient     model.Patient
	Round       model.Round
	RegionTexts map[string]string
	Confidences map[string]float64
}

const systemPrompt = `You reconcile handwritten ward round annotations with a patient's ` +
	`existing record. Propose only changes the annotations support. Respond with a single ` +
	`JSON object: {"patient_id": string, "round_id": string, "proposed_changes": ` +
	`{"issues": [...], "investigations": [...], "tasks": [...]}, "llm_notes": string, ` +
	`"overall_confidence": number 0-1}. Issue actions: create_issue (label, subpoint.text), ` +
	`append_subpoint (issue_id or issue_label, subpoint.text). Investigation actions: ` +
	`add_investigation (investigation_type, name, details), update_investigation ` +
	`(investigation_id, result, status). Task actions: add_task (task, category, priority), ` +
	`complete_task (task_id or task).`

var responseSchema = json.RawMessage(`{
  "name": "clinical_change_proposal",
  "schema": {
    "type": "object",
    "properties": {
      "patient_id": {"type": "string"},
      "round_id": {"type": "string"},
      "proposed_changes": {
        "type": "object",
        "properties": {
          "issues": {"type": "array"},
          "investigations": {"type": "array"},
          "tasks": {"type": "array"}
        }
      },
      "llm_notes": {"type": "string"},
      "overall_confidence": {"type": "number"}
    },
    "required": ["proposed_changes", "overall_confidence"]
  }
}`)

type remoteClient struct {
	chat modelchat.Client
}

// NewRemote creates a clinical client backed by a chat-completion endpoint.
func NewRemote(chat modelchat.Client) Client {
	return &remoteClient{chat: chat}
}

func (c *remoteClient) ProposeChanges(ctx context.Context, req ProposeRequest) (*model.ClinicalLLMResult, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.chat.ChatCompletion(ctx, modelchat.ChatCompletionRequest{
		Messages: []modelchat.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &modelchat.ResponseFormat{Type: "json_schema", JSONSchema: responseSchema},
	})
	if err != nil {
		return nil, err
	}

	result := DecodeResult(resp.Content(), req.Patient.ID, req.Round.RoundID)
	zap.L().Debug("clinical: changes proposed",
		zap.String("patient", req.Patient.ID),
		zap.String("round", req.Round.RoundID),
		zap.Float64("confidence", result.OverallConfidence),
	)
	return result, nil
}

// DecodeResult decodes the model content leniently: missing change arrays
// default to empty and a missing confidence defaults to 0, so a garbled
// response degrades to "propose nothing, low confidence" instead of
// failing the card.
func DecodeResult(content, patientID, roundID string) *model.ClinicalLLMResult {
	result := &model.ClinicalLLMResult{
		PatientID: patientID,
		RoundID:   roundID,
	}

	span, err := modelchat.ExtractObject(content)
	if err != nil {
		zap.L().Warn("clinical: no JSON in model output, proposing nothing",
			zap.String("patient", patientID))
		return result
	}
	if err := json.Unmarshal([]byte(span), result); err != nil {
		zap.L().Warn("clinical: undecodable model output, proposing nothing",
			zap.String("patient", patientID), zap.Error(err))
		return &model.ClinicalLLMResult{PatientID: patientID, RoundID: roundID}
	}

	if result.PatientID == "" {
		result.PatientID = patientID
	}
	if result.RoundID == "" {
		result.RoundID = roundID
	}
	if result.OverallConfidence < 0 {
		result.OverallConfidence = 0
	} else if result.OverallConfidence > 1 {
		result.OverallConfidence = 1
	}
	return result
}

// buildPrompt serializes the patient snapshot and vision output. Only the
// record areas the planner writes are included in the snapshot.
func buildPrompt(req ProposeRequest) (string, error) {
	snapshot := map[string]any{
		"id":             req.Patient.ID,
		"mrn":            req.Patient.MRN,
		"bed":            req.Patient.Bed,
		"name":           req.Patient.Name,
		"issues":         req.Patient.Issues,
		"investigations": req.Patient.Investigations,
		"tasks":          req.Patient.Tasks,
	}
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return "", eris.Wrap(err, "clinical: marshal patient snapshot")
	}

	names := make([]string, 0, len(req.RegionTexts))
	for name := range req.RegionTexts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Round %s on ward %s (consultant %s).\n\nPatient record:\n%s\n\nCard regions:\n",
		req.Round.RoundID, req.Round.Ward, req.Round.Consultant, snapJSON)
	for _, name := range names {
		fmt.Fprintf(&b, "[%s] (confidence %.2f)\n%s\n\n", name, req.Confidences[name], req.RegionTexts[name])
	}
	return b.String(), nil
}
