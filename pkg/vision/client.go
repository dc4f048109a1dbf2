// Package vision reads the named regions of an annotated ward-round card
// into raw text with per-region confidence.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/operator-ingest/wardround-cli/internal/layout"
	"github.com/operator-ingest/wardround-cli/internal/model"
	"github.com/operator-ingest/wardround-cli/pkg/modelchat"
)

// Client is the parseCard capability.
type Client interface {
	ParseCard(ctx context.Context, req ParseCardRequest) (*model.VisionModelResult, error)
}

// ParseCardRequest identifies one card image and the layout to read it with.
// Hints carry the identifiers recovered from the filename; the model echoes
// what it can read off the card itself.
type ParseCardRequest struct {
	ImagePath string
	Layout    *layout.Definition
	Hints     *model.CardName
}

const systemPrompt = `You read photographed, hand-annotated ward round cards. ` +
	`For each named region you are given pixel coordinates on the card image. ` +
	`Transcribe the handwriting in each region. Respond with a single JSON object: ` +
	`{"patient_id_from_card": string, "round_id_from_card": string, ` +
	`"regions": {name: text}, "confidence": {name: number 0-1}, "warnings": [string]}. ` +
	`Use an empty string for unreadable regions and record a warning.`

var responseSchema = json.RawMessage(`{
  "name": "vision_card_read",
  "schema": {
    "type": "object",
    "properties": {
      "patient_id_from_card": {"type": "string"},
      "round_id_from_card": {"type": "string"},
      "regions": {"type": "object", "additionalProperties": {"type": "string"}},
      "confidence": {"type": "object", "additionalProperties": {"type": "number"}},
      "warnings": {"type": "array", "items": {"type": "string"}}
    },
    "required": ["regions", "confidence"]
  }
}`)

type remoteClient struct {
	chat modelchat.Client
}

// NewRemote creates a vision client backed by a chat-completion endpoint.
func NewRemote(chat modelchat.Client) Client {
	return &remoteClient{chat: chat}
}

func (c *remoteClient) ParseCard(ctx context.Context, req ParseCardRequest) (*model.VisionModelResult, error) {
	imageData, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "vision: read image %s", req.ImagePath)
	}

	resp, err := c.chat.ChatCompletion(ctx, modelchat.ChatCompletionRequest{
		Messages: []modelchat.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []modelchat.ContentPart{
				{Type: "text", Text: buildRegionPrompt(req)},
				{Type: "image_url", ImageURL: &modelchat.ImageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData),
				}},
			}},
		},
		ResponseFormat: &modelchat.ResponseFormat{Type: "json_schema", JSONSchema: responseSchema},
	})
	if err != nil {
		return nil, err
	}

	span, err := modelchat.ExtractObject(resp.Content())
	if err != nil {
		return nil, err
	}

	var result model.VisionModelResult
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		return nil, eris.Wrapf(model.ErrValidation, "vision: decode result: %v", err)
	}
	if result.Regions == nil {
		return nil, eris.Wrap(model.ErrValidation, "vision: result missing regions")
	}
	if result.Confidence == nil {
		result.Confidence = map[string]float64{}
	}
	clampConfidence(result.Confidence)

	for name := range req.Layout.Regions {
		if _, ok := result.Regions[name]; !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("region %s absent from model output", name))
			result.Regions[name] = ""
			result.Confidence[name] = 0
		}
	}

	zap.L().Debug("vision: card parsed",
		zap.String("image", req.ImagePath),
		zap.Int("regions", len(result.Regions)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return &result, nil
}

// buildRegionPrompt lists every layout region with its pixel rect, in a
// stable order.
func buildRegionPrompt(req ParseCardRequest) string {
	names := make([]string, 0, len(req.Layout.Regions))
	for name := range req.Layout.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Card template %s v%d, image %dx%d px. Regions:\n",
		req.Layout.TemplateID, req.Layout.LayoutVersion, req.Layout.ImageWidth, req.Layout.ImageHeight)
	for _, name := range names {
		r := req.Layout.Regions[name]
		fmt.Fprintf(&b, "- %s: x=%d y=%d w=%d h=%d\n", name, r.X, r.Y, r.Width, r.Height)
	}
	if req.Hints != nil {
		fmt.Fprintf(&b, "Filename hints: patient=%s round=%s template=%s\n",
			req.Hints.PatientID, req.Hints.RoundID, req.Hints.TemplateID)
	}
	return b.String()
}

func clampConfidence(conf map[string]float64) {
	for name, v := range conf {
		if v < 0 {
			conf[name] = 0
		} else if v > 1 {
			conf[name] = 1
		}
	}
}
