package vision

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// FixtureClient replays pre-recorded vision results keyed by the card's
// image filename. Deterministic stand-in for the remote model.
type FixtureClient struct {
	dir string
}

// NewFixture creates a fixture-backed vision client reading from dir. A
// card P1_R1_T1_annotated.png resolves to P1_R1_T1_annotated.json.
func NewFixture(dir string) *FixtureClient {
	return &FixtureClient{dir: dir}
}

// ParseCard implements Client.
func (c *FixtureClient) ParseCard(_ context.Context, req ParseCardRequest) (*model.VisionModelResult, error) {
	base := filepath.Base(req.ImagePath)
	name := base[:len(base)-len(filepath.Ext(base))] + ".json"
	path := filepath.Join(c.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "vision fixture: no recording for %s", base)
		}
		return nil, eris.Wrapf(err, "vision fixture: read %s", path)
	}

	var result model.VisionModelResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, eris.Wrapf(model.ErrValidation, "vision fixture: decode %s: %v", path, err)
	}
	if result.Regions == nil {
		result.Regions = map[string]string{}
	}
	if result.Confidence == nil {
		result.Confidence = map[string]float64{}
	}
	return &result, nil
}
