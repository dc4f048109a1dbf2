package clinical

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// FixtureClient replays pre-recorded proposals keyed by patient and round.
type FixtureClient struct {
	dir string
}

// NewFixture creates a fixture-backed clinical client reading from dir.
// A proposal for patient P1 in round R1 resolves to P1_R1.json.
func NewFixture(dir string) *FixtureClient {
	return &FixtureClient{dir: dir}
}

// ProposeChanges implements Client.
func (c *FixtureClient) ProposeChanges(_ context.Context, req ProposeRequest) (*model.ClinicalLLMResult, error) {
	name := fmt.Sprintf("%s_%s.json", req.Patient.ID, req.Round.RoundID)
	path := filepath.Join(c.dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "clinical fixture: no recording %s", name)
		}
		return nil, eris.Wrapf(err, "clinical fixture: read %s", path)
	}

	// Same lenient decode as the remote path, so fixtures can exercise
	// malformed-output behavior too.
	return DecodeResult(string(raw), req.Patient.ID, req.Round.RoundID), nil
}
