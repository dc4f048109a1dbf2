// Package importer orchestrates one ward round batch: discover round
// folders, read each card through the vision and clinical models, plan the
// update, and apply or enqueue it. Idempotent at round granularity.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/operator-ingest/wardround-cli/internal/layout"
	"github.com/operator-ingest/wardround-cli/internal/model"
	"github.com/operator-ingest/wardround-cli/internal/paths"
	"github.com/operator-ingest/wardround-cli/internal/planner"
	"github.com/operator-ingest/wardround-cli/internal/store"
	"github.com/operator-ingest/wardround-cli/pkg/clinical"
	"github.com/operator-ingest/wardround-cli/pkg/vision"
)

// Importer processes round folders from the imports root. Rounds and cards
// run strictly sequentially; the store needs no locking beyond that.
type Importer struct {
	paths      *paths.Resolver
	store      store.Store
	vision     vision.Client
	clinical   clinical.Client
	thresholds planner.Thresholds
}

// New creates an Importer.
func New(p *paths.Resolver, st store.Store, vc vision.Client, cc clinical.Client, th planner.Thresholds) *Importer {
	return &Importer{paths: p, store: st, vision: vc, clinical: cc, thresholds: th}
}

// ProcessImports runs one batch: every unprocessed round folder under the
// imports root, in name order. A round whose import log already exists is
// skipped without touching it. Round-level failures are recorded in that
// round's log and never abort the batch.
func (im *Importer) ProcessImports(ctx context.Context) ([]model.WardRoundImportResult, error) {
	entries, err := os.ReadDir(im.paths.ImportsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "importer: list %s", im.paths.ImportsDir())
	}

	var results []model.WardRoundImportResult
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		roundID := entry.Name()

		if _, err := os.Stat(im.paths.ImportLog(roundID)); err == nil {
			zap.L().Debug("importer: round already processed", zap.String("round", roundID))
			continue
		}
		// A folder without round.json is still being staged; leave it for a
		// later tick instead of failing it permanently.
		if _, err := os.Stat(filepath.Join(im.paths.Imports(roundID), "round.json")); err != nil {
			zap.L().Debug("importer: round not ready, no round.json yet", zap.String("round", roundID))
			continue
		}

		result := im.processRound(ctx, roundID)
		results = append(results, result)

		if err := im.writeImportLog(result); err != nil {
			// Without the log the round would be reprocessed next tick.
			zap.L().Error("importer: write import log failed",
				zap.String("round", roundID), zap.Error(err))
			continue
		}
		if result.Error == "" {
			if err := im.archiveRound(roundID); err != nil {
				zap.L().Error("importer: archive failed",
					zap.String("round", roundID), zap.Error(err))
			}
		}
	}
	return results, nil
}

// processRound handles one round folder end to end. Any preparation error
// becomes a single synthetic failed result.
func (im *Importer) processRound(ctx context.Context, roundID string) model.WardRoundImportResult {
	log := zap.L().With(zap.String("round", roundID))
	result := model.WardRoundImportResult{
		RoundID:   roundID,
		StartedAt: time.Now().UTC(),
	}

	round, def, cards, err := im.prepareRound(roundID)
	if err != nil {
		log.Error("importer: round preparation failed", zap.Error(err))
		result.Error = err.Error()
		result.FinishedAt = time.Now().UTC()
		return result
	}
	result.Metadata = round
	log.Info("importer: processing round",
		zap.String("ward", round.Ward),
		zap.Int("cards", len(cards)),
	)

	for _, card := range cards {
		outcome := im.processCard(ctx, round, def, card)
		result.Patients = append(result.Patients, outcome)
		log.Info("importer: card processed",
			zap.String("card", card),
			zap.String("patient", outcome.PatientID),
			zap.String("status", string(outcome.Status)),
		)
	}

	result.FinishedAt = time.Now().UTC()
	return result
}

// prepareRound reads round.json, corrects its round_id to the directory
// name when they disagree, loads the layout, and enumerates cards.
func (im *Importer) prepareRound(roundID string) (*model.Round, *layout.Definition, []string, error) {
	roundDir := im.paths.Imports(roundID)

	raw, err := os.ReadFile(filepath.Join(roundDir, "round.json"))
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "importer: read round.json for %s", roundID)
	}
	var round model.Round
	if err := json.Unmarshal(raw, &round); err != nil {
		return nil, nil, nil, eris.Wrapf(model.ErrValidation, "importer: round.json for %s: %v", roundID, err)
	}
	if round.RoundID != roundID {
		zap.L().Warn("importer: round.json round_id disagrees with folder, using folder name",
			zap.String("folder", roundID), zap.String("declared", round.RoundID))
		round.RoundID = roundID
	}
	if err := round.Validate(); err != nil {
		return nil, nil, nil, err
	}

	def, err := layout.Load(im.paths.Layout(round.TemplateID), round.TemplateID, round.LayoutVersion)
	if err != nil {
		return nil, nil, nil, err
	}

	entries, err := os.ReadDir(roundDir)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "importer: list %s", roundDir)
	}
	var cards []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), model.CardSuffix) {
			cards = append(cards, entry.Name())
		}
	}
	sort.Strings(cards)
	return &round, def, cards, nil
}

// processCard runs one card through vision, clinical, and the planner. All
// failures, including panics from unexpected model output, downgrade to a
// failed outcome so the rest of the round continues.
func (im *Importer) processCard(ctx context.Context, round *model.Round, def *layout.Definition, cardFile string) (outcome model.PatientImportOutcome) {
	outcome = model.PatientImportOutcome{CardFile: cardFile}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("importer: card processing panicked",
				zap.String("card", cardFile), zap.Any("panic", r))
			outcome.Status = model.OutcomeFailed
			outcome.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	name, err := model.ParseCardName(cardFile)
	if err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}
	outcome.PatientID = name.PatientID

	// The filename is a fragile wire format; trust it only when it agrees
	// with the round's own metadata.
	if name.RoundID != round.RoundID {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = fmt.Sprintf("card round id %q does not match round %q", name.RoundID, round.RoundID)
		return outcome
	}
	if name.TemplateID != round.TemplateID {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = fmt.Sprintf("card template %q does not match round template %q", name.TemplateID, round.TemplateID)
		return outcome
	}

	patient, err := im.store.LoadPatient(ctx, name.PatientID)
	if err != nil {
		if eris.Is(err, model.ErrNotFound) {
			outcome.Status = model.OutcomeSkipped
			outcome.Reason = "patient not on the round list"
		} else {
			outcome.Status = model.OutcomeFailed
			outcome.Reason = err.Error()
		}
		return outcome
	}

	visionResult, err := im.vision.ParseCard(ctx, vision.ParseCardRequest{
		ImagePath: filepath.Join(im.paths.Imports(round.RoundID), cardFile),
		Layout:    def,
		Hints:     &name,
	})
	if err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	clinicalResult, err := im.clinical.ProposeChanges(ctx, clinical.ProposeRequest{
		Patient:     *patient,
		Round:       *round,
		RegionTexts: visionResult.Regions,
		Confidences: visionResult.Confidence,
	})
	if err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	plan := planner.Plan(*patient, clinicalResult, im.thresholds, visionResult.Confidence, round.ExportedAt, cardFile)
	switch plan.Status {
	case planner.StatusApply:
		entry := newWardEntry(round, visionResult, cardFile)
		updated := planner.Apply(*patient, *plan.Diff, entry)
		if err := im.store.SavePatient(ctx, updated); err != nil {
			outcome.Status = model.OutcomeFailed
			outcome.Reason = err.Error()
			return outcome
		}
		outcome.Status = model.OutcomeApplied

	case planner.StatusPending:
		saved, err := im.store.SavePendingUpdate(ctx, *plan.Pending)
		if err != nil {
			outcome.Status = model.OutcomeFailed
			outcome.Reason = err.Error()
			return outcome
		}
		outcome.Status = model.OutcomePending
		outcome.Reason = string(plan.Reason)
		outcome.PendingID = saved.ID

	default:
		outcome.Status = model.OutcomeSkipped
		outcome.Reason = string(plan.Reason)
	}
	return outcome
}
