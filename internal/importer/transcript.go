package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// newWardEntry builds the audit artifact attached to the patient when a
// card is applied: a transcript of what the vision model read, region by
// region.
func newWardEntry(round *model.Round, visionResult *model.VisionModelResult, cardFile string) model.WardEntry {
	return model.WardEntry{
		ID:          "entry-" + uuid.NewString(),
		RoundID:     round.RoundID,
		Timestamp:   time.Now().UTC(),
		Transcript:  buildTranscript(round, visionResult),
		SourceImage: cardFile,
	}
}

func buildTranscript(round *model.Round, visionResult *model.VisionModelResult) string {
	names := make([]string, 0, len(visionResult.Regions))
	for name := range visionResult.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Ward round %s", round.RoundID)
	if round.Ward != "" {
		fmt.Fprintf(&b, " (%s)", round.Ward)
	}
	b.WriteString("\n")
	for _, name := range names {
		text := strings.TrimSpace(visionResult.Regions[name])
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", name, text)
	}
	for _, warning := range visionResult.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warning)
	}
	if round.ExportedAt == nil {
		b.WriteString("conflict check: skipped (round has no exported_at)\n")
	}
	return b.String()
}
