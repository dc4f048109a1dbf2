// Package paths resolves the on-disk roots the importer works against.
package paths

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/config"
)

// StateFileName is the JSON-file store document inside the logs root.
const StateFileName = "ward_round_state.json"

// Resolver turns a PathsConfig into concrete directories and files.
type Resolver struct {
	imports string
	archive string
	exports string
	logs    string
	layouts string
}

// NewResolver resolves each root, defaulting unset subdirectories to
// conventional names under cfg.Root.
func NewResolver(cfg config.PathsConfig) *Resolver {
	under := func(explicit, name string) string {
		if explicit != "" {
			return explicit
		}
		return filepath.Join(cfg.Root, name)
	}
	return &Resolver{
		imports: under(cfg.Imports, "Imports"),
		archive: under(cfg.Archive, "Archive"),
		exports: under(cfg.Exports, "Exports"),
		logs:    under(cfg.Logs, "Logs"),
		layouts: under(cfg.Layouts, "Layouts"),
	}
}

// ImportsDir is the root the watcher scans for round folders.
func (r *Resolver) ImportsDir() string { return r.imports }

// Imports is the folder holding one round's cards before processing.
func (r *Resolver) Imports(roundID string) string { return filepath.Join(r.imports, roundID) }

// ArchiveDir is the root processed rounds are moved under.
func (r *Resolver) ArchiveDir() string { return r.archive }

// Archive is the post-processing mirror of a round's import folder.
func (r *Resolver) Archive(roundID string) string { return filepath.Join(r.archive, roundID) }

// Exports is where the card-export tooling stages a round.
func (r *Resolver) Exports(roundID string) string { return filepath.Join(r.exports, roundID) }

// LogsDir holds per-round import logs and the state document.
func (r *Resolver) LogsDir() string { return r.logs }

// ImportLog is the round's completion marker; its existence is the
// at-most-once gate.
func (r *Resolver) ImportLog(roundID string) string {
	return filepath.Join(r.logs, roundID+"_import_log.json")
}

// StateFile is the JSON-file store document.
func (r *Resolver) StateFile() string { return filepath.Join(r.logs, StateFileName) }

// LayoutsDir holds one layout definition per card template.
func (r *Resolver) LayoutsDir() string { return r.layouts }

// Layout is the definition file for a template.
func (r *Resolver) Layout(templateID string) string {
	return filepath.Join(r.layouts, templateID+".json")
}

// EnsureBaseFolders creates every root. Idempotent.
func (r *Resolver) EnsureBaseFolders() error {
	for _, dir := range []string{r.imports, r.archive, r.exports, r.logs, r.layouts} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "paths: create %s", dir)
		}
	}
	return nil
}
