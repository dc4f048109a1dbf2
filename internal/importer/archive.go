package importer

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// writeImportLog persists the round's aggregate result. The log's
// existence is the at-most-once gate, so it is written atomically.
func (im *Importer) writeImportLog(result model.WardRoundImportResult) error {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "importer: encode import log")
	}
	path := im.paths.ImportLog(result.RoundID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "importer: create logs dir")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return eris.Wrapf(err, "importer: write %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, path), "importer: rename %s", tmp)
}

// archiveRound moves the round folder from imports to archive,
// copy-then-delete so a failure mid-move leaves the source intact.
func (im *Importer) archiveRound(roundID string) error {
	src := im.paths.Imports(roundID)
	dst := im.paths.Archive(roundID)

	if err := copyDir(src, dst); err != nil {
		return err
	}
	return eris.Wrapf(os.RemoveAll(src), "importer: remove %s", src)
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return eris.Wrapf(err, "importer: walk %s", path)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return eris.Wrap(err, "importer: relative path")
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return eris.Wrapf(os.MkdirAll(target, 0o755), "importer: create %s", target)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "importer: open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return eris.Wrapf(err, "importer: create %s", filepath.Dir(dst))
	}
	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "importer: create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return eris.Wrapf(err, "importer: copy %s", dst)
	}
	return eris.Wrapf(out.Close(), "importer: close %s", dst)
}
