// Package layout loads the versioned region schema for a card template.
package layout

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// Region is one named rectangle on the card, in image pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Definition is the full layout for one template revision.
type Definition struct {
	TemplateID    string            `json:"template_id"`
	LayoutVersion int               `json:"layout_version"`
	ImageWidth    int               `json:"image_width"`
	ImageHeight   int               `json:"image_height"`
	Regions       map[string]Region `json:"regions"`
}

// Load reads the definition file for templateID and verifies it declares
// exactly the requested template and version. A stale file left behind
// after a template revision fails loudly instead of yielding wrong
// geometry.
func Load(path, templateID string, layoutVersion int) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(model.ErrNotFound, "layout: no definition for template %s at %s", templateID, path)
		}
		return nil, eris.Wrapf(err, "layout: read %s", path)
	}

	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, eris.Wrapf(model.ErrValidation, "layout: %s is not valid JSON: %v", path, err)
	}

	if def.TemplateID != templateID {
		return nil, eris.Wrapf(model.ErrValidation,
			"layout: file declares template %q, round wants %q", def.TemplateID, templateID)
	}
	if def.LayoutVersion != layoutVersion {
		return nil, eris.Wrapf(model.ErrValidation,
			"layout: template %s file is version %d, round wants %d", templateID, def.LayoutVersion, layoutVersion)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) validate() error {
	if d.ImageWidth <= 0 || d.ImageHeight <= 0 {
		return eris.Wrapf(model.ErrValidation, "layout: template %s has non-positive image size", d.TemplateID)
	}
	if len(d.Regions) == 0 {
		return eris.Wrapf(model.ErrValidation, "layout: template %s declares no regions", d.TemplateID)
	}
	for name, r := range d.Regions {
		if r.Width <= 0 || r.Height <= 0 {
			return eris.Wrapf(model.ErrValidation, "layout: region %s has non-positive size", name)
		}
		if r.X < 0 || r.Y < 0 || r.X+r.Width > d.ImageWidth || r.Y+r.Height > d.ImageHeight {
			return eris.Wrapf(model.ErrValidation, "layout: region %s falls outside the %dx%d image",
				name, d.ImageWidth, d.ImageHeight)
		}
	}
	return nil
}
