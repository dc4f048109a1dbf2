package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "T1.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validLayout = `{
	"template_id": "T1",
	"layout_version": 2,
	"image_width": 1200,
	"image_height": 800,
	"regions": {
		"obs": {"x": 10, "y": 10, "width": 400, "height": 120},
		"issues": {"x": 10, "y": 150, "width": 1180, "height": 400}
	}
}`

func TestLoad(t *testing.T) {
	path := writeLayout(t, validLayout)

	def, err := Load(path, "T1", 2)
	require.NoError(t, err)
	assert.Equal(t, "T1", def.TemplateID)
	assert.Equal(t, 2, def.LayoutVersion)
	assert.Len(t, def.Regions, 2)
	assert.Equal(t, Region{X: 10, Y: 10, Width: 400, Height: 120}, def.Regions["obs"])
}

func TestLoadTemplateMismatch(t *testing.T) {
	path := writeLayout(t, validLayout)

	_, err := Load(path, "T2", 2)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func TestLoadVersionMismatch(t *testing.T) {
	path := writeLayout(t, validLayout)

	// A stale file after a template revision must fail, not yield old geometry.
	_, err := Load(path, "T1", 3)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "T9.json"), "T9", 1)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeLayout(t, `{"template_id": "T1"`)

	_, err := Load(path, "T1", 1)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrValidation))
}

func TestLoadBadGeometry(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "region outside image",
			content: `{"template_id":"T1","layout_version":1,"image_width":100,"image_height":100,
				"regions":{"obs":{"x":50,"y":50,"width":80,"height":20}}}`,
		},
		{
			name: "zero size region",
			content: `{"template_id":"T1","layout_version":1,"image_width":100,"image_height":100,
				"regions":{"obs":{"x":0,"y":0,"width":0,"height":20}}}`,
		},
		{
			name:    "no regions",
			content: `{"template_id":"T1","layout_version":1,"image_width":100,"image_height":100,"regions":{}}`,
		},
		{
			name: "non-positive image",
			content: `{"template_id":"T1","layout_version":1,"image_width":0,"image_height":100,
				"regions":{"obs":{"x":0,"y":0,"width":10,"height":10}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLayout(t, tt.content)
			_, err := Load(path, "T1", 1)
			require.Error(t, err)
			assert.True(t, eris.Is(err, model.ErrValidation))
		})
	}
}
