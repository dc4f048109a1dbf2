package model

import "github.com/rotisserie/eris"

// Error taxonomy shared across the pipeline. Wrap with eris and check with
// eris.Is so call sites keep their own context strings.
var (
	// ErrValidation covers layout/schema/template-version mismatches and
	// malformed model JSON.
	ErrValidation = eris.New("validation error")

	// ErrModel covers non-2xx responses from a model endpoint.
	ErrModel = eris.New("model endpoint error")

	// ErrNotFound covers missing patients and missing fixtures.
	ErrNotFound = eris.New("not found")

	// ErrBadFilename covers unparseable card names.
	ErrBadFilename = eris.New("bad card filename")
)
