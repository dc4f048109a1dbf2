package modelchat

import (
	"github.com/rotisserie/eris"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

// ExtractObject returns the first balanced {...} span in s. Model output
// may wrap the JSON in prose or markdown fences; only the span is
// returned. String literals and escapes are respected so braces inside
// strings do not unbalance the scan.
func ExtractObject(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}

	if start >= 0 {
		return "", eris.Wrap(model.ErrValidation, "modelchat: unbalanced JSON object in content")
	}
	return "", eris.Wrap(model.ErrValidation, "modelchat: no JSON object in content")
}
