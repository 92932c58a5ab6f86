package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const envelopeIndent = "    "

// BuildEnvelope wraps responses into {"results": [...]} and serializes it.
// Output is deterministic: object keys are sorted, non-ASCII text is written as UTF-8
// and indentation is four spaces. There is no trailing newline.
func BuildEnvelope(responses []Response) ([]byte, error) {
	if responses == nil {
		responses = []Response{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", envelopeIndent)
	if err := enc.Encode(Envelope{Results: responses}); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
