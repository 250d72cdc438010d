package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const indentation string = "    "

// Serialize renders fragments as indented json, keeping the key order
// sensorAlternateId, capabilityAlternateId, timestamp, measures.
func Serialize(fragments []Fragment) ([]byte, error) {
	if fragments == nil {
		fragments = []Fragment{}
	}

	buf := &bytes.Buffer{}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indentation)

	if err := enc.Encode(fragments); err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse reads a payload produced by Serialize back into fragments.
func Parse(data []byte) ([]Fragment, error) {
	fragments := []Fragment{}

	if err := json.Unmarshal(data, &fragments); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	return fragments, nil
}
