package agentboot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// renderToolPayload passes strings through and pretty-prints everything else as JSON
// with non-ASCII and HTML characters kept verbatim.
func renderToolPayload(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		return s, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("error serializing tool result: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
