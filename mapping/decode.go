package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeMappings parses the upstream mapping record: a JSON object keyed by
// field key. Fields are filled in the order the record lists them, so key
// order is preserved here instead of round-tripping through a Go map.
func DecodeMappings(data []byte) ([]TemplateMapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decode mappings: expected object, got %v", tok)
	}

	var out []TemplateMapping
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode mappings: %w", err)
		}
		key := keyTok.(string)

		var m TemplateMapping
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode mapping %q: %w", key, err)
		}
		m.Key = key
		if err := m.Validate(); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	return out, nil
}

// DecodeFields parses the upstream field-value record, a JSON object keyed by
// field key. Order does not matter here; the mapping record drives iteration.
func DecodeFields(data []byte) (map[string]WorkflowField, error) {
	var rawFields map[string]WorkflowField
	if err := json.Unmarshal(data, &rawFields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	out := make(map[string]WorkflowField, len(rawFields))
	for key, f := range rawFields {
		f.Key = key
		out[key] = f
	}
	return out, nil
}
