package cosmos

import (
	"bytes"
	"encoding/json"

	"chaincodec/internal/model"
)

type attribute struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// parseAttributes accepts either an ABCI attribute list or a flat object.
// Later duplicates of a key replace earlier ones.
func parseAttributes(data []byte) (map[string]string, error) {
	trimmed := bytes.TrimSpace(data)
	out := make(map[string]string)
	if len(trimmed) == 0 {
		return out, nil
	}

	switch trimmed[0] {
	case '[':
		var list []attribute
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, model.InvalidRawEvent("attribute list: %v", err)
		}
		for _, attr := range list {
			out[attr.Key] = rawText(attr.Value)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, model.InvalidRawEvent("attribute object: %v", err)
		}
		for key, value := range obj {
			out[key] = rawText(value)
		}
	default:
		return nil, model.InvalidRawEvent("payload is neither an attribute list nor an object")
	}
	return out, nil
}

// rawText unquotes JSON strings and returns any other JSON value verbatim.
func rawText(value json.RawMessage) string {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return ""
	}
	if value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
	}
	return string(value)
}
