package client

import (
	"encoding/json"
	"strings"
)

// ParseErrorMessage extracts a human-readable message from a JSON failure
// body. It looks at "message", then "error" (a string or an object with its
// own "message"), then "msg". It returns "" when none is present.
func ParseErrorMessage(body []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}

	if s := stringField(doc, "message"); s != "" {
		return s
	}
	if raw, ok := doc["error"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			if s := stringField(nested, "message"); s != "" {
				return s
			}
		}
	}
	return stringField(doc, "msg")
}

func stringField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
