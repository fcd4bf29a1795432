package fetcher

import (
	"encoding/json"
	"fmt"
	"strings"
)

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// checkPayload rejects bodies that are valid transport responses but useless as data:
// null, {}, [], [{}] and {"data":[{}]}.
func checkPayload(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if degenerate(v) {
		return ErrEmptyPayload
	}
	return nil
}

func degenerate(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		if len(t) == 0 {
			return true
		}
		if arr, ok := t["data"].([]any); ok && onlyEmptyObject(arr) {
			return true
		}
	case []any:
		return len(t) == 0 || onlyEmptyObject(t)
	}
	return false
}

func onlyEmptyObject(arr []any) bool {
	if len(arr) != 1 {
		return false
	}
	obj, ok := arr[0].(map[string]any)
	return ok && len(obj) == 0
}
