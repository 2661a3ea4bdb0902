package highlights

import (
	"encoding/json"
	"strings"

	"github.com/forPelevin/topiccut/internal/types"
)

// ExtractJSONObject returns the text between the first '{' and the last '}' of
// a free-form model answer, provided it is valid JSON.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", &types.MalformedOutputError{Reason: "no JSON object found", Raw: raw}
	}
	obj := raw[start : end+1]
	if !json.Valid([]byte(obj)) {
		return "", &types.MalformedOutputError{Reason: "JSON object does not parse", Raw: raw}
	}
	return obj, nil
}

