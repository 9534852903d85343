package tools

import (
	"encoding/json"
	"log/slog"
	"regexp"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// jsonPattern finds candidate tool-call objects in a model response: either
// a fenced ```json block, or a bare single-level object that mentions a
// "tool" key. Bare objects with nested braces are not recognized; models
// that nest parameters are expected to fence the block.
var jsonPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```|(\\{[^{}]*\"tool\"[^{}]*\\})")

// ParseToolCalls extracts tool calls from a model response, in source
// order. Candidates that are not valid JSON objects with a string "tool"
// field are skipped with a warning; a response without tool calls yields an
// empty slice, never an error.
func ParseToolCalls(response string) []ToolCall {
	calls := []ToolCall{}
	for _, groups := range jsonPattern.FindAllStringSubmatch(response, -1) {
		candidate := groups[1]
		if candidate == "" {
			candidate = groups[2]
		}
		if candidate == "" {
			continue
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(candidate), &data); err != nil {
			slog.Warn("skipping malformed tool call candidate", "error", err)
			continue
		}

		name, ok := data["tool"].(string)
		if !ok || name == "" {
			continue
		}

		params, _ := data["parameters"].(map[string]any)
		if params == nil {
			params = map[string]any{}
		}
		calls = append(calls, ToolCall{Tool: name, Parameters: params})
		slog.Debug("parsed tool call", "tool", name)
	}
	return calls
}
