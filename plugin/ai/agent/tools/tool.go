// Package tools implements the tool-call protocol: parsing tool calls out
// of model responses, a registry of executable tools, and the concrete
// tools the assistant can invoke on behalf of the home.
package tools

import "context"

// Tool defines the interface for executable tools.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string
	// Description explains what the tool does, for the model's benefit.
	Description() string
	// Parameters returns a JSON-Schema fragment describing the accepted
	// parameters.
	Parameters() map[string]any
	// Execute runs the tool with the given parameters.
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// Definition is the prompt-facing description of a registered tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok
}

func stringParamDefault(params map[string]any, key, fallback string) string {
	if v, ok := stringParam(params, key); ok && v != "" {
		return v
	}
	return fallback
}
