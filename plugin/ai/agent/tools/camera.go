package tools

import (
	"context"
	"fmt"
	"log/slog"
)

// CameraTool analyzes camera snapshots. Vision support is not wired up
// yet; the tool reports a placeholder so the model learns the capability
// exists without hallucinating results.
type CameraTool struct{}

// NewCameraTool creates the camera analysis tool.
func NewCameraTool() *CameraTool {
	return &CameraTool{}
}

func (t *CameraTool) Name() string {
	return "analyze_camera"
}

func (t *CameraTool) Description() string {
	return "Capture and analyze a camera snapshot, e.g. to check who is at the door."
}

func (t *CameraTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"camera_id": map[string]any{
				"type":        "string",
				"description": "The camera to check, e.g. 'front_door'.",
			},
			"analyze_for": map[string]any{
				"type":        "string",
				"description": "What to look for: 'people', 'packages', 'vehicles', or 'general'.",
			},
		},
		"required": []string{"camera_id"},
	}
}

func (t *CameraTool) Execute(_ context.Context, params map[string]any) (any, error) {
	cameraID, ok := stringParam(params, "camera_id")
	if !ok || cameraID == "" {
		return nil, fmt.Errorf("missing required parameter: camera_id")
	}
	analyzeFor := stringParamDefault(params, "analyze_for", "general")

	slog.Warn("camera analysis is not implemented", "camera_id", cameraID)

	return map[string]any{
		"camera_id":   cameraID,
		"analyze_for": analyzeFor,
		"status":      "not_implemented",
		"message":     fmt.Sprintf("Camera analysis is a placeholder. Integration with '%s' camera is pending.", cameraID),
		"results":     nil,
	}, nil
}
