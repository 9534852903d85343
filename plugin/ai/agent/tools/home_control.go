package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HomeControlTool drives Home Assistant entities over its REST API. When no
// Home Assistant endpoint is configured it runs in simulation mode and
// reports the action it would have taken.
type HomeControlTool struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHomeControlTool creates the home-control tool. Either argument may be
// empty, which enables simulation mode.
func NewHomeControlTool(baseURL, token string) *HomeControlTool {
	return &HomeControlTool{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (t *HomeControlTool) Name() string {
	return "home_control"
}

func (t *HomeControlTool) Description() string {
	return "Control home devices: turn lights on or off, adjust thermostats, lock doors, and set device values."
}

func (t *HomeControlTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_id": map[string]any{
				"type":        "string",
				"description": "The entity to control, e.g. 'light.living_room'.",
			},
			"action": map[string]any{
				"type":        "string",
				"description": "The action to perform.",
				"enum":        []string{"turn_on", "turn_off", "toggle", "set_value"},
			},
			"value": map[string]any{
				"description": "Optional value for the action, e.g. brightness or temperature.",
			},
		},
		"required": []string{"entity_id", "action"},
	}
}

func (t *HomeControlTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	entityID, ok := stringParam(params, "entity_id")
	if !ok || entityID == "" {
		return nil, fmt.Errorf("missing required parameter: entity_id")
	}
	action, ok := stringParam(params, "action")
	if !ok || action == "" {
		return nil, fmt.Errorf("missing required parameter: action")
	}
	value := params["value"]

	if t.baseURL == "" || t.token == "" {
		slog.Warn("home assistant not configured, simulating action", "entity_id", entityID, "action", action)
		message := fmt.Sprintf("[SIMULATED] %s on %s", action, entityID)
		if value != nil {
			message = fmt.Sprintf("%s with value %v", message, value)
		}
		return map[string]any{
			"entity_id": entityID,
			"action":    action,
			"value":     value,
			"status":    "simulated",
			"message":   message,
		}, nil
	}

	domain := entityID
	if i := strings.Index(entityID, "."); i > 0 {
		domain = entityID[:i]
	}
	service := action
	switch action {
	case "turn_on", "turn_off", "toggle":
	default:
		service = "set_value"
	}

	payload := map[string]any{"entity_id": entityID}
	if value != nil {
		// Home Assistant expects domain-specific attribute names.
		switch domain {
		case "light":
			if n, ok := value.(float64); ok {
				payload["brightness_pct"] = int(n)
			} else {
				payload["brightness_pct"] = value
			}
		case "climate":
			payload["temperature"] = value
		default:
			payload["value"] = value
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/services/%s/%s", t.baseURL, domain, service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")

	slog.Info("home control", "entity_id", entityID, "action", action)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("home assistant request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("home assistant returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return map[string]any{
		"entity_id": entityID,
		"action":    action,
		"value":     value,
		"status":    "success",
		"message":   fmt.Sprintf("Successfully executed %s on %s", action, entityID),
	}, nil
}
