package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is a single delivered notification.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
	CreatedTs int64  `json:"createdTs"`
	Read      bool   `json:"read"`
}

// NotificationCenter stores notifications in memory for the process
// lifetime. Delivery to external channels (push, TTS) would hang off this
// type.
type NotificationCenter struct {
	mu            sync.Mutex
	notifications []*Notification
}

// NewNotificationCenter creates an empty notification center.
func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{}
}

func (c *NotificationCenter) add(n *Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
}

// Recent returns the most recent notifications, newest first. A
// non-positive limit returns all of them.
func (c *NotificationCenter) Recent(limit int) []*Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.notifications)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*Notification, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.notifications[i])
	}
	return out
}

// Clear drops all stored notifications and returns how many were dropped.
func (c *NotificationCenter) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := len(c.notifications)
	c.notifications = nil
	return count
}

// NotificationTool sends notifications to the household through the
// notification center.
type NotificationTool struct {
	center *NotificationCenter
}

// NewNotificationTool creates the notification tool over the given center.
func NewNotificationTool(center *NotificationCenter) *NotificationTool {
	return &NotificationTool{center: center}
}

func (t *NotificationTool) Name() string {
	return "send_notification"
}

func (t *NotificationTool) Description() string {
	return "Send a notification to the user: reminders, alerts, and important home events."
}

func (t *NotificationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The notification title.",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "The notification message body.",
			},
			"priority": map[string]any{
				"type":        "string",
				"description": "The priority level.",
				"enum":        []string{"low", "normal", "high", "urgent"},
			},
		},
		"required": []string{"title", "message"},
	}
}

func (t *NotificationTool) Execute(_ context.Context, params map[string]any) (any, error) {
	title, ok := stringParam(params, "title")
	if !ok || title == "" {
		return nil, fmt.Errorf("missing required parameter: title")
	}
	message, ok := stringParam(params, "message")
	if !ok || message == "" {
		return nil, fmt.Errorf("missing required parameter: message")
	}
	priority := stringParamDefault(params, "priority", "normal")

	n := &Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Priority:  priority,
		CreatedTs: time.Now().Unix(),
	}
	t.center.add(n)
	slog.Info("notification sent", "priority", strings.ToUpper(priority), "title", title)

	return map[string]any{
		"status":       "sent",
		"notification": n,
	}, nil
}
