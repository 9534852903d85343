package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// defaultExecTimeout bounds a single tool execution.
const defaultExecTimeout = 10 * time.Second

// Result is the envelope every tool execution returns. Tool failures are
// reported inside the envelope; Execute never returns an error to the
// caller.
type Result struct {
	Success bool   `json:"success"`
	Result  any    `json:"result"`
	Error   string `json:"error,omitempty"`
}

// Executor manages registered tools and executes tool calls. Registration
// happens at startup; Execute is safe for concurrent use.
type Executor struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	timeout time.Duration
}

// NewExecutor creates an Executor. A non-positive timeout falls back to the
// default per-execution timeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	return &Executor{
		tools:   make(map[string]Tool),
		timeout: timeout,
	}
}

// Register adds a tool. Re-registering a name overwrites the previous tool
// with a warning; the last registration wins.
func (e *Executor) Register(tool Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := tool.Name()
	if _, ok := e.tools[name]; ok {
		slog.Warn("tool already registered, overwriting", "tool", name)
	} else {
		e.order = append(e.order, name)
	}
	e.tools[name] = tool
	slog.Info("registered tool", "tool", name)
}

// Definitions returns the prompt-facing definitions of all registered
// tools, in registration order.
func (e *Executor) Definitions() []Definition {
	e.mu.RLock()
	defer e.mu.RUnlock()

	defs := make([]Definition, 0, len(e.order))
	for _, name := range e.order {
		tool := e.tools[name]
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Execute runs the named tool with the given parameters. Unknown tools,
// tool errors, timeouts, and panics all come back as a failed Result; they
// never propagate to the caller.
func (e *Executor) Execute(ctx context.Context, name string, params map[string]any) *Result {
	e.mu.RLock()
	tool, ok := e.tools[name]
	e.mu.RUnlock()
	if !ok {
		msg := fmt.Sprintf("unknown tool: %s", name)
		slog.Error("tool execution rejected", "error", msg)
		return &Result{Success: false, Error: msg}
	}

	slog.Info("executing tool", "tool", name, "params", params)

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := runTool(execCtx, tool, params)
	if err != nil {
		slog.Error("tool execution failed", "tool", name, "error", err)
		return &Result{Success: false, Error: err.Error()}
	}
	return &Result{Success: true, Result: result}
}

// runTool invokes the tool and converts a panic into an error.
func runTool(ctx context.Context, tool Tool, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Execute(ctx, params)
}
