package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name string
	fn   func(ctx context.Context, params map[string]any) (any, error)
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake tool" }
func (f *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (f *fakeTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	return f.fn(ctx, params)
}

func TestExecutor_Success(t *testing.T) {
	e := NewExecutor(0)
	e.Register(&fakeTool{name: "echo", fn: func(_ context.Context, params map[string]any) (any, error) {
		return params["text"], nil
	}})

	res := e.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.True(t, res.Success)
	assert.Equal(t, "hi", res.Result)
	assert.Empty(t, res.Error)
}

func TestExecutor_UnknownTool(t *testing.T) {
	e := NewExecutor(0)

	res := e.Execute(context.Background(), "nope", nil)
	require.False(t, res.Success)
	assert.Equal(t, "unknown tool: nope", res.Error)
	assert.Nil(t, res.Result)
}

func TestExecutor_ToolErrorStaysInEnvelope(t *testing.T) {
	e := NewExecutor(0)
	e.Register(&fakeTool{name: "boom", fn: func(context.Context, map[string]any) (any, error) {
		return nil, fmt.Errorf("device unreachable")
	}})

	res := e.Execute(context.Background(), "boom", nil)
	require.False(t, res.Success)
	assert.Equal(t, "device unreachable", res.Error)
}

func TestExecutor_PanicStaysInEnvelope(t *testing.T) {
	e := NewExecutor(0)
	e.Register(&fakeTool{name: "panicky", fn: func(context.Context, map[string]any) (any, error) {
		panic("nil dereference")
	}})

	res := e.Execute(context.Background(), "panicky", nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "tool panicked")
	assert.Contains(t, res.Error, "nil dereference")
}

func TestExecutor_TimesOutSlowTool(t *testing.T) {
	e := NewExecutor(20 * time.Millisecond)
	e.Register(&fakeTool{name: "slow", fn: func(ctx context.Context, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}})

	res := e.Execute(context.Background(), "slow", nil)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "context deadline exceeded")
}

func TestExecutor_ReRegisterLastWriteWins(t *testing.T) {
	e := NewExecutor(0)
	e.Register(&fakeTool{name: "dup", fn: func(context.Context, map[string]any) (any, error) {
		return "first", nil
	}})
	e.Register(&fakeTool{name: "dup", fn: func(context.Context, map[string]any) (any, error) {
		return "second", nil
	}})

	res := e.Execute(context.Background(), "dup", nil)
	require.True(t, res.Success)
	assert.Equal(t, "second", res.Result)
	assert.Equal(t, []string{"dup"}, e.Names())
}

func TestExecutor_DefinitionsInRegistrationOrder(t *testing.T) {
	e := NewExecutor(0)
	e.Register(NewHomeControlTool("", ""))
	e.Register(NewWebSearchTool())
	e.Register(NewCameraTool())

	defs := e.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "home_control", defs[0].Name)
	assert.Equal(t, "web_search", defs[1].Name)
	assert.Equal(t, "analyze_camera", defs[2].Name)
	for _, d := range defs {
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Parameters["type"])
	}
}
