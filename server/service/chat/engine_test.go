package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/plugin/ai/agent/tools"
	aicontext "github.com/ariahome/aria/plugin/ai/context"
	"github.com/ariahome/aria/plugin/ai/memory"
	"github.com/ariahome/aria/plugin/ai/vector"
	"github.com/ariahome/aria/server/ai"
	"github.com/ariahome/aria/store"
	"github.com/ariahome/aria/store/db/sqlite"
)

type staticEmbedder struct{}

func (staticEmbedder) Embedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 8)
	for i, r := range text {
		vec[i%8] += float32(r)
	}
	return vec, nil
}

// fakeGenerator replays canned responses and records the prompts it saw.
type fakeGenerator struct {
	response string
	err      error
	chunks   []string

	gotMessages []ai.Message
}

func (f *fakeGenerator) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.gotMessages = messages
	return f.response, f.err
}

func (f *fakeGenerator) ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	f.gotMessages = messages
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		if f.err != nil {
			errs <- f.err
			return
		}
		for _, chunk := range f.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return out, errs
}

type recordingTool struct {
	gotParams map[string]any
	err       error
}

func (r *recordingTool) Name() string               { return "home_control" }
func (r *recordingTool) Description() string        { return "control the home" }
func (r *recordingTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (r *recordingTool) Execute(_ context.Context, params map[string]any) (any, error) {
	r.gotParams = params
	if r.err != nil {
		return nil, r.err
	}
	return map[string]any{"status": "success"}, nil
}

type testEnv struct {
	engine    *Engine
	generator *fakeGenerator
	assembler *aicontext.Assembler
	tool      *recordingTool
	store     *store.Store
	semantic  vector.SemanticStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	p := profile.Default()
	p.Data = t.TempDir()
	require.NoError(t, p.Validate())
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))

	semantic := vector.NewMemoryStore(staticEmbedder{})
	shortTerm := memory.NewShortTermMemory(time.Hour, 100)
	assembler := aicontext.NewAssembler(shortTerm, semantic, aicontext.DefaultConfig())

	tool := &recordingTool{}
	executor := tools.NewExecutor(0)
	executor.Register(tool)

	generator := &fakeGenerator{}
	return &testEnv{
		engine:    NewEngine(generator, assembler, executor, st, semantic),
		generator: generator,
		assembler: assembler,
		tool:      tool,
		store:     st,
		semantic:  semantic,
	}
}

func TestChat_PlainResponse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.generator.response = "The living room light is on."

	resp, err := env.engine.Chat(ctx, "session-1", "is the light on?")
	require.NoError(t, err)
	assert.Equal(t, "The living room light is on.", resp.Response)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Empty(t, resp.ToolCalls)
	assert.Empty(t, resp.ToolResults)

	// User turn precedes the assistant turn in working memory.
	wm := env.assembler.GetWorkingMemory()
	require.Len(t, wm, 2)
	assert.Equal(t, "user", wm[0].Role)
	assert.Equal(t, "is the light on?", wm[0].Content)
	assert.Equal(t, "assistant", wm[1].Role)

	// The exchange landed in the relational store and the semantic index.
	convo, err := env.store.GetConversationBySession(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, convo)
	assert.Equal(t, "is the light on?", convo.Title)

	messages, err := env.store.ListMessages(ctx, &store.FindMessage{ConversationID: &convo.ID})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleUser, messages[0].Role)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)

	count, err := env.semantic.Count(ctx, vector.CollectionConversations)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChat_GeneratesSessionID(t *testing.T) {
	env := newTestEnv(t)
	env.generator.response = "hello"

	resp, err := env.engine.Chat(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
}

func TestChat_ExecutesToolCalls(t *testing.T) {
	env := newTestEnv(t)
	env.generator.response = "Turning it on.\n```json\n" +
		`{"tool": "home_control", "parameters": {"entity_id": "light.kitchen", "action": "turn_on"}}` +
		"\n```"

	resp, err := env.engine.Chat(context.Background(), "s", "turn on the kitchen light")
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "home_control", resp.ToolCalls[0].Tool)
	require.Len(t, resp.ToolResults, 1)
	assert.True(t, resp.ToolResults[0].Success)
	assert.Equal(t, "light.kitchen", env.tool.gotParams["entity_id"])
}

func TestChat_ToolFailureStaysInEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.tool.err = fmt.Errorf("bulb unreachable")
	env.generator.response = `{"tool": "home_control", "parameters": {"entity_id": "light.kitchen"}}`

	resp, err := env.engine.Chat(context.Background(), "s", "lights on please")
	require.NoError(t, err)
	require.Len(t, resp.ToolResults, 1)
	assert.False(t, resp.ToolResults[0].Success)
	assert.Equal(t, "bulb unreachable", resp.ToolResults[0].Error)
}

func TestChat_GeneratorErrorFailsTurn(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = fmt.Errorf("model unavailable")

	_, err := env.engine.Chat(context.Background(), "s", "hi")
	require.Error(t, err)

	// The user turn stays in working memory; no assistant turn was added.
	wm := env.assembler.GetWorkingMemory()
	require.Len(t, wm, 1)
	assert.Equal(t, "user", wm[0].Role)
}

func TestChat_PromptCarriesToolDefinitionsAndContext(t *testing.T) {
	env := newTestEnv(t)
	env.generator.response = "ok"
	env.assembler.UpdateHomeState("light.kitchen", "off")

	_, err := env.engine.Chat(context.Background(), "s", "hello there")
	require.NoError(t, err)

	require.NotEmpty(t, env.generator.gotMessages)
	system := env.generator.gotMessages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "home_control")
	assert.Contains(t, system.Content, "light.kitchen")

	last := env.generator.gotMessages[len(env.generator.gotMessages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "hello there", last.Content)
}

func TestChat_SecondTurnReusesConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.generator.response = "sure"

	_, err := env.engine.Chat(ctx, "s1", "first")
	require.NoError(t, err)
	_, err = env.engine.Chat(ctx, "s1", "second")
	require.NoError(t, err)

	convos, err := env.store.ListConversations(ctx, &store.FindConversation{})
	require.NoError(t, err)
	require.Len(t, convos, 1)

	messages, err := env.store.ListMessages(ctx, &store.FindMessage{ConversationID: &convos[0].ID})
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestChatStream_CollectsAndPersists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.generator.chunks = []string{"The ", "garage ", "is closed."}

	chunks, errs := env.engine.ChatStream(ctx, "s1", "garage status?")

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, "The garage is closed.", full.String())

	// Both channels closed means the turn is fully persisted.
	wm := env.assembler.GetWorkingMemory()
	require.Len(t, wm, 2)
	assert.Equal(t, "The garage is closed.", wm[1].Content)

	convo, err := env.store.GetConversationBySession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, convo)
}

func TestChatStream_PropagatesGeneratorError(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = fmt.Errorf("model unavailable")

	chunks, errs := env.engine.ChatStream(context.Background(), "s1", "hi")
	for range chunks {
	}
	require.Error(t, <-errs)

	// The failed turn is not committed as an assistant response.
	assert.Len(t, env.assembler.GetWorkingMemory(), 1)
}

func TestChatStream_CancelStopsStream(t *testing.T) {
	env := newTestEnv(t)
	env.generator.chunks = []string{"a", "b", "c", "d"}

	ctx, cancel := context.WithCancel(context.Background())
	chunks, errs := env.engine.ChatStream(ctx, "s1", "hi")

	// Take one chunk, then cancel and drain.
	<-chunks
	cancel()
	for range chunks {
	}
	err := <-errs
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "short", deriveTitle("  short  "))
	long := strings.Repeat("x", 100)
	title := deriveTitle(long)
	assert.Equal(t, 61, len([]rune(title)))
	assert.True(t, strings.HasSuffix(title, "…"))
}
