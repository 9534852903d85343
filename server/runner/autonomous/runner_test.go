package autonomous

import (
	"context"
	"sync"
	"sync/atomic"
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
	"github.com/ariahome/aria/server/service/event"
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

// scriptedGenerator replies with a fixed message and counts calls.
type scriptedGenerator struct {
	mu      sync.Mutex
	reply   string
	healthy bool
	panics  bool
	calls   int
}

func (g *scriptedGenerator) Chat(context.Context, []ai.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.reply, nil
}

func (g *scriptedGenerator) CheckHealth(context.Context) bool {
	if g.panics {
		panic("health probe exploded")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.healthy
}

func (g *scriptedGenerator) chatCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type testEnv struct {
	runner    *Runner
	generator *scriptedGenerator
	events    *event.Processor
	semantic  vector.SemanticStore
	center    *tools.NotificationCenter
}

func newTestEnv(t *testing.T, interval time.Duration, semantic vector.SemanticStore) *testEnv {
	t.Helper()

	p := profile.Default()
	p.Data = t.TempDir()
	require.NoError(t, p.Validate())
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))

	if semantic == nil {
		semantic = vector.NewMemoryStore(staticEmbedder{})
	}
	shortTerm := memory.NewShortTermMemory(time.Hour, 100)
	assembler := aicontext.NewAssembler(shortTerm, semantic, aicontext.DefaultConfig())
	events := event.NewProcessor(shortTerm, st, semantic)

	center := tools.NewNotificationCenter()
	executor := tools.NewExecutor(0)
	executor.Register(tools.NewNotificationTool(center))

	generator := &scriptedGenerator{reply: "NO_ACTION", healthy: true}
	return &testEnv{
		runner:    NewRunner(generator, assembler, events, semantic, executor, interval),
		generator: generator,
		events:    events,
		semantic:  semantic,
		center:    center,
	}
}

func runFor(t *testing.T, r *Runner, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	time.Sleep(d)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestRun_DigestsRecentEvents(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)

	env.events.ProcessEvent(context.Background(), "motion_detected", "sensor.hall", nil)
	env.events.ProcessEvent(context.Background(), "motion_detected", "sensor.hall", nil)
	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	runFor(t, env.runner, 50*time.Millisecond)

	count, err := env.semantic.Count(context.Background(), vector.CollectionKnowledge)
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	matches, err := env.semantic.Query(context.Background(), vector.CollectionKnowledge, "motion_detected", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Document, "motion_detected x2")
	assert.Contains(t, matches[0].Document, "door_opened x1")
	assert.Equal(t, "event_digest", matches[0].Metadata["kind"])
}

func TestRun_IdleTickDoesNothing(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)

	runFor(t, env.runner, 50*time.Millisecond)

	count, err := env.semantic.Count(context.Background(), vector.CollectionKnowledge)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, env.generator.chatCalls())
}

func TestRun_ProactiveNotification(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)
	env.generator.reply = "The front door has been open for a while."

	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	runFor(t, env.runner, 50*time.Millisecond)

	recent := env.center.Recent(1)
	require.NotEmpty(t, recent)
	assert.Equal(t, "The front door has been open for a while.", recent[0].Message)
}

func TestRun_NoActionSendsNothing(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)

	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	runFor(t, env.runner, 50*time.Millisecond)

	assert.Greater(t, env.generator.chatCalls(), 0)
	assert.Empty(t, env.center.Recent(0))
}

func TestRun_UnhealthyModelSkipsProactiveCheck(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)
	env.generator.healthy = false

	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	runFor(t, env.runner, 50*time.Millisecond)

	// The digest still happens; the model is never consulted.
	count, err := env.semantic.Count(context.Background(), vector.CollectionKnowledge)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
	assert.Zero(t, env.generator.chatCalls())
}

func TestRun_SurvivesPanickingTick(t *testing.T) {
	env := newTestEnv(t, 10*time.Millisecond, nil)
	env.generator.panics = true

	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	// The loop must keep ticking and still stop cleanly on cancellation.
	runFor(t, env.runner, 50*time.Millisecond)

	count, err := env.semantic.Count(context.Background(), vector.CollectionKnowledge)
	require.NoError(t, err)
	assert.Greater(t, count, 1)
}

// countingSemantic counts writes so tests can assert the loop went quiet.
type countingSemantic struct {
	inner vector.SemanticStore
	adds  atomic.Int32
}

func (c *countingSemantic) AddDocument(ctx context.Context, collection vector.Collection, id, text string, metadata map[string]any) error {
	c.adds.Add(1)
	return c.inner.AddDocument(ctx, collection, id, text, metadata)
}

func (c *countingSemantic) Query(ctx context.Context, collection vector.Collection, queryText string, n int, filter map[string]any) ([]vector.QueryResult, error) {
	return c.inner.Query(ctx, collection, queryText, n, filter)
}

func (c *countingSemantic) DeleteDocuments(ctx context.Context, collection vector.Collection, ids []string) error {
	return c.inner.DeleteDocuments(ctx, collection, ids)
}

func (c *countingSemantic) Count(ctx context.Context, collection vector.Collection) (int, error) {
	return c.inner.Count(ctx, collection)
}

func TestRun_ReturnIsAJoinPoint(t *testing.T) {
	counting := &countingSemantic{inner: vector.NewMemoryStore(staticEmbedder{})}
	env := newTestEnv(t, 10*time.Millisecond, counting)

	env.events.ProcessEvent(context.Background(), "door_opened", "sensor.front", nil)

	// Once Run has returned, no tick may still be writing; callers rely on
	// this to close the store safely afterwards.
	runFor(t, env.runner, 50*time.Millisecond)
	settled := counting.adds.Load()
	assert.Greater(t, settled, int32(0))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, counting.adds.Load())
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	records := []*event.Record{
		{EventType: "door_opened", Timestamp: now.Add(time.Minute)},
		{EventType: "motion_detected", Timestamp: now},
		{EventType: "motion_detected", Timestamp: now.Add(30 * time.Second)},
	}

	digest := summarize(records)
	assert.Contains(t, digest, "Between 08:30:00 and 08:31:00")
	assert.Contains(t, digest, "3 events")
	assert.Contains(t, digest, "door_opened x1")
	assert.Contains(t, digest, "motion_detected x2")
	assert.True(t, len(digest) > 0 && digest[len(digest)-1] == '.')
}
