// Package context assembles the prompt context for generation. It owns the
// rolling working-memory window and the home-state snapshot, and merges them
// with short-term recents and semantic search results.
package context

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ariahome/aria/plugin/ai/memory"
	"github.com/ariahome/aria/plugin/ai/vector"
)

// Entry is a single working-memory turn.
type Entry struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// PromptContext is the composite context handed to the generation step.
// The five facets are kept separate; flattening into a prompt string is the
// generation step's responsibility.
type PromptContext struct {
	WorkingMemory    []Entry        `json:"working_memory"`
	RelevantMemories []string       `json:"relevant_memories"`
	RelevantEvents   []string       `json:"relevant_events"`
	RecentEvents     []any          `json:"recent_events"`
	HomeState        map[string]any `json:"home_state"`
}

// Config tunes the assembler.
type Config struct {
	WindowSize       int // working-memory window W (default: 10)
	TopConversations int // semantic matches from "conversations" (default: 3)
	TopEvents        int // semantic matches from "events" (default: 2)
	RecentEvents     int // short-term recents, category "event" (default: 5)
}

// DefaultConfig returns the default assembler configuration.
func DefaultConfig() Config {
	return Config{
		WindowSize:       10,
		TopConversations: 3,
		TopEvents:        2,
		RecentEvents:     5,
	}
}

// Assembler merges working memory, short-term recents, and semantic search
// results into one bounded context object.
//
// Working memory and the home-state snapshot are process-wide shared state;
// multi-session isolation, if needed, is layered on top by the caller. The
// internal mutex guards pure in-memory reads and writes only and is never
// held across semantic or short-term store calls.
type Assembler struct {
	mu            sync.Mutex
	workingMemory []Entry
	homeState     map[string]any

	shortTerm *memory.ShortTermMemory
	semantic  vector.SemanticStore
	cfg       Config
}

// NewAssembler creates a context assembler.
func NewAssembler(shortTerm *memory.ShortTermMemory, semantic vector.SemanticStore, cfg Config) *Assembler {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.TopConversations <= 0 {
		cfg.TopConversations = 3
	}
	if cfg.TopEvents <= 0 {
		cfg.TopEvents = 2
	}
	if cfg.RecentEvents <= 0 {
		cfg.RecentEvents = 5
	}
	return &Assembler{
		homeState: make(map[string]any),
		shortTerm: shortTerm,
		semantic:  semantic,
		cfg:       cfg,
	}
}

// AddToWorkingMemory appends a turn and truncates to the last W entries,
// dropping the oldest first.
func (a *Assembler) AddToWorkingMemory(role, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.workingMemory = append(a.workingMemory, Entry{Role: role, Content: content})
	if len(a.workingMemory) > a.cfg.WindowSize {
		a.workingMemory = a.workingMemory[len(a.workingMemory)-a.cfg.WindowSize:]
	}
}

// GetWorkingMemory returns a copy of the current window, oldest first.
func (a *Assembler) GetWorkingMemory() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.workingMemory))
	copy(out, a.workingMemory)
	return out
}

// ClearWorkingMemory resets the window to empty.
func (a *Assembler) ClearWorkingMemory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workingMemory = nil
	slog.Info("working memory cleared")
}

// UpdateHomeState records the last-known state of a home entity. The
// snapshot never expires and lives for the process lifetime.
func (a *Assembler) UpdateHomeState(entityID string, state any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.homeState[entityID] = state
}

// GetHomeState returns a copy of the current home-state snapshot.
func (a *Assembler) GetHomeState() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]any, len(a.homeState))
	for k, v := range a.homeState {
		out[k] = v
	}
	return out
}

// GetEntityState returns the last-known state of one entity.
func (a *Assembler) GetEntityState(entityID string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.homeState[entityID]
	return state, ok
}

// BuildForPrompt assembles the five-facet context for the current query.
// The two semantic queries and the short-term read run concurrently. A
// failing facet degrades to empty with a warning; it does not fail the
// build.
func (a *Assembler) BuildForPrompt(ctx context.Context, query string) *PromptContext {
	result := &PromptContext{
		WorkingMemory:    a.GetWorkingMemory(),
		RelevantMemories: []string{},
		RelevantEvents:   []string{},
		RecentEvents:     []any{},
		HomeState:        a.GetHomeState(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		matches, err := a.semantic.Query(gctx, vector.CollectionConversations, query, a.cfg.TopConversations, nil)
		if err != nil {
			slog.Warn("semantic conversation lookup failed", "error", err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		for _, m := range matches {
			result.RelevantMemories = append(result.RelevantMemories, m.Document)
		}
		return nil
	})

	g.Go(func() error {
		matches, err := a.semantic.Query(gctx, vector.CollectionEvents, query, a.cfg.TopEvents, nil)
		if err != nil {
			slog.Warn("semantic event lookup failed", "error", err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		for _, m := range matches {
			result.RelevantEvents = append(result.RelevantEvents, m.Document)
		}
		return nil
	})

	g.Go(func() error {
		items := a.shortTerm.GetRecent("event", a.cfg.RecentEvents)
		mu.Lock()
		defer mu.Unlock()
		for _, item := range items {
			result.RecentEvents = append(result.RecentEvents, item.Data)
		}
		return nil
	})

	// Facet errors are swallowed above; Wait only propagates ctx errors.
	_ = g.Wait()
	return result
}
