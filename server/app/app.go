// Package app wires the whole assistant together: profile, store, model
// provider, memory tiers, tools, and the services on top of them.
package app

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/plugin/ai/agent/tools"
	aicontext "github.com/ariahome/aria/plugin/ai/context"
	"github.com/ariahome/aria/plugin/ai/memory"
	"github.com/ariahome/aria/plugin/ai/vector"
	"github.com/ariahome/aria/server/ai"
	"github.com/ariahome/aria/server/runner/autonomous"
	"github.com/ariahome/aria/server/service/chat"
	"github.com/ariahome/aria/server/service/event"
	"github.com/ariahome/aria/store"
	"github.com/ariahome/aria/store/db"
)

// App holds every long-lived component of the assistant.
type App struct {
	Profile   *profile.Profile
	Store     *store.Store
	Provider  *ai.Provider
	ShortTerm *memory.ShortTermMemory
	Semantic  vector.SemanticStore
	Assembler *aicontext.Assembler
	Executor  *tools.Executor
	Center    *tools.NotificationCenter
	Events    *event.Processor
	Chat      *chat.Engine
	Runner    *autonomous.Runner
}

// New builds the full component graph from the profile and migrates the
// schema. Postgres deployments get the pgvector-backed semantic store;
// sqlite deployments fall back to the in-memory one.
func New(ctx context.Context, p *profile.Profile) (*App, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	provider, err := ai.NewProvider(&ai.Config{
		BaseURL:        p.AIBaseURL,
		APIKey:         p.AIAPIKey,
		ChatModel:      p.AIChatModel,
		EmbeddingModel: p.AIEmbeddingModel,
	})
	if err != nil {
		_ = st.Close()
		return nil, errors.Wrap(err, "failed to create ai provider")
	}

	var semantic vector.SemanticStore
	if p.Driver == "postgres" {
		semantic = vector.NewPGStore(st, provider)
	} else {
		semantic = vector.NewMemoryStore(provider)
	}

	shortTerm := memory.NewShortTermMemory(p.ShortTermTTL, p.ShortTermMaxItems)
	assembler := aicontext.NewAssembler(shortTerm, semantic, aicontext.Config{
		WindowSize: p.WorkingMemorySize,
	})

	center := tools.NewNotificationCenter()
	executor := tools.NewExecutor(0)
	executor.Register(tools.NewHomeControlTool(p.HomeAssistantURL, p.HomeAssistantToken))
	executor.Register(tools.NewWebSearchTool())
	executor.Register(tools.NewNotificationTool(center))
	executor.Register(tools.NewCameraTool())

	events := event.NewProcessor(shortTerm, st, semantic)

	return &App{
		Profile:   p,
		Store:     st,
		Provider:  provider,
		ShortTerm: shortTerm,
		Semantic:  semantic,
		Assembler: assembler,
		Executor:  executor,
		Center:    center,
		Events:    events,
		Chat:      chat.NewEngine(provider, assembler, executor, st, semantic),
		Runner:    autonomous.NewRunner(provider, assembler, events, semantic, executor, p.LoopInterval),
	}, nil
}

// Close releases the app's resources. The autonomous loop stops with the
// context its Run was given.
func (a *App) Close() error {
	return a.Store.Close()
}
