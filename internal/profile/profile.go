package profile

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to where aria stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// AI configuration
	AIBaseURL        string // ARIA_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey         string // ARIA_AI_API_KEY
	AIChatModel      string // ARIA_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel string // ARIA_AI_EMBEDDING_MODEL (default: text-embedding-3-small)

	// Home Assistant integration
	HomeAssistantURL   string // ARIA_HOME_ASSISTANT_URL (default: http://localhost:8123)
	HomeAssistantToken string // ARIA_HOME_ASSISTANT_TOKEN

	// Memory tuning
	ShortTermTTL      time.Duration // ARIA_SHORT_TERM_TTL (default: 6h)
	ShortTermMaxItems int           // ARIA_SHORT_TERM_MAX_ITEMS (default: 1000)
	WorkingMemorySize int           // ARIA_WORKING_MEMORY_SIZE (default: 10)

	// Autonomous loop
	LoopInterval time.Duration // ARIA_LOOP_INTERVAL (default: 60s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Default returns a profile with development defaults.
func Default() *Profile {
	return &Profile{
		Mode:              "dev",
		Data:              "./data",
		Driver:            "sqlite",
		AIBaseURL:         "https://api.openai.com/v1",
		AIChatModel:       "gpt-4o-mini",
		AIEmbeddingModel:  "text-embedding-3-small",
		HomeAssistantURL:  "http://localhost:8123",
		ShortTermTTL:      6 * time.Hour,
		ShortTermMaxItems: 1000,
		WorkingMemorySize: 10,
		LoopInterval:      60 * time.Second,
	}
}

// Validate checks the profile and fills in derived values.
func (p *Profile) Validate() error {
	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			if err := os.MkdirAll(p.Data, 0o750); err != nil {
				return errors.Wrapf(err, "failed to create data directory %q", p.Data)
			}
			p.DSN = fmt.Sprintf("%s/aria.db", p.Data)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("DSN is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.ShortTermMaxItems <= 0 {
		p.ShortTermMaxItems = 1000
	}
	if p.ShortTermTTL <= 0 {
		p.ShortTermTTL = 6 * time.Hour
	}
	if p.WorkingMemorySize <= 0 {
		p.WorkingMemorySize = 10
	}
	if p.LoopInterval <= 0 {
		p.LoopInterval = 60 * time.Second
	}
	return nil
}
