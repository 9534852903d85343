// Package event ingests home events (sensor triggers, device state
// changes, external signals) and fans them out across the memory tiers.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/ariahome/aria/plugin/ai/memory"
	"github.com/ariahome/aria/plugin/ai/vector"
	"github.com/ariahome/aria/store"
)

// Record is a processed home event as handed back to the caller and kept
// in short-term memory.
type Record struct {
	Key       string         `json:"key"`
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Processor stores incoming events in all three memory tiers: short-term
// for quick recall, the relational store for persistence, and the semantic
// index for similarity search.
type Processor struct {
	shortTerm *memory.ShortTermMemory
	store     *store.Store
	semantic  vector.SemanticStore
}

// NewProcessor creates an event processor over the three memory tiers.
func NewProcessor(shortTerm *memory.ShortTermMemory, st *store.Store, semantic vector.SemanticStore) *Processor {
	return &Processor{
		shortTerm: shortTerm,
		store:     st,
		semantic:  semantic,
	}
}

// ProcessEvent ingests one event. The short-term write is synchronous; the
// relational and semantic writes run concurrently and are best-effort: a
// failing tier is logged and skipped, and the record is returned
// regardless. Callers that need delivery guarantees must check the store
// directly.
func (p *Processor) ProcessEvent(ctx context.Context, eventType, source string, data map[string]any) *Record {
	if data == nil {
		data = map[string]any{}
	}
	now := time.Now()
	record := &Record{
		Key:       eventKey(eventType, source, now),
		EventType: eventType,
		Source:    source,
		Data:      data,
		Timestamp: now,
	}

	p.shortTerm.Add(record.Key, record, "event")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := p.store.CreateHomeEvent(ctx, &store.HomeEvent{
			EventType: eventType,
			Source:    source,
			Data:      data,
		})
		if err != nil {
			slog.Error("failed to persist home event", "event_type", eventType, "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		err := p.semantic.AddDocument(ctx, vector.CollectionEvents, record.Key, describeEvent(record), map[string]any{
			"event_type": eventType,
			"source":     sourceOrUnknown(source),
		})
		if err != nil {
			slog.Error("failed to index home event", "event_type", eventType, "error", err)
		}
	}()
	wg.Wait()

	slog.Info("processed event", "event_type", eventType, "source", source)
	return record
}

// GetRecentEvents returns the most recent events still in short-term
// memory, newest first.
func (p *Processor) GetRecentEvents(limit int) []*Record {
	items := p.shortTerm.GetRecent("event", limit)
	records := make([]*Record, 0, len(items))
	for _, item := range items {
		if r, ok := item.Data.(*Record); ok {
			records = append(records, r)
		}
	}
	return records
}

// eventKey builds a unique key for the event. The timestamp keeps keys
// sortable; the shortuuid suffix keeps two events from the same source in
// the same instant from colliding.
func eventKey(eventType, source string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%s", eventType, sourceOrUnknown(source), ts.UnixNano(), shortuuid.New())
}

// describeEvent renders the event as a sentence for the semantic index.
// Data keys are sorted so the description is deterministic.
func describeEvent(r *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "At %s, event '%s' occurred", r.Timestamp.Format("2006-01-02 15:04:05"), r.EventType)
	if r.Source != "" {
		fmt.Fprintf(&b, " from %s", r.Source)
	}

	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " (%s: %v)", k, r.Data[k])
	}

	b.WriteString(".")
	return b.String()
}

func sourceOrUnknown(source string) string {
	if source == "" {
		return "unknown"
	}
	return source
}
