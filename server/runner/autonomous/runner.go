// Package autonomous runs the background loop that lets the assistant act
// without being prompted: it digests recent home events into long-lived
// knowledge and raises proactive notifications when the model finds
// something noteworthy.
package autonomous

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ariahome/aria/plugin/ai/agent/tools"
	aicontext "github.com/ariahome/aria/plugin/ai/context"
	"github.com/ariahome/aria/plugin/ai/vector"
	"github.com/ariahome/aria/server/ai"
	"github.com/ariahome/aria/server/service/event"
)

const (
	defaultInterval = 60 * time.Second

	// digestLimit caps how many recent events one tick digests.
	digestLimit = 20

	// noAction is the sentinel the model replies with when nothing
	// warrants a notification.
	noAction = "NO_ACTION"
)

const proactivePrompt = "You are ARIA, an AI home assistant reviewing recent home activity. " +
	"If something needs the user's attention (unusual activity, doors left open, repeated alerts), " +
	"reply with one short notification sentence. Otherwise reply with exactly " + noAction + "."

// Generator is the model surface the loop needs. Satisfied by *ai.Provider.
type Generator interface {
	Chat(ctx context.Context, messages []ai.Message) (string, error)
	CheckHealth(ctx context.Context) bool
}

// Runner is the autonomous background loop.
type Runner struct {
	generator Generator
	assembler *aicontext.Assembler
	events    *event.Processor
	semantic  vector.SemanticStore
	executor  *tools.Executor
	interval  time.Duration
}

// NewRunner creates the loop. A non-positive interval falls back to the
// default of one minute.
func NewRunner(generator Generator, assembler *aicontext.Assembler, events *event.Processor, semantic vector.SemanticStore, executor *tools.Executor, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Runner{
		generator: generator,
		assembler: assembler,
		events:    events,
		semantic:  semantic,
		executor:  executor,
		interval:  interval,
	}
}

// Run ticks until ctx is cancelled. A failing or panicking tick is logged
// and the loop keeps going; only cancellation stops it.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("autonomous loop started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("autonomous loop stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("autonomous tick panicked", "panic", rec)
		}
	}()

	records := r.events.GetRecentEvents(digestLimit)
	if len(records) == 0 {
		slog.Debug("autonomous tick: no recent events")
		return
	}

	digest := summarize(records)
	docID := fmt.Sprintf("digest_%d", time.Now().UnixNano())
	err := r.semantic.AddDocument(ctx, vector.CollectionKnowledge, docID, digest, map[string]any{
		"kind": "event_digest",
	})
	if err != nil {
		slog.Error("failed to store event digest", "error", err)
	}

	if !r.generator.CheckHealth(ctx) {
		slog.Warn("autonomous tick: model unavailable, skipping proactive check")
		return
	}
	r.proactiveCheck(ctx, digest)
}

// proactiveCheck asks the model whether the recent activity warrants a
// notification and sends one through the notification tool if so.
func (r *Runner) proactiveCheck(ctx context.Context, digest string) {
	var b strings.Builder
	b.WriteString(digest)
	if state := r.assembler.GetHomeState(); len(state) > 0 {
		b.WriteString("\nCurrent home state:")
		keys := make([]string, 0, len(state))
		for k := range state {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, state[k])
		}
	}

	reply, err := r.generator.Chat(ctx, []ai.Message{
		{Role: "system", Content: proactivePrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		slog.Error("proactive check failed", "error", err)
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" || strings.Contains(reply, noAction) {
		return
	}

	result := r.executor.Execute(ctx, "send_notification", map[string]any{
		"title":    "ARIA noticed something",
		"message":  reply,
		"priority": "normal",
	})
	if !result.Success {
		slog.Error("failed to send proactive notification", "error", result.Error)
	}
}

// summarize renders recent events as a compact digest: the time range
// covered and per-type counts, newest events first in the source.
func summarize(records []*event.Record) string {
	counts := make(map[string]int)
	oldest, newest := records[0].Timestamp, records[0].Timestamp
	for _, rec := range records {
		counts[rec.EventType]++
		if rec.Timestamp.Before(oldest) {
			oldest = rec.Timestamp
		}
		if rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "Between %s and %s the home produced %d events:",
		oldest.Format("15:04:05"), newest.Format("15:04:05"), len(records))
	for _, t := range types {
		fmt.Fprintf(&b, " %s x%d,", t, counts[t])
	}
	return strings.TrimSuffix(b.String(), ",") + "."
}
