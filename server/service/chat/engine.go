// Package chat orchestrates one assistant turn: context assembly, prompt
// formatting, generation, tool execution, and persistence across the
// memory tiers.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ariahome/aria/plugin/ai/agent/tools"
	aicontext "github.com/ariahome/aria/plugin/ai/context"
	"github.com/ariahome/aria/plugin/ai/vector"
	"github.com/ariahome/aria/server/ai"
	"github.com/ariahome/aria/store"
)

const defaultSystemPrompt = "You are ARIA, a helpful AI home assistant. " +
	"You are concise, friendly, and proactive about the home. " +
	"When you need to act on the home or look something up, call a tool."

// maxTitleLen bounds conversation titles derived from the first message.
const maxTitleLen = 60

// Generator produces model responses. Satisfied by *ai.Provider.
type Generator interface {
	Chat(ctx context.Context, messages []ai.Message) (string, error)
	ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error)
}

// Response is the outcome of one chat turn.
type Response struct {
	Response    string          `json:"response"`
	SessionID   string          `json:"session_id"`
	ToolCalls   []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolResults []*tools.Result  `json:"tool_results,omitempty"`
}

// Engine runs chat turns. Working memory and home state are shared across
// sessions; only long-term persistence is keyed by session id.
type Engine struct {
	generator Generator
	assembler *aicontext.Assembler
	executor  *tools.Executor
	store     *store.Store
	semantic  vector.SemanticStore
}

// NewEngine creates a chat engine.
func NewEngine(generator Generator, assembler *aicontext.Assembler, executor *tools.Executor, st *store.Store, semantic vector.SemanticStore) *Engine {
	return &Engine{
		generator: generator,
		assembler: assembler,
		executor:  executor,
		store:     st,
		semantic:  semantic,
	}
}

// Chat runs one turn. The user turn enters working memory before
// generation; the assistant turn after. Tool calls found in the response
// are executed in order, every result wrapped in its envelope. Persistence
// is best-effort: a failing store never fails the turn.
func (e *Engine) Chat(ctx context.Context, sessionID, message string) (*Response, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e.assembler.AddToWorkingMemory("user", message)
	promptContext := e.assembler.BuildForPrompt(ctx, message)

	responseText, err := e.generator.Chat(ctx, e.buildMessages(promptContext))
	if err != nil {
		return nil, errors.Wrap(err, "generation failed")
	}

	toolCalls := tools.ParseToolCalls(responseText)
	toolResults := make([]*tools.Result, 0, len(toolCalls))
	for _, call := range toolCalls {
		toolResults = append(toolResults, e.executor.Execute(ctx, call.Tool, call.Parameters))
	}

	e.assembler.AddToWorkingMemory("assistant", responseText)
	e.persistTurn(ctx, sessionID, message, responseText)

	return &Response{
		Response:    responseText,
		SessionID:   sessionID,
		ToolCalls:   toolCalls,
		ToolResults: toolResults,
	}, nil
}

// ChatStream runs one turn with a streamed response. Chunks arrive on the
// first channel; the second carries at most one error. Both channels close
// when the turn ends or ctx is cancelled. Working-memory and persistence
// writes happen only after the full response has streamed.
func (e *Engine) ChatStream(ctx context.Context, sessionID, message string) (<-chan string, <-chan error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e.assembler.AddToWorkingMemory("user", message)
	promptContext := e.assembler.BuildForPrompt(ctx, message)

	chunks, errs := e.generator.ChatStream(ctx, e.buildMessages(promptContext))

	out := make(chan string)
	outErr := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(outErr)

		var full strings.Builder
		for chunk := range chunks {
			select {
			case out <- chunk:
				full.WriteString(chunk)
			case <-ctx.Done():
				outErr <- ctx.Err()
				return
			}
		}
		if err := <-errs; err != nil {
			slog.Error("stream failed", "error", err)
			outErr <- err
			return
		}

		e.assembler.AddToWorkingMemory("assistant", full.String())
		e.persistTurn(ctx, sessionID, message, full.String())
	}()
	return out, outErr
}

// buildMessages renders the prompt: one system message carrying the
// personality, tool definitions, and retrieved context, followed by the
// working-memory turns (the window already ends with the current user
// message).
func (e *Engine) buildMessages(pc *aicontext.PromptContext) []ai.Message {
	messages := []ai.Message{{Role: "system", Content: e.systemPrompt(pc)}}
	for _, entry := range pc.WorkingMemory {
		messages = append(messages, ai.Message{Role: entry.Role, Content: entry.Content})
	}
	return messages
}

func (e *Engine) systemPrompt(pc *aicontext.PromptContext) string {
	var b strings.Builder
	b.WriteString(defaultSystemPrompt)

	if defs := e.executor.Definitions(); len(defs) > 0 {
		b.WriteString("\n\nYou can use these tools. To call one, respond with a JSON object " +
			"in a fenced code block: {\"tool\": \"<name>\", \"parameters\": {...}}\n")
		if encoded, err := json.MarshalIndent(defs, "", "  "); err == nil {
			b.Write(encoded)
		}
	}

	if len(pc.RelevantMemories) > 0 {
		b.WriteString("\n\nRelevant past conversations:")
		for _, m := range pc.RelevantMemories {
			b.WriteString("\n- " + m)
		}
	}
	if len(pc.RelevantEvents) > 0 {
		b.WriteString("\n\nRelevant past events:")
		for _, ev := range pc.RelevantEvents {
			b.WriteString("\n- " + ev)
		}
	}
	if len(pc.RecentEvents) > 0 {
		b.WriteString("\n\nRecent home events:")
		for _, ev := range pc.RecentEvents {
			b.WriteString(fmt.Sprintf("\n- %v", ev))
		}
	}
	if len(pc.HomeState) > 0 {
		b.WriteString("\n\nCurrent home state:")
		if encoded, err := json.Marshal(pc.HomeState); err == nil {
			b.WriteString("\n")
			b.Write(encoded)
		}
	}
	return b.String()
}

// persistTurn writes the exchange to the relational store and the semantic
// index. Failures are logged and swallowed.
func (e *Engine) persistTurn(ctx context.Context, sessionID, userText, assistantText string) {
	convo, err := e.store.GetConversationBySession(ctx, sessionID)
	if err != nil {
		slog.Error("failed to look up conversation", "session_id", sessionID, "error", err)
		return
	}
	if convo == nil {
		convo, err = e.store.CreateConversation(ctx, &store.Conversation{
			SessionID: sessionID,
			Title:     deriveTitle(userText),
		})
		if err != nil {
			slog.Error("failed to create conversation", "session_id", sessionID, "error", err)
			return
		}
	}

	if _, err := e.store.CreateMessage(ctx, &store.Message{
		ConversationID: convo.ID,
		Role:           store.RoleUser,
		Content:        userText,
	}); err != nil {
		slog.Error("failed to persist user message", "error", err)
	}
	assistantMsg, err := e.store.CreateMessage(ctx, &store.Message{
		ConversationID: convo.ID,
		Role:           store.RoleAssistant,
		Content:        assistantText,
	})
	if err != nil {
		slog.Error("failed to persist assistant message", "error", err)
		return
	}

	docID := fmt.Sprintf("conversation_%d_msg_%d", convo.ID, assistantMsg.ID)
	exchange := fmt.Sprintf("User: %s\nAssistant: %s", userText, assistantText)
	if err := e.semantic.AddDocument(ctx, vector.CollectionConversations, docID, exchange, map[string]any{
		"session_id": sessionID,
	}); err != nil {
		slog.Error("failed to index exchange", "error", err)
	}
}

func deriveTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) <= maxTitleLen {
		return string(runes)
	}
	return string(runes[:maxTitleLen]) + "…"
}
