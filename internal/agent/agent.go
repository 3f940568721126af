// Package agent implements the trainer's tool-calling conversation loop.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/llm"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/prompts"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
)

const defaultMaxIters = 10

// FallbackMessage is returned when the loop exhausts its iteration
// budget without the model producing a plain text answer.
const FallbackMessage = "Вибачте, сталася помилка при обробці запиту. Спробуйте ще раз."

// Agent holds one user's conversation with the trainer. The briefing is
// assembled on the first message and stays fixed for the conversation;
// a new Agent picks up whatever the tools saved since.
type Agent struct {
	logger   *slog.Logger
	llm      llm.Client
	model    string
	registry *tools.Registry
	session  *tools.Session
	briefing *Briefing
	maxIters int

	mu       sync.Mutex
	messages []llm.Message
	started  bool
}

// New creates an agent for one user session. maxIters <= 0 selects the
// built-in default.
func New(logger *slog.Logger, client llm.Client, model string, reg *tools.Registry, sess *tools.Session, briefing *Briefing, maxIters int) *Agent {
	if maxIters <= 0 {
		maxIters = defaultMaxIters
	}
	return &Agent{
		logger:   logger,
		llm:      client,
		model:    model,
		registry: reg,
		session:  sess,
		briefing: briefing,
		maxIters: maxIters,
	}
}

// Send processes one user message and returns the trainer's reply,
// running any tool calls the model requests along the way.
func (a *Agent) Send(ctx context.Context, text string) (string, error) {
	return a.send(ctx, text, nil)
}

// SendStream is Send with incremental delivery: text tokens and tool
// lifecycle events are passed to cb as they happen. The full reply is
// still returned at the end.
func (a *Agent) SendStream(ctx context.Context, text string, cb llm.StreamCallback) (string, error) {
	return a.send(ctx, text, cb)
}

func (a *Agent) send(ctx context.Context, text string, cb llm.StreamCallback) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		a.start(ctx)
	}
	a.messages = append(a.messages, llm.Message{Role: "user", Content: text})

	toolDefs := a.registry.List()
	start := time.Now()

	for i := range a.maxIters {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("conversation cancelled: %w", err)
		}

		a.logger.Info("trainer llm call",
			"user", a.session.UserID,
			"iter", i,
			"model", a.model,
			"msgs", len(a.messages),
		)

		// Tool-call decisions need the complete response object, so
		// every iteration probes with a buffered call even when the
		// caller wants a stream.
		resp, err := a.llm.Chat(ctx, a.model, a.messages, toolDefs)
		if err != nil {
			return "", fmt.Errorf("llm call failed (iter %d): %w", i, err)
		}

		a.logger.Info("trainer llm response",
			"user", a.session.UserID,
			"iter", i,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
			"tool_calls", len(resp.Message.ToolCalls),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)

		if len(resp.Message.ToolCalls) == 0 {
			if cb == nil {
				a.messages = append(a.messages, resp.Message)
				return resp.Message.Content, nil
			}
			// The buffered reply is discarded and the model is
			// re-invoked in streaming mode over the same transcript.
			// An abandoned stream leaves this turn without a terminal
			// message; no rollback is attempted.
			final, err := a.llm.ChatStream(ctx, a.model, a.messages, toolDefs, cb)
			if err != nil {
				return "", fmt.Errorf("streaming llm call failed: %w", err)
			}
			a.messages = append(a.messages, final.Message)
			return final.Message.Content, nil
		}

		a.messages = append(a.messages, resp.Message)
		for _, tc := range resp.Message.ToolCalls {
			a.runTool(ctx, tc, cb)
		}
	}

	a.logger.Warn("trainer max iterations reached",
		"user", a.session.UserID,
		"max_iters", a.maxIters,
	)
	a.messages = append(a.messages, llm.Message{Role: "assistant", Content: FallbackMessage})
	if cb != nil {
		cb(llm.StreamEvent{Kind: llm.KindToken, Token: FallbackMessage})
	}
	return FallbackMessage, nil
}

// start bakes the system prompt and briefing into the message history.
func (a *Agent) start(ctx context.Context) {
	system := prompts.SystemPrompt()
	if briefing := a.briefing.Build(ctx, a.session.UserID); briefing != "" {
		system += "\n\n" + briefing
	}
	a.messages = append(a.messages, llm.Message{Role: "system", Content: system})
	a.started = true
}

func (a *Agent) runTool(ctx context.Context, tc llm.ToolCall, cb llm.StreamCallback) {
	name := tc.Function.Name
	if cb != nil {
		cb(llm.StreamEvent{Kind: llm.KindToolCallStart, ToolCall: &tc})
	}

	toolStart := time.Now()
	result, err := a.registry.Execute(ctx, a.session, name, tc.Function.Arguments)
	if err != nil {
		a.logger.Error("tool exec failed",
			"user", a.session.UserID,
			"tool", name,
			"error", err,
		)
	} else {
		a.logger.Debug("tool exec done",
			"user", a.session.UserID,
			"tool", name,
			"result_len", len(result),
			"elapsed", time.Since(toolStart).Round(time.Millisecond),
		)
	}

	if cb != nil {
		ev := llm.StreamEvent{Kind: llm.KindToolCallDone, ToolName: name, ToolResult: result}
		if err != nil {
			ev.ToolError = err.Error()
		}
		cb(ev)
	}

	a.messages = append(a.messages, llm.Message{
		Role:       "tool",
		Content:    result,
		ToolCallID: tc.ID,
	})
}

// History returns the visible conversation: user messages and assistant
// replies, without the system prompt or tool traffic.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []llm.Message
	for _, m := range a.messages {
		switch m.Role {
		case "user":
			out = append(out, m)
		case "assistant":
			if len(m.ToolCalls) == 0 && m.Content != "" {
				out = append(out, m)
			}
		}
	}
	return out
}

// RestoreHistory seeds a fresh agent with a prior visible conversation.
// The briefing is rebuilt, so restored agents see current profile data.
func (a *Agent) RestoreHistory(ctx context.Context, history []llm.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.messages = nil
	a.started = false
	a.start(ctx)
	for _, m := range history {
		if m.Role == "user" || m.Role == "assistant" {
			a.messages = append(a.messages, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
}
