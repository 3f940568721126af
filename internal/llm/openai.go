package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/httpkit"
)

// OpenAIClient talks to the OpenAI Chat Completions API, or any
// compatible endpoint when a base URL is configured.
type OpenAIClient struct {
	client oai.Client
	logger *slog.Logger
}

// NewOpenAIClient creates a new OpenAI client. baseURL may be empty to
// use the default API endpoint.
func NewOpenAIClient(apiKey, baseURL string, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}

	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpkit.NewClient(
			// No global timeout — streaming responses can be long-lived.
			httpkit.WithTimeout(0),
			httpkit.WithTransport(t),
		)),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: oai.NewClient(opts...),
		logger: logger.With("provider", "openai"),
	}
}

// Chat sends a non-streaming chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	params := c.buildParams(model, messages, tools)

	c.logger.Debug("preparing request",
		"model", model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
		"stream", false,
	)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: empty choices in response")
	}

	msg := completion.Choices[0].Message
	result := &ChatResponse{
		Model:     completion.Model,
		CreatedAt: time.Unix(completion.Created, 0),
		Message: Message{
			Role:    "assistant",
			Content: msg.Content,
		},
		Done:         true,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}
	for _, tc := range msg.ToolCalls {
		result.Message.ToolCalls = append(result.Message.ToolCalls, makeToolCall(tc.ID, tc.Function.Name, tc.Function.Arguments))
	}

	c.logger.Debug("response received",
		"model", result.Model,
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"tool_calls", len(result.Message.ToolCalls),
	)
	c.logger.Log(ctx, LevelTrace, "response content", "content", result.Message.Content)

	return result, nil
}

// ChatStream sends a chat request, streaming tokens via callback.
// A nil callback degrades to a plain Chat call.
func (c *OpenAIClient) ChatStream(ctx context.Context, model string, messages []Message, tools []map[string]any, callback StreamCallback) (*ChatResponse, error) {
	if callback == nil {
		return c.Chat(ctx, model, messages, tools)
	}

	params := c.buildParams(model, messages, tools)
	params.StreamOptions = oai.ChatCompletionStreamOptionsParam{
		IncludeUsage: oai.Bool(true),
	}

	c.logger.Debug("preparing request",
		"model", model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
		"stream", true,
	)

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	// Tool call deltas arrive in fragments keyed by index. The arguments
	// string accumulates across chunks and is parsed once at the end.
	type toolAcc struct {
		id   string
		name string
		args string
	}
	var (
		content   string
		toolAccs  = map[int64]*toolAcc{}
		respModel string
		usagePT   int64
		usageCT   int64
	)

	for stream.Next() {
		chunk := stream.Current()
		if chunk.Model != "" {
			respModel = chunk.Model
		}
		if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
			usagePT = chunk.Usage.PromptTokens
			usageCT = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content += delta.Content
			callback(StreamEvent{Kind: KindToken, Token: delta.Content})
		}
		for _, tc := range delta.ToolCalls {
			acc, ok := toolAccs[tc.Index]
			if !ok {
				acc = &toolAcc{}
				toolAccs[tc.Index] = acc
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Function.Name != "" {
				acc.name = tc.Function.Name
			}
			acc.args += tc.Function.Arguments
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}

	indexes := make([]int64, 0, len(toolAccs))
	for i := range toolAccs {
		indexes = append(indexes, i)
	}
	sort.Slice(indexes, func(a, b int) bool { return indexes[a] < indexes[b] })

	var toolCalls []ToolCall
	for _, i := range indexes {
		acc := toolAccs[i]
		toolCalls = append(toolCalls, makeToolCall(acc.id, acc.name, acc.args))
	}

	resp := &ChatResponse{
		Model: respModel,
		Message: Message{
			Role:      "assistant",
			Content:   content,
			ToolCalls: toolCalls,
		},
		Done:         true,
		InputTokens:  int(usagePT),
		OutputTokens: int(usageCT),
	}

	c.logger.Debug("stream complete",
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"content_len", len(resp.Message.Content),
		"tool_calls", len(resp.Message.ToolCalls),
	)
	c.logger.Log(ctx, LevelTrace, "stream final content", "content", resp.Message.Content)

	return resp, nil
}

// Ping checks if the OpenAI API is reachable with the configured key.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	_, err := c.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("openai ping: %w", err)
	}
	return nil
}

func (c *OpenAIClient) buildParams(model string, messages []Message, tools []map[string]any) oai.ChatCompletionNewParams {
	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertToOpenAI(messages),
	}
	for _, tool := range tools {
		fn, ok := tool["function"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := fn["name"].(string)
		desc, _ := fn["description"].(string)
		schema, _ := fn["parameters"].(map[string]any)
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		params.Tools = append(params.Tools, oai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        name,
				Description: param.NewOpt(desc),
				Parameters:  shared.FunctionParameters(schema),
			},
		})
	}
	return params
}

// convertToOpenAI converts internal messages to Chat Completions params.
func convertToOpenAI(messages []Message) []oai.ChatCompletionMessageParamUnion {
	var result []oai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			result = append(result, oai.SystemMessage(msg.Content))

		case "assistant":
			asst := oai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				asst.Content.OfString = oai.String(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				args, err := json.Marshal(tc.Function.Arguments)
				if err != nil {
					args = []byte("{}")
				}
				asst.ToolCalls = append(asst.ToolCalls, oai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: oai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: string(args),
					},
				})
			}
			result = append(result, oai.ChatCompletionMessageParamUnion{OfAssistant: &asst})

		case "tool":
			result = append(result, oai.ToolMessage(msg.Content, msg.ToolCallID))

		case "user":
			result = append(result, oai.UserMessage(msg.Content))
		}
	}
	return result
}

// makeToolCall builds a ToolCall from wire-format fields, parsing the
// JSON arguments string. Unparseable arguments are preserved under _raw.
func makeToolCall(id, name, args string) ToolCall {
	var parsed map[string]any
	if args != "" {
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			parsed = map[string]any{"_raw": args}
		}
	}
	return ToolCall{
		ID: id,
		Function: struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}{
			Name:      name,
			Arguments: parsed,
		},
	}
}
