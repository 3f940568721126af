package llm

import (
	"testing"
	"time"
)

// Anthropic response conversion tests

func TestConvertFromAnthropic_TextOnly(t *testing.T) {
	resp := &anthropicResponse{
		Model: "claude-haiku-4-5-20251001",
		Role:  "assistant",
		Content: []anthropicContent{
			{Type: "text", Text: "Сьогодні день ніг."},
		},
		StopReason: "end_turn",
		Usage:      anthropicUsage{InputTokens: 100, OutputTokens: 25},
	}

	result := convertFromAnthropic(resp)

	if result.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("Model = %q", result.Model)
	}
	if result.Message.Content != "Сьогодні день ніг." {
		t.Errorf("Content = %q", result.Message.Content)
	}
	if result.InputTokens != 100 {
		t.Errorf("InputTokens = %d, want 100", result.InputTokens)
	}
	if result.OutputTokens != 25 {
		t.Errorf("OutputTokens = %d, want 25", result.OutputTokens)
	}
	if !result.Done {
		t.Error("Done = false, want true")
	}
	if len(result.Message.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %d, want 0", len(result.Message.ToolCalls))
	}
}

func TestConvertFromAnthropic_MultipleToolCalls(t *testing.T) {
	resp := &anthropicResponse{
		Model: "claude-haiku-4-5-20251001",
		Role:  "assistant",
		Content: []anthropicContent{
			{
				Type:  "tool_use",
				ID:    "toolu_01",
				Name:  "get_user_profile",
				Input: map[string]any{},
			},
			{
				Type:  "tool_use",
				ID:    "toolu_02",
				Name:  "get_workout_logs",
				Input: map[string]any{"limit": float64(3)},
			},
		},
		StopReason: "tool_use",
	}

	result := convertFromAnthropic(resp)

	if len(result.Message.ToolCalls) != 2 {
		t.Fatalf("ToolCalls = %d, want 2", len(result.Message.ToolCalls))
	}
	if result.Message.ToolCalls[0].ID != "toolu_01" {
		t.Errorf("first tool ID = %q", result.Message.ToolCalls[0].ID)
	}
	if result.Message.ToolCalls[1].Function.Name != "get_workout_logs" {
		t.Errorf("second tool name = %q", result.Message.ToolCalls[1].Function.Name)
	}
}

func TestConvertFromAnthropic_EmptyContent(t *testing.T) {
	resp := &anthropicResponse{
		Model:      "claude-haiku-4-5-20251001",
		Role:       "assistant",
		Content:    []anthropicContent{},
		StopReason: "end_turn",
		Usage:      anthropicUsage{InputTokens: 50, OutputTokens: 0},
	}

	result := convertFromAnthropic(resp)

	if result.Message.Content != "" {
		t.Errorf("Content = %q, want empty", result.Message.Content)
	}
	if len(result.Message.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %d, want 0", len(result.Message.ToolCalls))
	}
}

// OpenAI conversion tests

func TestConvertToOpenAI_Roles(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "You are a personal fitness trainer."},
		{Role: "user", Content: "Запиши тренування."},
		{
			Role:    "assistant",
			Content: "Записую.",
			ToolCalls: []ToolCall{{
				ID: "call_1",
				Function: struct {
					Name      string         `json:"name"`
					Arguments map[string]any `json:"arguments"`
				}{
					Name:      "save_workout_log",
					Arguments: map[string]any{"duration_minutes": float64(60)},
				},
			}},
		},
		{Role: "tool", Content: "✅ saved", ToolCallID: "call_1"},
	}

	result := convertToOpenAI(messages)

	if len(result) != 4 {
		t.Fatalf("expected 4 params, got %d", len(result))
	}
	if result[0].OfSystem == nil {
		t.Error("expected system param first")
	}
	if result[1].OfUser == nil {
		t.Error("expected user param second")
	}
	asst := result[2].OfAssistant
	if asst == nil {
		t.Fatal("expected assistant param third")
	}
	if len(asst.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(asst.ToolCalls))
	}
	if asst.ToolCalls[0].ID != "call_1" {
		t.Errorf("tool call ID = %q", asst.ToolCalls[0].ID)
	}
	if asst.ToolCalls[0].Function.Arguments != `{"duration_minutes":60}` {
		t.Errorf("tool call arguments = %q", asst.ToolCalls[0].Function.Arguments)
	}
	if result[3].OfTool == nil {
		t.Error("expected tool param fourth")
	}
}

func TestMakeToolCall(t *testing.T) {
	tc := makeToolCall("call_9", "update_memory", `{"mode":"append","new_text":"любить присідання"}`)

	if tc.ID != "call_9" {
		t.Errorf("ID = %q", tc.ID)
	}
	if tc.Function.Name != "update_memory" {
		t.Errorf("Name = %q", tc.Function.Name)
	}
	if tc.Function.Arguments["mode"] != "append" {
		t.Errorf("mode arg = %v", tc.Function.Arguments["mode"])
	}
}

func TestMakeToolCall_BadJSON(t *testing.T) {
	tc := makeToolCall("call_9", "update_memory", `{not json`)

	if tc.Function.Arguments["_raw"] != `{not json` {
		t.Errorf("expected raw fallback, got %v", tc.Function.Arguments)
	}
}

// ChatResponse field type safety tests

func TestChatResponse_TimeTypeSafety(t *testing.T) {
	resp := ChatResponse{
		CreatedAt:     time.Now(),
		TotalDuration: 5 * time.Second,
		EvalDuration:  3 * time.Second,
	}

	_ = resp.CreatedAt.Unix()
	_ = resp.TotalDuration.Seconds()
	_ = resp.EvalDuration.Milliseconds()

	if resp.TotalDuration.Seconds() != 5.0 {
		t.Errorf("TotalDuration.Seconds() = %f, want 5.0", resp.TotalDuration.Seconds())
	}

	overhead := resp.TotalDuration - resp.EvalDuration
	if overhead != 2*time.Second {
		t.Errorf("overhead = %v, want 2s", overhead)
	}
}

func TestChatResponse_ZeroValuesSafe(t *testing.T) {
	var resp ChatResponse

	if !resp.CreatedAt.IsZero() {
		t.Error("zero ChatResponse.CreatedAt should be zero time")
	}
	if resp.InputTokens != 0 {
		t.Error("zero ChatResponse.InputTokens should be 0")
	}
	if resp.Done {
		t.Error("zero ChatResponse.Done should be false")
	}
}
