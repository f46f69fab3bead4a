package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lucidquant/tickerscout/pkg/logger"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

// AnthropicProvider implements LLMProvider over the official
// Anthropic Messages SDK.
type AnthropicProvider struct {
	client *anthropic.Client
}

func NewAnthropicProvider(apiKey, apiBase string) *AnthropicProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(normalizeAnthropicBaseURL(apiBase)),
	)
	return &AnthropicProvider{client: &client}
}

func (p *AnthropicProvider) GetDefaultModel() string {
	return "claude-sonnet-4-5"
}

func (p *AnthropicProvider) Chat(
	ctx context.Context,
	messages []Message,
	tools []ToolDefinition,
	model string,
	options map[string]any,
) (*LLMResponse, error) {
	if model == "" {
		model = p.GetDefaultModel()
	}

	params := buildAnthropicParams(messages, tools, model, options)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	return parseAnthropicResponse(resp), nil
}

// buildAnthropicParams converts provider-neutral messages into Messages API
// params. The API takes the system prompt as a separate parameter and
// requires all tool_result blocks for an assistant tool_use turn to arrive
// in a single user message, so consecutive tool results are merged.
func buildAnthropicParams(
	messages []Message,
	tools []ToolDefinition,
	model string,
	options map[string]any,
) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var converted []anthropic.MessageParam

	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case "tool":
			var results []anthropic.ContentBlockParamUnion
			for i < len(messages) && messages[i].Role == "tool" {
				results = append(results,
					anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
				i++
			}
			i-- // outer loop will increment
			converted = append(converted, anthropic.NewUserMessage(results...))
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				converted = append(converted,
					anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
				continue
			}
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				name := tc.CallName()
				if name == "" {
					logger.WarnCF("llm", "Skipping tool call without a name",
						map[string]any{"id": tc.ID})
					continue
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.CallArguments(), name))
			}
			converted = append(converted, anthropic.NewAssistantMessage(blocks...))
		default:
			converted = append(converted,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	maxTokens := int64(4096)
	if mt, ok := options["max_tokens"].(int); ok && mt > 0 {
		maxTokens = int64(mt)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  converted,
		MaxTokens: maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if temp, ok := options["temperature"].(float64); ok {
		params.Temperature = anthropic.Float(temp)
	}
	if len(tools) > 0 {
		params.Tools = translateAnthropicTools(tools)
	}

	return params
}

func translateAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		tool := anthropic.ToolParam{
			Name: t.Function.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Function.Parameters["properties"],
			},
		}
		if desc := t.Function.Description; desc != "" {
			tool.Description = anthropic.String(desc)
		}
		if req, ok := t.Function.Parameters["required"].([]any); ok {
			required := make([]string, 0, len(req))
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
			tool.InputSchema.Required = required
		}
		result = append(result, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return result
}

func parseAnthropicResponse(resp *anthropic.Message) *LLMResponse {
	var content string
	var toolCalls []ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			var args map[string]any
			if err := json.Unmarshal(tu.Input, &args); err != nil {
				logger.WarnCF("llm", "Failed to decode tool call input",
					map[string]any{"tool": tu.Name, "error": err.Error()})
				args = map[string]any{}
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:   tu.ID,
				Type: "function",
				Function: &FunctionCall{
					Name:      tu.Name,
					Arguments: string(tu.Input),
				},
				Name:      tu.Name,
				Arguments: args,
			})
		}
	}

	finishReason := "stop"
	switch resp.StopReason {
	case anthropic.StopReasonToolUse:
		finishReason = "tool_calls"
	case anthropic.StopReasonMaxTokens:
		finishReason = "length"
	case anthropic.StopReasonEndTurn:
		finishReason = "stop"
	}

	return &LLMResponse{
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: finishReason,
		Usage: &UsageInfo{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

func normalizeAnthropicBaseURL(apiBase string) string {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	base = strings.TrimSuffix(base, "/v1")
	if base == "" {
		return anthropicDefaultBaseURL
	}
	return base
}
