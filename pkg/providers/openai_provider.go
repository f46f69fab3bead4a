package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/lucidquant/tickerscout/pkg/logger"
)

const (
	defaultModel          = "gpt-4o"
	defaultRequestTimeout = 120 * time.Second
)

// OpenAIProvider implements the LLM provider contract on top of the
// official OpenAI Go SDK. Any OpenAI-compatible endpoint works by
// pointing apiBase at it.
type OpenAIProvider struct {
	apiBase    string
	httpClient *http.Client
	client     *openai.Client
}

type OpenAIOption func(*OpenAIProvider)

func WithRequestTimeout(timeout time.Duration) OpenAIOption {
	return func(p *OpenAIProvider) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

func NewOpenAIProvider(apiKey, apiBase string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	reqOpts := []option.RequestOption{
		option.WithHTTPClient(p.httpClient),
	}
	if p.apiBase != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.apiBase))
	}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	client := openai.NewClient(reqOpts...)
	p.client = &client
	return p
}

func (p *OpenAIProvider) GetDefaultModel() string {
	return defaultModel
}

func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages []Message,
	tools []ToolDefinition,
	model string,
	options map[string]any,
) (*LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: buildChatMessages(messages),
	}

	if len(tools) > 0 {
		params.Tools = buildChatTools(tools)
		params.ToolChoice.OfAuto = openai.String(string(openai.ChatCompletionToolChoiceOptionAutoAuto))
	}
	applyOptions(&params, options)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf(
				"OpenAI API request failed (status=%d): %s",
				apiErr.StatusCode,
				strings.TrimSpace(apiErr.Message),
			)
		}
		return nil, fmt.Errorf("OpenAI API request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI API returned no choices")
	}

	choice := resp.Choices[0]
	return &LLMResponse{
		Content:      choice.Message.Content,
		ToolCalls:    parseChoiceToolCalls(choice.Message.ToolCalls),
		FinishReason: choice.FinishReason,
		Usage:        mapUsage(resp.Usage),
	}, nil
}

func buildChatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, buildAssistantMessage(msg))
		case "tool":
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func buildAssistantMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content.OfString = openai.String(msg.Content)
	}
	if len(msg.ToolCalls) > 0 {
		assistant.ToolCalls = make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			name := tc.CallName()
			if name == "" {
				continue
			}
			args := "{}"
			if tc.Function != nil && tc.Function.Arguments != "" {
				args = tc.Function.Arguments
			} else if len(tc.Arguments) > 0 {
				if b, err := json.Marshal(tc.Arguments); err == nil {
					args = string(b)
				}
			}
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      name,
						Arguments: args,
					},
				},
			})
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func buildChatTools(tools []ToolDefinition) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		if tool.Function.Name == "" {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  shared.FunctionParameters(tool.Function.Parameters),
		}
		out = append(out, openai.ChatCompletionFunctionTool(fn))
	}
	return out
}

func parseChoiceToolCalls(calls []openai.ChatCompletionMessageToolCallUnion) []ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		switch v := call.AsAny().(type) {
		case openai.ChatCompletionMessageFunctionToolCall:
			args := map[string]any{}
			if strings.TrimSpace(v.Function.Arguments) != "" {
				if err := json.Unmarshal([]byte(v.Function.Arguments), &args); err != nil {
					logger.WarnCF("llm", "Failed to decode tool call arguments",
						map[string]any{"tool": v.Function.Name, "error": err.Error()})
				}
			}
			result = append(result, ToolCall{
				ID:   v.ID,
				Type: "function",
				Function: &FunctionCall{
					Name:      v.Function.Name,
					Arguments: v.Function.Arguments,
				},
				Name:      v.Function.Name,
				Arguments: args,
			})
		}
	}
	return result
}

func applyOptions(params *openai.ChatCompletionNewParams, options map[string]any) {
	if params == nil || options == nil {
		return
	}
	if maxTokens, ok := asInt(options["max_tokens"]); ok && maxTokens > 0 {
		params.MaxCompletionTokens = openai.Opt(int64(maxTokens))
	}
	if temp, ok := asFloat(options["temperature"]); ok {
		params.Temperature = openai.Opt(temp)
	}
}

func mapUsage(usage openai.CompletionUsage) *UsageInfo {
	if usage.TotalTokens == 0 && usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return nil
	}
	return &UsageInfo{
		PromptTokens:     int(usage.PromptTokens),
		CompletionTokens: int(usage.CompletionTokens),
		TotalTokens:      int(usage.TotalTokens),
	}
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
