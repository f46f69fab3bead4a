package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucidquant/tickerscout/pkg/config"
	"github.com/lucidquant/tickerscout/pkg/logger"
	"github.com/lucidquant/tickerscout/pkg/providers"
	"github.com/lucidquant/tickerscout/pkg/tools"
)

const (
	defaultMaxIterations = 5
	defaultModelTimeout  = 60 * time.Second
	defaultTurnTimeout   = 300 * time.Second
)

// Analyst runs the research loop: it drives the model through tool
// calls until the model answers in plain text, the iteration cap is
// hit, or the turn deadline expires.
type Analyst struct {
	provider      providers.LLMProvider
	registry      *tools.ToolRegistry
	model         string
	maxIterations int
	maxTokens     int
	temperature   float64
	modelTimeout  time.Duration
	turnTimeout   time.Duration
}

func NewAnalyst(provider providers.LLMProvider, registry *tools.ToolRegistry, cfg config.Config) *Analyst {
	a := &Analyst{
		provider:      provider,
		registry:      registry,
		model:         cfg.LLM.Model,
		maxIterations: cfg.Agent.MaxIterations,
		maxTokens:     cfg.LLM.MaxTokens,
		temperature:   cfg.LLM.Temperature,
		modelTimeout:  time.Duration(cfg.Agent.ModelTimeoutSeconds) * time.Second,
		turnTimeout:   time.Duration(cfg.Agent.TurnTimeoutSeconds) * time.Second,
	}
	if a.model == "" {
		a.model = provider.GetDefaultModel()
	}
	if a.maxIterations <= 0 {
		a.maxIterations = defaultMaxIterations
	}
	if a.modelTimeout <= 0 {
		a.modelTimeout = defaultModelTimeout
	}
	if a.turnTimeout <= 0 {
		a.turnTimeout = defaultTurnTimeout
	}
	return a
}

// Analyze researches a ticker from a fresh conversation. It returns
// the model's summary together with the full message history so the
// caller can seed a follow-up session.
func (a *Analyst) Analyze(ctx context.Context, ticker string) (string, []providers.Message, error) {
	messages := []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: analyzeInstruction(ticker)},
	}
	return a.run(ctx, messages)
}

// Answer continues a conversation with a follow-up question. The
// caller's history slice is never mutated; the returned slice holds
// the extended conversation.
func (a *Analyst) Answer(ctx context.Context, question string, history []providers.Message) (string, []providers.Message, error) {
	messages := make([]providers.Message, 0, len(history)+2)
	if len(history) == 0 || history[0].Role != "system" {
		messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, providers.Message{Role: "user", Content: question})
	return a.run(ctx, messages)
}

func (a *Analyst) run(ctx context.Context, messages []providers.Message) (string, []providers.Message, error) {
	turnCtx, cancel := context.WithTimeout(ctx, a.turnTimeout)
	defer cancel()

	toolDefs := a.registry.Definitions()

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		logger.DebugCF("agent", "Model iteration",
			map[string]any{
				"iteration": iteration,
				"max":       a.maxIterations,
				"model":     a.model,
				"messages":  len(messages),
			})

		response, err := a.chat(turnCtx, messages, toolDefs)
		if err != nil {
			if turnErr := turnTimeoutError(turnCtx, err); turnErr != nil {
				return "", messages, turnErr
			}
			logger.ErrorCF("agent", "Model call failed",
				map[string]any{
					"iteration": iteration,
					"error":     err.Error(),
				})
			return "", messages, fmt.Errorf("model call failed: %w", err)
		}

		if len(response.ToolCalls) == 0 {
			logger.InfoCF("agent", "Model answered",
				map[string]any{
					"iteration":     iteration,
					"content_chars": len(response.Content),
				})
			messages = append(messages, providers.Message{Role: "assistant", Content: response.Content})
			return response.Content, messages, nil
		}

		messages = append(messages, assistantMessage(response))

		for _, tc := range response.ToolCalls {
			name := tc.CallName()
			args := tc.CallArguments()

			result := a.registry.Execute(turnCtx, name, args)
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result.ForLLM,
				ToolCallID: tc.ID,
			})
		}

		if ctxErr := turnCtx.Err(); ctxErr != nil {
			// A cancelled parent is the caller going away, not a timeout.
			if errors.Is(ctxErr, context.Canceled) {
				return "", messages, ctxErr
			}
			return "", messages, fmt.Errorf("%w after %d iterations", ErrTurnTimeout, iteration)
		}
	}

	return "", messages, fmt.Errorf("%w (cap %d)", ErrMaxIterations, a.maxIterations)
}

// chat issues one model call under the per-call timeout.
func (a *Analyst) chat(ctx context.Context, messages []providers.Message, toolDefs []providers.ToolDefinition) (*providers.LLMResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.modelTimeout)
	defer cancel()

	return a.provider.Chat(callCtx, messages, toolDefs, a.model, map[string]any{
		"max_tokens":  a.maxTokens,
		"temperature": a.temperature,
	})
}

// turnTimeoutError maps a model-call failure onto ErrTurnTimeout when
// the overall turn deadline is the underlying cause. A per-call
// timeout before the turn deadline is an ordinary model failure.
func turnTimeoutError(turnCtx context.Context, err error) error {
	if turnCtx.Err() == nil {
		return nil
	}
	if errors.Is(turnCtx.Err(), context.Canceled) {
		return turnCtx.Err()
	}
	return fmt.Errorf("%w: %v", ErrTurnTimeout, err)
}

// assistantMessage converts a tool-calling response into the message
// appended to the conversation, normalizing each call so both the flat
// and nested function forms are populated.
func assistantMessage(response *providers.LLMResponse) providers.Message {
	msg := providers.Message{Role: "assistant", Content: response.Content}
	for _, tc := range response.ToolCalls {
		args := tc.CallArguments()
		argsJSON, _ := json.Marshal(args)
		msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
			ID:        tc.ID,
			Type:      "function",
			Name:      tc.CallName(),
			Arguments: args,
			Function: &providers.FunctionCall{
				Name:      tc.CallName(),
				Arguments: string(argsJSON),
			},
		})
	}
	return msg
}
