package tools

import (
	"context"
	"fmt"
)

// ToolResult is what a tool hands back to the agent loop. ForLLM is
// the text injected into the conversation; Err carries the underlying
// cause for logging and is never shown to the model.
type ToolResult struct {
	ForLLM  string
	IsError bool
	Err     error
}

func NewToolResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM}
}

func ErrorResult(format string, args ...any) *ToolResult {
	return &ToolResult{
		ForLLM:  fmt.Sprintf(format, args...),
		IsError: true,
	}
}

func (r *ToolResult) WithError(err error) *ToolResult {
	r.Err = err
	return r
}

// Tool is a capability the agent can invoke during a research turn.
// Parameters returns a JSON Schema object describing the arguments.
// Execute must not return a Go error: failures are reported through an
// error ToolResult so the model can recover within the same turn.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
