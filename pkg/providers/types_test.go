package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallName(t *testing.T) {
	assert.Equal(t, "flat", ToolCall{Name: "flat"}.CallName())
	assert.Equal(t, "nested", ToolCall{Function: &FunctionCall{Name: "nested"}}.CallName())
	assert.Equal(t, "flat", ToolCall{Name: "flat", Function: &FunctionCall{Name: "nested"}}.CallName())
	assert.Equal(t, "", ToolCall{}.CallName())
}

func TestCallArguments(t *testing.T) {
	fromMap := ToolCall{Arguments: map[string]any{"ticker": "AAPL"}}
	assert.Equal(t, "AAPL", fromMap.CallArguments()["ticker"])

	fromJSON := ToolCall{Function: &FunctionCall{Arguments: `{"ticker":"MSFT"}`}}
	assert.Equal(t, "MSFT", fromJSON.CallArguments()["ticker"])

	malformed := ToolCall{Function: &FunctionCall{Arguments: `{broken`}}
	assert.Empty(t, malformed.CallArguments())

	assert.NotNil(t, ToolCall{}.CallArguments())
}
