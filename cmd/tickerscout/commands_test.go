package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(cmd *cobra.Command, args ...string) error {
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestAnalyzeCmd_RejectsInvalidTicker(t *testing.T) {
	for _, raw := range []string{"123", "AAPL1", "TOOLONG7", "BRK.BB", "A-1"} {
		err := executeCommand(newAnalyzeCmd(), raw)
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "invalid ticker symbol", raw)
	}
}

func TestChatCmd_RejectsInvalidTicker(t *testing.T) {
	err := executeCommand(newChatCmd(), "not a ticker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ticker symbol")
}
