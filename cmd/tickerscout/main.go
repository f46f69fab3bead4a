package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

var configPath string

func main() {
	// Missing .env is fine; config and env vars still apply.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "tickerscout",
		Short: "Conversational stock research agent",
		Long: `tickerscout researches stock tickers with an LLM driving market data,
news, and company lookup tools, and answers follow-up questions about
the results.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			v := version
			if gitCommit != "" {
				v += fmt.Sprintf(" (git: %s)", gitCommit)
			}
			fmt.Printf("tickerscout %s\n", v)
			if buildTime != "" {
				fmt.Printf("  Build: %s\n", buildTime)
			}
			fmt.Printf("  Go: %s\n", runtime.Version())
		},
	}
}
