package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucidquant/tickerscout/pkg/agent"
	"github.com/lucidquant/tickerscout/pkg/config"
	"github.com/lucidquant/tickerscout/pkg/gateway"
	"github.com/lucidquant/tickerscout/pkg/logger"
	"github.com/lucidquant/tickerscout/pkg/market"
	"github.com/lucidquant/tickerscout/pkg/providers"
	"github.com/lucidquant/tickerscout/pkg/session"
	"github.com/lucidquant/tickerscout/pkg/tools"
)

type app struct {
	cfg      *config.Config
	analyst  *agent.Analyst
	sessions *session.Manager
}

func buildApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if cfg.Log.File != "" {
		if err := logger.EnableFileLogging(cfg.Log.File); err != nil {
			logger.WarnCF("main", "File logging disabled", map[string]any{"error": err.Error()})
		}
	}

	provider, err := providers.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	client := market.NewClient(cfg.Market)

	registry := tools.NewToolRegistry()
	registry.Register(tools.NewStockDataTool(client, cfg.Market.LookbackDays))
	registry.Register(tools.NewNewsTool(client))
	registry.Register(tools.NewCompanyTool(client))

	return &app{
		cfg:      cfg,
		analyst:  agent.NewAnalyst(provider, registry, *cfg),
		sessions: session.NewManager(),
	}, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			srv := gateway.NewServer(a.cfg.Server, a.analyst, a.sessions)
			if err := srv.Start(); err != nil {
				return err
			}
			logger.InfoCF("main", "tickerscout serving",
				map[string]any{"host": a.cfg.Server.Host, "port": a.cfg.Server.Port})

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			logger.InfoC("main", "Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Research a ticker and print the summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker, ok := gateway.NormalizeTicker(args[0])
			if !ok {
				return fmt.Errorf("invalid ticker symbol %q", args[0])
			}

			a, err := buildApp()
			if err != nil {
				return err
			}

			summary, _, err := a.analyst.Analyze(cmd.Context(), ticker)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", ticker, err)
			}
			fmt.Println(summary)
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat TICKER",
		Short: "Research a ticker, then answer follow-up questions interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker, ok := gateway.NormalizeTicker(args[0])
			if !ok {
				return fmt.Errorf("invalid ticker symbol %q", args[0])
			}

			a, err := buildApp()
			if err != nil {
				return err
			}

			fmt.Printf("Researching %s...\n\n", ticker)

			summary, history, err := a.analyst.Analyze(cmd.Context(), ticker)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", ticker, err)
			}
			fmt.Println(summary)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\n> ")
				if !scanner.Scan() {
					break
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if question == "exit" || question == "quit" {
					break
				}

				answer, extended, err := a.analyst.Answer(cmd.Context(), question, history)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				history = extended
				fmt.Println(answer)
			}
			return scanner.Err()
		},
	}
}
