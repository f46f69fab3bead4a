package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lucidquant/tickerscout/pkg/config"
	"github.com/lucidquant/tickerscout/pkg/logger"
	"github.com/lucidquant/tickerscout/pkg/providers"
	"github.com/lucidquant/tickerscout/pkg/session"
)

// Researcher runs research turns. Implemented by agent.Analyst.
type Researcher interface {
	Analyze(ctx context.Context, ticker string) (string, []providers.Message, error)
	Answer(ctx context.Context, question string, history []providers.Message) (string, []providers.Message, error)
}

// Server is the HTTP front of the research agent.
type Server struct {
	cfg      config.ServerConfig
	analyst  Researcher
	sessions *session.Manager
	server   *http.Server
}

func NewServer(cfg config.ServerConfig, analyst Researcher, sessions *session.Manager) *Server {
	return &Server{
		cfg:      cfg,
		analyst:  analyst,
		sessions: sessions,
	}
}

// Start begins listening on the configured host:port. It returns
// immediately; serve errors are logged.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	go func() {
		logger.InfoCF("gateway", "HTTP server starting", map[string]any{"addr": addr})
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "HTTP server error", map[string]any{"error": err.Error()})
		}
	}()

	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return withRequestLogging(mux)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
