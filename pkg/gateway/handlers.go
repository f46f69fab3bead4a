package gateway

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/lucidquant/tickerscout/pkg/logger"
	"github.com/lucidquant/tickerscout/pkg/providers"
)

// tickerPattern matches normalized US-style symbols: 1 to 6 capital
// letters with an optional single class suffix, e.g. BRK.B or BF-A.
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,6}([.-][A-Z])?$`)

type analyzeRequest struct {
	Ticker string `json:"ticker"`
}

type analyzeResponse struct {
	Ticker   string `json:"ticker"`
	Analysis string `json:"analysis"`
}

type chatRequest struct {
	Ticker   string              `json:"ticker"`
	Question string              `json:"question"`
	History  []providers.Message `json:"history,omitempty"`
}

type chatResponse struct {
	Ticker string `json:"ticker"`
	Answer string `json:"answer"`
}

// NormalizeTicker uppercases and trims the raw symbol and reports
// whether the result is a valid ticker.
func NormalizeTicker(raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	return ticker, tickerPattern.MatchString(ticker)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ticker, ok := NormalizeTicker(req.Ticker)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid ticker symbol")
		return
	}

	summary, history, err := s.analyst.Analyze(r.Context(), ticker)
	if err != nil {
		logger.ErrorCF("gateway", "Analyze failed",
			map[string]any{"ticker": ticker, "error": err.Error()})
		writeJSONError(w, http.StatusBadGateway, "failed to analyze ticker")
		return
	}

	s.sessions.Replace(ticker, history)
	writeJSON(w, http.StatusOK, analyzeResponse{Ticker: ticker, Analysis: summary})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ticker, ok := NormalizeTicker(req.Ticker)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid ticker symbol")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSONError(w, http.StatusBadRequest, "question is required")
		return
	}

	// An explicit history overrides the stored session and is not
	// persisted afterwards.
	history := req.History
	usingSession := history == nil
	if usingSession {
		history = s.sessions.History(ticker)
	}

	answer, extended, err := s.analyst.Answer(r.Context(), req.Question, history)
	if err != nil {
		logger.ErrorCF("gateway", "Chat failed",
			map[string]any{"ticker": ticker, "error": err.Error()})
		writeJSONError(w, http.StatusBadGateway, "failed to process question")
		return
	}

	if usingSession {
		s.sessions.Replace(ticker, extended)
	}
	writeJSON(w, http.StatusOK, chatResponse{Ticker: ticker, Answer: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("gateway", "failed to encode JSON response", map[string]any{"error": err.Error()})
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
