package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

const handlerTimeout = 7 * time.Second

type Server struct {
	http.Server
	expenses  *services.ExpenseService
	summaries *services.SummaryService
	repo      *storage.SQLiteRepository
}

func NewServer(port string, expenses *services.ExpenseService, summaries *services.SummaryService, repo *storage.SQLiteRepository) *Server {
	s := &Server{
		expenses:  expenses,
		summaries: summaries,
		repo:      repo,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/loans", s.handleLoans)
	mux.HandleFunc("/api/transfers", s.handleTransfers)
	mux.HandleFunc("/api/average", s.handleAverage)
	mux.HandleFunc("/api/consumption", s.handleConsumption)
	mux.HandleFunc("/api/profile", s.handleProfile)
	mux.HandleFunc("/api/templates", s.handleTemplates)
	mux.HandleFunc("/api/templates/", s.handleTemplateByID)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.Server = http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func contextWithHandlerTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), handlerTimeout)
}

// writeJSON encodes v with the right headers. Encoding failures are
// logged, not surfaced: the status line is already gone.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
