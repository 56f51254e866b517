package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// expenseView is the JSON shape of an expense in responses.
type expenseView struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"`
	Description      string  `json:"description"`
	Amount           string  `json:"amount"`
	AmountCents      int64   `json:"amountCents"`
	Parent           string  `json:"parent"`
	Child            string  `json:"child"`
	Recurring        bool    `json:"recurring"`
	BillType         string  `json:"billType,omitempty"`
	BillProvider     string  `json:"billProvider,omitempty"`
	ConsumptionValue float64 `json:"consumptionValue,omitempty"`
	ConsumptionUnit  string  `json:"consumptionUnit,omitempty"`
	BillPeriodStart  string  `json:"billPeriodStart,omitempty"`
	BillPeriodEnd    string  `json:"billPeriodEnd,omitempty"`
	Paid             string  `json:"paid,omitempty"`
}

func toExpenseView(e core.Expense) expenseView {
	v := expenseView{
		ID:               e.ID,
		Date:             e.Date.Format(dateLayout),
		Description:      e.Description,
		Amount:           e.Amount.String(),
		AmountCents:      e.Amount.Cents,
		Parent:           e.Parent,
		Child:            e.Child,
		Recurring:        e.Recurring,
		BillType:         string(e.BillType),
		BillProvider:     e.BillProvider,
		ConsumptionValue: e.ConsumptionValue,
		ConsumptionUnit:  e.ConsumptionUnit,
		Paid:             string(e.Paid),
	}
	if !e.BillPeriodStart.IsZero() {
		v.BillPeriodStart = e.BillPeriodStart.Format(dateLayout)
	}
	if !e.BillPeriodEnd.IsZero() {
		v.BillPeriodEnd = e.BillPeriodEnd.Format(dateLayout)
	}
	return v
}

// handleExpenses serves GET (list) and POST (create) on /api/expenses.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		s.listExpenses(ctx, w, r)
	case http.MethodPost:
		s.createExpense(ctx, w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	var err error
	if from, err = parseOptionalDate(r.URL.Query().Get("from"), "from"); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if to, err = parseOptionalDate(r.URL.Query().Get("to"), "to"); err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.expenses.ListExpenses(ctx, from, to)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list expenses", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "list expenses failed")
		return
	}

	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	writeJSON(ctx, w, http.StatusOK, views)
}

func (s *Server) createExpense(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	e, err := parseExpenseRequest(r.Body)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrEmptyDescription) || errors.Is(err, core.ErrInvalidDate) {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(ctx, "Failed to create expense", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "create expense failed")
		return
	}

	e.ID = id
	writeJSON(ctx, w, http.StatusCreated, toExpenseView(e))
}

// handleExpenseByID serves GET, PUT and DELETE on /api/expenses/{id}.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	id := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.expenses.GetExpense(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(ctx, w, http.StatusNotFound, "expense not found")
				return
			}
			slog.ErrorContext(ctx, "Failed to get expense", "id", id, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "get expense failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toExpenseView(e))

	case http.MethodPut:
		e, err := parseExpenseRequest(r.Body)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		e.ID = id
		if err := s.expenses.UpdateExpense(ctx, e); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(ctx, w, http.StatusNotFound, "expense not found")
				return
			}
			slog.ErrorContext(ctx, "Failed to update expense", "id", id, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "update expense failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toExpenseView(e))

	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(ctx, w, http.StatusNotFound, "expense not found")
				return
			}
			slog.ErrorContext(ctx, "Failed to delete expense", "id", id, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "delete expense failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}
