package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type profileView struct {
	CreatedAt              string `json:"createdAt"`
	VariableMonthsLookback int    `json:"variableMonthsLookback"`
}

// handleProfile serves GET and PUT on /api/profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithHandlerTimeout(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		p, err := s.repo.GetProfile(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get profile", "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "get profile failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, profileView{
			CreatedAt:              p.CreatedAt.Format(dateLayout),
			VariableMonthsLookback: p.VariableMonthsLookback,
		})

	case http.MethodPut:
		var req struct {
			VariableMonthsLookback int `json:"variableMonthsLookback"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "decode request: "+err.Error())
			return
		}
		if req.VariableMonthsLookback < 0 || req.VariableMonthsLookback > 24 {
			writeError(ctx, w, http.StatusBadRequest, "variableMonthsLookback must be between 0 and 24")
			return
		}

		p, err := s.repo.GetProfile(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get profile", "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "get profile failed")
			return
		}
		p.VariableMonthsLookback = req.VariableMonthsLookback
		if err := s.repo.UpdateProfile(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to update profile", "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "update profile failed")
			return
		}
		s.summaries.Invalidate()
		writeJSON(ctx, w, http.StatusOK, profileView{
			CreatedAt:              p.CreatedAt.Format(dateLayout),
			VariableMonthsLookback: p.VariableMonthsLookback,
		})

	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

type templateView struct {
	ID            int64  `json:"id"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate,omitempty"`
	Every         string `json:"every"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Parent        string `json:"parent"`
	Child         string `json:"child"`
	BillType      string `json:"billType,omitempty"`
	BillProvider  string `json:"billProvider,omitempty"`
	LastExecution string `json:"lastExecution,omitempty"`
}

func toTemplateView(t core.RecurringTemplate) templateView {
	v := templateView{
		ID:           t.ID,
		StartDate:    t.StartDate.Format(dateLayout),
		Every:        string(t.Every),
		Description:  t.Description,
		Amount:       t.Amount.String(),
		Parent:       t.Parent,
		Child:        t.Child,
		BillType:     string(t.BillType),
		BillProvider: t.BillProvider,
	}
	if !t.EndDate.IsZero() {
		v.EndDate = t.EndDate.Format(dateLayout)
	}
	if !t.LastExecution.IsZero() {
		v.LastExecution = t.LastExecution.Format(dateLayout)
	}
	return v
}

// handleTemplates serves GET (list) and POST (create) on /api/templates.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithHandlerTimeout(r)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		templates, err := s.repo.ListTemplates(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list templates", "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "list templates failed")
			return
		}
		views := make([]templateView, 0, len(templates))
		for _, t := range templates {
			views = append(views, toTemplateView(t))
		}
		writeJSON(ctx, w, http.StatusOK, views)

	case http.MethodPost:
		t, err := parseTemplateRequest(r.Body)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		if err := t.Validate(); err != nil {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := s.repo.CreateTemplate(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create template", "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "create template failed")
			return
		}
		t.ID = id
		writeJSON(ctx, w, http.StatusCreated, toTemplateView(t))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleTemplateByID serves DELETE on /api/templates/{id}.
func (s *Server) handleTemplateByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithHandlerTimeout(r)
	defer cancel()

	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "template not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to delete template", "id", id, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "delete template failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
