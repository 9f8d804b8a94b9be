package server

import (
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/service"
)

var monthKeyRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

type budgetRequest struct {
	ID          string `json:"id"`
	BucketTagID string `json:"bucket_tag_id"`
	Month       string `json:"month"`
	AmountCents int64  `json:"amount_cents"`
}

type budgetResponse struct {
	ID          string `json:"id"`
	BucketTagID string `json:"bucket_tag_id"`
	Month       string `json:"month"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.Budgets.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse{ID: b.ID, BucketTagID: b.BucketTagID, Month: b.Month, AmountCents: b.AmountCents})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.BucketTagID == "" {
		s.writeErrorf(w, http.StatusBadRequest, "bucket_tag_id required")
		return
	}
	if req.Month != "" && !monthKeyRe.MatchString(req.Month) {
		s.writeErrorf(w, http.StatusBadRequest, "invalid month %q, want YYYY-MM or empty for a default", req.Month)
		return
	}
	if req.AmountCents < 0 {
		s.writeErrorf(w, http.StatusBadRequest, "amount_cents must not be negative")
		return
	}
	status := http.StatusCreated
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else {
		status = http.StatusOK
	}
	b := repository.Budget{ID: req.ID, BucketTagID: req.BucketTagID, Month: req.Month, AmountCents: req.AmountCents}
	if err := s.Budgets.Upsert(r.Context(), b); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, budgetResponse{ID: b.ID, BucketTagID: b.BucketTagID, Month: b.Month, AmountCents: b.AmountCents})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.Budgets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) reportMonth(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	month, err := service.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return time.Time{}, false
	}
	return month, true
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	lines, err := s.Reports.BudgetReport(r.Context(), month)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if lines == nil {
		lines = []service.BudgetLine{}
	}
	s.writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleSpendByBucket(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	buckets, err := s.Reports.SpendByBucket(r.Context(), month)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if buckets == nil {
		buckets = []service.BucketSpend{}
	}
	s.writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleDailySpend(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	days, err := s.Reports.DailySpend(r.Context(), month)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := s.reportMonth(w, r)
	if !ok {
		return
	}
	summary, err := s.Reports.Summary(r.Context(), month)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}
