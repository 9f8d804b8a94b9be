package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/service"
)

type tagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transactionResponse struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	AmountCents int64         `json:"amount_cents"`
	Description string        `json:"description"`
	Merchant    *string       `json:"merchant,omitempty"`
	Reference   *string       `json:"reference,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	Tags        []tagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func toTransactionResponse(t repository.Transaction) transactionResponse {
	tags := make([]tagResponse, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, tagResponse{ID: tag.ID, Name: tag.Name})
	}
	return transactionResponse{
		ID:          t.ID,
		Date:        t.Date.Format("2006-01-02"),
		AmountCents: t.AmountCents,
		Description: t.Description,
		Merchant:    t.Merchant,
		Reference:   t.Reference,
		Notes:       t.Notes,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.TransactionFilters{
		TagID:  q.Get("tag_id"),
		Search: q.Get("search"),
	}
	if v := q.Get("month"); v != "" {
		month, err := service.ParseMonth(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		filters.Month = month
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeErrorf(w, http.StatusBadRequest, "invalid limit %q", v)
			return
		}
		filters.Limit = n
	}

	txs, err := s.Transactions.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type transactionRequest struct {
	Date        string  `json:"date"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description"`
	Merchant    *string `json:"merchant"`
	Notes       *string `json:"notes"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		s.writeErrorf(w, http.StatusBadRequest, "invalid date %q, want YYYY-MM-DD", req.Date)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		s.writeErrorf(w, http.StatusBadRequest, "description required")
		return
	}
	t := repository.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		AmountCents: req.AmountCents,
		Description: strings.TrimSpace(req.Description),
		Merchant:    req.Merchant,
		Notes:       req.Notes,
	}
	if err := s.Transactions.Insert(r.Context(), t); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.Transactions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if t == nil {
		s.writeErrorf(w, http.StatusNotFound, "transaction not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(*t))
}

type transactionPatch struct {
	Date        *string `json:"date"`
	AmountCents *int64  `json:"amount_cents"`
	Description *string `json:"description"`
	Merchant    *string `json:"merchant"`
	Notes       *string `json:"notes"`
}

func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.Transactions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if t == nil {
		s.writeErrorf(w, http.StatusNotFound, "transaction not found")
		return
	}
	var patch transactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if patch.Date != nil {
		date, err := time.Parse("2006-01-02", *patch.Date)
		if err != nil {
			s.writeErrorf(w, http.StatusBadRequest, "invalid date %q, want YYYY-MM-DD", *patch.Date)
			return
		}
		t.Date = date
	}
	if patch.AmountCents != nil {
		t.AmountCents = *patch.AmountCents
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			s.writeErrorf(w, http.StatusBadRequest, "description cannot be empty")
			return
		}
		t.Description = desc
	}
	if patch.Merchant != nil {
		if *patch.Merchant == "" {
			t.Merchant = nil
		} else {
			t.Merchant = patch.Merchant
		}
	}
	if patch.Notes != nil {
		if *patch.Notes == "" {
			t.Notes = nil
		} else {
			t.Notes = patch.Notes
		}
	}
	if err := s.Transactions.Update(r.Context(), *t); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	got, err := s.Transactions.Get(r.Context(), t.ID)
	if err != nil || got == nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(*got))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.Transactions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type replaceTagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

func (s *Server) handleReplaceTransactionTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.Transactions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if t == nil {
		s.writeErrorf(w, http.StatusNotFound, "transaction not found")
		return
	}
	var req replaceTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Transactions.ReplaceTags(r.Context(), id, req.TagIDs); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	got, err := s.Transactions.Get(r.Context(), id)
	if err != nil || got == nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransactionResponse(*got))
}
