package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/service"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	ns := r.URL.Query().Get("namespace")
	var (
		tags []repository.Tag
		err  error
	)
	if ns != "" {
		tags, err = s.Tags.ListNamespace(r.Context(), ns)
	} else {
		tags, err = s.Tags.List(r.Context())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResponse{ID: t.ID, Name: t.Name})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type tagRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := repository.ValidateTagName(name); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	existing, err := s.Tags.ByName(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if existing != nil {
		s.writeJSON(w, http.StatusOK, tagResponse{ID: existing.ID, Name: existing.Name})
		return
	}
	tag := repository.Tag{ID: uuid.NewString(), Name: name}
	if err := s.Tags.Upsert(r.Context(), tag); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tagResponse{ID: tag.ID, Name: tag.Name})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.Tags.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type aliasRequest struct {
	ID        string `json:"id"`
	Pattern   string `json:"pattern"`
	MatchType string `json:"match_type"`
	Alias     string `json:"alias"`
}

type aliasResponse struct {
	ID        string `json:"id"`
	Pattern   string `json:"pattern"`
	MatchType string `json:"match_type"`
	Alias     string `json:"alias"`
}

func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := s.Aliases.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]aliasResponse, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, aliasResponse{ID: a.ID, Pattern: a.Pattern, MatchType: a.MatchType, Alias: a.Alias})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Pattern) == "" || strings.TrimSpace(req.Alias) == "" {
		s.writeErrorf(w, http.StatusBadRequest, "pattern and alias required")
		return
	}
	switch req.MatchType {
	case "exact", "contains", "fuzzy":
	default:
		s.writeErrorf(w, http.StatusBadRequest, "match_type must be exact, contains or fuzzy")
		return
	}
	status := http.StatusCreated
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else {
		status = http.StatusOK
	}
	a := repository.MerchantAlias{ID: req.ID, Pattern: req.Pattern, MatchType: req.MatchType, Alias: req.Alias}
	if err := s.Aliases.Upsert(r.Context(), a); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, aliasResponse{ID: a.ID, Pattern: a.Pattern, MatchType: a.MatchType, Alias: a.Alias})
}

func (s *Server) handleDeleteAlias(w http.ResponseWriter, r *http.Request) {
	if err := s.Aliases.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type tagRuleRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Field     string `json:"field"`
	Pattern   string `json:"pattern"`
	MatchType string `json:"match_type"`
	TagID     string `json:"tag_id"`
	Enabled   *bool  `json:"enabled"`
}

type tagRuleResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Field     string `json:"field"`
	Pattern   string `json:"pattern"`
	MatchType string `json:"match_type"`
	TagID     string `json:"tag_id"`
	Enabled   bool   `json:"enabled"`
}

func (s *Server) handleListTagRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.TagRules.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]tagRuleResponse, 0, len(rules))
	for _, tr := range rules {
		out = append(out, tagRuleResponse{
			ID: tr.ID, Name: tr.Name, Field: tr.Field, Pattern: tr.Pattern,
			MatchType: tr.MatchType, TagID: tr.TagID, Enabled: tr.Enabled,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertTagRule(w http.ResponseWriter, r *http.Request) {
	var req tagRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Pattern) == "" || req.TagID == "" {
		s.writeErrorf(w, http.StatusBadRequest, "name, pattern and tag_id required")
		return
	}
	switch req.Field {
	case "description", "merchant":
	default:
		s.writeErrorf(w, http.StatusBadRequest, "field must be description or merchant")
		return
	}
	switch req.MatchType {
	case "exact", "contains", "regexp":
	default:
		s.writeErrorf(w, http.StatusBadRequest, "match_type must be exact, contains or regexp")
		return
	}
	status := http.StatusCreated
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else {
		status = http.StatusOK
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	tr := repository.TagRule{
		ID: req.ID, Name: req.Name, Field: req.Field, Pattern: req.Pattern,
		MatchType: req.MatchType, TagID: req.TagID, Enabled: enabled,
	}
	if err := s.TagRules.Upsert(r.Context(), tr); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, tagRuleResponse{
		ID: tr.ID, Name: tr.Name, Field: tr.Field, Pattern: tr.Pattern,
		MatchType: tr.MatchType, TagID: tr.TagID, Enabled: tr.Enabled,
	})
}

func (s *Server) handleDeleteTagRule(w http.ResponseWriter, r *http.Request) {
	if err := s.TagRules.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

type ruleRunResponse struct {
	Outcomes []service.RuleOutcome  `json:"outcomes"`
	Summary  service.RuleRunSummary `json:"summary"`
}

func (s *Server) handleTagRulesDryRun(w http.ResponseWriter, r *http.Request) {
	outcomes, summary, err := s.Rules.DryRunTagRules(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ruleRunResponse{Outcomes: outcomes, Summary: summary})
}

func (s *Server) handleTagRulesApply(w http.ResponseWriter, r *http.Request) {
	outcomes, summary, err := s.Rules.ApplyTagRules(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ruleRunResponse{Outcomes: outcomes, Summary: summary})
}

func (s *Server) handleTransferCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.Transfers.Candidates(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

type transferConfirmRequest struct {
	OutgoingID string `json:"outgoing_id"`
	IncomingID string `json:"incoming_id"`
}

func (s *Server) handleTransferConfirm(w http.ResponseWriter, r *http.Request) {
	var req transferConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.OutgoingID == "" || req.IncomingID == "" {
		s.writeErrorf(w, http.StatusBadRequest, "outgoing_id and incoming_id required")
		return
	}
	if err := s.Transfers.Confirm(r.Context(), req.OutgoingID, req.IncomingID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
