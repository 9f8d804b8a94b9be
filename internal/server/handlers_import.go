package server

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/importer"
)

func (s *Server) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, nil, fmt.Errorf("multipart form required: %w", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("file field required: %w", err)
	}
	return f, hdr, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.formFile(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer f.Close()

	skipRows := 0
	if v := r.FormValue("skip_rows"); v != "" {
		skipRows, err = strconv.Atoi(v)
		if err != nil || skipRows < 0 {
			s.writeErrorf(w, http.StatusBadRequest, "invalid skip_rows %q", v)
			return
		}
	}

	analysis, err := s.Import.Analyze(r.Context(), f, skipRows)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := s.formFile(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer f.Close()

	cfg, _, err := s.Import.ResolveConfig(r.Context(), r.FormValue("config"), r.FormValue("format_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.Import.Preview(r.Context(), hdr.Filename, f, cfg)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportApply(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := s.formFile(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer f.Close()

	cfg, formatID, err := s.Import.ResolveConfig(r.Context(), r.FormValue("config"), r.FormValue("format_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.Import.Commit(r.Context(), hdr.Filename, f, cfg, formatID)
	if err != nil {
		// a file yielding zero usable rows is unprocessable, not malformed
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type builtinFormatResponse struct {
	Key    string                `json:"key"`
	Config importer.FormatConfig `json:"config"`
}

func (s *Server) handleListBuiltinFormats(w http.ResponseWriter, r *http.Request) {
	out := make([]builtinFormatResponse, 0, len(s.Import.Builtins))
	for _, b := range s.Import.Builtins {
		out = append(out, builtinFormatResponse{Key: b.Key, Config: b.Config})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type importRecordResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	FormatID  *string   `json:"format_id,omitempty"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeErrorf(w, http.StatusBadRequest, "invalid limit %q", v)
			return
		}
		limit = n
	}
	records, err := s.Imports.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]importRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, importRecordResponse{
			ID: rec.ID, Filename: rec.Filename, FormatID: rec.FormatID,
			Imported: rec.Imported, Skipped: rec.Skipped, Failed: rec.Failed,
			CreatedAt: rec.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type formatRequest struct {
	Name   string                `json:"name"`
	Config importer.FormatConfig `json:"config"`
}

type formatResponse struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Config   importer.FormatConfig `json:"config"`
	UseCount int                   `json:"use_count"`
}

func (s *Server) formatToResponse(f repository.ImportFormat) (formatResponse, error) {
	cfg, err := importer.ParseConfigJSON(f.Config)
	if err != nil {
		return formatResponse{}, fmt.Errorf("stored format %q: %w", f.Name, err)
	}
	return formatResponse{ID: f.ID, Name: f.Name, Config: cfg, UseCount: f.UseCount}, nil
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	formats, err := s.Formats.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]formatResponse, 0, len(formats))
	for _, f := range formats {
		resp, err := s.formatToResponse(f)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, resp)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) decodeFormat(r *http.Request) (string, string, error) {
	var req formatRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", "", fmt.Errorf("name required")
	}
	req.Config.Normalize()
	if err := req.Config.Validate(); err != nil {
		return "", "", err
	}
	raw, err := importer.ConfigJSON(req.Config)
	if err != nil {
		return "", "", err
	}
	return req.Name, raw, nil
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	name, raw, err := s.decodeFormat(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	f := repository.ImportFormat{ID: uuid.NewString(), Name: name, Config: raw}
	if err := s.Formats.Insert(r.Context(), f); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp, err := s.formatToResponse(f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	f, err := s.Formats.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if f == nil {
		s.writeErrorf(w, http.StatusNotFound, "format not found")
		return
	}
	resp, err := s.formatToResponse(*f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.Formats.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if existing == nil {
		s.writeErrorf(w, http.StatusNotFound, "format not found")
		return
	}
	name, raw, err := s.decodeFormat(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	existing.Name = name
	existing.Config = raw
	if err := s.Formats.Update(r.Context(), *existing); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp, err := s.formatToResponse(*existing)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	// deleting a format never touches transactions imported with it
	if err := s.Formats.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
