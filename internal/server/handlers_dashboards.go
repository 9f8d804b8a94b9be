package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jask/bucketd/internal/database/repository"
)

type widgetRequest struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Config   string `json:"config"`
}

type widgetResponse struct {
	ID          string `json:"id"`
	DashboardID string `json:"dashboard_id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Position    int    `json:"position"`
	Config      string `json:"config,omitempty"`
}

type dashboardRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type dashboardResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	IsDefault bool             `json:"is_default"`
	Widgets   []widgetResponse `json:"widgets"`
}

func toDashboardResponse(d repository.Dashboard) dashboardResponse {
	widgets := make([]widgetResponse, 0, len(d.Widgets))
	for _, w := range d.Widgets {
		widgets = append(widgets, widgetResponse{
			ID: w.ID, DashboardID: w.DashboardID, Kind: w.Kind,
			Title: w.Title, Position: w.Position, Config: w.Config,
		})
	}
	return dashboardResponse{ID: d.ID, Name: d.Name, IsDefault: d.IsDefault, Widgets: widgets}
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := s.Dashboards.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]dashboardResponse, 0, len(dashboards))
	for _, d := range dashboards {
		out = append(out, toDashboardResponse(d))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeErrorf(w, http.StatusBadRequest, "name required")
		return
	}
	status := http.StatusCreated
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else {
		status = http.StatusOK
	}
	d := repository.Dashboard{ID: req.ID, Name: req.Name, IsDefault: req.IsDefault}
	if err := s.Dashboards.Upsert(r.Context(), d); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, toDashboardResponse(d))
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.Dashboards.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if d == nil {
		s.writeErrorf(w, http.StatusNotFound, "dashboard not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toDashboardResponse(*d))
}

func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.Dashboards.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpsertWidget(w http.ResponseWriter, r *http.Request) {
	dashboardID := chi.URLParam(r, "id")
	d, err := s.Dashboards.Get(r.Context(), dashboardID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if d == nil {
		s.writeErrorf(w, http.StatusNotFound, "dashboard not found")
		return
	}
	var req widgetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Kind) == "" {
		s.writeErrorf(w, http.StatusBadRequest, "kind required")
		return
	}
	status := http.StatusCreated
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else {
		status = http.StatusOK
	}
	widget := repository.Widget{
		ID: req.ID, DashboardID: dashboardID, Kind: req.Kind,
		Title: req.Title, Position: req.Position, Config: req.Config,
	}
	if err := s.Dashboards.UpsertWidget(r.Context(), widget); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, status, widgetResponse{
		ID: widget.ID, DashboardID: widget.DashboardID, Kind: widget.Kind,
		Title: widget.Title, Position: widget.Position, Config: widget.Config,
	})
}

func (s *Server) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := s.Dashboards.DeleteWidget(r.Context(), chi.URLParam(r, "widgetID")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

// settingsWithDefaults overlays stored settings on the configured UI
// defaults so clients always see a value for the presentation keys.
func (s *Server) settingsWithDefaults(stored map[string]string) map[string]string {
	out := map[string]string{
		"ui.date_format":     s.UI.DateFormat,
		"ui.currency_symbol": s.UI.CurrencySymbol,
		"ui.timezone":        s.UI.Timezone,
	}
	for k, v := range stored {
		out[k] = v
	}
	return out
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Settings.All(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settingsWithDefaults(settings))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	for k, v := range req {
		if strings.TrimSpace(k) == "" {
			s.writeErrorf(w, http.StatusBadRequest, "setting keys must not be empty")
			return
		}
		if err := s.Settings.Set(r.Context(), k, v); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	settings, err := s.Settings.All(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.settingsWithDefaults(settings))
}
