package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxUploadMemory bounds multipart form parsing before spilling to disk.
const maxUploadMemory = 32 << 20

type errorEnvelope struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.WithError(err).Error("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorEnvelope{Error: err.Error()})
}

func (s *Server) writeErrorf(w http.ResponseWriter, status int, format string, args ...interface{}) {
	s.writeJSON(w, status, errorEnvelope{Error: fmt.Sprintf(format, args...)})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
