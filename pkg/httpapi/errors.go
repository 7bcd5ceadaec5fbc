package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
	"github.com/sidneyts/NOTICIAS/pkg/params"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []params.FieldError `json:"fields,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as JSON. Field errors
// are listed one by one.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	resp := errorResponse{Error: err.Error(), Code: string(apperr.CodeOf(err))}

	var fields params.FieldErrors
	if errors.As(err, &fields) {
		status = http.StatusBadRequest
		resp.Fields = fields
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	} else {
		s.logger.Warn("%s %s rejected: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, resp)
}
