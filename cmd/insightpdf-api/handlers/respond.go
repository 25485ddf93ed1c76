// Package handlers provides HTTP handlers for the InsightPDF API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code domain.ErrorCode, message, detail string) {
	writeJSON(w, status, ErrorResponse{
		Error:   string(code),
		Message: message,
		Detail:  detail,
	})
}
