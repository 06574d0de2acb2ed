// Package respond writes JSON responses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/limits"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Error: msg})
}

// DecodeJSON reads a JSON request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limits.MaxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
