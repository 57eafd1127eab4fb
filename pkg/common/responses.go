package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	pkgerrors "agentdev-backend/pkg/errors"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 1 << 20

// RespondJSON sends data as the JSON body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondNoContent sends an empty 204
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ParseJSONBody decodes the request body into v. Malformed, oversized or
// unknown-field bodies become VALIDATION errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("request body is required").WithCode("INVALID_BODY")
		case errors.As(err, &maxErr):
			return pkgerrors.NewValidationError("request body too large").WithCode("INVALID_BODY").WithCause(err)
		}
		return pkgerrors.NewValidationError("invalid request body: " + err.Error()).WithCode("INVALID_BODY").WithCause(err)
	}
	if decoder.More() {
		return pkgerrors.NewValidationError("request body must contain a single JSON object").WithCode("INVALID_BODY")
	}
	return nil
}
