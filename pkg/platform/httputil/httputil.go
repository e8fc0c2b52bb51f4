// Package httputil centralizes JSON response envelopes so every handler
// renders errors the same way.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "caseledger/pkg/domain-errors"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope.
// Internal-class errors omit the description so datastore details never leak
// to callers. Forbidden and not-found share an identical shape on purpose: an
// unauthorized caller must not be able to tell a denied registry from a
// missing one by inspecting the body.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Message != "" {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}
