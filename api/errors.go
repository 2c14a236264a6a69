// ABOUTME: Central error-to-HTTP-status translation, mapping core.Kind to the status table in the error handling design.
// ABOUTME: Internal error details are logged but never leaked into the response body.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/2389-research/swarmkernel/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates err to an HTTP status via its core.Kind (defaulting
// to 500 for unrecognized errors) and writes a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		log.Printf("component=api action=internal_error err=%v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindBadRequest:
		return http.StatusBadRequest
	case core.KindUnauthenticated:
		return http.StatusUnauthorized
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindInvalidTransition:
		return http.StatusConflict
	case core.KindRetryBudgetExceeded:
		return http.StatusConflict
	case core.KindProviderTransient, core.KindProviderFatal:
		return http.StatusBadGateway
	case core.KindStoreIntegrity:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
