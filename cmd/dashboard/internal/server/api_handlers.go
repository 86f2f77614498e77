package server

import (
	"encoding/json"
	"net/http"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
)

// HandleSessionAPI returns the resolved session as JSON. Tokens are never
// included.
func HandleSessionAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auth.GetSessionFromContext(r.Context()))
	}
}

// HandleHealth reports liveness.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
