package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"larder/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps the store's sentinel errors onto HTTP statuses. Errors
// outside the known set become a 500 with a generic body so internals never
// leak to clients.
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "already a member")
	case errors.Is(err, store.ErrNotInHousehold):
		writeError(w, http.StatusConflict, "not a member")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
