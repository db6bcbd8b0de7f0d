package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/niendoo/cybercrime-hive-sub000/internal/common"
)

// linkInvalidMessage is the only thing a feedback link failure reveals.
const linkInvalidMessage = "this link is no longer valid"

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinels onto HTTP statuses. Unknown
// errors are logged and hidden behind a generic 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		respondError(w, http.StatusGone, linkInvalidMessage)
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidState), errors.Is(err, common.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
	}
}

func reportID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
