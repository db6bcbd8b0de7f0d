package httpapi

import (
	"errors"
	"net/http"

	"github.com/niendoo/cybercrime-hive-sub000/internal/server/export"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.services.Admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.services.Reports.UpdateStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	events, err := s.services.Reports.Timeline(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (s *HTTPServer) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	list, err := s.services.Feedback.List(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleReportMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	m, err := s.services.Metrics.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *HTTPServer) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	list, err := s.services.Metrics.List(r.Context(), limit, offset)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleRequestFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	res, err := s.services.Reports.RequestFeedback(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.services.Tokens.CleanupExpired(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deactivated": n})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		respondError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	key, url, err := s.exporter.Export(r.Context())
	if err != nil {
		if errors.Is(err, export.ErrDisabled) {
			respondError(w, http.StatusServiceUnavailable, "exports are not configured")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
}
