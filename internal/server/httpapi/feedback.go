package httpapi

import (
	"net/http"
)

type submitFeedbackRequest struct {
	Token    string `json:"token"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// handleFeedbackForm resolves the token in ?token= to what the feedback
// form needs to show.
func (s *HTTPServer) handleFeedbackForm(w http.ResponseWriter, r *http.Request) {
	desc, err := s.services.Tokens.Validate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, desc)
}

func (s *HTTPServer) handleFeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.services.Feedback.Submit(r.Context(), req.Token, req.Rating, req.Comments)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}
