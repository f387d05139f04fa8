package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
)

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error     string              `json:"error"`
	Retryable bool                `json:"retryable"`
	Fields    []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	resp := errorResponse{Error: err.Error(), Retryable: domain.Retryable(err)}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Errors
	}
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v, writing a 400 and returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, domain.NewValidationError("body", "must be valid JSON: "+err.Error()))
		return false
	}
	return true
}

type cardResponse struct {
	ID             string               `json:"id"`
	Deck           string               `json:"deck"`
	Prompt         string               `json:"prompt"`
	Answer         string               `json:"answer"`
	Box            int                  `json:"box"`
	Due            time.Time            `json:"due"`
	DueNow         bool                 `json:"dueNow"`
	CreatedAt      time.Time            `json:"createdAt"`
	LastReviewedAt *time.Time           `json:"lastReviewedAt,omitempty"`
	History        []domain.ReviewEvent `json:"history"`
	CorrectCount   int                  `json:"correctCount"`
	Origin         domain.Origin        `json:"origin"`
	SourceID       string               `json:"sourceId,omitempty"`
	LastSyncedAt   *time.Time           `json:"lastSyncedAt,omitempty"`
	Version        int64                `json:"version"`
}

func toCardResponse(c domain.Card, now time.Time) cardResponse {
	history := c.History
	if history == nil {
		history = []domain.ReviewEvent{}
	}
	return cardResponse{
		ID:             c.ID,
		Deck:           c.Deck,
		Prompt:         c.Prompt,
		Answer:         c.Answer,
		Box:            c.Box,
		Due:            c.Due,
		DueNow:         c.IsDue(now),
		CreatedAt:      c.CreatedAt,
		LastReviewedAt: c.LastReviewedAt,
		History:        history,
		CorrectCount:   c.CorrectCount(),
		Origin:         c.Origin,
		SourceID:       c.SourceID,
		LastSyncedAt:   c.LastSyncedAt,
		Version:        c.Version,
	}
}

type statsResponse struct {
	Owner            string         `json:"owner"`
	TotalCards       int            `json:"totalCards"`
	CardsByBox       map[string]int `json:"cardsByBox"`
	TotalReviews     int            `json:"totalReviews"`
	CorrectAnswers   int            `json:"correctAnswers"`
	AccuracyRate     float64        `json:"accuracyRate"`
	StudyStreak      int            `json:"studyStreak"`
	CardsMastered    int            `json:"cardsMastered"`
	LastStudySession *time.Time     `json:"lastStudySession,omitempty"`
}

func toStatsResponse(st domain.UserStats) statsResponse {
	boxes := make(map[string]int, domain.MaxBox)
	for box := domain.MinBox; box <= domain.MaxBox; box++ {
		boxes[strconv.Itoa(box)] = st.BoxCount(box)
	}
	return statsResponse{
		Owner:            st.Owner,
		TotalCards:       st.TotalCards,
		CardsByBox:       boxes,
		TotalReviews:     st.TotalReviews,
		CorrectAnswers:   st.CorrectAnswers,
		AccuracyRate:     st.AccuracyRate(),
		StudyStreak:      st.StudyStreak,
		CardsMastered:    st.CardsMastered,
		LastStudySession: st.LastStudySession,
	}
}
