package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/study"
)

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleListDue returns the owner's due queue.
// GET /v1/cards/due?deck=fire&limit=20
func (s *Server) handleListDue(w http.ResponseWriter, r *http.Request, owner string) {
	req := study.QueueRequest{Owner: owner, Deck: r.URL.Query().Get("deck")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		req.Limit = limit
	}

	cards, err := s.study.ListDue(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now()
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": out})
}

type createCardRequest struct {
	Deck   string `json:"deck"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// handleCreateCard adds a manual card.
// POST /v1/cards
func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request, owner string) {
	var body createCardRequest
	if !s.decode(w, r, &body) {
		return
	}

	card, err := s.study.CreateCard(r.Context(), study.NewCardInput{
		Owner:  owner,
		Deck:   body.Deck,
		Prompt: body.Prompt,
		Answer: body.Answer,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(card, s.now()))
}

type reviewRequest struct {
	Correct        *bool `json:"correct"`
	ResponseTimeMs int   `json:"responseTimeMs"`
}

// handleReview applies one answer to a card.
// POST /v1/cards/{id}/review
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, owner string) {
	var body reviewRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Correct == nil {
		s.writeError(w, r, domain.NewValidationError("correct", "is required"))
		return
	}

	card, err := s.study.Review(r.Context(), study.ReviewInput{
		Owner:          owner,
		CardID:         r.PathValue("id"),
		Correct:        *body.Correct,
		ResponseTimeMs: body.ResponseTimeMs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(card, s.now()))
}

type syncRequest struct {
	Entries []domain.RawCatalogEntry `json:"entries"`
}

// handleSync reconciles the posted catalog snapshot into the owner's deck.
// POST /v1/sync
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request, owner string) {
	var body syncRequest
	if !s.decode(w, r, &body) {
		return
	}

	report, err := s.sync.Sync(r.Context(), owner, body.Entries, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleGetStats returns the owner's maintained counters.
// GET /v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request, owner string) {
	st, err := s.stats.Get(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(st))
}

// handleVerifyStats compares the counters with a full recompute.
// GET /v1/stats/verify
func (s *Server) handleVerifyStats(w http.ResponseWriter, r *http.Request, owner string) {
	v, err := s.stats.Verify(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"equal":      v.Equal,
		"stored":     toStatsResponse(v.Stored),
		"recomputed": toStatsResponse(v.Recomputed),
	})
}

type dailyGoalRequest struct {
	DailyGoal int `json:"dailyGoal"`
}

// handleSetDailyGoal stores the owner's queue size.
// PUT /v1/settings/daily-goal
func (s *Server) handleSetDailyGoal(w http.ResponseWriter, r *http.Request, owner string) {
	var body dailyGoalRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.study.SetDailyGoal(r.Context(), owner, body.DailyGoal); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
