// Package web exposes the study engine as a JSON API.
//
// Authentication happens upstream: the gateway sets X-User-ID to the
// verified owner and this package trusts it.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/stats"
	"github.com/conorfennell/knolbox/internal/study"
)

type studyService interface {
	ListDue(ctx context.Context, req study.QueueRequest) ([]domain.Card, error)
	Review(ctx context.Context, in study.ReviewInput) (domain.Card, error)
	CreateCard(ctx context.Context, in study.NewCardInput) (domain.Card, error)
	SetDailyGoal(ctx context.Context, owner string, goal int) error
}

type syncService interface {
	Sync(ctx context.Context, owner string, entries []domain.RawCatalogEntry, now time.Time) (domain.SyncReport, error)
}

type statsService interface {
	Get(ctx context.Context, owner string) (domain.UserStats, error)
	Verify(ctx context.Context, owner string) (stats.Verification, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	study  studyService
	sync   syncService
	stats  statsService
	now    func() time.Time
	router *http.ServeMux
	log    *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(log *slog.Logger, studySvc studyService, syncSvc syncService, statsSvc statsService) *Server {
	s := &Server{
		study:  studySvc,
		sync:   syncSvc,
		stats:  statsSvc,
		now:    time.Now,
		router: http.NewServeMux(),
		log:    log.With("component", "web"),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logRequests(s.router).ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth())

	s.router.HandleFunc("GET /v1/cards/due", s.withOwner(s.handleListDue))
	s.router.HandleFunc("POST /v1/cards", s.withOwner(s.handleCreateCard))
	s.router.HandleFunc("POST /v1/cards/{id}/review", s.withOwner(s.handleReview))
	s.router.HandleFunc("POST /v1/sync", s.withOwner(s.handleSync))
	s.router.HandleFunc("GET /v1/stats", s.withOwner(s.handleGetStats))
	s.router.HandleFunc("GET /v1/stats/verify", s.withOwner(s.handleVerifyStats))
	s.router.HandleFunc("PUT /v1/settings/daily-goal", s.withOwner(s.handleSetDailyGoal))
}
