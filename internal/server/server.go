package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/matt0223/house-cup-sub001/internal/challenge"
	"github.com/matt0223/house-cup-sub001/internal/handler"
	"github.com/matt0223/house-cup-sub001/internal/middleware"
	"github.com/matt0223/house-cup-sub001/internal/narrative"
	"github.com/matt0223/house-cup-sub001/internal/store"
	ws "github.com/matt0223/house-cup-sub001/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	svc         *challenge.Service
	scheduler   *challenge.Scheduler
	householdH  *handler.HouseholdHandler
	templateH   *handler.TemplateHandler
	taskH       *handler.TaskHandler
	challengeH  *handler.ChallengeHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, narrativeCfg narrative.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	households := store.NewHouseholdStore(db)
	templates := store.NewTemplateStore(db)
	tasks := store.NewTaskStore(db)
	challenges := store.NewChallengeStore(db)

	generator := narrative.NewGenerator(narrativeCfg, logger.With("component", "narrative"))
	svc := challenge.NewService(households, templates, tasks, challenges, hub, generator, logger.With("component", "challenge"))

	return &Server{
		db:          db,
		hub:         hub,
		svc:         svc,
		scheduler:   challenge.NewScheduler(svc),
		householdH:  handler.NewHouseholdHandler(households, svc, hub, logger.With("component", "household")),
		templateH:   handler.NewTemplateHandler(households, templates, tasks, challenges, svc, hub, logger.With("component", "template")),
		taskH:       handler.NewTaskHandler(households, tasks, templates, challenges, svc, hub, logger.With("component", "task")),
		challengeH:  handler.NewChallengeHandler(households, tasks, challenges, svc, hub, logger.With("component", "challenge_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Scheduler returns the week rollover scheduler for lifecycle management.
func (s *Server) Scheduler() *challenge.Scheduler {
	return s.scheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Household + competitors
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.HandleFunc("POST /api/household", s.householdH.Create)
	mux.HandleFunc("PUT /api/household", s.householdH.UpdateSettings)
	mux.HandleFunc("PUT /api/competitors/{id}", s.householdH.UpdateCompetitor)
	mux.HandleFunc("POST /api/competitors/{id}/link", s.householdH.LinkCompetitor)

	// Recurring templates
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("PUT /api/templates/{id}", s.templateH.Update)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)

	// Task instances
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Rename)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/points", s.taskH.SetPoints)
	mux.HandleFunc("POST /api/tasks/{id}/detach", s.taskH.Detach)

	// Challenges
	mux.HandleFunc("GET /api/challenges", s.challengeH.List)
	mux.HandleFunc("GET /api/challenges/current", s.challengeH.Current)
	mux.HandleFunc("GET /api/challenges/{id}", s.challengeH.Get)
	mux.HandleFunc("GET /api/challenges/{id}/tasks", s.challengeH.Tasks)
	mux.HandleFunc("GET /api/challenges/{id}/scores", s.challengeH.Scores)
	mux.HandleFunc("GET /api/challenges/{id}/narrative", s.challengeH.Narrative)
	mux.HandleFunc("POST /api/challenges/{id}/narrative/generate", s.rateLimitedHandler(s.challengeH.GenerateNarrative))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
