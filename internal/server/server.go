package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/summary"
	"github.com/claude/liftlog/internal/templates"
	"github.com/claude/liftlog/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"tailscale.com/client/local"
)

// Sessions is the slice of session.Manager the handlers drive.
type Sessions interface {
	View(ctx context.Context, userID int) (workout.View, string, error)
	Start(ctx context.Context, userID int, name string, exercises []string) (workout.Workout, error)
	StartFromTemplate(ctx context.Context, userID int, name string, defaults []workout.PreviousExercise) (workout.Workout, error)
	Repeat(ctx context.Context, userID int, workoutID uuid.UUID) (workout.Workout, error)
	Dispatch(ctx context.Context, userID int, actions ...workout.Action) (workout.Workout, error)
	Press(ctx context.Context, userID int, keys []string) (workout.Workout, error)
	Finish(ctx context.Context, userID int, name, notes string, durationSeconds *int) (uuid.UUID, workout.CompletedWorkout, error)
	Discard(ctx context.Context, userID int) error
	Project(w workout.Workout) workout.View
}

// Store is the read side of storage.DB used by the history endpoints.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	ListWorkouts(ctx context.Context, start, end time.Time, userID int) ([]storage.WorkoutRecord, error)
	GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*storage.WorkoutRecord, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	LastPerformance(ctx context.Context, names []string, userID int) (map[string]workout.PreviousExercise, error)
	GetExerciseProgression(ctx context.Context, name string, start, end time.Time, userID int) ([]storage.ExerciseProgression, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error)
}

// Ingester imports an uploaded export for a user.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions  Sessions
	db        Store
	alpha     Ingester
	templates *templates.Library
	summary   summary.Formatter
	log       *slog.Logger
	apiKey    string
	router    chi.Router
	tailscale *local.Client
	mcp       http.Handler
}

// New creates a new Server with all routes configured. A nil library serves
// no templates.
func New(sessions Sessions, db Store, alphaProvider Ingester, lib *templates.Library, fmtr summary.Formatter, apiKey string, log *slog.Logger) *Server {
	if lib == nil {
		lib = &templates.Library{}
	}
	s := &Server{
		sessions:  sessions,
		db:        db,
		alpha:     alphaProvider,
		templates: lib,
		summary:   fmtr,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity resolution to Tailscale WhoIs lookups.
// Must be called before the server starts handling requests.
func (s *Server) SetTailscale(lc *local.Client) {
	s.tailscale = lc
}

// SetMCP mounts an MCP transport at /mcp behind the identity middleware.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

// UserID returns the user the identity middleware attributed r to.
func UserID(r *http.Request) int {
	return userIDFromContext(r)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) identity(next http.Handler) http.Handler {
	if s.tailscale == nil {
		return DevIdentity(next)
	}
	return TailscaleIdentity(s.tailscale, s.db, s.log)(next)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(DevIdentity)
		r.Post("/alpha", s.handleAlphaIngest)
	})

	// Everything else is identified by the tailnet (or the dev user)
	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/api/v1/me", s.handleMe)

		r.Route("/api/v1/session", func(r chi.Router) {
			r.Get("/", s.handleSessionView)
			r.Delete("/", s.handleSessionDiscard)
			r.Post("/start", s.handleSessionStart)
			r.Post("/repeat/{id}", s.handleSessionRepeat)
			r.Post("/actions", s.handleSessionActions)
			r.Post("/keys", s.handleSessionKeys)
			r.Post("/finish", s.handleSessionFinish)
		})

		r.Get("/api/v1/workouts", s.handleQueryWorkouts)
		r.Get("/api/v1/workouts/{id}", s.handleGetWorkout)
		r.Get("/api/v1/templates", s.handleTemplates)
		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/imports", s.handleImportLogs)
		r.Get("/api/v1/exercises/last", s.handleLastPerformance)
		r.Get("/api/v1/exercises/progression", s.handleExerciseProgression)
		r.Get("/api/v1/training/summary", s.handleTrainingSummary)

		r.Handle("/mcp", http.HandlerFunc(s.handleMCP))
	})
}
