package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/keypad"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/templates"
	"github.com/claude/liftlog/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxActionBody caps a single action envelope; REPLACE_STATE carries a whole workout.
const maxActionBody = 1 << 20

type sessionResponse struct {
	Session *workout.View `json:"session"`
	Notice  string        `json:"notice,omitempty"`
}

type startRequest struct {
	Template  string   `json:"template"`
	Name      string   `json:"name"`
	Exercises []string `json:"exercises"`
}

type keysRequest struct {
	Keys []string `json:"keys"`
}

type finishRequest struct {
	Name            string `json:"name"`
	Notes           string `json:"notes"`
	DurationSeconds *int   `json:"duration_seconds"`
}

type finishResponse struct {
	ID      uuid.UUID                `json:"id"`
	Workout workout.CompletedWorkout `json:"workout"`
	Summary []string                 `json:"summary"`
}

type workoutResponse struct {
	storage.WorkoutRecord
	Summary []string `json:"summary"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.alpha.Ingest(r.Context(), r.Body, userIDFromContext(r))
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionView(w http.ResponseWriter, r *http.Request) {
	view, notice, err := s.sessions.View(r.Context(), userIDFromContext(r))
	if errors.Is(err, session.ErrNoActiveSession) {
		writeJSON(w, http.StatusOK, sessionResponse{Notice: notice})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: &view})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	uid := userIDFromContext(r)

	var (
		wo  workout.Workout
		err error
	)
	switch {
	case req.Template != "":
		t, terr := s.templates.Get(req.Template)
		if terr != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": terr.Error()})
			return
		}
		name := req.Name
		if name == "" {
			name = t.Name
		}
		wo, err = s.sessions.StartFromTemplate(r.Context(), uid, name, t.Defaults())
	case len(req.Exercises) > 0:
		wo, err = s.sessions.Start(r.Context(), uid, req.Name, req.Exercises)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template or exercises required"})
		return
	}
	s.writeSession(w, wo, err, http.StatusCreated)
}

func (s *Server) handleSessionRepeat(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	wo, err := s.sessions.Repeat(r.Context(), userIDFromContext(r), workoutID)
	s.writeSession(w, wo, err, http.StatusCreated)
}

// handleSessionActions accepts one action envelope or an array of them.
func (s *Server) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	actions, err := decodeActions(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	wo, err := s.sessions.Dispatch(r.Context(), userIDFromContext(r), actions...)
	s.writeSession(w, wo, err, http.StatusOK)
}

func decodeActions(body []byte) ([]workout.Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		raw = []json.RawMessage{body}
	}
	actions := make([]workout.Action, 0, len(raw))
	for _, msg := range raw {
		a, err := workout.DecodeAction(msg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (s *Server) handleSessionKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	wo, err := s.sessions.Press(r.Context(), userIDFromContext(r), req.Keys)
	if errors.Is(err, keypad.ErrUnknownKey) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeSession(w, wo, err, http.StatusOK)
}

func (s *Server) handleSessionFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	uid := userIDFromContext(r)
	id, cw, err := s.sessions.Finish(r.Context(), uid, req.Name, req.Notes, req.DurationSeconds)
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		// The session is still in progress; the client may retry.
		s.log.Error("finishing session", "user_id", uid, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, finishResponse{ID: id, Workout: cw, Summary: s.summary.Workout(cw)})
}

func (s *Server) handleSessionDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Discard(r.Context(), userIDFromContext(r)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeSession maps a session operation's outcome to a response.
func (s *Server) writeSession(w http.ResponseWriter, wo workout.Workout, err error, status int) {
	switch {
	case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrActiveSession):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		view := s.sessions.Project(wo)
		writeJSON(w, status, sessionResponse{Session: &view})
	}
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	recs, err := s.db.ListWorkouts(r.Context(), start, end, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]workoutResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, workoutResponse{WorkoutRecord: rec, Summary: s.summary.Workout(rec.CompletedWorkout)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	rec, err := s.db.GetWorkout(r.Context(), workoutID, userIDFromContext(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, workoutResponse{WorkoutRecord: *rec, Summary: s.summary.Workout(rec.CompletedWorkout)})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.templates.List()
	if list == nil {
		list = []templates.Template{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleLastPerformance(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	if len(names) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	hist, err := s.db.LastPerformance(r.Context(), names, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleExerciseProgression(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	points, err := s.db.GetExerciseProgression(r.Context(), name, start, end, userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	periods, err := s.db.GetTrainingSummary(r.Context(), start, end, r.URL.Query().Get("agg"), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "mcp is not enabled"})
		return
	}
	s.mcp.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = parseTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endStr == "" {
		end = time.Now()
		return
	}
	end, err = parseTime(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(endStr) == len("2006-01-02") {
		// End of day for date-only
		end = end.Add(24 * time.Hour)
	}
	return
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
