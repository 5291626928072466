package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/localstate"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/summary"
	"github.com/claude/liftlog/internal/templates"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

type fakeSink struct {
	saved []workout.CompletedWorkout
	err   error
}

func (f *fakeSink) SaveCompletedWorkout(_ context.Context, cw workout.CompletedWorkout, _ int) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.saved = append(f.saved, cw)
	return uuid.New(), nil
}

type fakeHistory map[string]workout.PreviousExercise

func (h fakeHistory) LastPerformance(_ context.Context, names []string, _ int) (map[string]workout.PreviousExercise, error) {
	out := map[string]workout.PreviousExercise{}
	for _, n := range names {
		if pe, ok := h[n]; ok {
			out[n] = pe
		}
	}
	return out, nil
}

type fakeDB struct {
	workouts map[uuid.UUID]storage.WorkoutRecord
}

func (f *fakeDB) GetOrCreateUser(context.Context, string, string) (int, error) { return 7, nil }

func (f *fakeDB) ListWorkouts(context.Context, time.Time, time.Time, int) ([]storage.WorkoutRecord, error) {
	out := []storage.WorkoutRecord{}
	for _, rec := range f.workouts {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeDB) GetWorkout(_ context.Context, id uuid.UUID, _ int) (*storage.WorkoutRecord, error) {
	rec, ok := f.workouts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeDB) GetDataStats(context.Context, int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalWorkouts: int64(len(f.workouts))}, nil
}

func (f *fakeDB) QueryImportLogs(context.Context, int, int) ([]storage.ImportLog, error) {
	return []storage.ImportLog{}, nil
}

func (f *fakeDB) LastPerformance(_ context.Context, names []string, _ int) (map[string]workout.PreviousExercise, error) {
	out := map[string]workout.PreviousExercise{}
	for _, n := range names {
		out[n] = workout.PreviousExercise{Name: n}
	}
	return out, nil
}

func (f *fakeDB) GetExerciseProgression(_ context.Context, name string, _, _ time.Time, _ int) ([]storage.ExerciseProgression, error) {
	return []storage.ExerciseProgression{{Date: "2026-03-01", TopWeight: 135, TopReps: 8}}, nil
}

func (f *fakeDB) GetTrainingSummary(_ context.Context, _, _ time.Time, bucket string, _ int) ([]storage.TrainingSummaryPeriod, error) {
	return []storage.TrainingSummaryPeriod{{Period: bucket}}, nil
}

type fakeIngester struct {
	body   string
	userID int
}

func (f *fakeIngester) Ingest(_ context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body, f.userID = string(data), userID
	return &ingest.Result{WorkoutsReceived: 1, WorkoutsInserted: 1}, nil
}

const testTemplates = `
templates:
  - name: Push A
    exercises:
      - name: Bench Press
        sets:
          - {weight: 45, reps: 10, warmup: true}
          - {weight: 135, reps: 8}
`

type harness struct {
	srv   *Server
	sink  *fakeSink
	db    *fakeDB
	alpha *fakeIngester
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lib, err := templates.Parse([]byte(testTemplates))
	if err != nil {
		t.Fatalf("parsing templates: %v", err)
	}
	h := &harness{
		sink:  &fakeSink{},
		db:    &fakeDB{workouts: map[uuid.UUID]storage.WorkoutRecord{}},
		alpha: &fakeIngester{},
	}
	hist := fakeHistory{
		"Bench Press": {Name: "Bench Press", Sets: []workout.HistorySet{
			{Weight: fptr(100), Reps: iptr(12)},
		}},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.New(localstate.NewMemory(), h.sink, hist, nil, progression.Default(), log)
	h.srv = New(mgr, h.db, h.alpha, lib, summary.New("lb"), "secret", log)
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/me", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// identity stored in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
}

// TestSessionLifecycle walks a session from start to finish over HTTP:
// start from history, log one set through the keypad, then finish.
func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/session/start", `{"name":"Push","exercises":["Bench Press"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201: %s", rec.Code, rec.Body)
	}
	resp := decodeSession(t, rec)
	if resp.Session == nil || len(resp.Session.Exercises) != 1 {
		t.Fatalf("session = %+v, want one exercise", resp.Session)
	}
	first := resp.Session.Exercises[0].Sets[0]
	if first.Weight == nil || *first.Weight != 112.5 || first.Reps == nil || *first.Reps != 8 {
		t.Errorf("first set displays %v x %v, want 112.5 x 8", first.Weight, first.Reps)
	}
	if !first.WeightEstimated {
		t.Error("expected weight to be estimated")
	}

	// A second start is rejected while this one is open.
	if rec := h.do(t, http.MethodPost, "/api/v1/session/start", `{"exercises":["Squat"]}`); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/session/actions", `{"type":"FOCUS_FIELD","exerciseIndex":0,"setIndex":0,"field":"weight"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("actions status = %d: %s", rec.Code, rec.Body)
	}
	if resp := decodeSession(t, rec); resp.Session.InputValue != "112.5" {
		t.Errorf("input value = %q, want 112.5", resp.Session.InputValue)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/session/keys", `{"keys":["next","next"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("keys status = %d: %s", rec.Code, rec.Body)
	}
	if resp := decodeSession(t, rec); !resp.Session.Exercises[0].Sets[0].Completed {
		t.Error("expected first set to be completed")
	}

	rec = h.do(t, http.MethodPost, "/api/v1/session/finish", `{"notes":"felt strong"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d: %s", rec.Code, rec.Body)
	}
	var fin finishResponse
	if err := json.NewDecoder(rec.Body).Decode(&fin); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(fin.Summary) != 1 || fin.Summary[0] != "Bench Press - 112.5lbx8" {
		t.Errorf("summary = %q, want [Bench Press - 112.5lbx8]", fin.Summary)
	}
	if len(h.sink.saved) != 1 {
		t.Fatalf("sink saved %d workouts, want 1", len(h.sink.saved))
	}
	if note := h.sink.saved[0].Note; note == nil || *note != "felt strong" {
		t.Errorf("note = %v, want felt strong", note)
	}

	resp = decodeSession(t, h.do(t, http.MethodGet, "/api/v1/session", ""))
	if resp.Session != nil {
		t.Error("expected no session after finish")
	}
}

// TestFinishSinkFailureKeepsSession verifies that a failed save answers 502
// and leaves the session open for a retry.
func TestFinishSinkFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/session/start", `{"template":"Push A"}`)
	h.sink.err = errors.New("connection refused")

	if rec := h.do(t, http.MethodPost, "/api/v1/session/finish", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("finish status = %d, want 502", rec.Code)
	}
	resp := decodeSession(t, h.do(t, http.MethodGet, "/api/v1/session", ""))
	if resp.Session == nil {
		t.Fatal("expected session to survive a failed finish")
	}
	if resp.Session.Name != "Push A" {
		t.Errorf("name = %q, want Push A", resp.Session.Name)
	}

	h.sink.err = nil
	if rec := h.do(t, http.MethodPost, "/api/v1/session/finish", ""); rec.Code != http.StatusOK {
		t.Errorf("retry status = %d, want 200", rec.Code)
	}
}

// TestStartFromTemplate verifies that history replaces template defaults
// for an exercise performed before.
func TestStartFromTemplate(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/session/start", `{"template":"Push A"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decodeSession(t, rec)
	if sets := resp.Session.Exercises[0].Sets; len(sets) != 1 {
		t.Errorf("sets = %d, want 1 (from history)", len(sets))
	}
}

func TestStartUnknownTemplate(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodPost, "/api/v1/session/start", `{"template":"Legs"}`); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestSessionWithoutStart verifies that mutating calls without an open
// session answer 404.
func TestSessionWithoutStart(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodPost, "/api/v1/session/keys", `{"keys":["1"]}`); rec.Code != http.StatusNotFound {
		t.Errorf("keys status = %d, want 404", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/api/v1/session/finish", ""); rec.Code != http.StatusNotFound {
		t.Errorf("finish status = %d, want 404", rec.Code)
	}
}

func TestSessionBadInput(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/session/start", `{"exercises":["Bench Press"]}`)

	if rec := h.do(t, http.MethodPost, "/api/v1/session/actions", `{"type":"LIFT_HEAVY"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/api/v1/session/keys", `{"keys":["1","enter"]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, "/api/v1/session/repeat/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("repeat status = %d, want 400", rec.Code)
	}
}

// TestActionBatch verifies that an array of envelopes is applied in order.
func TestActionBatch(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/session/start", `{"exercises":["Bench Press"]}`)

	rec := h.do(t, http.MethodPost, "/api/v1/session/actions",
		`[{"type":"ADD_SET","exerciseIndex":0},{"type":"ADD_WORKOUT_NOTE","text":"gym was busy"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decodeSession(t, rec)
	if n := len(resp.Session.Exercises[0].Sets); n != 2 {
		t.Errorf("sets = %d, want 2", n)
	}
	if len(resp.Session.Notes) != 1 || resp.Session.Notes[0] != "gym was busy" {
		t.Errorf("notes = %q", resp.Session.Notes)
	}
}

func TestDiscard(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/v1/session/start", `{"exercises":["Bench Press"]}`)

	if rec := h.do(t, http.MethodDelete, "/api/v1/session", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if resp := decodeSession(t, h.do(t, http.MethodGet, "/api/v1/session", "")); resp.Session != nil {
		t.Error("expected no session after discard")
	}
	if len(h.sink.saved) != 0 {
		t.Error("discard must not save")
	}
}

// TestGetWorkout verifies detail lookups carry summary lines and that an
// unknown ID is a 404.
func TestGetWorkout(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	h.db.workouts[id] = storage.WorkoutRecord{ID: id, CompletedWorkout: workout.CompletedWorkout{
		Name: "Pull",
		Exercises: []workout.CompletedExercise{{Name: "Row", Sets: []workout.CompletedSet{
			{Order: 1, Weight: fptr(135), Reps: iptr(8), Completed: true},
			{Order: 2, Weight: fptr(135), Reps: iptr(8), Completed: true},
		}}},
	}}

	rec := h.do(t, http.MethodGet, "/api/v1/workouts/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var got workoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got.Summary) != 1 || got.Summary[0] != "Row - 135lb:x8,x8" {
		t.Errorf("summary = %q", got.Summary)
	}

	if rec := h.do(t, http.MethodGet, "/api/v1/workouts/"+uuid.New().String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown status = %d, want 404", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/workouts?start=yesterday", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad range status = %d, want 400", rec.Code)
	}
}

func TestTemplatesList(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/templates", "")
	var list []templates.Template
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Push A" {
		t.Errorf("templates = %+v", list)
	}
}

// TestAlphaIngestRequiresKey verifies the ingest route is guarded by the API
// key and hands the body to the provider.
func TestAlphaIngestRequiresKey(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodPost, "/api/v1/ingest/alpha", "csv"); rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", bytes.NewBufferString("csv"))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if h.alpha.body != "csv" || h.alpha.userID != storage.LocalUserID {
		t.Errorf("ingest got body %q user %d", h.alpha.body, h.alpha.userID)
	}
}

func TestParseTimeRangeDateOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2026-03-01&end=2026-03-07", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

// TestHistoryReads covers the read endpoints the remote MCP client relies on.
func TestHistoryReads(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/exercises/last?name=Squat&name=Row", "")
	var hist map[string]workout.PreviousExercise
	if err := json.NewDecoder(rec.Body).Decode(&hist); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(hist) != 2 {
		t.Errorf("history entries = %d, want 2", len(hist))
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/exercises/last", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/exercises/progression?name=Squat", "")
	if rec.Code != http.StatusOK {
		t.Errorf("progression status = %d, want 200", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/training/summary?agg=weekly", "")
	var periods []storage.TrainingSummaryPeriod
	if err := json.NewDecoder(rec.Body).Decode(&periods); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(periods) != 1 || periods[0].Period != "weekly" {
		t.Errorf("periods = %+v", periods)
	}
}

func TestMCPDisabled(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(t, http.MethodPost, "/mcp", "{}"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
