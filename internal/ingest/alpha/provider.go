package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// Store is the persistence the provider writes to.
type Store interface {
	DeleteWorkoutsAt(ctx context.Context, t time.Time, source string, userID int) error
	InsertWorkout(ctx context.Context, cw workout.CompletedWorkout, source string, userID int) (uuid.UUID, bool, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	db   Store
	unit string
	log  *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider storing
// weights in unit.
func NewProvider(db Store, unit string, log *slog.Logger) *Provider {
	return &Provider{db: db, unit: unit, log: log}
}

// Ingest parses a CSV export and stores each session as a completed workout.
// Re-importing a session replaces the previous import of it.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	began := time.Now()
	entry := storage.ImportLog{UserID: userID, Source: storage.SourceAlpha, Status: storage.ImportRunning}
	logID, err := p.db.InsertImportLog(ctx, entry)
	if err != nil {
		p.log.Warn("recording import start", "error", err)
	}

	result, err := p.ingest(ctx, r, userID)

	if logID != 0 {
		ms := int(time.Since(began).Milliseconds())
		entry.DurationMs = &ms
		entry.Status = storage.ImportSuccess
		if err != nil {
			msg := err.Error()
			entry.Status = storage.ImportError
			entry.ErrorMessage = &msg
		}
		if result != nil {
			entry.WorkoutsReceived = result.WorkoutsReceived
			entry.WorkoutsInserted = result.WorkoutsInserted
			entry.SetsInserted = result.SetsInserted
		}
		if uerr := p.db.UpdateImportLog(ctx, logID, entry); uerr != nil {
			p.log.Warn("recording import outcome", "error", uerr)
		}
	}
	return result, err
}

func (p *Provider) ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	workouts := ToWorkouts(sessions, p.unit)
	result := &ingest.Result{WorkoutsReceived: len(workouts)}
	for _, cw := range workouts {
		sets := 0
		for _, ex := range cw.Exercises {
			sets += len(ex.Sets)
		}
		result.SetsReceived += sets

		// Delete the previous import so re-imports reflect the latest parser output.
		if err := p.db.DeleteWorkoutsAt(ctx, cw.StartedAt, storage.SourceAlpha, userID); err != nil {
			return result, fmt.Errorf("deleting existing import of %s: %w", cw.Date, err)
		}
		_, inserted, err := p.db.InsertWorkout(ctx, cw, storage.SourceAlpha, userID)
		if err != nil {
			return result, fmt.Errorf("inserting session %s: %w", cw.Date, err)
		}
		if inserted {
			result.WorkoutsInserted++
			result.SetsInserted += int64(sets)
		}
	}

	if skipped := result.WorkoutsReceived - result.WorkoutsInserted; skipped > 0 {
		result.Message = fmt.Sprintf("%d sessions already recorded from live sessions", skipped)
	}
	p.log.Info("alpha import", "user_id", userID, "workouts", result.WorkoutsInserted, "sets", result.SetsInserted)
	return result, nil
}
