package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/summary"
	"github.com/claude/liftlog/internal/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	csvPath := flag.String("path", "", "path to Alpha Progression CSV export (required)")
	userID := flag.Int("user", storage.LocalUserID, "user ID to import into")
	dryRun := flag.Bool("dry-run", false, "parse and summarize without writing to the database")
	serverURL := flag.String("server", "", "upload to a remote LiftLog server instead of the database")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key for -server")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -path export.csv [-user 1] [-dry-run]\n")
		fmt.Fprintf(os.Stderr, "       liftlog-import -path export.csv -server https://liftlog.example.ts.net -api-key KEY\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("failed to open export", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()

	if *serverURL != "" {
		result, err := upload.NewClient(*serverURL, *apiKey).SendAlpha(ctx, f)
		if err != nil {
			log.Error("upload failed", "server", *serverURL, "error", err)
			os.Exit(1)
		}
		printStats(log, result)
		log.Info("upload complete")
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		log.Info("DRY RUN mode, nothing is written to the database")
		sessions, err := alpha.Parse(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		fmtr := summary.New(cfg.Units.Weight)
		for _, cw := range alpha.ToWorkouts(sessions, cfg.Units.Weight) {
			log.Info("workout", "name", cw.Name, "date", cw.Date, "exercises", len(cw.Exercises))
			for _, line := range fmtr.Workout(cw) {
				fmt.Println("  " + line)
			}
		}
		return
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Run import
	provider := alpha.NewProvider(db, cfg.Units.Weight, log)
	result, err := provider.Ingest(ctx, f, *userID)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, result)
		os.Exit(1)
	}

	printStats(log, result)
	log.Info("import complete")
}

func printStats(log *slog.Logger, result *ingest.Result) {
	if result == nil {
		return
	}
	log.Info("import stats",
		"workouts_received", result.WorkoutsReceived,
		"workouts_inserted", result.WorkoutsInserted,
		"sets_received", result.SetsReceived,
		"sets_inserted", result.SetsInserted,
	)
	if result.Message != "" {
		log.Info(result.Message)
	}
}
