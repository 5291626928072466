// Command liftlog-mcp serves the LiftLog MCP tools over stdio, reading data
// from a remote LiftLog server's REST API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/progression"
	"github.com/claude/liftlog/internal/summary"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", "", "LiftLog base URL, e.g. http://liftlog.tailnet.ts.net (required)")
	unit := flag.String("unit", summary.DefaultUnit, "weight unit used in summaries")
	maxReps := flag.Int("max-reps", progression.DefaultMaxReps, "top of the rep range for next targets")
	minReps := flag.Int("min-reps", progression.DefaultMinReps, "bottom of the rep range for next targets")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -url http://liftlog.example.ts.net [-unit lb]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	policy := config.ProgressionConfig{MinReps: *minReps, MaxReps: *maxReps}.Policy()
	s := mcp.New(mcp.NewHTTPClient(*baseURL), policy, summary.New(*unit), Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
