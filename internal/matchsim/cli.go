package matchsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/touchline/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the match simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Touchline Match Simulator
=========================

A concurrent tool for driving the coaching-insight engine with scripted
match timelines: sessions, observers, events, queries, and teardown.

Usage:
  go run cmd/match-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of coaching sessions to create (default 20)
  -events int
        Number of match events per session (default 40)
  -top int
        Number of busiest sessions to display (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated timelines (default: timelines_TIMESTAMP.json)
  -log string
        Log file for simulation output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/match-sim/main.go

  # Heavier run against a remote instance
  go run cmd/match-sim/main.go -sessions 100 -events 80 -url http://localhost:8080

  # Verbose output with a custom log file
  go run cmd/match-sim/main.go -verbose -sessions 50 -log my_sim.log
`)
}
