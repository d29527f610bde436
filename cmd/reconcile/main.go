package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/username/riconcilia/src/config"
	"github.com/username/riconcilia/src/database"
	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/processors"
	"github.com/username/riconcilia/src/services"
)

// Exit codes: 1 for usage, setup or store failures, 2 when the run has no usable
// theoretical export.
const (
	exitFailure      = 1
	exitPrecondition = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	inputDir := flag.String("input", "", "Required: directory holding the uploaded files of one run")
	dbPath := flag.String("db", "", "Optional: SQLite database path (defaults to DATABASE_PATH)")
	flag.Parse()

	if strings.TrimSpace(*inputDir) == "" {
		fmt.Fprintln(os.Stderr, "-input is required")
		flag.Usage()
		return exitFailure
	}

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	if err := config.Cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	}

	path := config.Cfg.DatabasePath
	if strings.TrimSpace(*dbPath) != "" {
		path = *dbPath
	}

	db, err := database.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return exitFailure
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := services.NewReconciliationService(
		db,
		services.NewInstallationRegistry(config.Cfg.RegistryCacheTTL),
		processors.NewTheoreticalProcessor(),
		config.Cfg.HeaderScanRows,
	)

	result, err := svc.Run(ctx, services.RunConfig{InputDir: *inputDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		return exitCode(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return exitFailure
	}
	return 0
}

func exitCode(err error) int {
	if errors.Is(err, services.ErrTheoreticalExportMissing) || errors.Is(err, services.ErrNoTheoreticalData) {
		return exitPrecondition
	}
	return exitFailure
}
