package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bondpulse/internal/config"
	apperrors "bondpulse/internal/errors"
	"bondpulse/internal/infrastructure"
	"bondpulse/internal/services"
	"bondpulse/pkg/contracts"
)

func main() {
	dateStr := flag.String("date", "", "reference date (YYYY-MM-DD) for the change summary; leave blank for the latest observation")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		fmt.Printf("Error: Failed to initialize paths: %v\n", err)
		os.Exit(1)
	}

	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: Failed to create required directories: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: Failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("report.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}

	refDate, err := parseRefDate(*dateStr)
	if err != nil {
		logger.Error("Invalid arguments", slog.String("error", err.Error()))
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Report generation starting",
		slog.String("date", *dateStr),
		slog.String("reports_dir", paths.ReportsDir))

	ctx := context.Background()
	service := services.NewDataService(paths, logger)

	workbook, err := service.ExportWorkbook(ctx)
	if err != nil {
		exitOnExportError(logger, "workbook", err)
	}
	logger.Info("Workbook written", slog.String("path", workbook))
	fmt.Printf("Workbook: %s\n", workbook)

	reports, err := service.ExportReports(ctx, refDate)
	if err != nil {
		exitOnExportError(logger, "reports", err)
	}
	for _, report := range reports {
		logger.Info("Report written", slog.String("path", report))
		fmt.Printf("Report:   %s\n", report)
	}
}

// parseRefDate parses the -date flag. Empty means latest observation,
// expressed as the zero time.
func parseRefDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	refDate, err := time.Parse(config.DateFormatISO, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -date %q: expected YYYY-MM-DD", s)
	}
	return refDate, nil
}

func exitOnExportError(logger *slog.Logger, artifact string, err error) {
	if errors.Is(err, apperrors.ErrNoDataset) {
		logger.Error("No dataset collected yet, run the collector first")
		fmt.Println("Error: no dataset collected yet, run the collector first")
	} else {
		logger.Error("Export failed",
			slog.String("artifact", artifact),
			slog.String("error", err.Error()))
		fmt.Printf("Error: %s export failed: %v\n", artifact, err)
	}
	os.Exit(1)
}
