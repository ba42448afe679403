package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"bondpulse/internal/config"
	"bondpulse/internal/infrastructure"
	"bondpulse/internal/operations"
	"bondpulse/internal/services"
	"bondpulse/pkg/contracts"
	"bondpulse/pkg/contracts/domain"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n", r)
			fmt.Printf("Stack trace:\n%s\n", debug.Stack())
			if logger != nil {
				logger.Error("Collector panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	fromStr := flag.String("from", "", "start date (YYYY-MM-DD); leave blank for the incremental per-source window")
	toStr := flag.String("to", "", "end date (YYYY-MM-DD); leave blank for yesterday")
	sourcesStr := flag.String("sources", "", "comma-separated sources to collect (investing,kofia); leave blank for all")
	headless := flag.Bool("headless", true, "run the portal browser headless")
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
		cfg.Logging.FilePath = paths.GetLogPath("collector.log")
	}

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}

	req, err := buildRequest(*fromStr, *toStr, *sourcesStr, headless)
	if err != nil {
		logger.Error("Invalid arguments", slog.String("error", err.Error()))
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Yield collection starting",
		slog.String("from", *fromStr),
		slog.String("to", *toStr),
		slog.String("sources", strings.Join(req.Sources, ",")),
		slog.Bool("headless", *headless),
		slog.String("executable_dir", paths.ExecutableDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := operations.NewTracker(nil, logger)
	service := services.NewCollectionService(cfg, paths, tracker, nil, logger)

	snapshot, err := service.RunOnce(ctx, req)
	if err != nil {
		logger.Error("Collection run rejected", slog.String("error", err.Error()))
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	reportRun(logger, snapshot)

	if snapshot.Status != domain.OperationStatusCompleted {
		os.Exit(1)
	}
}

// buildRequest turns CLI flags into a collection request. Empty date
// strings keep the zero values that trigger incremental behavior.
func buildRequest(fromStr, toStr, sourcesStr string, headless *bool) (services.CollectRequest, error) {
	req := services.CollectRequest{
		Sources:  parseSources(sourcesStr),
		Headless: headless,
	}

	if fromStr != "" {
		from, err := time.Parse(config.DateFormatISO, fromStr)
		if err != nil {
			return req, fmt.Errorf("invalid -from date %q: expected YYYY-MM-DD", fromStr)
		}
		req.From = from
	}

	if toStr != "" {
		to, err := time.Parse(config.DateFormatISO, toStr)
		if err != nil {
			return req, fmt.Errorf("invalid -to date %q: expected YYYY-MM-DD", toStr)
		}
		req.To = to
	}

	return req, nil
}

// parseSources splits a comma-separated source list, dropping empty
// entries. Validation happens in the collection service.
func parseSources(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var sources []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			sources = append(sources, part)
		}
	}
	return sources
}

// reportRun logs the terminal state of a completed run, one line per
// source step.
func reportRun(logger *slog.Logger, snapshot domain.OperationSnapshot) {
	for _, step := range snapshot.Steps {
		attrs := []any{
			slog.String("step", step.ID),
			slog.String("status", string(step.Status)),
			slog.Int("rows", step.Rows),
		}
		if step.Error != "" {
			attrs = append(attrs, slog.String("error", step.Error))
		}
		logger.Info("Step finished", attrs...)
	}

	logger.Info("Collection run finished",
		slog.String("operation_id", snapshot.ID),
		slog.String("status", string(snapshot.Status)),
		slog.Duration("duration", snapshot.Duration()))

	if snapshot.Error != "" {
		logger.Error("Collection run error", slog.String("error", snapshot.Error))
	}
}
