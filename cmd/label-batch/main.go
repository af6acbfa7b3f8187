package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fidoogle/process-label/internal/async"
	"github.com/fidoogle/process-label/internal/common"
	"github.com/fidoogle/process-label/internal/export"
	"github.com/fidoogle/process-label/internal/inference"
	"github.com/fidoogle/process-label/internal/labels"
	"github.com/fidoogle/process-label/internal/poller"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of label images to process (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 4, "concurrent label flows")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "labels.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client, err := inference.NewClient(inference.Config{
		Token:   cfg.Provider.Token,
		BaseURL: cfg.Provider.BaseURL,
		Version: cfg.Provider.Version,
		Timeout: cfg.Provider.Timeout,
	}, logger)
	if err != nil {
		logger.Error("build provider client", "error", err)
		os.Exit(1)
	}

	svc := labels.NewService(client, logger,
		labels.WithPrompt(cfg.Caption.Prompt),
		labels.WithPollOptions(poller.Options{
			MaxAttempts: cfg.Poll.MaxAttempts,
			BaseDelay:   cfg.Poll.BaseDelay,
			DelayGrowth: cfg.Poll.DelayGrowth,
		}),
	)

	queue := async.NewQueue(svc, logger, async.WithWorkers(*workers))

	ctx := context.Background()
	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	queued := 0
	for _, entry := range entries {
		if entry.IsDir() || !imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		task := async.Task{
			Path:        filepath.Join(*dir, entry.Name()),
			SubmittedAt: time.Now(),
		}
		if err := queue.Enqueue(ctx, task); err != nil {
			logger.Error("enqueue failed", "path", task.Path, "error", err)
		} else {
			queued++
		}
	}
	logger.Info("batch queued", "dir", *dir, "images", queued)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)

	results := queue.Results()
	workbook, err := export.NewService(logger).BuildWorkbook(results)
	if err != nil {
		logger.Error("build workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		logger.Error("write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info("batch complete", "images", len(results), "failed", failed, "out", *out)
}
