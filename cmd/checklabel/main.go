package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fidoogle/process-label/internal/common"
	"github.com/fidoogle/process-label/internal/inference"
	"github.com/fidoogle/process-label/internal/labels"
)

// checklabel performs a single status check for a job id printed by
// submitlabel. Run it again later if the job is still in progress.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "checklabel <job-id>")
		os.Exit(2)
	}

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

	svc := labels.NewService(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Provider.Timeout+10*time.Second)
	defer cancel()

	res, err := svc.CheckJob(ctx, os.Args[1])
	if err != nil {
		logger.Error("status check failed", "job_id", os.Args[1], "error", err)
		os.Exit(1)
	}

	logger.Info("status check OK",
		"job_id", res.Job.ID,
		"status", res.Job.Status,
		"done", res.Done,
		"error_detail", res.Job.ErrorDetail,
	)
	if res.Result != nil {
		fmt.Print(res.Result.Markup)
	}
}
