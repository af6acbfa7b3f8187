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
	"github.com/fidoogle/process-label/internal/poller"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "process-label <image-file>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	image, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read image", "path", os.Args[1], "error", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := svc.ProcessImage(ctx, image)
	if err != nil {
		logger.Error("processing failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("processing OK",
		"prediction_id", res.Job.ID,
		"tracking", res.Fields.TrackingNumber,
		"tracking_generated", res.Fields.TrackingGenerated,
		"sender", res.Fields.SenderName,
		"recipient", res.Fields.RecipientName,
		"description", res.Description,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Print(res.Markup)
}
