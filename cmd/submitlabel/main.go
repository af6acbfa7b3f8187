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

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "submitlabel <image-file>")
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

	svc := labels.NewService(client, logger, labels.WithPrompt(cfg.Caption.Prompt))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Provider.Timeout+10*time.Second)
	defer cancel()

	jobID, err := svc.SubmitImage(ctx, image)
	if err != nil {
		logger.Error("submission failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(jobID)
}
