package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Provider ProviderConfig
	Poll     PollConfig
	Caption  CaptionConfig
}

// ProviderConfig holds inference-provider configuration
type ProviderConfig struct {
	Token   string
	BaseURL string
	Version string
	Timeout time.Duration
}

// PollConfig holds job-polling configuration
type PollConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	DelayGrowth time.Duration
}

// CaptionConfig holds the instruction sent alongside each image
type CaptionConfig struct {
	Prompt string
}

const defaultPrompt = "Read this shipping label and transcribe every visible line of text, " +
	"including sender, recipient, street address, city/state/zip, tracking number, " +
	"service type and weight."

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Token:   getEnv("REPLICATE_API_TOKEN", ""),
			BaseURL: getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
			Version: getEnv("CAPTION_MODEL_VERSION", "2e1dddc8621f72155f24cf2e0adbde548458d3cab9f00c0139eea840d0ac4746"),
			Timeout: getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Poll: PollConfig{
			MaxAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 30),
			BaseDelay:   getEnvAsDuration("POLL_BASE_DELAY", 1*time.Second),
			DelayGrowth: getEnvAsDuration("POLL_DELAY_GROWTH", 500*time.Millisecond),
		},
		Caption: CaptionConfig{
			Prompt: getEnv("CAPTION_PROMPT", defaultPrompt),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Provider.Token == "" {
		return NewAppError("CONFIG_ERROR", "REPLICATE_API_TOKEN is required", ErrConfiguration)
	}
	if c.Provider.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "REPLICATE_BASE_URL is required", ErrConfiguration)
	}
	if c.Poll.MaxAttempts <= 0 {
		return NewAppError("CONFIG_ERROR", "POLL_MAX_ATTEMPTS must be positive", ErrConfiguration)
	}
	return nil
}
