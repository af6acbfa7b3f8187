package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fidoogle/process-label/internal/common"
)

// Config for the provider client.
type Config struct {
	Token   string        // bearer credential; required
	BaseURL string        // default https://api.replicate.com/v1
	Version string        // model version hash sent with every submission
	Timeout time.Duration // http client timeout
}

// Client talks to a Replicate-style asynchronous prediction API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "provider token is required", common.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.replicate.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// CreatePrediction submits an image and prompt and returns the provider's job
// handle without waiting for completion.
func (c *Client) CreatePrediction(ctx context.Context, image []byte, prompt string) (*Prediction, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := createRequest{
		Version: c.cfg.Version,
		Input: predictionInput{
			Image:  dataURI(image),
			Prompt: prompt,
		},
	}

	c.logger.Info("inference.create.start",
		"req_id", rid,
		"version", c.cfg.Version,
		"image_bytes", len(image),
	)

	raw, status, err := c.post(ctx, c.endpoint("/predictions"), body)
	if err != nil {
		if status > 0 {
			c.logger.Error("inference.create.provider_error",
				"req_id", rid, "status", status, "body_bytes", len(raw),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, common.NewAppError("PROVIDER_ERROR",
				fmt.Sprintf("create prediction: status %d: %s", status, truncate(raw, 512)),
				common.ErrProvider)
		}
		c.logger.Error("inference.create.transport_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("TRANSPORT_ERROR", "create prediction", common.ErrTransport)
	}

	var pred Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, common.NewAppError("PROVIDER_ERROR",
			fmt.Sprintf("decode create response: %v", err), common.ErrProvider)
	}
	if pred.ID == "" {
		return nil, common.NewAppError("PROVIDER_ERROR", "create response missing prediction id", common.ErrProvider)
	}

	c.logger.Info("inference.create.ok",
		"req_id", rid,
		"prediction_id", pred.ID,
		"status", pred.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &pred, nil
}

// GetPrediction fetches the current status of a job. The response body is
// schema-checked before decoding so a malformed provider payload surfaces as
// an error instead of a half-filled struct.
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/predictions/"+id), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.NewAppError("TRANSPORT_ERROR", "get prediction "+id, common.ErrTransport)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("inference.get.body_close_error", "prediction_id", id, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("inference.get.response",
		"prediction_id", id,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, common.NewAppError("PROVIDER_ERROR",
			fmt.Sprintf("get prediction %s: status %d: %s", id, resp.StatusCode, truncate(raw, 512)),
			common.ErrProvider)
	}
	if err := ValidatePrediction(raw); err != nil {
		return nil, common.NewAppError("PROVIDER_ERROR", err.Error(), common.ErrProvider)
	}

	var pred Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, common.NewAppError("PROVIDER_ERROR",
			fmt.Sprintf("decode prediction %s: %v", id, err), common.ErrProvider)
	}
	return &pred, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, int, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("inference.post.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// dataURI inlines image bytes the way the provider expects file inputs.
func dataURI(image []byte) string {
	mime := http.DetectContentType(image)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
