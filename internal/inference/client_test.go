package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidoogle/process-label/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{Token: "r8_test", BaseURL: baseURL, Version: "v1"}, discardLogger())
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{}, discardLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestCreatePrediction(t *testing.T) {
	var gotAuth string
	var gotBody createRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predictions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	pred, err := c.CreatePrediction(context.Background(), []byte("\x89PNG fake image"), "read the label")
	require.NoError(t, err)

	assert.Equal(t, "pred-1", pred.ID)
	assert.Equal(t, "starting", pred.Status)
	assert.Equal(t, "Bearer r8_test", gotAuth)
	assert.Equal(t, "v1", gotBody.Version)
	assert.Equal(t, "read the label", gotBody.Input.Prompt)
	assert.True(t, strings.HasPrefix(gotBody.Input.Image, "data:"), "image should be a data URI, got %q", gotBody.Input.Image[:16])
	assert.Contains(t, gotBody.Input.Image, ";base64,")
}

func TestCreatePredictionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid version"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.CreatePrediction(context.Background(), []byte("img"), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrProvider))
	assert.Contains(t, err.Error(), "invalid version")
}

func TestCreatePredictionTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL)
	_, err := c.CreatePrediction(context.Background(), []byte("img"), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTransport))
}

func TestGetPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/predictions/pred-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pred-9","status":"succeeded","output":["From: Acme"]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	pred, err := c.GetPrediction(context.Background(), "pred-9")
	require.NoError(t, err)
	assert.Equal(t, "pred-9", pred.ID)
	assert.Equal(t, "succeeded", pred.Status)
	assert.Equal(t, []any{"From: Acme"}, pred.Output)
}

func TestGetPredictionRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"succeeded"}`)) // missing id
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetPrediction(context.Background(), "pred-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrProvider))
}

func TestGetPredictionNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetPrediction(context.Background(), "pred-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrProvider))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestValidatePrediction(t *testing.T) {
	require.NoError(t, ValidatePrediction([]byte(`{"id":"p","status":"processing","error":null}`)))
	require.NoError(t, ValidatePrediction([]byte(`{"id":"p","status":"succeeded","output":{"caption":"hi"}}`)))
	require.Error(t, ValidatePrediction([]byte(`{"id":"","status":"processing"}`)))
	require.Error(t, ValidatePrediction([]byte(`[]`)))
	require.Error(t, ValidatePrediction([]byte(`not json`)))
}
