package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eduassist/eduassist-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "AIzaSyTESTKEY1234567890abcd"

func newTestClient(t *testing.T, baseURL, key string) *GeminiClient {
	return NewGeminiClient(config.GeminiConfig{
		APIKey:  key,
		Model:   "gemini-1.5-flash",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
}

func TestGenerateSendsRequestAndParsesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, testKey, r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var req GenerateRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 1500, req.GenerationConfig.MaxOutputTokens)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi there"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testKey)
	text, err := c.Generate(context.Background(), "hello", GenerationConfig{Temperature: 0.7, MaxOutputTokens: 1500})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestGenerateNonOKReturnsGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"denied"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testKey)
	_, err := c.Generate(context.Background(), "hello", GenerationConfig{})
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, http.StatusForbidden, genErr.StatusCode)
	assert.Equal(t, `API call failed (HTTP 403): {"error":"denied"}`, genErr.Error())
}

func TestGenerateWithoutCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testKey)
	_, err := c.Generate(context.Background(), "hello", GenerationConfig{})
	assert.Error(t, err)
}

func TestGenerateWithoutKey(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", config.PlaceholderAPIKey)
	assert.False(t, c.HasAPIKey())

	_, err := c.Generate(context.Background(), "hello", GenerationConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestKeyStatus(t *testing.T) {
	assert.Equal(t, "not_configured", newTestClient(t, "", "").KeyStatus())
	assert.Equal(t, "not_configured", newTestClient(t, "", config.PlaceholderAPIKey).KeyStatus())
	assert.Equal(t, "invalid_length", newTestClient(t, "", "short").KeyStatus())
	assert.Equal(t, "configured (AIzaSyTE...abcd)", newTestClient(t, "", testKey).KeyStatus())
}

func TestGenerateWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, testKey)
	text, err := c.GenerateWithRetry(context.Background(), "hello", GenerationConfig{}, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateWithRetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	c := newTestClient(t, srv.URL, testKey)
	_, err := c.GenerateWithRetry(ctx, "hello", GenerationConfig{}, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
