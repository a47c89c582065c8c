package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/complaints/backend/internal/metrics"
	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/circuitbreaker"
	"github.com/complaints/backend/pkg/logger"
)

const classifierName = "sentiment"

var (
	ErrMissingAPIKey = errors.New("sentiment api key is not configured")
	ErrNoSentiment   = errors.New("sentiment field missing from response")
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sentiment api returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

type analysisRequest struct {
	Text string `json:"text"`
}

type analysisResponse struct {
	Sentiment *string `json:"sentiment"`
}

// NewClient builds a client for an APILayer-compatible sentiment endpoint.
// cb may be nil to call the upstream unconditionally.
func NewClient(url, apiKey string, timeout time.Duration, cb *circuitbreaker.CircuitBreaker) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	logger.Info("Sentiment client initialized",
		zap.String("url", url),
		zap.Bool("api_key_set", apiKey != ""),
		zap.Duration("timeout", timeout),
	)

	return &Client{
		url:        url,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		cb:         cb,
	}
}

// ClassifySentiment always returns a usable label: the upstream's sentiment on
// success, models.SentimentUnknown otherwise. err explains why the fallback was used.
func (c *Client) ClassifySentiment(ctx context.Context, text string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.ClassifierDuration.WithLabelValues(classifierName).Observe(time.Since(start).Seconds())
	}()

	var label string
	err := ErrMissingAPIKey
	if c.apiKey != "" {
		err = c.execute(ctx, func() error {
			var err error
			label, err = c.analyze(ctx, text)
			return err
		})
	}

	if err != nil {
		metrics.ClassifierRequests.WithLabelValues(classifierName, metrics.OutcomeFallback).Inc()
		return models.SentimentUnknown, err
	}

	metrics.ClassifierRequests.WithLabelValues(classifierName, metrics.OutcomeSuccess).Inc()
	return label, nil
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if c.cb == nil {
		return fn()
	}
	return c.cb.Execute(ctx, fn)
}

func (c *Client) analyze(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(analysisRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sentiment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var parsed analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode sentiment response: %w", err)
	}

	if parsed.Sentiment == nil || *parsed.Sentiment == "" {
		return "", ErrNoSentiment
	}

	return *parsed.Sentiment, nil
}
