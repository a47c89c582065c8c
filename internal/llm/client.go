package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/complaints/backend/internal/metrics"
	"github.com/complaints/backend/internal/storage/models"
	"github.com/complaints/backend/pkg/circuitbreaker"
	"github.com/complaints/backend/pkg/logger"
)

const classifierName = "category"

var (
	ErrMissingAPIKey = errors.New("llm api key is not configured")
	ErrNoChoices     = errors.New("no choices in completion response")
)

// UnexpectedLabelError carries the model's raw answer when it is not one of
// the accepted category words.
type UnexpectedLabelError struct {
	Content string
}

func (e *UnexpectedLabelError) Error() string {
	return fmt.Sprintf("unexpected category label %q", e.Content)
}

type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Language  string
}

type Client struct {
	client    *openai.Client
	hasKey    bool
	model     string
	maxTokens int
	timeout   time.Duration
	vocab     vocabulary
	cb        *circuitbreaker.CircuitBreaker
}

// NewClient returns a category classifier backed by an OpenAI-compatible
// chat completion API. cb may be nil.
func NewClient(cfg Config, cb *circuitbreaker.CircuitBreaker) (*Client, error) {
	vocab, err := vocabularyFor(cfg.Language)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 5
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	logger.Info("LLM client initialized",
		zap.String("model", cfg.Model),
		zap.String("language", cfg.Language),
		zap.Bool("api_key_set", cfg.APIKey != ""),
		zap.Duration("timeout", cfg.Timeout),
	)

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		hasKey:    cfg.APIKey != "",
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		vocab:     vocab,
		cb:        cb,
	}, nil
}

// ClassifyCategory always returns one of the canonical categories. On any
// failure it returns models.CategoryOther together with the reason.
func (c *Client) ClassifyCategory(ctx context.Context, text string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.ClassifierDuration.WithLabelValues(classifierName).Observe(time.Since(start).Seconds())
	}()

	var content string
	err := ErrMissingAPIKey
	if c.hasKey {
		err = c.execute(ctx, func() error {
			var err error
			content, err = c.complete(ctx, c.vocab.prompt(text))
			return err
		})
	}

	category := models.CategoryOther
	if err == nil {
		var ok bool
		category, ok = c.vocab.match(content)
		if !ok {
			err = &UnexpectedLabelError{Content: content}
		}
	}

	if err != nil {
		metrics.ClassifierRequests.WithLabelValues(classifierName, metrics.OutcomeFallback).Inc()
		return models.CategoryOther, err
	}

	metrics.ClassifierRequests.WithLabelValues(classifierName, metrics.OutcomeSuccess).Inc()
	return category, nil
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if c.cb == nil {
		return fn()
	}
	return c.cb.Execute(ctx, fn)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens: c.maxTokens,
			// a literal 0 is dropped by omitempty and the API would default to 1
			Temperature: math.SmallestNonzeroFloat32,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	logger.Debug("LLM completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
