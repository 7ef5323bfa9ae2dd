package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sethvargo/go-retry"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/platform/provider"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "claude-3-5-haiku-latest"

// maxOutputTokens bounds a single completion. Question batches and answers
// both fit comfortably; the Messages API requires an explicit limit.
const maxOutputTokens = 4096

const defaultRetryBase = time.Second

// questionTemperature favors diversity across candidates in a batch.
const questionTemperature = 0.9

// answerTemperature favors factual, reproducible answers.
const answerTemperature = 0.4

// messageCreator is the slice of the Anthropic SDK this provider calls,
// extracted so tests can substitute a stub for the real API client.
type messageCreator interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Config carries the settings needed to construct a Provider.
type Config struct {
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string
	// BaseURL overrides the API endpoint, for gateways and proxies.
	BaseURL string
	// Model overrides DefaultModel when non-empty.
	Model string
	// RetryBase is the base delay of the linear retry backoff.
	RetryBase time.Duration
}

// Provider generates questions and answers through the Anthropic Messages
// API.
type Provider struct {
	messages  messageCreator
	model     string
	retryBase time.Duration
	logger    *slog.Logger
}

// New creates a Provider backed by a real Anthropic client.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", provider.ErrInvalidConfig)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := sdk.NewClient(opts...)

	return newWithCreator(&client.Messages, cfg, logger), nil
}

func newWithCreator(messages messageCreator, cfg Config, logger *slog.Logger) *Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &Provider{
		messages:  messages,
		model:     model,
		retryBase: retryBase,
		logger:    logger.With("component", "anthropic_provider"),
	}
}

// Name identifies this implementation.
func (p *Provider) Name() string {
	return provider.NameAnthropic
}

// GenerateQuestions requests up to batchSize candidate questions about the
// region, retrying transient failures internally. Exhausting the retry
// budget yields an empty slice, not an error.
func (p *Provider) GenerateQuestions(ctx context.Context, region domain.Region, batchSize, maxAttempts int) ([]domain.Question, error) {
	prompt, err := provider.QuestionPrompt(region, batchSize)
	if err != nil {
		return nil, err
	}

	var texts []string
	backoff := retry.WithMaxRetries(provider.AttemptBudget(maxAttempts), provider.NewLinearBackoff(p.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := p.complete(ctx, prompt, questionTemperature)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed, err := provider.ParseQuestionTexts(raw)
		if err != nil {
			return retry.RetryableError(err)
		}
		texts = parsed
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.WarnContext(ctx, "question generation attempts exhausted",
			"region", region.Name,
			"model", p.model,
			"error", err)
		return []domain.Question{}, nil
	}

	questions := make([]domain.Question, 0, len(texts))
	for _, t := range texts {
		questions = append(questions, domain.Question{Text: t})
	}
	p.logger.DebugContext(ctx, "question batch generated",
		"region", region.Name,
		"requested", batchSize,
		"received", len(questions))
	return questions, nil
}

// GenerateAnswer produces one answer for the question text, retrying
// transient failures internally. Exhausting the retry budget yields the
// fallback answer, not an error.
func (p *Provider) GenerateAnswer(ctx context.Context, questionText string, maxAttempts int) (domain.AnswerItem, error) {
	prompt, err := provider.AnswerPrompt(questionText)
	if err != nil {
		return domain.AnswerItem{}, err
	}

	var content string
	backoff := retry.WithMaxRetries(provider.AttemptBudget(maxAttempts), provider.NewLinearBackoff(p.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := p.complete(ctx, prompt, answerTemperature)
		if err != nil {
			return retry.RetryableError(err)
		}
		content = strings.TrimSpace(raw)
		if content == "" {
			return retry.RetryableError(provider.ErrEmptyCompletion)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.AnswerItem{}, ctx.Err()
		}
		p.logger.WarnContext(ctx, "answer generation attempts exhausted",
			"question", questionText,
			"model", p.model,
			"error", err)
		return domain.NewFallbackAnswer(questionText), nil
	}

	return domain.AnswerItem{Question: questionText, Content: content}, nil
}

// complete runs one Messages call and returns the concatenated text blocks
// of the response.
func (p *Provider) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	resp, err := p.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: maxOutputTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
		Temperature: sdk.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(sdk.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String(), nil
}
