package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/platform/provider"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gemini-2.0-flash"

const defaultRetryBase = time.Second

// contentGenerator is the slice of the genai SDK this provider calls,
// extracted so tests can substitute a stub for the real API client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config carries the settings needed to construct a Provider.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string
	// Model overrides DefaultModel when non-empty.
	Model string
	// RetryBase is the base delay of the linear retry backoff.
	RetryBase time.Duration
}

// Provider generates questions and answers through Google's Gemini API.
type Provider struct {
	models    contentGenerator
	model     string
	retryBase time.Duration
	logger    *slog.Logger
}

// New creates a Provider backed by a real Gemini client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", provider.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", provider.ErrInvalidConfig, err)
	}

	return newWithGenerator(client.Models, cfg, logger), nil
}

func newWithGenerator(models contentGenerator, cfg Config, logger *slog.Logger) *Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &Provider{
		models:    models,
		model:     model,
		retryBase: retryBase,
		logger:    logger.With("component", "gemini_provider"),
	}
}

// Name identifies this implementation.
func (p *Provider) Name() string {
	return provider.NameGemini
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
		raw, err := p.complete(ctx, prompt, questionConfig())
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
		raw, err := p.complete(ctx, prompt, answerConfig())
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

// complete runs one generation call and returns the concatenated text of
// the response.
func (p *Provider) complete(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

// questionConfig favors diversity across candidates in a batch.
func questionConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.9),
	}
}

// answerConfig favors factual, reproducible answers.
func answerConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	}
}
