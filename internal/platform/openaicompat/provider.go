package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sethvargo/go-retry"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/platform/provider"
)

// Default models, chosen per provider name when the configuration does not
// name one.
const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultDeepSeekModel = "deepseek-chat"
)

// DefaultDeepSeekBaseURL is the endpoint used for the deepseek provider
// name when the configuration does not override it.
const DefaultDeepSeekBaseURL = "https://api.deepseek.com"

const defaultRetryBase = time.Second

// questionTemperature favors diversity across candidates in a batch.
const questionTemperature = 0.9

// answerTemperature favors factual, reproducible answers.
const answerTemperature = 0.4

// chatCompleter is the slice of the openai SDK this provider calls,
// extracted so tests can substitute a stub for the real API client.
type chatCompleter interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Config carries the settings needed to construct a Provider.
type Config struct {
	// Name selects which identity this provider reports and which
	// defaults apply: provider.NameOpenAI or provider.NameDeepSeek.
	// Empty means OpenAI.
	Name string
	// APIKey authenticates against the endpoint. Required.
	APIKey string
	// BaseURL overrides the endpoint, for DeepSeek or a local gateway
	// speaking the same protocol.
	BaseURL string
	// Model overrides the per-name default when non-empty.
	Model string
	// RetryBase is the base delay of the linear retry backoff.
	RetryBase time.Duration
}

// Provider generates questions and answers through any endpoint that
// speaks the OpenAI chat completion protocol.
type Provider struct {
	chat      chatCompleter
	name      string
	model     string
	retryBase time.Duration
	logger    *slog.Logger
}

// New creates a Provider backed by a real chat completion client.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	name, err := resolveName(cfg.Name)
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key cannot be empty", provider.ErrInvalidConfig, name)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	baseURL := cfg.BaseURL
	if baseURL == "" && name == provider.NameDeepSeek {
		baseURL = DefaultDeepSeekBaseURL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return newWithCompleter(&client.Chat.Completions, cfg, logger), nil
}

func newWithCompleter(chat chatCompleter, cfg Config, logger *slog.Logger) *Provider {
	name := cfg.Name
	if name == "" {
		name = provider.NameOpenAI
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel(name)
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &Provider{
		chat:      chat,
		name:      name,
		model:     model,
		retryBase: retryBase,
		logger:    logger.With("component", "openaicompat_provider", "provider", name),
	}
}

func resolveName(name string) (string, error) {
	switch name {
	case "", provider.NameOpenAI:
		return provider.NameOpenAI, nil
	case provider.NameDeepSeek:
		return provider.NameDeepSeek, nil
	default:
		return "", fmt.Errorf("%w: %q is not an OpenAI-compatible provider name", provider.ErrInvalidConfig, name)
	}
}

func defaultModel(name string) string {
	if name == provider.NameDeepSeek {
		return DefaultDeepSeekModel
	}
	return DefaultOpenAIModel
}

// Name identifies the configured endpoint family.
func (p *Provider) Name() string {
	return p.name
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
		msg, err := p.complete(ctx, prompt, questionTemperature)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed, err := provider.ParseQuestionTexts(msg.Content)
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
// fallback answer, not an error. Reasoner models that emit a
// reasoning_content field have it preserved alongside the answer.
func (p *Provider) GenerateAnswer(ctx context.Context, questionText string, maxAttempts int) (domain.AnswerItem, error) {
	prompt, err := provider.AnswerPrompt(questionText)
	if err != nil {
		return domain.AnswerItem{}, err
	}

	var content, reasoning string
	backoff := retry.WithMaxRetries(provider.AttemptBudget(maxAttempts), provider.NewLinearBackoff(p.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		msg, err := p.complete(ctx, prompt, answerTemperature)
		if err != nil {
			return retry.RetryableError(err)
		}
		content = strings.TrimSpace(msg.Content)
		if content == "" {
			return retry.RetryableError(provider.ErrEmptyCompletion)
		}
		reasoning = reasoningContent(msg)
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

	return domain.AnswerItem{
		Question:         questionText,
		Content:          content,
		ReasoningContent: reasoning,
	}, nil
}

// complete runs one chat completion call and returns the assistant message
// of the first choice.
func (p *Provider) complete(ctx context.Context, prompt string, temperature float64) (openai.ChatCompletionMessage, error) {
	resp, err := p.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, provider.ErrEmptyCompletion
	}
	return resp.Choices[0].Message, nil
}

// reasoningContent extracts the chain-of-thought text DeepSeek reasoner
// models attach to the message. The field is not part of the OpenAI
// schema, so it only exists in the raw JSON captured during decoding.
func reasoningContent(msg openai.ChatCompletionMessage) string {
	field, ok := msg.JSON.ExtraFields["reasoning_content"]
	if !ok || !field.Valid() {
		return ""
	}
	var reasoning string
	if err := json.Unmarshal([]byte(field.Raw()), &reasoning); err != nil {
		return ""
	}
	return strings.TrimSpace(reasoning)
}
