package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/internal/domain"
	"github.com/quarryhq/quarry/internal/platform/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegion() domain.Region {
	return domain.Region{Name: "安徽", Pinyin: "anhui", Description: "华东内陆省份"}
}

// completerFunc adapts a function to the chatCompleter interface.
type completerFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

func (f completerFunc) New(ctx context.Context, params openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	return f(ctx, params)
}

func textCompletion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func fastProvider(name string, chat chatCompleter) *Provider {
	return newWithCompleter(chat, Config{Name: name, RetryBase: time.Millisecond}, testLogger())
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "k"}, nil)
	assert.Error(t, err)

	_, err = New(Config{}, testLogger())
	assert.ErrorIs(t, err, provider.ErrInvalidConfig)

	_, err = New(Config{Name: "gemini", APIKey: "k"}, testLogger())
	assert.ErrorIs(t, err, provider.ErrInvalidConfig)
}

func TestDefaultsPerName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfgName   string
		wantName  string
		wantModel string
	}{
		{name: "empty name means openai", cfgName: "", wantName: provider.NameOpenAI, wantModel: DefaultOpenAIModel},
		{name: "openai", cfgName: provider.NameOpenAI, wantName: provider.NameOpenAI, wantModel: DefaultOpenAIModel},
		{name: "deepseek", cfgName: provider.NameDeepSeek, wantName: provider.NameDeepSeek, wantModel: DefaultDeepSeekModel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := newWithCompleter(completerFunc(nil), Config{Name: tc.cfgName}, testLogger())
			assert.Equal(t, tc.wantName, p.Name())
			assert.Equal(t, tc.wantModel, p.model)
			assert.Equal(t, defaultRetryBase, p.retryBase)
		})
	}
}

func TestGenerateQuestionsParsesCompletion(t *testing.T) {
	t.Parallel()

	var gotParams openai.ChatCompletionNewParams
	chat := completerFunc(func(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		gotParams = params
		return textCompletion("```json\n[\"安徽的省会是哪座城市？\", \"黄山位于安徽哪个方位？\"]\n```"), nil
	})
	p := fastProvider(provider.NameDeepSeek, chat)

	questions, err := p.GenerateQuestions(context.Background(), testRegion(), 5, 3)
	require.NoError(t, err)

	require.Len(t, questions, 2)
	assert.Equal(t, "安徽的省会是哪座城市？", questions[0].Text)
	assert.False(t, questions[0].Answered)

	assert.Equal(t, DefaultDeepSeekModel, string(gotParams.Model))
	assert.InDelta(t, questionTemperature, gotParams.Temperature.Or(0), 1e-9)
	require.Len(t, gotParams.Messages, 1)
	require.NotNil(t, gotParams.Messages[0].OfUser)
	assert.Contains(t, gotParams.Messages[0].OfUser.Content.OfString.Or(""), "安徽")
}

func TestGenerateQuestionsRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("upstream 503")
		}
		return textCompletion(`["徽菜有哪些代表菜？"]`), nil
	})
	p := fastProvider(provider.NameOpenAI, chat)

	questions, err := p.GenerateQuestions(context.Background(), testRegion(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Equal(t, 2, calls)
}

func TestGenerateQuestionsExhaustionYieldsEmptyBatch(t *testing.T) {
	t.Parallel()

	calls := 0
	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		calls++
		return nil, errors.New("upstream down")
	})
	p := fastProvider(provider.NameOpenAI, chat)

	questions, err := p.GenerateQuestions(context.Background(), testRegion(), 3, 2)
	require.NoError(t, err)
	assert.NotNil(t, questions)
	assert.Empty(t, questions)
	assert.Equal(t, 2, calls)
}

func TestGenerateQuestionsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		return textCompletion(`["q"]`), nil
	})
	p := fastProvider(provider.NameOpenAI, chat)

	questions, err := p.GenerateQuestions(ctx, testRegion(), 3, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, questions)
}

func TestGenerateAnswerExtractsReasoningContent(t *testing.T) {
	t.Parallel()

	// Decoded from wire JSON so the non-standard field lands in the raw
	// extra fields exactly as it does on a live response.
	raw := `{
		"id": "cc-1",
		"object": "chat.completion",
		"choices": [
			{
				"index": 0,
				"finish_reason": "stop",
				"message": {
					"role": "assistant",
					"content": "  黄山位于安徽省南部。  ",
					"reasoning_content": "用户想知道黄山的位置，属于地理常识。"
				}
			}
		]
	}`
	var completion openai.ChatCompletion
	require.NoError(t, json.Unmarshal([]byte(raw), &completion))

	var gotParams openai.ChatCompletionNewParams
	chat := completerFunc(func(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		gotParams = params
		return &completion, nil
	})
	p := fastProvider(provider.NameDeepSeek, chat)

	item, err := p.GenerateAnswer(context.Background(), "黄山在哪里？", 3)
	require.NoError(t, err)

	assert.Equal(t, "黄山在哪里？", item.Question)
	assert.Equal(t, "黄山位于安徽省南部。", item.Content)
	assert.Equal(t, "用户想知道黄山的位置，属于地理常识。", item.ReasoningContent)
	assert.False(t, item.IsFallback())
	assert.InDelta(t, answerTemperature, gotParams.Temperature.Or(0), 1e-9)
}

func TestGenerateAnswerWithoutReasoningChannel(t *testing.T) {
	t.Parallel()

	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		return textCompletion("黄山位于安徽省南部。"), nil
	})
	p := fastProvider(provider.NameOpenAI, chat)

	item, err := p.GenerateAnswer(context.Background(), "黄山在哪里？", 3)
	require.NoError(t, err)
	assert.Equal(t, "黄山位于安徽省南部。", item.Content)
	assert.Empty(t, item.ReasoningContent)
}

func TestGenerateAnswerRetriesEmptyCompletion(t *testing.T) {
	t.Parallel()

	calls := 0
	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		calls++
		if calls == 1 {
			return textCompletion("   "), nil
		}
		return textCompletion("答案。"), nil
	})
	p := fastProvider(provider.NameOpenAI, chat)

	item, err := p.GenerateAnswer(context.Background(), "问题？", 3)
	require.NoError(t, err)
	assert.Equal(t, "答案。", item.Content)
	assert.Equal(t, 2, calls)
}

func TestGenerateAnswerExhaustionYieldsFallback(t *testing.T) {
	t.Parallel()

	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		return nil, errors.New("upstream down")
	})
	p := fastProvider(provider.NameDeepSeek, chat)

	item, err := p.GenerateAnswer(context.Background(), "问题？", 2)
	require.NoError(t, err)
	assert.True(t, item.IsFallback())
	assert.Equal(t, "问题？", item.Question)
}

func TestGenerateAnswerEmptyChoices(t *testing.T) {
	t.Parallel()

	chat := completerFunc(func(context.Context, openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		return &openai.ChatCompletion{}, nil
	})
	p := fastProvider(provider.NameOpenAI, chat)

	item, err := p.GenerateAnswer(context.Background(), "问题？", 1)
	require.NoError(t, err)
	assert.True(t, item.IsFallback())
}

func TestReasoningContentAbsentOnConstructedMessage(t *testing.T) {
	t.Parallel()

	msg := openai.ChatCompletionMessage{Content: "plain"}
	assert.Empty(t, reasoningContent(msg))
}
