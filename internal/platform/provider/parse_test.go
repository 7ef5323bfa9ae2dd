package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArray(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{
			name: "bare array",
			raw:  `[{"question": "a"}]`,
			want: `[{"question": "a"}]`,
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n[1, 2, 3]\n```",
			want: "[1, 2, 3]",
		},
		{
			name: "fenced without language tag",
			raw:  "```\n[1]\n```",
			want: "[1]",
		},
		{
			name: "prose around the array",
			raw:  "好的，以下是生成的问题：\n[\"q1\", \"q2\"]\n希望对你有帮助。",
			want: `["q1", "q2"]`,
		},
		{
			name:    "no array at all",
			raw:     `{"question": "a"}`,
			wantErr: ErrNoJSONArray,
		},
		{
			name:    "empty output",
			raw:     "   ",
			wantErr: ErrNoJSONArray,
		},
		{
			name:    "closing bracket before opening",
			raw:     "] oops [",
			wantErr: ErrNoJSONArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractJSONArray(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestionTexts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr error
	}{
		{
			name: "object array",
			raw:  `[{"question": "安徽的省会是哪里？"}, {"question": "黄山在安徽的哪个市？"}]`,
			want: []string{"安徽的省会是哪里？", "黄山在安徽的哪个市？"},
		},
		{
			name: "string array",
			raw:  `["安徽有哪些著名小吃？", "徽商兴起于什么朝代？"]`,
			want: []string{"安徽有哪些著名小吃？", "徽商兴起于什么朝代？"},
		},
		{
			name: "fenced object array",
			raw:  "```json\n[{\"question\": \"淮河流经安徽哪些城市？\"}]\n```",
			want: []string{"淮河流经安徽哪些城市？"},
		},
		{
			name: "blank entries dropped and texts trimmed",
			raw:  `[{"question": "  宏村在哪里？  "}, {"question": ""}, {"question": "   "}]`,
			want: []string{"宏村在哪里？"},
		},
		{
			name:    "empty array",
			raw:     `[]`,
			wantErr: ErrNoQuestions,
		},
		{
			name:    "all entries blank",
			raw:     `[{"question": ""}]`,
			wantErr: ErrNoQuestions,
		},
		{
			name:    "no array",
			raw:     "抱歉，我无法生成问题。",
			wantErr: ErrNoJSONArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseQuestionTexts(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestionTextsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseQuestionTexts(`[{"question": "unterminated]`)
	assert.ErrorContains(t, err, "decode question array")
}
