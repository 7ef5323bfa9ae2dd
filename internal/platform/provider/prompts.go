package provider

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/quarryhq/quarry/internal/domain"
)

// questionTemplateText asks for a batch of distinct questions about one
// region and pins the output to a JSON array so it survives ParseQuestionTexts.
const questionTemplateText = `你是一位熟悉中国各地人文地理的出题专家。请围绕{{.Name}}{{if .Pinyin}}（{{.Pinyin}}）{{end}}生成{{.BatchSize}}个不同的中文问题。
{{- if .Description}}

地区背景：{{.Description}}
{{- end}}

要求：
1. 问题覆盖历史、地理、文化、美食、民俗、旅游、经济等多个方面；
2. 每个问题都必须明确提到"{{.Name}}"，脱离上下文也能独立回答；
3. 问题之间不得重复，也不要只换说法问同一件事；
4. 只输出一个JSON数组，格式为 [{"question": "问题内容"}]，不要输出数组以外的任何文字。`

// answerTemplateText asks for a plain-text answer to one question.
const answerTemplateText = `你是一位熟悉中国各地人文地理的专家。请用中文回答下面的问题，内容准确、具体，控制在300字以内。

问题：{{.Question}}

直接给出答案正文，不要重复问题，不要使用Markdown标记。`

var (
	questionTmpl = template.Must(template.New("region_questions").Parse(questionTemplateText))
	answerTmpl   = template.Must(template.New("region_answer").Parse(answerTemplateText))
)

type questionPromptData struct {
	Name        string
	Pinyin      string
	Description string
	BatchSize   int
}

type answerPromptData struct {
	Question string
}

// QuestionPrompt renders the question-generation prompt for one region
// batch. The region must carry a name and batchSize must be positive.
func QuestionPrompt(region domain.Region, batchSize int) (string, error) {
	if err := region.Validate(); err != nil {
		return "", err
	}
	if batchSize <= 0 {
		return "", fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	data := questionPromptData{
		Name:        region.Name,
		Pinyin:      region.Pinyin,
		Description: region.Description,
		BatchSize:   batchSize,
	}

	var buf bytes.Buffer
	if err := questionTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute question prompt template: %w", err)
	}
	return buf.String(), nil
}

// AnswerPrompt renders the answer-generation prompt for one question.
func AnswerPrompt(questionText string) (string, error) {
	if strings.TrimSpace(questionText) == "" {
		return "", domain.ErrEmptyQuestionText
	}

	var buf bytes.Buffer
	if err := answerTmpl.Execute(&buf, answerPromptData{Question: questionText}); err != nil {
		return "", fmt.Errorf("execute answer prompt template: %w", err)
	}
	return buf.String(), nil
}
