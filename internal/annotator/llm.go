package annotator

import (
	"context"
	"fmt"
	"strings"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ── Prompts ──

const classifyPrompt = `You are a financial news sentiment classifier.
Classify the overall sentiment of the article toward the company it is about.
Reply with a JSON object: {"sentiment": "positive" | "negative" | "neutral"}.
Use "neutral" when the article is factual or mixed.`

const summarizePrompt = `You are a financial news editor.
Summarize the article in plain prose between %d and %d words.
Do not add facts that are not in the article.
Reply with a JSON object: {"summary": "..."}.`

const topicsPrompt = `You extract key topics from financial news.
Return at most %d short topic phrases (one or two words each, lowercase),
most relevant first. Do not include the company name unless it is the only topic.
Reply with a JSON object: {"topics": ["...", "..."]}.`

// LLMModels implements all three capabilities on a chat model in JSON mode.
type LLMModels struct {
	provider llm.LLMProvider
	opts     llm.ChatOptions
	labels   sentiment.LabelMapper
}

// NewLLMModels wraps provider. Temperature and MaxTokens come from opts;
// JSON mode is always on.
func NewLLMModels(provider llm.LLMProvider, opts llm.ChatOptions) *LLMModels {
	opts.JSONMode = true
	return &LLMModels{provider: provider, opts: opts, labels: sentiment.Verbal}
}

func (m *LLMModels) ask(ctx context.Context, system, text string, v any) error {
	opts := m.opts
	resp, err := m.provider.Chat(ctx, []llm.Message{
		llm.SystemMessage(system),
		llm.UserMessage(text),
	}, &opts)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(resp.Content, v)
}

// Classify implements Classifier.
func (m *LLMModels) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	var out struct {
		Sentiment string `json:"sentiment"`
	}
	if err := m.ask(ctx, classifyPrompt, text, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Sentiment) == "" {
		return "", fmt.Errorf("llm: reply has no sentiment")
	}
	return m.labels.Map(out.Sentiment), nil
}

// Summarize implements Summarizer.
func (m *LLMModels) Summarize(ctx context.Context, text string, length LengthRange) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := m.ask(ctx, fmt.Sprintf(summarizePrompt, length.Min, length.Max), text, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fmt.Errorf("llm: reply has no summary")
	}
	return out.Summary, nil
}

// ExtractTopics implements TopicExtractor.
func (m *LLMModels) ExtractTopics(ctx context.Context, text string, max int) ([]string, error) {
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := m.ask(ctx, fmt.Sprintf(topicsPrompt, max), text, &out); err != nil {
		return nil, err
	}
	if len(out.Topics) > max {
		out.Topics = out.Topics[:max]
	}
	return out.Topics, nil
}
