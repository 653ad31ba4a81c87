package annotator

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/llm"
)

// Backend names accepted in annotator.backend.
const (
	BackendLexicon     = "lexicon"
	BackendHuggingFace = "huggingface"
	BackendLLM         = "llm"
)

// FromConfig builds the Annotator selected by cfg.Annotator.Backend.
// The llm backend builds a router from cfg.LLM.
func FromConfig(cfg *config.Config, log logrus.FieldLogger) (*Annotator, error) {
	ac := cfg.Annotator
	opts := []Option{
		WithMaxTopics(ac.MaxTopics),
		WithConcurrency(ac.Concurrency),
		WithLogger(log),
	}
	topics := KeywordExtractor{MaxWords: 2}

	backend := strings.ToLower(ac.Backend)
	if backend == BackendHuggingFace || backend == BackendLLM {
		// three model calls per article; the lexicon backend runs in-process
		opts = append(opts, WithLimiter(infra.NewLimiter(ac.RequestsPerMinute, 3)))
	}

	switch backend {
	case "", BackendLexicon:
		return New(NewLexiconClassifier(DefaultLexiconThreshold), ExtractiveSummarizer{}, topics, opts...), nil

	case BackendHuggingFace:
		client := NewHFClient(ac.HFURL, ac.HFToken, nil)
		return New(
			NewHFClassifier(client, ac.HFSentimentModel, sentiment.MapperFor(ac.LabelScheme)),
			NewHFSummarizer(client, ac.HFSummaryModel),
			topics,
			opts...,
		), nil

	case BackendLLM:
		router, err := llm.NewRouterFromConfig(cfg.LLM, log)
		if err != nil {
			return nil, fmt.Errorf("annotator: llm backend: %w", err)
		}
		m := NewLLMModels(router, llm.ChatOptions{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		return New(m, m, m, opts...), nil
	}
	return nil, fmt.Errorf("annotator: unknown backend %q", ac.Backend)
}
