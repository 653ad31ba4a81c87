package annotator

import (
	"context"
	"strings"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// DefaultLexiconThreshold is the neutral band around zero for lexicon scores.
const DefaultLexiconThreshold = 0.1

// LexiconClassifier scores text against the financial word lists offline.
type LexiconClassifier struct {
	Mapper sentiment.ThresholdMapper
}

// NewLexiconClassifier returns a classifier with the given neutral band.
func NewLexiconClassifier(threshold float64) *LexiconClassifier {
	return &LexiconClassifier{Mapper: sentiment.ThresholdMapper{Threshold: threshold}}
}

// Classify implements Classifier.
func (c *LexiconClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.Mapper.MapScore(sentiment.ScoreText(text).Value), nil
}

// ExtractiveSummarizer builds a summary from the leading sentences of the text.
type ExtractiveSummarizer struct{}

// Summarize implements Summarizer. Whole sentences are taken while they fit
// length.Max; if that leaves fewer than length.Min words, the next sentence is
// cut to fill the gap. Text within length.Max is returned whole.
func (ExtractiveSummarizer) Summarize(ctx context.Context, text string, length LengthRange) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if utils.WordCount(text) <= length.Max {
		return strings.Join(strings.Fields(text), " "), nil
	}

	var parts []string
	words := 0
	for _, s := range utils.SplitSentences(text) {
		n := utils.WordCount(s)
		if words+n <= length.Max {
			parts = append(parts, s)
			words += n
			continue
		}
		if words < length.Min {
			parts = append(parts, utils.TruncateWords(s, length.Max-words))
		}
		break
	}
	return strings.Join(parts, " "), nil
}
