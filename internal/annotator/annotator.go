// Package annotator turns one article into a sentiment label, a short summary
// and a handful of topic phrases. The three capabilities are pluggable so that
// offline lexicon models, the Hugging Face Inference API and chat LLMs can be
// mixed behind the same Annotator.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// DefaultMaxTopics is the number of topic phrases kept per article.
const DefaultMaxTopics = 3

// ErrModelInvocation wraps every classifier, summarizer or topic extractor failure.
var ErrModelInvocation = errors.New("model invocation failed")

// Classifier assigns a polarity to text.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Sentiment, error)
}

// Summarizer produces a summary whose word count falls within length.
type Summarizer interface {
	Summarize(ctx context.Context, text string, length LengthRange) (string, error)
}

// TopicExtractor returns up to max topic phrases ordered by relevance.
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string, max int) ([]string, error)
}

// LengthRange bounds a summary in words.
type LengthRange struct {
	Min int
	Max int
}

// TargetLength returns the summary bounds for text: half its word count,
// clamped to [20, 60], with a floor of 20.
func TargetLength(text string) LengthRange {
	return LengthRange{
		Min: 20,
		Max: utils.Clamp(utils.WordCount(text)/2, 20, 60),
	}
}

// Annotator runs the three capabilities over each article.
type Annotator struct {
	classifier  Classifier
	summarizer  Summarizer
	topics      TopicExtractor
	maxTopics   int
	concurrency int
	limiter     *rate.Limiter
	log         logrus.FieldLogger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithMaxTopics caps topics per article.
func WithMaxTopics(n int) Option {
	return func(a *Annotator) { a.maxTopics = n }
}

// WithConcurrency bounds how many articles are annotated at once.
func WithConcurrency(n int) Option {
	return func(a *Annotator) { a.concurrency = n }
}

// WithLimiter throttles model calls. Each article costs three tokens.
func WithLimiter(l *rate.Limiter) Option {
	return func(a *Annotator) { a.limiter = l }
}

// WithLogger sets the logger used for skipped-article warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Annotator) { a.log = l }
}

// New builds an Annotator from its three capabilities.
func New(c Classifier, s Summarizer, t TopicExtractor, opts ...Option) *Annotator {
	a := &Annotator{
		classifier:  c,
		summarizer:  s,
		topics:      t,
		maxTopics:   DefaultMaxTopics,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxTopics <= 0 {
		a.maxTopics = DefaultMaxTopics
	}
	if a.concurrency <= 0 {
		a.concurrency = 1
	}
	a.log = logger.OrDiscard(a.log)
	return a
}

// Annotate classifies, summarizes and extracts topics for one record.
// Model failures wrap ErrModelInvocation; context errors are returned as is.
func (a *Annotator) Annotate(ctx context.Context, rec models.ArticleRecord) (models.ArticleAnnotation, error) {
	text := rec.Text()
	out := models.ArticleAnnotation{Title: rec.Title, URL: rec.URL}

	if err := infra.Wait(ctx, a.limiter); err != nil {
		return out, err
	}
	label, err := a.classifier.Classify(ctx, text)
	if err != nil {
		return out, invocationError(ctx, "classify", err)
	}
	if !label.Valid() {
		label = models.Neutral
	}
	out.Sentiment = label

	if err := infra.Wait(ctx, a.limiter); err != nil {
		return out, err
	}
	summary, err := a.summarizer.Summarize(ctx, text, TargetLength(text))
	if err != nil {
		return out, invocationError(ctx, "summarize", err)
	}
	out.Summary = strings.TrimSpace(summary)
	if out.Summary == "" {
		out.Summary = rec.Summary
	}

	if err := infra.Wait(ctx, a.limiter); err != nil {
		return out, err
	}
	topics, err := a.topics.ExtractTopics(ctx, text, a.maxTopics)
	if err != nil {
		return out, invocationError(ctx, "topics", err)
	}
	out.Topics = normalizeTopics(topics, a.maxTopics)

	return out, nil
}

// Batch is the outcome of annotating a list of records.
type Batch struct {
	Annotations []models.ArticleAnnotation
	Skipped     int
	Errors      []error
}

// AnnotateAll annotates records concurrently and returns the successes in
// input order. An article whose model call fails is skipped and counted; a
// deadline, including a limiter that cannot admit the call in time, fails
// the whole batch.
func (a *Annotator) AnnotateAll(ctx context.Context, records []models.ArticleRecord) (Batch, error) {
	results := make([]*models.ArticleAnnotation, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, rec := range records {
		g.Go(func() error {
			ann, err := a.Annotate(gctx, rec)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// limiter refusals and deadlines are not per-article failures
				if !errors.Is(err, ErrModelInvocation) {
					return err
				}
				errs[i] = err
				a.log.WithError(err).WithField("title", rec.Title).Warn("skipping article")
				return nil
			}
			results[i] = &ann
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Batch{}, err
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	batch := Batch{Annotations: make([]models.ArticleAnnotation, 0, len(records))}
	for i, r := range results {
		if r == nil {
			batch.Skipped++
			batch.Errors = append(batch.Errors, errs[i])
			continue
		}
		batch.Annotations = append(batch.Annotations, *r)
	}
	return batch, nil
}

func invocationError(ctx context.Context, stage string, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %w", ErrModelInvocation, stage, err)
}

// normalizeTopics trims, drops empties and case-insensitive duplicates, and caps at max.
func normalizeTopics(topics []string, max int) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, max)
	for _, t := range topics {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}
