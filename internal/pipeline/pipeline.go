// Package pipeline runs one company analysis end to end:
// fetch -> annotate -> aggregate -> verdict -> narrate -> store.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/annotator"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/logger"
	"github.com/seenimoa/newspulse/internal/narration"
	"github.com/seenimoa/newspulse/internal/store"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ErrEmptyCompany is returned for a blank company name.
var ErrEmptyCompany = datasource.ErrEmptyCompany

// Annotator annotates a batch of records.
type Annotator interface {
	AnnotateAll(ctx context.Context, records []models.ArticleRecord) (annotator.Batch, error)
}

// Narrator speaks a verdict.
type Narrator interface {
	Narrate(ctx context.Context, text string) (narration.Narration, error)
}

// AudioPath is the API path serving the audio artifact of report id.
func AudioPath(id string) string {
	return "/api/v1/reports/" + id + "/audio"
}

// Pipeline wires the stages together. Narrator, artifact store, report store
// and observer are optional.
type Pipeline struct {
	fetcher   datasource.Fetcher
	annotator Annotator
	narrator  Narrator
	artifacts store.ArtifactStore
	reports   store.ReportStore
	observer  Observer
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNarrator enables narration; audio is kept in artifacts.
func WithNarrator(n Narrator, artifacts store.ArtifactStore) Option {
	return func(p *Pipeline) {
		p.narrator = n
		p.artifacts = artifacts
	}
}

// WithReports stores every finished report.
func WithReports(r store.ReportStore) Option {
	return func(p *Pipeline) { p.reports = r }
}

// WithObserver receives progress events.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithClock overrides time.Now and the report ID generator.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
		if newID != nil {
			p.newID = newID
		}
	}
}

// New creates a pipeline.
func New(f datasource.Fetcher, a Annotator, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:   f,
		annotator: a,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.OrDiscard(p.log)
	return p
}

// Reports returns the report store, or nil.
func (p *Pipeline) Reports() store.ReportStore { return p.reports }

// Artifacts returns the audio store, or nil.
func (p *Pipeline) Artifacts() store.ArtifactStore { return p.artifacts }

// Run analyses company. Source and model failures degrade the report; a
// context deadline or cancellation at any stage fails the run.
func (p *Pipeline) Run(ctx context.Context, company string) (*models.Report, error) {
	company = datasource.NormalizeCompany(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}

	id := p.newID()
	log := p.log.WithFields(logrus.Fields{"company": company, "report_id": id})
	started := p.now()
	p.emit(Event{Type: EventStarted, Company: company, ReportID: id, Stage: StageFetch})

	// Fetch
	records, err := p.fetcher.Fetch(ctx, company)
	if ctx.Err() != nil {
		return p.fail(log, company, id, StageFetch, ctx.Err())
	}
	if datasource.IsContext(err) {
		return p.fail(log, company, id, StageFetch, err)
	}
	if err != nil {
		log.WithError(err).WithField("source", p.fetcher.Name()).Warn("fetch failed, continuing with no articles")
		records = nil
	}
	p.emit(Event{Type: EventFetched, Company: company, ReportID: id, Stage: StageFetch, Data: map[string]int{"articles": len(records)}})

	if len(records) == 0 {
		return p.finish(ctx, log, p.emptyReport(id, company, 0), started)
	}

	// Annotate
	batch, err := p.annotator.AnnotateAll(ctx, records)
	if err != nil {
		return p.fail(log, company, id, StageAnnotate, err)
	}
	if batch.Skipped > 0 {
		log.WithField("skipped", batch.Skipped).Warn("some articles could not be annotated")
	}
	p.emit(Event{Type: EventAnnotated, Company: company, ReportID: id, Stage: StageAnnotate,
		Data: map[string]int{"annotated": len(batch.Annotations), "skipped": batch.Skipped}})

	if len(batch.Annotations) == 0 {
		return p.finish(ctx, log, p.emptyReport(id, company, batch.Skipped), started)
	}

	// Aggregate
	comparative := sentiment.Aggregate(batch.Annotations)
	report := &models.Report{
		ID:           id,
		Company:      company,
		Articles:     batch.Annotations,
		Comparative:  comparative,
		FinalVerdict: sentiment.SelectVerdict(company, comparative.Distribution),
		Skipped:      batch.Skipped,
		GeneratedAt:  p.now(),
	}

	// Narrate
	if p.narrator != nil && p.artifacts != nil {
		if err := p.narrate(ctx, log, report); err != nil {
			return p.fail(log, company, id, StageNarrate, err)
		}
	}

	return p.finish(ctx, log, report, started)
}

// narrate attaches audio to report. Only context errors are returned; other
// failures leave the report without audio.
func (p *Pipeline) narrate(ctx context.Context, log logrus.FieldLogger, report *models.Report) error {
	n, err := p.narrator.Narrate(ctx, report.FinalVerdict)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		log.WithError(err).Warn("narration failed, report has no audio")
		return nil
	}
	if err := p.artifacts.Put(ctx, report.ID, n.Audio); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("storing audio failed, report has no audio")
		return nil
	}
	report.Audio = AudioPath(report.ID)
	p.emit(Event{Type: EventNarrated, Company: report.Company, ReportID: report.ID, Stage: StageNarrate,
		Data: map[string]any{"lang": n.Lang, "bytes": len(n.Audio)}})
	return nil
}

func (p *Pipeline) emptyReport(id, company string, skipped int) *models.Report {
	return &models.Report{
		ID:           id,
		Company:      company,
		Articles:     []models.ArticleAnnotation{},
		Comparative:  models.EmptyComparative(),
		FinalVerdict: sentiment.NoArticlesVerdict,
		Skipped:      skipped,
		GeneratedAt:  p.now(),
	}
}

func (p *Pipeline) finish(ctx context.Context, log logrus.FieldLogger, report *models.Report, started time.Time) (*models.Report, error) {
	if p.reports != nil {
		if err := p.reports.Save(ctx, report); err != nil {
			if ctx.Err() != nil {
				return p.fail(log, report.Company, report.ID, StageStore, ctx.Err())
			}
			log.WithError(err).Warn("saving report failed")
		}
	}

	log.WithFields(logrus.Fields{
		"articles": len(report.Articles),
		"skipped":  report.Skipped,
		"audio":    report.HasAudio(),
		"elapsed":  p.now().Sub(started).Round(time.Millisecond),
	}).Info("analysis complete")
	p.emit(Event{Type: EventComplete, Company: report.Company, ReportID: report.ID, Stage: StageDone, Data: report.Summary()})
	return report, nil
}

func (p *Pipeline) fail(log logrus.FieldLogger, company, id, stage string, err error) (*models.Report, error) {
	log.WithError(err).WithField("stage", stage).Error("analysis failed")
	p.emit(Event{Type: EventFailed, Company: company, ReportID: id, Stage: stage, Data: map[string]string{"error": err.Error()}})
	return nil, err
}

func (p *Pipeline) emit(e Event) {
	if p.observer == nil {
		return
	}
	e.Timestamp = p.now()
	p.observer.OnEvent(e)
}
