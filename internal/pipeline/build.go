package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/annotator"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/narration"
	"github.com/seenimoa/newspulse/internal/store"
)

// Build assembles a pipeline from configuration. The returned close function
// releases store connections.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, opts ...Option) (*Pipeline, func() error, error) {
	fetcher, err := datasource.New(cfg.Fetch)
	if err != nil {
		return nil, nil, fmt.Errorf("fetcher: %w", err)
	}
	ann, err := annotator.FromConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	reports, err := store.NewReportStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	artifacts, err := store.NewArtifactStore(ctx, cfg.Storage)
	if err != nil {
		store.CloseAll(reports)
		return nil, nil, err
	}

	all := []Option{WithLogger(log), WithReports(reports)}
	if cfg.Narration.Enabled {
		all = append(all, WithNarrator(narration.FromConfig(cfg.Narration, log), artifacts))
	} else {
		// Audio lookups still go through the store; it just stays empty.
		all = append(all, func(p *Pipeline) { p.artifacts = artifacts })
	}
	all = append(all, opts...)

	closeFn := func() error { return store.CloseAll(reports, artifacts) }
	return New(fetcher, ann, all...), closeFn, nil
}
