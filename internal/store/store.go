// Package store persists generated reports and their audio artifacts.
// In-memory implementations serve single-process deployments; Redis holds
// audio for multi-instance setups and Postgres keeps report history.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ErrNotFound is returned when an id or the latest slot has nothing stored.
var ErrNotFound = errors.New("not found")

// ArtifactStore holds narration audio keyed by report ID and remembers the
// most recent write.
type ArtifactStore interface {
	Put(ctx context.Context, id string, audio []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Latest(ctx context.Context) (string, []byte, error)
}

// ReportStore holds generated reports.
type ReportStore interface {
	Save(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, id string) (*models.Report, error)
	// List returns summaries newest first. An empty company matches all.
	List(ctx context.Context, company string, limit int) ([]models.ReportSummary, error)
}

// Backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Closer is implemented by stores that hold connections.
type Closer interface {
	Close() error
}

// NewArtifactStore builds the audio store selected by cfg.AudioBackend.
func NewArtifactStore(ctx context.Context, cfg config.StorageConfig) (ArtifactStore, error) {
	ttl := time.Duration(cfg.AudioTTL) * time.Second
	switch strings.ToLower(cfg.AudioBackend) {
	case "", BackendMemory:
		return NewMemoryArtifacts(ttl), nil
	case BackendRedis:
		s := NewRedisArtifacts(cfg.RedisAddr, cfg.RedisPassword, ttl)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("store: redis %s: %w", cfg.RedisAddr, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("store: unknown audio backend %q", cfg.AudioBackend)
}

// NewReportStore builds the report store selected by cfg.ReportBackend.
func NewReportStore(ctx context.Context, cfg config.StorageConfig) (ReportStore, error) {
	switch strings.ToLower(cfg.ReportBackend) {
	case "", BackendMemory:
		return NewMemoryReports(cfg.MaxReports), nil
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("store: postgres backend needs a DSN")
		}
		s, err := OpenPostgresReports(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("store: unknown report backend %q", cfg.ReportBackend)
}

// CloseAll closes every argument that holds a connection.
func CloseAll(stores ...any) error {
	var errs []error
	for _, s := range stores {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func sameCompany(a, b string) bool {
	return b == "" || strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
