package store

import (
	"context"
	"sync"
	"time"

	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/pkg/models"
)

// MemoryArtifacts keeps audio in a TTL cache. The latest slot is
// mutex-guarded and holds the id of the most recent Put.
type MemoryArtifacts struct {
	cache *infra.Cache[[]byte]

	mu       sync.RWMutex
	latestID string
}

// NewMemoryArtifacts creates a store whose entries live for ttl (0 means 1h).
func NewMemoryArtifacts(ttl time.Duration) *MemoryArtifacts {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryArtifacts{cache: infra.NewCache[[]byte](ttl)}
}

// Cache exposes the underlying cache so callers can run a janitor on it.
func (m *MemoryArtifacts) Cache() *infra.Cache[[]byte] { return m.cache }

// Put implements ArtifactStore. The audio slice is copied.
func (m *MemoryArtifacts) Put(ctx context.Context, id string, audio []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Set(id, append([]byte(nil), audio...))
	m.mu.Lock()
	m.latestID = id
	m.mu.Unlock()
	return nil
}

// Get implements ArtifactStore.
func (m *MemoryArtifacts) Get(ctx context.Context, id string) ([]byte, error) {
	audio, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return audio, nil
}

// Latest implements ArtifactStore.
func (m *MemoryArtifacts) Latest(ctx context.Context) (string, []byte, error) {
	m.mu.RLock()
	id := m.latestID
	m.mu.RUnlock()
	if id == "" {
		return "", nil, ErrNotFound
	}
	audio, err := m.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, audio, nil
}

// MemoryReports is a bounded, newest-first report history.
type MemoryReports struct {
	mu      sync.RWMutex
	max     int
	reports []*models.Report // newest first
}

// NewMemoryReports keeps at most max reports (0 means 100).
func NewMemoryReports(max int) *MemoryReports {
	if max <= 0 {
		max = 100
	}
	return &MemoryReports{max: max}
}

// Save implements ReportStore. Saving an existing id replaces it.
func (m *MemoryReports) Save(ctx context.Context, r *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]*models.Report, 0, len(m.reports)+1)
	kept = append(kept, r)
	for _, old := range m.reports {
		if old.ID != r.ID {
			kept = append(kept, old)
		}
	}
	if len(kept) > m.max {
		kept = kept[:m.max]
	}
	m.reports = kept
	return nil
}

// Get implements ReportStore.
func (m *MemoryReports) Get(ctx context.Context, id string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// List implements ReportStore.
func (m *MemoryReports) List(ctx context.Context, company string, limit int) ([]models.ReportSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.ReportSummary{}
	for _, r := range m.reports {
		if !sameCompany(r.Company, company) {
			continue
		}
		out = append(out, r.Summary())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
