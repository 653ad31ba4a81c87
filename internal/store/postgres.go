package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/seenimoa/newspulse/pkg/models"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	company      TEXT NOT NULL,
	verdict      TEXT NOT NULL,
	articles     INTEGER NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_company_idx ON reports (lower(company), generated_at DESC);
`

// PostgresReports keeps report history in a single JSONB table.
type PostgresReports struct {
	db *sql.DB
}

// OpenPostgresReports connects to dsn and ensures the schema exists.
func OpenPostgresReports(ctx context.Context, dsn string) (*PostgresReports, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	s := &PostgresReports{db: db}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresReports wraps an existing handle. Call EnsureSchema before use.
func NewPostgresReports(db *sql.DB) *PostgresReports {
	return &PostgresReports{db: db}
}

// EnsureSchema creates the reports table and index if missing.
func (s *PostgresReports) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, reportsSchema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresReports) Close() error {
	return s.db.Close()
}

// Save implements ReportStore as an upsert.
func (s *PostgresReports) Save(ctx context.Context, r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, company, verdict, articles, generated_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			company = EXCLUDED.company,
			verdict = EXCLUDED.verdict,
			articles = EXCLUDED.articles,
			generated_at = EXCLUDED.generated_at,
			payload = EXCLUDED.payload`,
		r.ID, r.Company, r.FinalVerdict, len(r.Articles), r.GeneratedAt, payload)
	if err != nil {
		return fmt.Errorf("store: save report %s: %w", r.ID, err)
	}
	return nil
}

// Get implements ReportStore.
func (s *PostgresReports) Get(ctx context.Context, id string) (*models.Report, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get report %s: %w", id, err)
	}
	var r models.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("store: decode report %s: %w", id, err)
	}
	return &r, nil
}

// List implements ReportStore.
func (s *PostgresReports) List(ctx context.Context, company string, limit int) ([]models.ReportSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM reports
		WHERE $1 = '' OR lower(company) = lower($1)
		ORDER BY generated_at DESC
		LIMIT $2`, strings.TrimSpace(company), limit)
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}
	defer rows.Close()

	out := []models.ReportSummary{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r models.Report
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("store: decode report: %w", err)
		}
		out = append(out, r.Summary())
	}
	return out, rows.Err()
}
