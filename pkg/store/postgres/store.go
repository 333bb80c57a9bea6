// Package postgres persists finished analysis reports for later
// retrieval through the web API.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_reports (
	run_id            UUID PRIMARY KEY,
	generated_at      TIMESTAMPTZ NOT NULL,
	subscription      TEXT NOT NULL,
	total_vms         INT NOT NULL,
	analyzed_vms      INT NOT NULL,
	total_cost        DOUBLE PRECISION NOT NULL,
	potential_savings DOUBLE PRECISION NOT NULL,
	payload           JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS vm_results (
	run_id              UUID NOT NULL REFERENCES analysis_reports(run_id) ON DELETE CASCADE,
	vm_name             TEXT NOT NULL,
	resource_group      TEXT NOT NULL,
	region              TEXT NOT NULL,
	current_size        TEXT NOT NULL,
	monthly_cost        DOUBLE PRECISION NOT NULL,
	recommendation_type TEXT NOT NULL,
	priority            TEXT NOT NULL,
	potential_savings   DOUBLE PRECISION NOT NULL,
	deployment_feasible BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vm_results_run ON vm_results(run_id);
`

type Store struct {
	db *sql.DB
}

// New opens the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport writes the report summary, the per-VM rows, and the full
// payload in one transaction.
func (s *Store) SaveReport(ctx context.Context, report *domain.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_reports
			(run_id, generated_at, subscription, total_vms, analyzed_vms, total_cost, potential_savings, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.RunID, report.GeneratedAt, report.Subscription,
		report.TotalVMs, report.AnalyzedVMs, report.TotalCost, report.PotentialSavings, payload)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vm_results
			(run_id, vm_name, resource_group, region, current_size, monthly_cost,
			 recommendation_type, priority, potential_savings, deployment_feasible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		_, err := stmt.ExecContext(ctx,
			report.RunID, r.VM.Name, r.VM.ResourceGroup, r.VM.Location, r.VM.Size,
			r.VM.MonthlyPrice, string(r.Type), string(r.Priority), r.PotentialSavings,
			r.DeploymentFeasible)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", r.VM.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// GetReport loads a stored report by run ID. A nil report with nil
// error means no run exists under that ID.
func (s *Store) GetReport(ctx context.Context, runID string) (*domain.AnalysisReport, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analysis_reports WHERE run_id = $1`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", runID, err)
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", runID, err)
	}
	return &report, nil
}

// ListReports returns the most recent runs, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]domain.ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, generated_at, subscription, total_vms, analyzed_vms, total_cost, potential_savings
		FROM analysis_reports ORDER BY generated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []domain.ReportSummary
	for rows.Next() {
		var summary domain.ReportSummary
		if err := rows.Scan(&summary.RunID, &summary.GeneratedAt, &summary.Subscription,
			&summary.TotalVMs, &summary.AnalyzedVMs, &summary.TotalCost, &summary.PotentialSavings); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}
