package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/webpulse/webpulse/internal/domain"
)

// ReportRepository persists audit reports in PostgreSQL. The full report is
// stored as a JSONB payload with a few extracted columns for querying.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type reportRow struct {
	ID          uuid.UUID `db:"id"`
	URL         string    `db:"url"`
	Domain      string    `db:"domain"`
	Mode        string    `db:"mode"`
	HealthScore int       `db:"health_score"`
	Payload     []byte    `db:"payload"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *reportRow) toDomain() (*domain.AuditReport, error) {
	var report domain.AuditReport
	if err := json.Unmarshal(r.Payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Save inserts an audit report. Reports are immutable once scored, so a
// duplicate ID is a conflict rather than an update.
func (r *ReportRepository) Save(ctx context.Context, report *domain.AuditReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_reports (id, url, domain, mode, health_score, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		report.Domain,
		string(report.Mode),
		report.HealthScore(),
		payload,
		report.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ConflictError("report", "exists", "report already saved")
		}
		return err
	}

	return nil
}

// GetReport retrieves an audit report by ID
func (r *ReportRepository) GetReport(ctx context.Context, id uuid.UUID) (*domain.AuditReport, error) {
	query := `
		SELECT id, url, domain, mode, health_score, payload, created_at
		FROM audit_reports
		WHERE id = $1
	`

	var row reportRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("report", id)
		}
		return nil, err
	}

	return row.toDomain()
}

// ListByDomain retrieves the most recent reports for a domain
func (r *ReportRepository) ListByDomain(ctx context.Context, siteDomain string, limit int) ([]*domain.AuditReport, error) {
	query := `
		SELECT id, url, domain, mode, health_score, payload, created_at
		FROM audit_reports
		WHERE domain = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, siteDomain, limit); err != nil {
		return nil, err
	}

	reports := make([]*domain.AuditReport, len(rows))
	for i, row := range rows {
		report, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		reports[i] = report
	}

	return reports, nil
}
