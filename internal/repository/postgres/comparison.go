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

// ComparisonRepository persists competitor comparisons in PostgreSQL.
// Expiry is enforced at read time; expired rows are reported as not found
// rather than deleted.
type ComparisonRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewComparisonRepository creates a new comparison repository
func NewComparisonRepository(db *sqlx.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db, now: time.Now}
}

type comparisonRow struct {
	ID            uuid.UUID `db:"id"`
	UserReportID  uuid.UUID `db:"user_report_id"`
	UserDomain    string    `db:"user_domain"`
	Status        string    `db:"status"`
	Payload       []byte    `db:"payload"`
	FailureReason string    `db:"failure_reason"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	ExpiresAt     time.Time `db:"expires_at"`
}

func (r *comparisonRow) toDomain() (*domain.CompetitorComparison, error) {
	var c domain.CompetitorComparison
	if err := json.Unmarshal(r.Payload, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComparison inserts a comparison record
func (r *ComparisonRepository) CreateComparison(ctx context.Context, c *domain.CompetitorComparison) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO competitor_comparisons (
			id, user_report_id, user_domain, status, payload,
			failure_reason, created_at, updated_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID,
		c.UserReportID,
		c.UserDomain,
		string(c.Status),
		payload,
		c.FailureReason,
		c.CreatedAt,
		c.UpdatedAt,
		c.ExpiresAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NotFoundError("report", c.UserReportID)
		}
		if isUniqueViolation(err) {
			return domain.ConflictError("comparison", "exists", "comparison already created")
		}
		return err
	}

	return nil
}

// UpdateComparison persists a state transition on an existing record
func (r *ComparisonRepository) UpdateComparison(ctx context.Context, c *domain.CompetitorComparison) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}

	query := `
		UPDATE competitor_comparisons
		SET status = $2, payload = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID,
		string(c.Status),
		payload,
		c.FailureReason,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NotFoundError("comparison", c.ID)
	}

	return nil
}

// GetComparison retrieves a comparison by ID. Expired records are not found.
func (r *ComparisonRepository) GetComparison(ctx context.Context, id uuid.UUID) (*domain.CompetitorComparison, error) {
	query := `
		SELECT id, user_report_id, user_domain, status, payload,
		       failure_reason, created_at, updated_at, expires_at
		FROM competitor_comparisons
		WHERE id = $1
	`

	var row comparisonRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("comparison", id)
		}
		return nil, err
	}

	c, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if c.IsExpired(r.now().UTC()) {
		return nil, domain.NotFoundError("comparison", id)
	}

	return c, nil
}

// GetLatestByReport retrieves the newest non-expired comparison started from
// the given user report.
func (r *ComparisonRepository) GetLatestByReport(ctx context.Context, userReportID uuid.UUID) (*domain.CompetitorComparison, error) {
	query := `
		SELECT id, user_report_id, user_domain, status, payload,
		       failure_reason, created_at, updated_at, expires_at
		FROM competitor_comparisons
		WHERE user_report_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var row comparisonRow
	if err := r.db.GetContext(ctx, &row, query, userReportID, r.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("comparison", userReportID)
		}
		return nil, err
	}

	return row.toDomain()
}
