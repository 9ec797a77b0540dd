package repository

import (
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/google/uuid"
)

const matchRunColumns = `id, company_id, catalog_version, options, result, matched_count,
	conditional_count, excluded_count, requested_by, created_at`

// matchRunRepository implements MatchRunRepository
type matchRunRepository struct {
	db dbExecutor
}

// NewMatchRunRepository creates a new match run repository
func NewMatchRunRepository(db dbExecutor) MatchRunRepository {
	return &matchRunRepository{db: db}
}

func scanMatchRun(row rowScanner) (*models.MatchRun, error) {
	run := &models.MatchRun{}
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.CatalogVersion, &run.Options, &run.Result,
		&run.MatchedCount, &run.ConditionalCount, &run.ExcludedCount,
		&run.RequestedBy, &run.CreatedAt,
	)
	return run, err
}

// Create stores a run. Runs are immutable once written.
func (r *matchRunRepository) Create(run *models.MatchRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO match_runs (`+matchRunColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		run.ID, run.CompanyID, run.CatalogVersion, run.Options, run.Result,
		run.MatchedCount, run.ConditionalCount, run.ExcludedCount,
		run.RequestedBy, run.CreatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to store match run", err)
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *matchRunRepository) GetByID(id uuid.UUID) (*models.MatchRun, error) {
	run, err := scanMatchRun(r.db.QueryRow(`SELECT `+matchRunColumns+` FROM match_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("match run not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get match run", err)
	}
	return run, nil
}

// ListByCompany lists a company's runs, newest first
func (r *matchRunRepository) ListByCompany(companyID uuid.UUID, limit int) ([]models.MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT `+matchRunColumns+`
		FROM match_runs
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query match runs", err)
	}
	defer rows.Close()

	var runs []models.MatchRun
	for rows.Next() {
		run, err := scanMatchRun(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan match run", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
