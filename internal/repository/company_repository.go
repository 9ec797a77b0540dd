package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/google/uuid"
)

const companyColumns = `id, name, business_number, profile, created_by, last_matched_at, created_at, updated_at`

// companyRepository implements CompanyRepository
type companyRepository struct {
	db dbExecutor
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db dbExecutor) CompanyRepository {
	return &companyRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(
		&c.ID, &c.Name, &c.BusinessNumber, &c.Profile, &c.CreatedBy,
		&c.LastMatchedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByID retrieves a company by ID
func (r *companyRepository) GetByID(id uuid.UUID) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	company, err := scanCompany(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("company not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get company", err)
	}
	return company, nil
}

// Create creates a new company
func (r *companyRepository) Create(company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}

	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query,
		company.ID, company.Name, company.BusinessNumber, company.Profile,
		company.CreatedBy, company.LastMatchedAt, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return apperrors.Conflict("company with this business number already exists", err)
		}
		return apperrors.DatabaseError("failed to create company", err)
	}
	return nil
}

// Update replaces a company's name, business number and profile
func (r *companyRepository) Update(company *models.Company) error {
	company.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE companies SET
			name = $2, business_number = $3, profile = $4, updated_at = $5
		WHERE id = $1
	`, company.ID, company.Name, company.BusinessNumber, company.Profile, company.UpdatedAt)
	if err != nil {
		return apperrors.DatabaseError("failed to update company", err)
	}
	return checkRowsAffected(result, apperrors.NotFound("company not found", nil))
}

// Delete deletes a company and, by cascade, its runs
func (r *companyRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return apperrors.DatabaseError("failed to delete company", err)
	}
	return checkRowsAffected(result, apperrors.NotFound("company not found", nil))
}

// GetAll retrieves companies with filters
func (r *companyRepository) GetAll(filters CompanyFilters) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies`

	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if filters.NameContains != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filters.NameContains+"%")
		argIndex++
	}

	if filters.CreatedBy != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_by = $%d", argIndex))
		args = append(args, *filters.CreatedBy)
		argIndex++
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY updated_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	return r.queryCompanies(query, args...)
}

// GetDueForMatching returns companies never matched or last matched before the cutoff,
// oldest first
func (r *companyRepository) GetDueForMatching(criteria DueCriteria) ([]models.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE last_matched_at IS NULL OR last_matched_at < $1
		ORDER BY last_matched_at ASC NULLS FIRST, created_at ASC
	`
	args := []interface{}{criteria.MatchedBefore}

	if criteria.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, criteria.Limit)
	}

	return r.queryCompanies(query, args...)
}

// MarkMatched records when a company was last matched
func (r *companyRepository) MarkMatched(id uuid.UUID, at time.Time) error {
	result, err := r.db.Exec(`UPDATE companies SET last_matched_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return apperrors.DatabaseError("failed to mark company matched", err)
	}
	return checkRowsAffected(result, apperrors.NotFound("company not found", nil))
}

func (r *companyRepository) queryCompanies(query string, args ...interface{}) ([]models.Company, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query companies", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, apperrors.DatabaseError("failed to scan company", err)
		}
		companies = append(companies, *company)
	}
	return companies, rows.Err()
}
