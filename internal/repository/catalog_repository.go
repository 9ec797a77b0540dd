package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
)

// catalogRepository keeps catalog documents as YAML text
type catalogRepository struct {
	db dbExecutor
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db dbExecutor) CatalogRepository {
	return &catalogRepository{db: db}
}

// GetActive loads the catalog currently used for matching
func (r *catalogRepository) GetActive() (*catalog.Catalog, error) {
	var document string
	err := r.db.QueryRow(`SELECT document FROM fund_catalogs WHERE active = true LIMIT 1`).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("no active catalog", nil)
		}
		return nil, apperrors.DatabaseError("failed to get active catalog", err)
	}
	return parseDocument(document)
}

// ActiveVersion returns the version of the active catalog without loading the document
func (r *catalogRepository) ActiveVersion() (string, error) {
	var version string
	err := r.db.QueryRow(`SELECT version FROM fund_catalogs WHERE active = true LIMIT 1`).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("no active catalog", nil)
		}
		return "", apperrors.DatabaseError("failed to get active catalog version", err)
	}
	return version, nil
}

// GetByVersion loads one stored catalog
func (r *catalogRepository) GetByVersion(version string) (*catalog.Catalog, error) {
	var document string
	err := r.db.QueryRow(`SELECT document FROM fund_catalogs WHERE version = $1`, version).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("catalog %s not found", version), nil)
		}
		return nil, apperrors.DatabaseError("failed to get catalog", err)
	}
	return parseDocument(document)
}

// ListVersions lists stored catalogs, newest first
func (r *catalogRepository) ListVersions() ([]models.CatalogVersion, error) {
	rows, err := r.db.Query(`
		SELECT version, fund_count, active, created_at
		FROM fund_catalogs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query catalogs", err)
	}
	defer rows.Close()

	var versions []models.CatalogVersion
	for rows.Next() {
		var v models.CatalogVersion
		if err := rows.Scan(&v.Version, &v.FundCount, &v.Active, &v.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan catalog", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Store inserts a catalog document; it is inactive until Activate
func (r *catalogRepository) Store(c *catalog.Catalog) error {
	document, err := catalog.Marshal(c)
	if err != nil {
		return apperrors.InvalidCatalog("failed to encode catalog", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO fund_catalogs (version, document, fund_count, active, created_at)
		VALUES ($1, $2, $3, false, $4)
	`, c.Version, string(document), c.FundCount(), time.Now())
	if err != nil {
		return apperrors.DatabaseError("failed to store catalog", err)
	}
	return nil
}

// Activate makes version the only active catalog. Callers run it inside a transaction.
func (r *catalogRepository) Activate(version string) error {
	if _, err := r.db.Exec(`UPDATE fund_catalogs SET active = false WHERE active = true`); err != nil {
		return apperrors.DatabaseError("failed to deactivate catalogs", err)
	}

	result, err := r.db.Exec(`UPDATE fund_catalogs SET active = true WHERE version = $1`, version)
	if err != nil {
		return apperrors.DatabaseError("failed to activate catalog", err)
	}
	return checkRowsAffected(result, apperrors.NotFound(fmt.Sprintf("catalog %s not found", version), nil))
}

func parseDocument(document string) (*catalog.Catalog, error) {
	c, err := catalog.Parse([]byte(document))
	if err != nil {
		return nil, apperrors.InvalidCatalog("stored catalog is unreadable", err)
	}
	return c, nil
}
