package repository

import (
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/google/uuid"
)

// CatalogRepository stores versioned fund catalog documents
type CatalogRepository interface {
	GetActive() (*catalog.Catalog, error)
	ActiveVersion() (string, error)
	GetByVersion(version string) (*catalog.Catalog, error)
	ListVersions() ([]models.CatalogVersion, error)
	Store(c *catalog.Catalog) error
	Activate(version string) error
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	GetByID(id uuid.UUID) (*models.Company, error)
	Create(company *models.Company) error
	Update(company *models.Company) error
	Delete(id uuid.UUID) error

	GetAll(filters CompanyFilters) ([]models.Company, error)
	GetDueForMatching(criteria DueCriteria) ([]models.Company, error)
	MarkMatched(id uuid.UUID, at time.Time) error
}

// MatchRunRepository stores engine results
type MatchRunRepository interface {
	Create(run *models.MatchRun) error
	GetByID(id uuid.UUID) (*models.MatchRun, error)
	ListByCompany(companyID uuid.UUID, limit int) ([]models.MatchRun, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Catalog  CatalogRepository
	Company  CompanyRepository
	MatchRun MatchRunRepository
	User     UserRepository
	Tx       TransactionManager
}

// CompanyFilters defines filters for listing companies
type CompanyFilters struct {
	NameContains string
	CreatedBy    *uuid.UUID
	Limit        int
	Offset       int
}

// DueCriteria selects companies the batch pipeline should re-match
type DueCriteria struct {
	// MatchedBefore selects companies never matched or last matched before this instant
	MatchedBefore time.Time
	Limit         int
}
