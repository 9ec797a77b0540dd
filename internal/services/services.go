package services

import (
	"context"
	"database/sql"

	"github.com/ajharbinger/policy-fund-matcher/internal/cache"
	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/google/uuid"
)

// Services contains all application services
type Services struct {
	Catalog  CatalogService
	Matching MatchingService
	Company  CompanyService
	Auth     AuthService
	Reports  *ReportExportService
}

// CatalogService serves the fund knowledge base
type CatalogService interface {
	Active() (*catalog.Catalog, error)
	Funds(filter FundFilter) ([]catalog.PolicyFundKnowledge, string, error)
	Fund(id string) (*catalog.PolicyFundKnowledge, error)
	Versions() ([]models.CatalogVersion, error)
	Publish(c *catalog.Catalog, activate bool) (*PublishReport, error)
	Activate(version string) error
}

// MatchingService runs the engine and records runs
type MatchingService interface {
	Match(ctx context.Context, req MatchRequest) (*MatchResponse, error)
	MatchCompany(ctx context.Context, companyID string, opts matching.Options, requestedBy *uuid.UUID) (*MatchResponse, error)
	Track(p profile.CompanyProfile) (*matching.TrackDecision, error)
	GetRun(id string) (*models.MatchRun, error)
	ListRuns(companyID string, limit int) ([]models.MatchRun, error)
}

// CompanyService defines the interface for company business logic
type CompanyService interface {
	Create(req *models.CreateCompanyRequest, createdBy *uuid.UUID) (*models.Company, error)
	GetByID(id string) (*models.Company, error)
	GetAll(filters repository.CompanyFilters) ([]models.Company, error)
	Update(id string, req *models.CreateCompanyRequest) (*models.Company, error)
	Delete(id string) error
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(email, password string) (*models.LoginResponse, error)
	Register(req *models.RegisterRequest) (*models.User, error)
	ValidateToken(token string) (*models.User, error)
	RefreshToken(token string) (*models.LoginResponse, error)
}

// NewServices wires every service over one database handle
func NewServices(db *sql.DB, cfg *config.Config, log logger.Logger, results cache.ResultCache) *Services {
	return NewServicesWithRepositories(repository.NewRepositories(db), cfg, log, results)
}

// NewServicesWithRepositories wires services over an existing repository set.
// With nil repos matching still works against the seed catalog but nothing
// is persisted and the storage-backed operations return errNoStore.
func NewServicesWithRepositories(repos *repository.Repositories, cfg *config.Config, log logger.Logger, results cache.ResultCache) *Services {
	if log == nil {
		log = logger.NewNop()
	}
	if results == nil {
		results = cache.Nop{}
	}

	var runs repository.MatchRunRepository
	if repos != nil {
		runs = repos.MatchRun
	}

	catalogs := newCatalogService(repos, log)
	engine := matching.NewEngine(log.With("component", "engine"))
	matcher := newMatchingService(repos, catalogs, engine, results, cfg.Matching, log)

	return &Services{
		Catalog:  catalogs,
		Matching: matcher,
		Company:  newCompanyService(repos),
		Auth:     newAuthService(repos, cfg),
		Reports:  NewReportExportService(runs),
	}
}

var errNoStore = apperrors.InternalError("persistence is not configured", nil)
