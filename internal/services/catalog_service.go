package services

import (
	"fmt"
	"sync"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/metrics"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
)

// FundFilter narrows a fund listing; zero fields match everything
type FundFilter struct {
	InstitutionID string
	Track         catalog.Track
	Purpose       catalog.Purpose
	Tag           catalog.FundTag
}

func (f FundFilter) matches(fund *catalog.PolicyFundKnowledge) bool {
	if f.InstitutionID != "" && fund.InstitutionID != f.InstitutionID {
		return false
	}
	if f.Track != "" && fund.Track != f.Track {
		return false
	}
	if f.Purpose != "" && !fund.Supports(f.Purpose) {
		return false
	}
	if f.Tag != "" && !fund.HasTag(f.Tag) {
		return false
	}
	return true
}

// PublishReport describes a stored catalog document
type PublishReport struct {
	Version    string           `json:"version"`
	FundCount  int              `json:"fund_count"`
	ValidFunds int              `json:"valid_funds"`
	Defects    []catalog.Defect `json:"defects,omitempty"`
	Active     bool             `json:"active"`
}

// catalogServiceImpl keeps the active catalog in memory and reloads it when
// the stored active version changes, including activations made by another
// process. The shipped seed serves when no catalog has been activated.
type catalogServiceImpl struct {
	repos *repository.Repositories
	log   logger.Logger

	mu     sync.RWMutex
	active *catalog.Catalog
	source string // stored version active was loaded for; "" for the seed
}

func newCatalogService(repos *repository.Repositories, log logger.Logger) *catalogServiceImpl {
	return &catalogServiceImpl{repos: repos, log: log}
}

// Active returns the catalog used for matching
func (s *catalogServiceImpl) Active() (*catalog.Catalog, error) {
	version, err := s.storedVersion()

	s.mu.RLock()
	c, source := s.active, s.source
	s.mu.RUnlock()

	if err != nil {
		if c == nil {
			return nil, err
		}
		s.log.Warn("Failed to check active catalog version; serving loaded catalog",
			"error", err, "version", c.Version)
		return c, nil
	}
	if c != nil && source == version {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.source == version {
		return s.active, nil
	}

	c, err = s.load(version)
	if err != nil {
		return nil, err
	}
	s.active, s.source = c, version
	return c, nil
}

// storedVersion returns the active version in the store, or "" when none is active
func (s *catalogServiceImpl) storedVersion() (string, error) {
	if s.repos == nil || s.repos.Catalog == nil {
		return "", nil
	}
	version, err := s.repos.Catalog.ActiveVersion()
	if apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return "", nil
	}
	return version, err
}

func (s *catalogServiceImpl) load(version string) (*catalog.Catalog, error) {
	if version != "" {
		c, err := s.repos.Catalog.GetByVersion(version)
		if err != nil {
			return nil, err
		}
		s.log.Info("Loaded active catalog", "version", c.Version, "funds", c.FundCount())
		return c, nil
	}

	c, err := catalog.Seed()
	if err != nil {
		return nil, apperrors.InvalidCatalog("seed catalog is unreadable", err)
	}
	s.log.Info("Using seed catalog", "version", c.Version, "funds", c.FundCount())
	return c, nil
}

func (s *catalogServiceImpl) invalidate() {
	s.mu.Lock()
	s.active, s.source = nil, ""
	s.mu.Unlock()
}

// Funds lists valid funds of the active catalog in catalog order, with the catalog version
func (s *catalogServiceImpl) Funds(filter FundFilter) ([]catalog.PolicyFundKnowledge, string, error) {
	c, err := s.Active()
	if err != nil {
		return nil, "", err
	}

	valid, _ := c.ValidFunds()
	out := make([]catalog.PolicyFundKnowledge, 0, len(valid))
	for i := range valid {
		if filter.matches(&valid[i]) {
			out = append(out, valid[i])
		}
	}
	return out, c.Version, nil
}

// Fund returns one fund of the active catalog
func (s *catalogServiceImpl) Fund(id string) (*catalog.PolicyFundKnowledge, error) {
	c, err := s.Active()
	if err != nil {
		return nil, err
	}
	f, ok := c.Fund(id)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("fund %s not found", id), nil)
	}
	return &f, nil
}

// Versions lists stored catalogs
func (s *catalogServiceImpl) Versions() ([]models.CatalogVersion, error) {
	if s.repos == nil {
		return nil, errNoStore
	}
	return s.repos.Catalog.ListVersions()
}

// Publish stores c and optionally activates it. Records that fail validation are
// reported but do not block publishing; a catalog with no valid fund is rejected.
func (s *catalogServiceImpl) Publish(c *catalog.Catalog, activate bool) (*PublishReport, error) {
	if c == nil || c.Version == "" {
		return nil, apperrors.InvalidCatalog("catalog version is required", nil)
	}

	valid, defects := c.ValidFunds()
	report := &PublishReport{
		Version:    c.Version,
		FundCount:  c.FundCount(),
		ValidFunds: len(valid),
		Defects:    defects,
	}
	if len(valid) == 0 {
		return report, apperrors.InvalidCatalog("catalog has no valid fund records", nil).WithDetails(c.Version)
	}
	for _, d := range defects {
		s.log.Warn("catalog record will be skipped", "version", c.Version, "fund_id", d.FundID, "reason", d.Reason)
	}
	metrics.CatalogDefects.Add(float64(len(defects)))

	if s.repos == nil {
		return report, errNoStore
	}

	err := s.repos.Tx.WithTransaction(func(tx *repository.Repositories) error {
		if err := tx.Catalog.Store(c); err != nil {
			return err
		}
		if activate {
			return tx.Catalog.Activate(c.Version)
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if activate {
		s.invalidate()
		report.Active = true
	}
	s.log.Info("Published catalog", "version", c.Version, "valid_funds", len(valid), "active", activate)
	return report, nil
}

// Activate switches matching to a stored catalog version
func (s *catalogServiceImpl) Activate(version string) error {
	if s.repos == nil {
		return errNoStore
	}
	err := s.repos.Tx.WithTransaction(func(tx *repository.Repositories) error {
		return tx.Catalog.Activate(version)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	s.log.Info("Activated catalog", "version", version)
	return nil
}
