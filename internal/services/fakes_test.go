package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/google/uuid"
)

// MockCatalogRepository implements repository.CatalogRepository for testing
type MockCatalogRepository struct {
	docs       map[string]*catalog.Catalog
	active     string
	versionErr error
}

func (m *MockCatalogRepository) GetActive() (*catalog.Catalog, error) {
	if m.active == "" {
		return nil, apperrors.NotFound("no active catalog", nil)
	}
	return m.docs[m.active], nil
}

func (m *MockCatalogRepository) ActiveVersion() (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	if m.active == "" {
		return "", apperrors.NotFound("no active catalog", nil)
	}
	return m.active, nil
}

func (m *MockCatalogRepository) GetByVersion(version string) (*catalog.Catalog, error) {
	c, ok := m.docs[version]
	if !ok {
		return nil, apperrors.NotFound("catalog not found", nil)
	}
	return c, nil
}

func (m *MockCatalogRepository) ListVersions() ([]models.CatalogVersion, error) {
	var out []models.CatalogVersion
	for v, c := range m.docs {
		out = append(out, models.CatalogVersion{Version: v, FundCount: c.FundCount(), Active: v == m.active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *MockCatalogRepository) Store(c *catalog.Catalog) error {
	if m.docs == nil {
		m.docs = map[string]*catalog.Catalog{}
	}
	if _, ok := m.docs[c.Version]; ok {
		return apperrors.Conflict("catalog version already exists", nil)
	}
	m.docs[c.Version] = c
	return nil
}

func (m *MockCatalogRepository) Activate(version string) error {
	if _, ok := m.docs[version]; !ok {
		return apperrors.NotFound("catalog not found", nil)
	}
	m.active = version
	return nil
}

// MockCompanyRepository implements repository.CompanyRepository for testing
type MockCompanyRepository struct {
	mu        sync.Mutex
	companies map[uuid.UUID]*models.Company
	due       []models.Company
	dueErr    error
}

func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{companies: map[uuid.UUID]*models.Company{}}
}

func (m *MockCompanyRepository) GetByID(id uuid.UUID) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, apperrors.NotFound("company not found", nil)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCompanyRepository) Create(company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	company.CreatedAt = time.Now()
	company.UpdatedAt = company.CreatedAt
	cp := *company
	m.companies[company.ID] = &cp
	return nil
}

func (m *MockCompanyRepository) Update(company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[company.ID]; !ok {
		return apperrors.NotFound("company not found", nil)
	}
	cp := *company
	m.companies[company.ID] = &cp
	return nil
}

func (m *MockCompanyRepository) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return apperrors.NotFound("company not found", nil)
	}
	delete(m.companies, id)
	return nil
}

func (m *MockCompanyRepository) GetAll(filters repository.CompanyFilters) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Company
	for _, c := range m.companies {
		if filters.NameContains == "" || strings.Contains(c.Name, filters.NameContains) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockCompanyRepository) GetDueForMatching(repository.DueCriteria) ([]models.Company, error) {
	return m.due, m.dueErr
}

func (m *MockCompanyRepository) MarkMatched(id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return apperrors.NotFound("company not found", nil)
	}
	c.LastMatchedAt = &at
	return nil
}

// MockMatchRunRepository implements repository.MatchRunRepository for testing
type MockMatchRunRepository struct {
	mu   sync.Mutex
	runs []models.MatchRun
}

func (m *MockMatchRunRepository) Create(run *models.MatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MockMatchRunRepository) GetByID(id uuid.UUID) (*models.MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("match run not found", nil)
}

func (m *MockMatchRunRepository) ListByCompany(companyID uuid.UUID, limit int) ([]models.MatchRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MatchRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if r := m.runs[i]; r.CompanyID != nil && *r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	users map[uuid.UUID]*models.User
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found", nil)
}

func (m *MockUserRepository) Create(user *models.User) error {
	if m.users == nil {
		m.users = map[uuid.UUID]*models.User{}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(user.Email)
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) Update(user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) Delete(id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

// mockTx runs fn directly against the same repositories
type mockTx struct {
	repos *repository.Repositories
	calls int
}

func (m *mockTx) WithTransaction(fn func(repos *repository.Repositories) error) error {
	m.calls++
	return fn(m.repos)
}

type mockRepos struct {
	*repository.Repositories
	catalogs  *MockCatalogRepository
	companies *MockCompanyRepository
	runs      *MockMatchRunRepository
	users     *MockUserRepository
	tx        *mockTx
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		catalogs:  &MockCatalogRepository{},
		companies: NewMockCompanyRepository(),
		runs:      &MockMatchRunRepository{},
		users:     &MockUserRepository{},
	}
	m.Repositories = &repository.Repositories{
		Catalog:  m.catalogs,
		Company:  m.companies,
		MatchRun: m.runs,
		User:     m.users,
	}
	m.tx = &mockTx{repos: m.Repositories}
	m.Repositories.Tx = m.tx
	return m
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		Matching:  config.MatchingConfig{TopN: 5, MinScore: 40},
		Batch:     config.BatchConfig{IntervalMinutes: 60, MaxConcurrent: 2, PageSize: 10},
	}
}

func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }
func intPtr(v int) *int           { return &v }

func testProfile() profile.CompanyProfile {
	f := func() *bool { v := false; return &v }
	return profile.CompanyProfile{
		Name:             "한빛정밀",
		Industry:         catalog.IndustryManufacturing,
		Region:           "경기",
		BusinessAgeYears: floatPtr(3),
		AnnualRevenue:    int64Ptr(3_000_000_000),
		EmployeeCount:    intPtr(25),
		DebtRatio:        floatPtr(150),
		Status: profile.StatusFlags{
			VentureCertified:          f(),
			InnobizCertified:          f(),
			MainbizCertified:          f(),
			FemaleOwned:               f(),
			DisabledOwned:             f(),
			DisabledStandardWorkplace: f(),
			SocialEnterprise:          f(),
			RestartAfterFailure:       f(),
			YouthOwned:                f(),
			RnDActive:                 f(),
			ExportActive:              f(),
			PatentHolding:             f(),
		},
	}
}
