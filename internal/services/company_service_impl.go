package services

import (
	"strings"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/google/uuid"
)

// companyServiceImpl implements CompanyService
type companyServiceImpl struct {
	repos *repository.Repositories
}

// newCompanyService creates a new company service implementation
func newCompanyService(repos *repository.Repositories) CompanyService {
	return &companyServiceImpl{
		repos: repos,
	}
}

// validateCompany rejects profiles the engine could not normalize, so stored
// companies can always be matched by the batch pipeline
func validateCompany(req *models.CreateCompanyRequest) error {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return apperrors.InvalidInput("company name is required", nil)
	}
	if _, err := profile.Normalize(req.Profile); err != nil {
		appErr := apperrors.InvalidInput("invalid company profile", err)
		if fields := profile.FieldErrors(err); len(fields) > 0 {
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = f.Field
			}
			appErr = appErr.WithDetails(strings.Join(names, ", "))
		}
		return appErr
	}
	return nil
}

func businessNumber(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Create stores a new company
func (s *companyServiceImpl) Create(req *models.CreateCompanyRequest, createdBy *uuid.UUID) (*models.Company, error) {
	if err := validateCompany(req); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:           strings.TrimSpace(req.Name),
		BusinessNumber: businessNumber(req.BusinessNumber),
		Profile:        models.ProfileDoc(req.Profile),
		CreatedBy:      createdBy,
	}
	if err := s.repos.Company.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetByID retrieves a company by ID
func (s *companyServiceImpl) GetByID(id string) (*models.Company, error) {
	companyID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid company ID", err)
	}
	return s.repos.Company.GetByID(companyID)
}

// GetAll retrieves companies with filters
func (s *companyServiceImpl) GetAll(filters repository.CompanyFilters) ([]models.Company, error) {
	if filters.Limit < 0 || filters.Offset < 0 {
		return nil, apperrors.InvalidInput("limit and offset must not be negative", nil)
	}
	return s.repos.Company.GetAll(filters)
}

// Update replaces a company's name, business number and profile
func (s *companyServiceImpl) Update(id string, req *models.CreateCompanyRequest) (*models.Company, error) {
	if err := validateCompany(req); err != nil {
		return nil, err
	}

	company, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	company.Name = strings.TrimSpace(req.Name)
	company.BusinessNumber = businessNumber(req.BusinessNumber)
	company.Profile = models.ProfileDoc(req.Profile)

	if err := s.repos.Company.Update(company); err != nil {
		return nil, err
	}
	return company, nil
}

// Delete deletes a company
func (s *companyServiceImpl) Delete(id string) error {
	companyID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.InvalidInput("invalid company ID", err)
	}
	return s.repos.Company.Delete(companyID)
}
