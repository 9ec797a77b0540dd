package api

import (
	"net/http"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/gin-gonic/gin"
)

// CompanyHandler manages stored companies and their runs
type CompanyHandler struct {
	companies services.CompanyService
	matching  services.MatchingService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companies services.CompanyService, matching services.MatchingService) *CompanyHandler {
	return &CompanyHandler{companies: companies, matching: matching}
}

// List returns companies, newest first
func (h *CompanyHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	filters := repository.CompanyFilters{
		NameContains: c.Query("name"),
		Limit:        limit,
		Offset:       offset,
	}
	if c.Query("mine") == "true" {
		filters.CreatedBy = requestedBy(c)
	}

	companies, err := h.companies.GetAll(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"count":     len(companies),
		"timestamp": time.Now(),
	})
}

// Get returns one company
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.companies.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company":   company,
		"timestamp": time.Now(),
	})
}

// Create stores a company
func (h *CompanyHandler) Create(c *gin.Context) {
	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid company format", err)
		return
	}

	company, err := h.companies.Create(&req, requestedBy(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Company created successfully",
		"company":   company,
		"timestamp": time.Now(),
	})
}

// Update replaces a company's details and profile
func (h *CompanyHandler) Update(c *gin.Context) {
	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid company format", err)
		return
	}

	company, err := h.companies.Update(c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Company updated successfully",
		"company":   company,
		"timestamp": time.Now(),
	})
}

// Delete removes a company and its runs
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.companies.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Company deleted successfully",
		"timestamp": time.Now(),
	})
}

// Match runs the engine against a stored company's profile
func (h *CompanyHandler) Match(c *gin.Context) {
	var opts MatchOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			badRequest(c, "Invalid options format", err)
			return
		}
	}
	engineOpts, err := opts.Engine()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.matching.MatchCompany(c.Request.Context(), c.Param("id"), engineOpts, requestedBy(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":    resp.RunID,
		"cached":    resp.Cached,
		"result":    resp.Result,
		"timestamp": time.Now(),
	})
}

// Runs lists a company's stored runs, newest first
func (h *CompanyHandler) Runs(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, err)
		return
	}

	runs, err := h.matching.ListRuns(c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":      runs,
		"count":     len(runs),
		"timestamp": time.Now(),
	})
}
