package api

import (
	"io"
	"net/http"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the fund catalog
type CatalogHandler struct {
	catalog services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListFunds lists valid funds, optionally filtered by institution, track, purpose or tag
func (h *CatalogHandler) ListFunds(c *gin.Context) {
	filter := services.FundFilter{
		InstitutionID: c.Query("institution"),
		Track:         catalog.Track(c.Query("track")),
		Purpose:       catalog.Purpose(c.Query("purpose")),
		Tag:           catalog.FundTag(c.Query("tag")),
	}

	funds, version, err := h.catalog.Funds(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"catalog_version": version,
		"funds":           funds,
		"count":           len(funds),
		"timestamp":       time.Now(),
	})
}

// GetFund returns one fund
func (h *CatalogHandler) GetFund(c *gin.Context) {
	fund, err := h.catalog.Fund(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fund":      fund,
		"timestamp": time.Now(),
	})
}

// Versions lists stored catalog documents
func (h *CatalogHandler) Versions(c *gin.Context) {
	versions, err := h.catalog.Versions()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"versions":  versions,
		"timestamp": time.Now(),
	})
}

// Publish stores a YAML or JSON catalog document (Admin only). ?activate=true
// switches matching to it.
func (h *CatalogHandler) Publish(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "Failed to read catalog document", err)
		return
	}

	doc, err := catalog.Parse(body)
	if err != nil {
		respondError(c, apperrors.InvalidCatalog("catalog document could not be parsed", err).WithDetails(err.Error()))
		return
	}

	report, err := h.catalog.Publish(doc, c.Query("activate") == "true")
	if err != nil {
		if report != nil && apperrors.Is(err, apperrors.ErrCodeInvalidCatalog) {
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
				"error":     "catalog has no valid fund records",
				"code":      apperrors.ErrCodeInvalidCatalog,
				"report":    report,
				"timestamp": time.Now(),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Catalog published successfully",
		"report":    report,
		"timestamp": time.Now(),
	})
}

// Activate switches matching to a stored catalog version (Admin only)
func (h *CatalogHandler) Activate(c *gin.Context) {
	version := c.Param("version")
	if err := h.catalog.Activate(version); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Catalog activated",
		"version":   version,
		"timestamp": time.Now(),
	})
}
