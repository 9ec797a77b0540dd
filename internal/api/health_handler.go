package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/database"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthChecker is a dependency the health endpoint probes
type HealthChecker interface {
	HealthCheck() error
}

// Pinger is a context-aware dependency such as the result cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency status
type HealthHandler struct {
	db      HealthChecker
	cache   Pinger
	catalog services.CatalogService
}

// NewHealthHandler creates a health handler; db and cache may be nil
func NewHealthHandler(db HealthChecker, cache Pinger, catalog services.CatalogService) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, catalog: catalog}
}

// Health returns 200 when the catalog loads and the database answers. An
// unreachable cache degrades the status without failing the probe.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := gin.H{}
	healthy := true
	degraded := false

	if cat, err := h.catalog.Active(); err != nil {
		checks["catalog"] = gin.H{"status": "error", "error": err.Error()}
		healthy = false
	} else {
		checks["catalog"] = gin.H{"status": "ok", "version": cat.Version, "funds": cat.FundCount()}
	}

	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			checks["database"] = gin.H{"status": "error", "error": err.Error()}
			healthy = false
		} else {
			check := gin.H{"status": "ok"}
			if p, ok := h.db.(interface{ GetStats() database.PoolStats }); ok {
				check["pool"] = p.GetStats()
			}
			checks["database"] = check
		}
	} else {
		checks["database"] = gin.H{"status": "disabled"}
	}

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = gin.H{"status": "error", "error": err.Error()}
			degraded = true
		} else {
			checks["cache"] = gin.H{"status": "ok"}
		}
	} else {
		checks["cache"] = gin.H{"status": "disabled"}
	}

	status, code := "ok", http.StatusOK
	switch {
	case !healthy:
		status, code = "unhealthy", http.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"healthy":   healthy,
		"checks":    checks,
		"timestamp": time.Now(),
	})
}
