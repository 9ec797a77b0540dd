package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/auth"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/ajharbinger/policy-fund-matcher/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatchHandler runs the matching engine and serves stored runs
type MatchHandler struct {
	matching services.MatchingService
	reports  *services.ReportExportService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matching services.MatchingService, reports *services.ReportExportService) *MatchHandler {
	return &MatchHandler{matching: matching, reports: reports}
}

// MatchOptions are the per-request engine options. Omitted values take the
// configured defaults; "min_score": 0 disables the score floor.
type MatchOptions struct {
	TopN          int    `json:"top_n"`
	MinScore      *int   `json:"min_score"`
	AsOf          string `json:"as_of"`
	StrictPurpose bool   `json:"strict_purpose"`
}

// Engine converts the request options, accepting a date or an RFC 3339 timestamp for as_of
func (o MatchOptions) Engine() (matching.Options, error) {
	if o.TopN < 0 || (o.MinScore != nil && *o.MinScore < 0) {
		return matching.Options{}, apperrors.InvalidInput("top_n and min_score must not be negative", nil)
	}
	opts := matching.Options{TopN: o.TopN, MinScore: o.MinScore, StrictPurpose: o.StrictPurpose}
	if o.AsOf != "" {
		asOf, err := parseAsOf(o.AsOf)
		if err != nil {
			return matching.Options{}, err
		}
		opts.AsOf = asOf
	}
	return opts, nil
}

func parseAsOf(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("as_of must be YYYY-MM-DD or RFC 3339", err)
	}
	return t.UTC(), nil
}

// MatchRequest is the body of POST /match and POST /track
type MatchRequest struct {
	Profile json.RawMessage `json:"profile"`
	Options MatchOptions    `json:"options"`
}

// decodeProfile checks a raw profile against the JSON schema before decoding
// it, so field-level violations reach the client together
func decodeProfile(c *gin.Context, raw json.RawMessage) (profile.CompanyProfile, bool) {
	var p profile.CompanyProfile
	if len(raw) == 0 || string(raw) == "null" {
		badRequest(c, "profile is required", nil)
		return p, false
	}

	res, err := validation.ValidateProfileJSON(raw)
	if err != nil {
		respondError(c, err)
		return p, false
	}
	if !res.Valid {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "company profile failed validation",
			"code":      apperrors.ErrCodeInvalidInput,
			"errors":    res.Errors,
			"timestamp": time.Now(),
		})
		return p, false
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		badRequest(c, "profile could not be decoded", err)
		return p, false
	}
	return p, true
}

func requestedBy(c *gin.Context) *uuid.UUID {
	if id, ok := auth.UserID(c); ok {
		return &id
	}
	return nil
}

// Match matches a submitted profile. ?format=csv returns the result as a CSV report.
func (h *MatchHandler) Match(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	p, ok := decodeProfile(c, req.Profile)
	if !ok {
		return
	}
	opts, err := req.Options.Engine()
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.matching.Match(c.Request.Context(), services.MatchRequest{
		Profile:     p,
		Options:     opts,
		RequestedBy: requestedBy(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if format == services.FormatCSV {
		data, err := services.ExportResult(resp.Result, format)
		if err != nil {
			respondError(c, err)
			return
		}
		sendReport(c, resp.RunID.String(), format, data)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":    resp.RunID,
		"cached":    resp.Cached,
		"result":    resp.Result,
		"timestamp": time.Now(),
	})
}

// Track returns the track decision for a submitted profile
func (h *MatchHandler) Track(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	p, ok := decodeProfile(c, req.Profile)
	if !ok {
		return
	}

	decision, err := h.matching.Track(p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"track_decision": decision,
		"timestamp":      time.Now(),
	})
}

// GetRun returns a stored run
func (h *MatchHandler) GetRun(c *gin.Context) {
	run, err := h.matching.GetRun(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":       run,
		"timestamp": time.Now(),
	})
}

// ExportRun downloads a stored run as JSON or CSV
func (h *MatchHandler) ExportRun(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.reports.Export(c.Param("id"), format)
	if err != nil {
		respondError(c, err)
		return
	}
	sendReport(c, c.Param("id"), format, data)
}

func sendReport(c *gin.Context, name string, format services.ExportFormat, data []byte) {
	filename := fmt.Sprintf("match-%s.%s", strings.ReplaceAll(name, "/", ""), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}
