package services

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/google/uuid"
)

// ExportFormat specifies the format of an exported match report
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ContentType returns the HTTP content type of the format
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// ParseExportFormat accepts "json", "csv" or empty (json)
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apperrors.InvalidInput("unsupported export format: "+s, nil)
	}
}

var reportColumns = []string{
	"list", "rank", "fund_id", "fund_name", "institution_id", "track",
	"score", "confidence", "category", "reason", "detail",
}

// ReportExportService renders stored match runs for download
type ReportExportService struct {
	runs repository.MatchRunRepository
}

// NewReportExportService creates a new report export service
func NewReportExportService(runs repository.MatchRunRepository) *ReportExportService {
	return &ReportExportService{runs: runs}
}

// Export renders the stored run id in the given format
func (s *ReportExportService) Export(id string, format ExportFormat) ([]byte, error) {
	if s.runs == nil {
		return nil, errNoStore
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid run ID", err)
	}
	run, err := s.runs.GetByID(runID)
	if err != nil {
		return nil, err
	}
	return ExportRun(run, format)
}

// ExportRun renders a stored run, including its metadata in the JSON form
func ExportRun(run *models.MatchRun, format ExportFormat) ([]byte, error) {
	if format != FormatJSON {
		return ExportResult(run.Result.MatchResult(), format)
	}
	return json.MarshalIndent(map[string]interface{}{
		"run_id":      run.ID,
		"company_id":  run.CompanyID,
		"options":     run.Options,
		"result":      run.Result.MatchResult(),
		"created_at":  run.CreatedAt,
		"exported_at": time.Now().UTC(),
	}, "", "  ")
}

// ExportResult renders one match result. The CSV form has one row per placed
// fund: matched funds first by rank, then conditional, then excluded.
func ExportResult(res *matching.MatchResult, format ExportFormat) ([]byte, error) {
	if res == nil {
		return nil, apperrors.InvalidInput("match result is required", nil)
	}
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(res, "", "  ")
	case FormatCSV:
		return exportCSV(res)
	default:
		return nil, apperrors.InvalidInput("unsupported export format: "+string(format), nil)
	}
}

func exportCSV(res *matching.MatchResult) ([]byte, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	if err := writer.Write(reportColumns); err != nil {
		return nil, err
	}

	for _, m := range res.Matched {
		row := []string{
			"matched", strconv.Itoa(m.Rank), m.FundID, m.FundName, m.InstitutionID, string(m.Track),
			strconv.Itoa(m.Score), string(m.Confidence), "", "", strings.Join(m.Notes, "; "),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	for _, c := range res.Conditional {
		missing := make([]string, len(c.Missing))
		for i, mc := range c.Missing {
			missing[i] = mc.Condition
		}
		row := []string{
			"conditional", "", c.FundID, c.FundName, c.InstitutionID, string(c.Track),
			strconv.Itoa(c.Score), "", "", "", strings.Join(missing, "; "),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	for _, x := range res.Excluded {
		row := []string{
			"excluded", "", x.FundID, x.FundName, x.InstitutionID, string(x.Track),
			"", "", string(x.Category), x.Reason, x.Detail,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return []byte(output.String()), nil
}
