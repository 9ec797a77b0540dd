package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/google/uuid"
)

// MatchRun is a persisted engine result
type MatchRun struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	CompanyID        *uuid.UUID `json:"company_id,omitempty" db:"company_id"`
	CatalogVersion   string     `json:"catalog_version" db:"catalog_version"`
	Options          RunOptions `json:"options" db:"options"`
	Result           RunResult  `json:"result" db:"result"`
	MatchedCount     int        `json:"matched_count" db:"matched_count"`
	ConditionalCount int        `json:"conditional_count" db:"conditional_count"`
	ExcludedCount    int        `json:"excluded_count" db:"excluded_count"`
	RequestedBy      *uuid.UUID `json:"requested_by,omitempty" db:"requested_by"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// NewMatchRun summarizes a result into a storable run
func NewMatchRun(companyID, requestedBy *uuid.UUID, opts matching.Options, res *matching.MatchResult) *MatchRun {
	return &MatchRun{
		ID:               uuid.New(),
		CompanyID:        companyID,
		CatalogVersion:   res.CatalogVersion,
		Options:          RunOptions(opts),
		Result:           RunResult(*res),
		MatchedCount:     len(res.Matched),
		ConditionalCount: len(res.Conditional),
		ExcludedCount:    len(res.Excluded),
		RequestedBy:      requestedBy,
	}
}

// RunOptions stores matching options as JSONB
type RunOptions matching.Options

// Value implements driver.Valuer for RunOptions
func (o RunOptions) Value() (driver.Value, error) {
	return json.Marshal(matching.Options(o))
}

// Scan implements sql.Scanner for RunOptions
func (o *RunOptions) Scan(value interface{}) error {
	var opts matching.Options
	if err := scanJSON(value, &opts); err != nil {
		return fmt.Errorf("cannot scan into RunOptions: %w", err)
	}
	*o = RunOptions(opts)
	return nil
}

// RunResult stores a match result as JSONB
type RunResult matching.MatchResult

// MatchResult returns the engine result type
func (r *RunResult) MatchResult() *matching.MatchResult {
	res := matching.MatchResult(*r)
	return &res
}

// Value implements driver.Valuer for RunResult
func (r RunResult) Value() (driver.Value, error) {
	return json.Marshal(matching.MatchResult(r))
}

// Scan implements sql.Scanner for RunResult
func (r *RunResult) Scan(value interface{}) error {
	var res matching.MatchResult
	if err := scanJSON(value, &res); err != nil {
		return fmt.Errorf("cannot scan into RunResult: %w", err)
	}
	*r = RunResult(res)
	return nil
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported type %T", value)
	}
}
