package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/google/uuid"
)

// Company is a stored applicant whose profile can be re-matched
type Company struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	BusinessNumber *string    `json:"business_number,omitempty" db:"business_number"`
	Profile        ProfileDoc `json:"profile" db:"profile"`
	CreatedBy      *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	LastMatchedAt  *time.Time `json:"last_matched_at,omitempty" db:"last_matched_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// ProfileDoc stores a company profile as JSONB
type ProfileDoc profile.CompanyProfile

// CompanyProfile returns the engine input type
func (p ProfileDoc) CompanyProfile() profile.CompanyProfile {
	return profile.CompanyProfile(p)
}

// Value implements driver.Valuer for ProfileDoc
func (p ProfileDoc) Value() (driver.Value, error) {
	return json.Marshal(profile.CompanyProfile(p))
}

// Scan implements sql.Scanner for ProfileDoc
func (p *ProfileDoc) Scan(value interface{}) error {
	if value == nil {
		*p = ProfileDoc{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ProfileDoc", value)
	}

	var cp profile.CompanyProfile
	if err := json.Unmarshal(data, &cp); err != nil {
		return err
	}
	*p = ProfileDoc(cp)
	return nil
}

// CreateCompanyRequest is the body of POST /companies
type CreateCompanyRequest struct {
	Name           string                 `json:"name" binding:"required"`
	BusinessNumber string                 `json:"business_number"`
	Profile        profile.CompanyProfile `json:"profile"`
}
