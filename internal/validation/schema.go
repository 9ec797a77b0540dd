package validation

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/company_profile.json
var companyProfileSchema []byte

var (
	profileSchemaOnce sync.Once
	profileSchema     *gojsonschema.Schema
	profileSchemaErr  error
)

// FieldError is one schema violation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is the outcome of validating one document
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

func loadProfileSchema() (*gojsonschema.Schema, error) {
	profileSchemaOnce.Do(func() {
		profileSchema, profileSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(companyProfileSchema))
	})
	return profileSchema, profileSchemaErr
}

// ValidateProfileJSON checks a raw company profile document before it is decoded
func ValidateProfileJSON(document []byte) (*Result, error) {
	schema, err := loadProfileSchema()
	if err != nil {
		return nil, apperrors.InternalError("company profile schema is invalid", err)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, apperrors.InvalidInput("profile is not valid JSON", err)
	}
	return toResult(res), nil
}

// ValidateProfile checks an already decoded document, such as a map from a request body
func ValidateProfile(document interface{}) (*Result, error) {
	schema, err := loadProfileSchema()
	if err != nil {
		return nil, apperrors.InternalError("company profile schema is invalid", err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, apperrors.InvalidInput("profile could not be read", err)
	}
	return toResult(res), nil
}

func toResult(res *gojsonschema.Result) *Result {
	out := &Result{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, FieldError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out
}

// Err converts an invalid result into an INVALID_INPUT error carrying the first violation
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	first := r.Errors[0]
	return apperrors.InvalidInput("company profile failed validation", nil).
		WithDetails(fmt.Sprintf("%s: %s (%d violations)", first.Field, first.Message, len(r.Errors)))
}
