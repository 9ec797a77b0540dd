package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileJSON = `{
	"name": "한빛정밀",
	"industry": "manufacturing",
	"region": "경기",
	"business_age_years": 3,
	"annual_revenue": 3000000000,
	"employee_count": 25,
	"debt_ratio": 150,
	"status": {
		"venture_certified": false, "innobiz_certified": false, "mainbiz_certified": false,
		"female_owned": false, "disabled_owned": false, "disabled_standard_workplace": false,
		"social_enterprise": false, "restart_after_failure": false, "youth_owned": false,
		"rnd_active": false, "export_active": false, "patent_holding": false
	}
}`

const brokenCatalog = `version: "broken-1"
institutions:
  - id: kosmes
    name: 중소벤처기업진흥공단
    kind: direct_lender
    funds:
      - id: no-track
        name: 트랙 없는 자금
        product: direct_loan
        supported_purposes: [working_capital]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatchCommand_JSON(t *testing.T) {
	path := writeFile(t, "company.json", profileJSON)

	out, err := execute(t, "", "match", "--profile", path, "--as-of", "2026-03-10", "--top", "3")
	require.NoError(t, err)

	var res matching.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.CatalogVersion)
	assert.LessOrEqual(t, len(res.Matched), 3)
	for i, m := range res.Matched {
		assert.Equal(t, i+1, m.Rank)
		assert.GreaterOrEqual(t, m.Score, matching.DefaultMinScore)
	}
}

func TestMatchCommand_CSVFromStdin(t *testing.T) {
	out, err := execute(t, profileJSON, "match", "--profile", "-", "--format", "csv", "--as-of", "2026-03-10")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "list", rows[0][0])
}

func TestMatchCommand_Errors(t *testing.T) {
	path := writeFile(t, "company.json", profileJSON)
	invalid := writeFile(t, "bad.json", `{"name": "x", "industry": "manufacturing", "business_age_years": -1}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing profile flag", []string{"match"}, "profile"},
		{"bad format", []string{"match", "--profile", path, "--format", "xml"}, "format"},
		{"bad as-of", []string{"match", "--profile", path, "--as-of", "March"}, "as-of"},
		{"schema violation", []string{"match", "--profile", invalid}, "failed validation"},
		{"negative top", []string{"match", "--profile", path, "--top", "-1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.want)
		})
	}
}

func TestTrackCommand(t *testing.T) {
	path := writeFile(t, "company.json", profileJSON)

	out, err := execute(t, "", "track", "--profile", path)
	require.NoError(t, err)

	var decision matching.TrackDecision
	require.NoError(t, json.Unmarshal([]byte(out), &decision))
	assert.NotEmpty(t, decision.AllowedTracks)
	assert.NotEmpty(t, decision.Rationale)
}

func TestCatalogList(t *testing.T) {
	out, err := execute(t, "", "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "kosmes-startup-base")
	assert.Contains(t, out, "INSTITUTION")
}

func TestCatalogValidate(t *testing.T) {
	broken := writeFile(t, "broken.yaml", brokenCatalog)
	out, err := execute(t, "", "catalog", "validate", broken)
	require.Error(t, err)
	assert.Contains(t, out, "no-track")
	assert.Contains(t, out, "track is required")

	_, err = execute(t, "", "catalog", "validate", writeFile(t, "garbage.yaml", "institutions: []\n"))
	assert.Error(t, err)
}

func TestMatchCommand_CustomCatalog(t *testing.T) {
	profilePath := writeFile(t, "company.json", profileJSON)
	broken := writeFile(t, "broken.yaml", brokenCatalog)

	out, err := execute(t, "", "--catalog", broken, "match", "--profile", profilePath, "--as-of", "2026-03-10")
	require.NoError(t, err)

	var res matching.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "broken-1", res.CatalogVersion)
	assert.Empty(t, res.Matched)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "no-track", res.Skipped[0].FundID)
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	_, err := execute(t, "", "user", "create", "--email", "a@b.kr", "--password", "secret123", "--role", "owner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestLoadCatalog_DefaultsToSeed(t *testing.T) {
	a := &app{log: logger.NewNop()}
	cat, err := a.loadCatalog()
	require.NoError(t, err)
	assert.Positive(t, cat.FundCount())
}
