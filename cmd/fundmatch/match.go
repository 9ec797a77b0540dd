package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/ajharbinger/policy-fund-matcher/internal/validation"
	"github.com/spf13/cobra"
)

type matchFlags struct {
	profilePath   string
	topN          int
	minScore      int
	asOf          string
	format        string
	strictPurpose bool
}

func newMatchCmd(a *app) *cobra.Command {
	f := &matchFlags{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one company profile against the catalog",
		Example: `  fundmatch match --profile company.json
  fundmatch match --profile - --top 3 --format csv < company.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, a, f)
		},
	}

	cmd.Flags().StringVarP(&f.profilePath, "profile", "p", "", "company profile JSON file, or - for stdin")
	cmd.Flags().IntVar(&f.topN, "top", matching.DefaultTopN, "maximum number of matched funds")
	cmd.Flags().IntVar(&f.minScore, "min-score", matching.DefaultMinScore, "minimum final score to match (0 disables the floor)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "evaluation date, YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringVar(&f.format, "format", "json", "output format: json or csv")
	cmd.Flags().BoolVar(&f.strictPurpose, "strict-purpose", false, "exclude funds that do not support the funding purpose")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func runMatch(cmd *cobra.Command, a *app, f *matchFlags) error {
	format, err := services.ParseExportFormat(f.format)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if f.asOf != "" {
		asOf, err = time.Parse("2006-01-02", f.asOf)
		if err != nil {
			return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
		}
	}

	p, err := readProfile(cmd.InOrStdin(), f.profilePath)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	engine := matching.NewEngine(a.log)
	res, err := engine.Match(p, cat, matching.Options{
		TopN:          f.topN,
		MinScore:      matching.ScoreFloor(f.minScore),
		AsOf:          asOf,
		StrictPurpose: f.strictPurpose,
	})
	if err != nil {
		return err
	}

	data, err := services.ExportResult(res, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newTrackCmd(a *app) *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Show which fund tracks a company may apply through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProfile(cmd.InOrStdin(), profilePath)
			if err != nil {
				return err
			}
			decision, err := matching.NewEngine(a.log).Track(p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(decision)
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "company profile JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// readProfile loads and schema-checks a profile document
func readProfile(stdin io.Reader, path string) (profile.CompanyProfile, error) {
	var p profile.CompanyProfile

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}

	res, err := validation.ValidateProfileJSON(data)
	if err != nil {
		return p, err
	}
	if !res.Valid {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
		}
		return p, fmt.Errorf("profile failed validation:\n  %s", strings.Join(msgs, "\n  "))
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}
