package main

import (
	"fmt"
	"os"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/spf13/cobra"
)

// app carries the flags shared by every subcommand
type app struct {
	catalogPath string
	logLevel    string
	log         logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fundmatch",
		Short: "Match company profiles against the policy fund catalog",
		Long: `fundmatch runs the policy fund matching engine locally.

It reads a company profile as JSON, evaluates it against the embedded seed
catalog (or a YAML catalog given with --catalog) and prints matched,
conditional and excluded funds.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return nil
			}
			log, err := logger.New(a.logLevel, "console")
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "YAML catalog file (defaults to the embedded seed catalog)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newMatchCmd(a), newTrackCmd(a), newCatalogCmd(a), newUserCmd(a))
	return root
}

// loadCatalog returns the catalog named by --catalog, or the seed
func (a *app) loadCatalog() (*catalog.Catalog, error) {
	if a.catalogPath == "" {
		return catalog.Seed()
	}
	data, err := os.ReadFile(a.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return catalog.Parse(data)
}
