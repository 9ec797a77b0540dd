package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate fund catalogs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the funds in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "catalog %s (%d funds)\n", cat.Version, cat.FundCount())
			fmt.Fprintln(w, "ID\tINSTITUTION\tTRACK\tPRODUCT\tNAME")
			for _, f := range cat.Funds() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.InstitutionID, f.Track, f.Product, f.Name)
			}
			return w.Flush()
		},
	}

	validate := &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse a YAML catalog and report defective funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			cat, err := catalog.Parse(data)
			if err != nil {
				return err
			}

			valid, defects := cat.ValidFunds()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %s: %d valid, %d defective\n", cat.Version, len(valid), len(defects))
			for _, d := range defects {
				fmt.Fprintf(out, "  %s/%s: %s\n", d.InstitutionID, d.FundID, d.Reason)
			}
			if len(defects) > 0 {
				return fmt.Errorf("catalog %s has %d defective funds", cat.Version, len(defects))
			}
			return nil
		},
	}

	cmd.AddCommand(list, validate)
	return cmd
}
