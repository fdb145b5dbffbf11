package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

func newFixturesCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "fixtures [profile...]",
		Short: "Print and validate the fixture profiles",
		Long: `Print the embedded fixture profiles as a YAML stream and validate each
one: field formats, ownership totalling 100% and the schema's owner and debt
limits. With no arguments every profile is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = formtest.Profiles()
			}
			set := map[string]formtest.TestFormData{}
			var errs []error
			for _, p := range args {
				data, err := formtest.Fixture(p)
				if err != nil {
					return err
				}
				set[p] = data
				if err := checkFixture(data); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", p, err))
					color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s: %v\n", p, err)
					continue
				}
				color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %s: %d owners, %d debts, %d documents\n",
					p, len(data.OwnershipInfo.Owners), len(data.FinancesInfo.Debts), len(data.Documents.Files))
			}
			if !quiet {
				out, err := formtest.MarshalFixturesYAML(set)
				if err != nil {
					return err
				}
				os.Stdout.Write(out)
			}
			a.logger.Debug("Checked fixtures", "count", len(set))
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only validate, do not print YAML")
	return cmd
}

func checkFixture(d formtest.TestFormData) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if t := d.OwnershipInfo.Total(); t != 100 {
		return fmt.Errorf("ownership totals %.2f%%, want 100%%", t)
	}
	return nil
}
