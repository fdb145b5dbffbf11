package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		fixture string
		toStep  int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill a fixture through the wizard in a browser",
		Long: `Open the application, fill the chosen fixture step by step and advance
until --to-step is rendered. Reaching the last step submits the application;
webhook calls are intercepted and the captured submission is summarised.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := formtest.Fixture(fixture)
			if err != nil {
				return err
			}
			schema := formtest.DefaultSchema()
			if toStep == 0 {
				toStep = schema.Len()
			}
			if _, err := schema.Step(toStep); err != nil {
				return err
			}

			base, stop, err := a.startTarget()
			if err != nil {
				return err
			}
			defer stop()
			cfg := a.cfg
			cfg.BaseURL = base

			browser, err := newBrowser(cfg)
			if err != nil {
				return err
			}
			defer browser.Close()

			bar := progressbar.NewOptions(toStep,
				progressbar.OptionSetDescription(color.CyanString("%-24s", "Starting")),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        color.CyanString("█"),
					SaucerHead:    color.CyanString("█"),
					SaucerPadding: "░",
					BarStart:      "│",
					BarEnd:        "│",
				}),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprint(os.Stderr, "\n")
				}),
				progressbar.OptionSetRenderBlankState(true),
			)

			f := flow{
				cfg:    cfg,
				logger: a.logger,
				onStep: func(n int, title string) {
					bar.Describe(color.CyanString("%-24s", title))
					bar.Set(n)
				},
			}
			res, err := f.run(cmd.Context(), browser, data, toStep)
			if err != nil {
				color.Red("✗ %s stopped at step %d: %v", fixture, res.Reached, err)
				return err
			}
			printRunSummary(res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fixture, "fixture", "f", formtest.ProfileSmall, "Fixture profile: small, medium or large")
	cmd.Flags().IntVar(&toStep, "to-step", 0, "Stop once this step is rendered (default: submit)")
	return cmd
}

func printRunSummary(res flowResult) {
	color.Green("✓ %s reached step %d in %v", res.Fixture, res.Reached, res.Duration.Round(time.Millisecond))
	if res.Submission == nil {
		return
	}
	sub := res.Submission
	fmt.Printf("\nCaptured submission\n")
	fmt.Printf("===================\n")
	fmt.Printf("Contact:       %s %s <%s> %s\n", sub.Contact.Firstname, sub.Contact.Lastname, sub.Contact.Email, sub.Contact.Phone)
	fmt.Printf("Company:       %s\n", sub.Company.Name)
	fmt.Printf("Amount:        %s (%s)\n", sub.Deal.FundingAmount, sub.Deal.FundingPurpose)
	fmt.Printf("Owners:        %d\n", len(sub.Deal.Owners))
	fmt.Printf("Debts:         %d\n", len(sub.Deal.Finances.Debts))
	fmt.Printf("Documents:     %d uploaded\n", res.Uploads)
	fmt.Printf("Confirmation:  %s\n", res.ConfirmationID)
}
