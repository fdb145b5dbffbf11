package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

// soakResult contains the results of a soak run.
type soakResult struct {
	Requested  int
	Iterations int
	Passed     int
	Failed     int
	Durations  []time.Duration
	Failures   map[string]int // error text -> occurrences
	Elapsed    time.Duration
}

// FlakeRate is the share of failed iterations.
func (r soakResult) FlakeRate() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Iterations)
}

func (r soakResult) percentile(p float64) time.Duration {
	if len(r.Durations) == 0 {
		return 0
	}
	d := slices.Clone(r.Durations)
	slices.Sort(d)
	i := int(p * float64(len(d)-1))
	return d[i]
}

func newSoakCmd(a *app) *cobra.Command {
	var (
		iterations int
		workers    int
		fixture    string
		maxFlake   float64
	)
	cmd := &cobra.Command{
		Use:   "soak",
		Short: "Repeat the full flow to measure flakiness",
		Long: `Run the complete submission flow --iterations times across --workers
parallel browsers. Every iteration uses its own page and webhook
interception. The run fails when the flake rate exceeds --max-flake.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if iterations < 1 || workers < 1 {
				return errors.New("iterations and workers must be at least 1")
			}
			profiles := formtest.Profiles()
			if fixture != "all" {
				if _, err := formtest.Fixture(fixture); err != nil {
					return err
				}
				profiles = []string{fixture}
			}

			base, stop, err := a.startTarget()
			if err != nil {
				return err
			}
			defer stop()
			cfg := a.cfg
			cfg.BaseURL = base

			fmt.Printf("Leadflow Soak Run\n")
			fmt.Printf("=================\n")
			fmt.Printf("Target:     %s\n", base)
			fmt.Printf("Iterations: %d\n", iterations)
			fmt.Printf("Workers:    %d\n", workers)
			fmt.Printf("Fixtures:   %v\n\n", profiles)

			result, err := runSoak(cmd.Context(), a, cfg.BaseURL, profiles, iterations, workers)
			if err != nil {
				return err
			}
			printSoakSummary(result, maxFlake)
			if result.FlakeRate() > maxFlake {
				return fmt.Errorf("flake rate %.1f%% exceeds %.1f%%", result.FlakeRate()*100, maxFlake*100)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10, "Number of full submissions")
	cmd.Flags().IntVarP(&workers, "workers", "w", 2, "Parallel browsers")
	cmd.Flags().StringVarP(&fixture, "fixture", "f", "all", "Fixture profile, or all to rotate through every profile")
	cmd.Flags().Float64Var(&maxFlake, "max-flake", 0, "Highest acceptable failure ratio (0-1)")
	return cmd
}

func runSoak(parent context.Context, a *app, base string, profiles []string, iterations, workers int) (soakResult, error) {
	start := time.Now()
	result := soakResult{Requested: iterations, Failures: map[string]int{}}
	var mu sync.Mutex

	jobs := make(chan int)
	g, ctx := errgroup.WithContext(parent)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < iterations; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			cfg := a.cfg
			cfg.BaseURL = base
			browser, err := newBrowser(cfg)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			defer browser.Close()

			f := flow{cfg: cfg, logger: a.logger.With("worker", w)}
			for i := range jobs {
				if ctx.Err() != nil {
					return nil
				}
				data, err := formtest.Fixture(profiles[i%len(profiles)])
				if err != nil {
					return err
				}
				schema := formtest.DefaultSchema()
				res, err := f.run(ctx, browser, data, schema.Len())

				mu.Lock()
				result.Iterations++
				if err != nil {
					result.Failed++
					result.Failures[err.Error()]++
					fmt.Printf("[%s] #%d %s %s at step %d: %v\n", elapsed(start), i+1, data.Profile, color.RedString("FAIL"), res.Reached, err)
				} else {
					result.Passed++
					result.Durations = append(result.Durations, res.Duration)
					fmt.Printf("[%s] #%d %s %s in %v\n", elapsed(start), i+1, data.Profile, color.GreenString("PASS"), res.Duration.Round(time.Millisecond))
				}
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	result.Elapsed = time.Since(start)
	if err != nil {
		return result, err
	}
	// Interrupted runs report what completed.
	return result, parent.Err()
}

func printSoakSummary(r soakResult, maxFlake float64) {
	fmt.Printf("\n")
	fmt.Printf("Soak Run Complete\n")
	fmt.Printf("=================\n")
	fmt.Printf("Elapsed:      %v\n", r.Elapsed.Round(time.Second))
	fmt.Printf("Iterations:   %d\n", r.Iterations)
	fmt.Printf("Passed:       %d\n", r.Passed)
	fmt.Printf("Failed:       %d\n", r.Failed)
	fmt.Printf("Flake rate:   %.1f%%\n", r.FlakeRate()*100)
	fmt.Printf("p50 duration: %v\n", r.percentile(0.5).Round(time.Millisecond))
	fmt.Printf("p95 duration: %v\n", r.percentile(0.95).Round(time.Millisecond))

	if len(r.Failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for msg, n := range r.Failures {
			fmt.Printf("  %3dx %s\n", n, msg)
		}
	}

	fmt.Printf("\nPass Criteria:\n")
	fmt.Printf("  - Every iteration ran:   %s\n", checkMark(r.Iterations == r.Requested))
	fmt.Printf("  - Flake rate <= %.1f%%: %s\n", maxFlake*100, checkMark(r.FlakeRate() <= maxFlake))
}

func elapsed(start time.Time) string {
	d := time.Since(start)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return color.GreenString("PASS")
	}
	return color.RedString("FAIL")
}
