// Command leadflow drives the funding application wizard in a real browser.
//
// It serves the reference application, runs fixtures through the form with
// webhooks intercepted, soaks the full flow to measure flakiness, and checks
// a live page for drift from the step schema.
//
// Usage:
//
//	leadflow serve --addr :8080
//	leadflow run --fixture medium --to-step 7
//	leadflow soak --iterations 50 --workers 4
//	leadflow drift --base-url https://apply.example.com --password s3cret
//	leadflow fixtures large
//
// Settings come from flags, LEADFLOW_* environment variables and an
// optional .env file, in that order of precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/thesyncim/leadflow/pkg/formtest/config"
	"github.com/thesyncim/leadflow/pkg/formtest/logging"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	envFile string
	cfg     config.Config
	logger  *log.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "leadflow",
		Short:         "Browser test harness for the funding application wizard",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "Optional dotenv file with LEADFLOW_* settings")
	pf.String("base-url", "", "Application URL (default: start the reference app)")
	pf.String("password", "", "Password for the application's access gate")
	pf.Bool("headed", false, "Show the browser window")
	pf.Duration("timeout", 0, "Upper bound for every DOM wait (e.g. 15s)")
	pf.Duration("slow-motion", 0, "Delay between browser inputs")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newRunCmd(a),
		newSoakCmd(a),
		newFixturesCmd(a),
		newDriftCmd(a),
	)
	return root
}

// load resolves the configuration, letting only flags that were set on the
// command line override the environment.
func (a *app) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	overrides := map[string]any{}

	for flag, key := range map[string]string{"base-url": "base_url", "password": "password", "log-level": "log_level"} {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			overrides[key] = v
		}
	}
	for flag, key := range map[string]string{"timeout": "timeout", "slow-motion": "slow_motion"} {
		if flags.Changed(flag) {
			v, _ := flags.GetDuration(flag)
			overrides[key] = v
		}
	}
	if flags.Changed("headed") {
		headed, _ := flags.GetBool("headed")
		overrides["headless"] = !headed
	}

	cfg, err := config.Load(config.LoadOptions{EnvFile: a.envFile, FlagOverrides: overrides})
	if err != nil {
		return err
	}
	a.cfg = cfg
	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	opts.Prefix = cmd.Name()
	a.logger = logging.New(opts)
	return nil
}
