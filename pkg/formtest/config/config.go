// Package config resolves harness settings from defaults, an optional .env
// file, LEADFLOW_* environment variables and CLI flag overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LEADFLOW_BASE_URL.
const EnvPrefix = "LEADFLOW"

// Default webhook endpoints the application posts to on submission.
const (
	DefaultFormWebhookURL = "https://hooks.zapier.com/hooks/catch/20481736/bx7k2qd/"
	DefaultFileWebhookURL = "https://hooks.zapier.com/hooks/catch/20481736/bx7m9fz/"
)

// Config holds every setting of the harness.
type Config struct {
	// BaseURL of the application under test. Empty means start the
	// bundled reference application on a random port.
	BaseURL string `mapstructure:"base_url"`
	// Password for the optional gate in front of the form.
	Password string `mapstructure:"password"`
	Headless bool   `mapstructure:"headless"`
	// Timeout bounds every wait for a DOM condition.
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SlowMotion delays each browser input, for watching a headed run.
	SlowMotion     time.Duration `mapstructure:"slow_motion"`
	FormWebhookURL string        `mapstructure:"form_webhook_url"`
	FileWebhookURL string        `mapstructure:"file_webhook_url"`
	// ScreenshotsDir receives a PNG per failed e2e test. Empty disables it.
	ScreenshotsDir string `mapstructure:"screenshots_dir"`
	LogLevel       string `mapstructure:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Headless:       true,
		Timeout:        10 * time.Second,
		PollInterval:   100 * time.Millisecond,
		FormWebhookURL: DefaultFormWebhookURL,
		FileWebhookURL: DefaultFileWebhookURL,
		ScreenshotsDir: "test-results/screenshots",
		LogLevel:       "info",
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// EnvFile is loaded with godotenv when it exists. Variables already set
	// in the environment win. Defaults to ".env".
	EnvFile string
	// FlagOverrides are highest-priority values keyed by config key
	// (e.g. "base_url").
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < .env < LEADFLOW_* environment < flag overrides.
func Load(opts LoadOptions) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, val := range opts.FlagOverrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("password", def.Password)
	v.SetDefault("headless", def.Headless)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("slow_motion", def.SlowMotion)
	v.SetDefault("form_webhook_url", def.FormWebhookURL)
	v.SetDefault("file_webhook_url", def.FileWebhookURL)
	v.SetDefault("screenshots_dir", def.ScreenshotsDir)
	v.SetDefault("log_level", def.LogLevel)
}

// Validate rejects settings no run could succeed with.
func (c Config) Validate() error {
	var errs []error
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL))
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	for key, raw := range map[string]string{"form_webhook_url": c.FormWebhookURL, "file_webhook_url": c.FileWebhookURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", key, raw))
		}
	}
	return errors.Join(errs...)
}

// StepURL returns the application URL that opens directly on step n.
func (c Config) StepURL(n int) string {
	base := strings.TrimRight(c.BaseURL, "/")
	return fmt.Sprintf("%s/?step=%d", base, n)
}
