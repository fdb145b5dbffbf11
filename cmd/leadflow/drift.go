package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/thesyncim/leadflow/pkg/formtest"
)

func newDriftCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drift",
		Short: "Check a served page against the step schema",
		Long: `Fetch the application page (unlocking the password gate when a password
is configured) and report every schema field, step section or control that
the served DOM does not contain. Exits non-zero when drift is found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, stop, err := a.startTarget()
			if err != nil {
				return err
			}
			defer stop()

			page, err := fetchPage(base, a.cfg.Password, a.cfg.Timeout)
			if err != nil {
				return err
			}
			schema := formtest.DefaultSchema()
			drift, err := formtest.CheckDOM(schema, bytes.NewReader(page))
			if err != nil {
				return err
			}
			if len(drift) == 0 {
				color.Green("✓ %s matches schema %s", base, schema.Version)
				return nil
			}
			color.Red("✗ %s drifted from schema %s:", base, schema.Version)
			for _, d := range drift {
				fmt.Printf("  - %s\n", d)
			}
			return fmt.Errorf("%d drift findings", len(drift))
		},
	}
}

// fetchPage returns the wizard HTML at base, posting the password to the
// gate first when one is shown.
func fetchPage(base, password string, timeout time.Duration) ([]byte, error) {
	client := resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "text/html")

	resp, err := client.R().Get("/")
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", base, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", base, resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte(`type="password"`)) {
		return resp.Body(), nil
	}
	if password == "" {
		return nil, errors.New("page is password protected, set --password or LEADFLOW_PASSWORD")
	}

	resp, err = client.R().
		SetFormData(map[string]string{"password": password, "next": "/"}).
		Post("/unlock")
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", base, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unlock %s: status %d", base, resp.StatusCode())
	}
	return resp.Body(), nil
}
