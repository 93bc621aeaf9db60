package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/clipboard"
	"github.com/gcsguardian/guardian/internal/config"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/storage"
)

const doctorPingTimeout = 5 * time.Second

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, token, backend reachability and local cache",
	Long: `Doctor runs each check below and prints one line per check:

  config     config file found
  storage    cache directory or database writable
  token      access token present and well-formed
  api        backend reachable
  cache      remembered scan rows readable
  clipboard  system clipboard available (else OSC 52)

Warnings are informational. Failures need fixing before 'guardian results'
can fetch remediation plans.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "text", "output format: text or json")
}

type checkStatus string

const (
	statusOK   checkStatus = "ok"
	statusWarn checkStatus = "warn"
	statusFail checkStatus = "fail"
)

var statusMarks = map[checkStatus]string{
	statusOK:   color.GreenString("✓"),
	statusWarn: color.YellowString("△"),
	statusFail: color.RedString("✗"),
}

type doctorCheck struct {
	Name   string      `json:"name"`
	Status checkStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

func passed(name, detail string) doctorCheck { return doctorCheck{name, statusOK, detail} }
func warned(name, detail string) doctorCheck { return doctorCheck{name, statusWarn, detail} }
func failed(name, detail string) doctorCheck { return doctorCheck{name, statusFail, detail} }

type doctorResult struct {
	Checks  []doctorCheck `json:"checks"`
	Summary string        `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	checks := []doctorCheck{checkConfig()}

	persistent, err := openPersistent()
	if err != nil {
		checks = append(checks, failed("storage", err.Error()))
	} else {
		defer func() { _ = persistent.Close() }()
		checks = append(checks, checkStorage(persistent))
	}

	checks = append(checks, checkToken(persistent), checkAPI(commandContext(cmd)))
	if persistent != nil {
		checks = append(checks, checkCache(persistent))
	}
	checks = append(checks, checkClipboard(clipboard.Available()))

	result := summarizeChecks(checks)
	out := cmd.OutOrStdout()
	if doctorFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeDoctorText(out, result)
}

func summarizeChecks(checks []doctorCheck) doctorResult {
	count := map[checkStatus]int{}
	for _, c := range checks {
		count[c.Status]++
	}

	res := doctorResult{Checks: checks, Summary: "all checks passed"}
	switch {
	case count[statusFail] > 0:
		res.Summary = fmt.Sprintf("%d issue(s) found", count[statusFail])
	case count[statusWarn] > 0:
		res.Summary = fmt.Sprintf("ok with %d warning(s)", count[statusWarn])
	}
	return res
}

func writeDoctorText(w io.Writer, result doctorResult) error {
	for _, c := range result.Checks {
		line := fmt.Sprintf("  %s %-10s %s", statusMarks[c.Status], c.Name, c.Detail)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", result.Summary)
	return err
}

func checkConfig() doctorCheck {
	path := configFile
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err != nil {
		return warned("config", "no config file, using defaults. Run: guardian init")
	}
	return passed("config", path)
}

func checkStorage(persistent storage.Persistent) doctorCheck {
	const probe = "doctor_check"
	if err := persistent.Set(probe, "ok"); err != nil {
		return failed("storage", fmt.Sprintf("%s not writable: %v", persistent.Location(), err))
	}
	_ = persistent.Delete(probe)
	return passed("storage", fmt.Sprintf("%s (%s)", persistent.Location(), cfg.CacheBackend))
}

func checkToken(persistent storage.Store) doctorCheck {
	token, source := configuredToken(), "config"
	if token == "" {
		token, source = storage.Lookup(persistent, storage.KeyAccessToken), "cache"
	}
	if token == "" {
		return failed("token", "not set. Run: guardian login <token> or set GUARDIAN_TOKEN")
	}
	if err := api.ValidateToken(token); err != nil {
		return failed("token", fmt.Sprintf("malformed (%v)", err))
	}
	return passed("token", fmt.Sprintf("%s (from %s)", maskToken(token), source))
}

func checkAPI(ctx context.Context) doctorCheck {
	client := apiclient.New(cfg.APIBase, nil,
		apiclient.WithTimeout(doctorPingTimeout),
		apiclient.WithUserAgent(userAgent()))

	if err := client.Ping(ctx); err != nil {
		return failed("api", fmt.Sprintf("unreachable (%v)", err))
	}
	return passed("api", client.BaseURL())
}

func checkCache(persistent storage.Store) doctorCheck {
	id := orNone(storage.Lookup(persistent, storage.KeyLastScanID))
	raw := storage.Lookup(persistent, storage.KeyLastScanRows)
	if raw == "" {
		return passed("cache", fmt.Sprintf("last scan %s, no cached rows", id))
	}

	rows, err := models.ParseBucketRows([]byte(raw))
	if err != nil {
		return warned("cache", fmt.Sprintf("cached rows unreadable (%v). Run: guardian remember <scan-id> --rows FILE", err))
	}
	return passed("cache", fmt.Sprintf("last scan %s with %d row(s)", id, len(rows)))
}

func checkClipboard(available bool) doctorCheck {
	if available {
		return passed("clipboard", "")
	}
	return warned("clipboard", "no clipboard utility found, copying uses the terminal (OSC 52)")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
