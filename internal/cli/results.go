package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/config"
	"github.com/gcsguardian/guardian/internal/policy"
	"github.com/gcsguardian/guardian/internal/render"
	"github.com/gcsguardian/guardian/internal/results"
	"github.com/gcsguardian/guardian/internal/storage"
	"github.com/gcsguardian/guardian/internal/tui"
)

var (
	resultsScanID   string
	resultsFormat   string
	resultsOutput   string
	resultsPolicy   string
	resultsRemember bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show public buckets of a scan with AI remediation plans",
	Long: `Results loads a scan, lists the buckets that are publicly exposed and
renders one remediation card per public bucket.

The scan id comes from --scan-id, else the last scan remembered in the
cache. When neither backend endpoint knows the scan, cached rows are used.

A policy file (.guardian-policy.yaml, searched upward from the current
directory, or --policy) turns the run into a CI gate: violations exit 1.

Example:
  guardian results --scan-id 7f3c
  guardian results --format json --policy ci-policy.yaml`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsScanID, "scan-id", "",
		"scan to show (default: last remembered scan)")
	resultsCmd.Flags().StringVar(&resultsFormat, "format", "",
		"output format: text, json, or tui (default from config)")
	resultsCmd.Flags().StringVarP(&resultsOutput, "output", "o", "",
		"write text or json output to file")
	resultsCmd.Flags().StringVar(&resultsPolicy, "policy", "",
		"policy file (default: .guardian-policy.yaml if found)")
	resultsCmd.Flags().BoolVar(&resultsRemember, "remember", false,
		"remember this scan as the last one viewed")
}

// ResultsConfig holds the options of one results run.
type ResultsConfig struct {
	ScanID     string
	Format     string
	Output     string
	PolicyPath string
	Remember   bool
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunResults(ctx, ResultsConfig{
		ScanID:     resultsScanID,
		Format:     resultsFormat,
		Output:     resultsOutput,
		PolicyPath: resultsPolicy,
		Remember:   resultsRemember,
	})
}

// RunResults renders one results view and applies the policy gate.
func RunResults(ctx context.Context, rcfg ResultsConfig) error {
	format := rcfg.Format
	if format == "" {
		format = cfg.Format
	}
	if err := config.ValidateFormat(format); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if rcfg.ScanID != "" {
		if err := api.ValidateScanID(rcfg.ScanID); err != nil {
			return &ValidationError{Message: fmt.Sprintf("invalid --scan-id: %v", err)}
		}
	}
	if format == "tui" && (rcfg.Output != "" || !term.IsTerminal(int(os.Stdout.Fd()))) {
		slog.Info("stdout is not a terminal, falling back to text output")
		format = "text"
	}

	persistent, err := openPersistent()
	if err != nil {
		slog.Error("open cache", "err", err)
		return err
	}
	defer func() { _ = persistent.Close() }()

	writer := io.Writer(os.Stdout)
	if rcfg.Output != "" {
		f, err := os.Create(rcfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		writer = f
	}

	env := results.Env{
		APIBase:    cfg.APIBase,
		Token:      configuredToken,
		Session:    storage.NewMemory(),
		Persistent: persistent,
		HTTPClient: httpClient(),
		UserAgent:  userAgent(),
		Logger:     slog.Default(),
	}

	outcome, err := show(ctx, env, format, writer, rcfg.ScanID)
	if err != nil {
		return err
	}
	if outcome == nil {
		return nil
	}

	slog.Info("results rendered", "scan_id", outcome.Scan.ScanID,
		"cards", outcome.Remediation.Rendered, "failed", outcome.Remediation.Failed)

	if rcfg.Remember && !outcome.Scan.FromCache {
		if err := results.Remember(persistent, outcome.Scan); err != nil {
			slog.Error("remember scan", "scan_id", outcome.Scan.ScanID, "err", err)
			return err
		}
		slog.Info("scan remembered", "scan_id", outcome.Scan.ScanID, "location", persistent.Location())
	}

	return enforcePolicy(rcfg.PolicyPath, outcome)
}

// show runs the results view against the target for format.
func show(ctx context.Context, env results.Env, format string, w io.Writer, scanID string) (*results.Outcome, error) {
	switch format {
	case "json":
		target := render.NewJSONTarget(w, true)
		env.Target = target
		outcome, err := results.Show(ctx, env, scanID)
		if genErr := target.Generate(); genErr != nil && err == nil {
			err = genErr
		}
		return outcome, err

	case "tui":
		var outcome *results.Outcome
		err := tui.Run(ctx, tui.Options{CopyFeedback: cfg.CopyFeedback}, func(ctx context.Context, target render.Target) error {
			env.Target = target
			var err error
			outcome, err = results.Show(ctx, env, scanID)
			return err
		})
		return outcome, err

	default:
		env.Target = render.NewTextTarget(w)
		return results.Show(ctx, env, scanID)
	}
}

// enforcePolicy evaluates the policy file, if any, against outcome.
func enforcePolicy(path string, outcome *results.Outcome) error {
	if path == "" {
		path = policy.FindPolicyFile()
	}
	if path == "" {
		return nil
	}
	slog.Info("using policy file", "path", path)

	pol, err := policy.LoadFromFile(path)
	if err != nil {
		slog.Error("load policy", "path", path, "err", err)
		return &ValidationError{Message: err.Error()}
	}
	if pol == nil {
		return &ValidationError{Message: fmt.Sprintf("policy file not found: %s", path)}
	}

	result := pol.Evaluate(outcome)
	if !result.Pass {
		for _, v := range result.Violations {
			slog.Error("policy violation", "rule", v.Rule, "message", v.Message)
		}
		return &ThresholdExceededError{Violations: len(result.Violations)}
	}

	slog.Info("policy check passed", "path", path)
	return nil
}
