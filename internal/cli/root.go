package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/config"
	"github.com/gcsguardian/guardian/internal/logging"
)

// annotationNoConfig marks commands that run without loading a config file.
const annotationNoConfig = "guardian/no-config"

var (
	cfg *config.Config

	configFile string
	verbose    bool
	debug      bool

	version = "dev"
)

// SetVersion records the build version for version output and the User-Agent.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Guardian - public bucket exposure and remediation viewer",
	Long: `Guardian loads a Cloud Storage exposure scan from the Guardian backend,
picks out the publicly exposed buckets and asks the backend's AI reasoning
service for a remediation plan for each one.

Quick start:
  guardian login <token>
  guardian doctor
  guardian results --scan-id <id>

Other commands:
  guardian serve --addr 127.0.0.1:8080
  guardian remember <scan-id> --rows rows.json
  guardian status`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationNoConfig] == "true" {
			logging.Init(verbose, debug)
			return nil
		}

		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("load config: %v", err)}
		}
		loaded.Verbose = loaded.Verbose || verbose
		loaded.Debug = loaded.Debug || debug
		cfg = loaded

		logging.Init(cfg.Verbose, cfg.Debug)
		slog.Debug("config loaded", "file", configFile, "api_base", cfg.APIBase, "backend", cfg.CacheBackend)
		return nil
	},
}

// Execute runs the command tree and exits with the code HandleError maps
// the failure to. Cobra has already printed the error by then.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(HandleError(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./guardian.yaml, ~/guardian.yaml or $XDG_CONFIG_HOME/guardian/guardian.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log requests and cache access to stderr")

	rootCmd.AddCommand(
		resultsCmd, serveCmd,
		loginCmd, logoutCmd, rememberCmd,
		statusCmd, doctorCmd, initCmd, versionCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Guardian version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "guardian %s\n", version)
	},
}
