package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample config file",
	Long: `Init writes a commented sample config to --config, or to
$XDG_CONFIG_HOME/guardian/guardian.yaml (else ~/guardian.yaml).

Example:
  guardian init
  guardian init --config ./guardian.yaml --force`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.ConfigPath()
	}

	if err := config.WriteSample(path, initForce); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	fmt.Printf("Config written to %s\n", path)
	return nil
}
