package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/storage"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, token and cached scan",
	Long: `Status displays the current Guardian configuration, where the access
token comes from (masked), and which scan is remembered in the cache.

Example:
  guardian status
  guardian status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text",
		"output format: text or json")
}

type statusResult struct {
	Config     statusConfig `json:"config"`
	ConfigFile string       `json:"config_file,omitempty"`
	Token      statusToken  `json:"token"`
	Cache      statusCache  `json:"cache"`
}

type statusConfig struct {
	APIBase      string `json:"api_base"`
	Format       string `json:"format"`
	Timeout      string `json:"timeout"`
	CopyFeedback string `json:"copy_feedback"`
	ListenAddr   string `json:"listen_addr"`
}

type statusToken struct {
	Source string `json:"source"` // "config", "cache" or "none"
	Masked string `json:"masked,omitempty"`
}

type statusCache struct {
	Backend    string `json:"backend"`
	Location   string `json:"location"`
	LastScanID string `json:"last_scan_id,omitempty"`
	CachedRows int    `json:"cached_rows"`
	RowsError  string `json:"rows_error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	persistent, err := openPersistent()
	if err != nil {
		return err
	}
	defer func() { _ = persistent.Close() }()

	result := buildStatus(persistent)
	result.ConfigFile = configFile

	if statusFormat == "json" {
		return writeStatusJSON(result)
	}
	return writeStatusText(result)
}

func buildStatus(persistent storage.Persistent) statusResult {
	result := statusResult{
		Config: statusConfig{
			APIBase:      cfg.APIBase,
			Format:       cfg.Format,
			Timeout:      cfg.Timeout.String(),
			CopyFeedback: cfg.CopyFeedback.String(),
			ListenAddr:   cfg.ListenAddr,
		},
		Token: statusToken{Source: "none"},
		Cache: statusCache{
			Backend:  cfg.CacheBackend,
			Location: persistent.Location(),
		},
	}

	if tok := configuredToken(); tok != "" {
		result.Token = statusToken{Source: "config", Masked: maskToken(tok)}
	} else if tok := storage.Lookup(persistent, storage.KeyAccessToken); tok != "" {
		result.Token = statusToken{Source: "cache", Masked: maskToken(tok)}
	}

	result.Cache.LastScanID = storage.Lookup(persistent, storage.KeyLastScanID)
	if raw := storage.Lookup(persistent, storage.KeyLastScanRows); raw != "" {
		rows, err := models.ParseBucketRows([]byte(raw))
		if err != nil {
			result.Cache.RowsError = err.Error()
		} else {
			result.Cache.CachedRows = len(rows)
		}
	}

	return result
}

func writeStatusText(result statusResult) error {
	fmt.Println("Guardian status")
	fmt.Println()
	fmt.Printf("  API base:       %s\n", result.Config.APIBase)
	fmt.Printf("  Format:         %s\n", result.Config.Format)
	fmt.Printf("  Timeout:        %s\n", result.Config.Timeout)
	fmt.Printf("  Copy feedback:  %s\n", result.Config.CopyFeedback)
	fmt.Printf("  Listen addr:    %s\n", result.Config.ListenAddr)
	if result.ConfigFile != "" {
		fmt.Printf("  Config file:    %s\n", result.ConfigFile)
	}
	fmt.Println()

	switch result.Token.Source {
	case "none":
		fmt.Println("  Token:          not set. Run: guardian login <token>")
	default:
		fmt.Printf("  Token:          %s (from %s)\n", result.Token.Masked, result.Token.Source)
	}

	fmt.Printf("  Cache:          %s (%s)\n", result.Cache.Location, result.Cache.Backend)
	if result.Cache.LastScanID == "" {
		fmt.Println("  Last scan:      none")
	} else {
		fmt.Printf("  Last scan:      %s\n", result.Cache.LastScanID)
	}
	if result.Cache.RowsError != "" {
		fmt.Printf("  Cached rows:    unreadable (%s)\n", result.Cache.RowsError)
	} else {
		fmt.Printf("  Cached rows:    %d\n", result.Cache.CachedRows)
	}

	return nil
}

func writeStatusJSON(result statusResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
