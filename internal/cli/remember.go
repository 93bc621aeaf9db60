package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/api"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/results"
	"github.com/gcsguardian/guardian/internal/storage"
)

const maxRowsBytes = 8 << 20

var rememberRows string

var rememberCmd = &cobra.Command{
	Use:   "remember <scan-id>",
	Short: "Remember a scan as the last one viewed",
	Long: `Remember stores a scan id (and optionally its bucket rows) in the
persistent cache. guardian results uses the remembered id when --scan-id is
omitted, and the rows when no backend endpoint knows the scan.

--rows accepts a JSON array of bucket records or a scan payload with a
"buckets" or "results" array. Use "-" to read from stdin. Without --rows,
previously cached rows are dropped.

Example:
  guardian remember 7f3c --rows scan-7f3c.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRemember,
}

func init() {
	rememberCmd.Flags().StringVar(&rememberRows, "rows", "",
		"file with the scan's bucket rows (- for stdin)")
}

func runRemember(cmd *cobra.Command, args []string) error {
	scanID := args[0]
	if err := api.ValidateScanID(scanID); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid scan id: %v", err)}
	}

	var scan *models.ScanResult
	if rememberRows != "" {
		data, err := readRowsFile(rememberRows)
		if err != nil {
			return err
		}
		scan, err = parseRows(scanID, data)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("invalid rows in %s: %v", rememberRows, err)}
		}
	}

	persistent, err := openPersistent()
	if err != nil {
		return err
	}
	defer func() { _ = persistent.Close() }()

	if scan == nil {
		if err := persistent.Delete(storage.KeyLastScanRows); err != nil {
			return fmt.Errorf("drop cached rows: %w", err)
		}
		if err := persistent.Set(storage.KeyLastScanID, scanID); err != nil {
			return fmt.Errorf("remember scan id: %w", err)
		}
		fmt.Printf("Remembered scan %s in %s\n", scanID, persistent.Location())
		return nil
	}

	if err := results.Remember(persistent, scan); err != nil {
		return err
	}
	fmt.Printf("Remembered scan %s with %d bucket row(s) in %s\n", scanID, len(scan.Buckets), persistent.Location())
	return nil
}

// parseRows accepts a bare array of rows or a scan payload object.
func parseRows(scanID string, data []byte) (*models.ScanResult, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		rows, err := models.ParseBucketRows(data)
		if err != nil {
			return nil, err
		}
		return &models.ScanResult{ScanID: scanID, Buckets: rows}, nil
	}
	return models.ParseScanPayload(scanID, data)
}

func readRowsFile(path string) ([]byte, error) {
	if path == "-" {
		data, err := readAllLimited(os.Stdin, maxRowsBytes)
		if err != nil {
			return nil, fmt.Errorf("read rows from stdin: %w", err)
		}
		return data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := readAllLimited(f, maxRowsBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}
	return data, nil
}

// readAllLimited reads r fully and fails when it holds more than limit bytes.
func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("input exceeds %d bytes", limit)
	}
	return data, nil
}
