package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/config"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/storage"
)

func TestLoginStoresToken(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:1")
	withTestConfig(t, c)

	output := captureStdout(t, func() {
		if err := runLogin(&cobra.Command{}, []string{" tok-0123456789abcdef "}); err != nil {
			t.Errorf("runLogin: %v", err)
		}
	})

	store := storage.NewLocal(c.StorageDir)
	if got := storage.Lookup(store, storage.KeyAccessToken); got != "tok-0123456789abcdef" {
		t.Errorf("stored token = %q", got)
	}
	if strings.Contains(output, "tok-0123456789abcdef") {
		t.Error("token must be masked in output")
	}
}

func TestLoginRejectsInvalidToken(t *testing.T) {
	withTestConfig(t, testConfig(t, "http://127.0.0.1:1"))

	err := runLogin(&cobra.Command{}, []string{"has space"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLogoutRemovesToken(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:1")
	withTestConfig(t, c)

	store := storage.NewLocal(c.StorageDir)
	if err := store.Set(storage.KeyAccessToken, "tok"); err != nil {
		t.Fatal(err)
	}

	output := captureStdout(t, func() {
		if err := runLogout(&cobra.Command{}, nil); err != nil {
			t.Errorf("runLogout: %v", err)
		}
	})

	if got := storage.Lookup(store, storage.KeyAccessToken); got != "" {
		t.Errorf("token still stored: %q", got)
	}
	if !strings.Contains(output, "removed") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestRememberWithRows(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:1")
	withTestConfig(t, c)

	rowsPath := filepath.Join(t.TempDir(), "rows.json")
	if err := os.WriteFile(rowsPath, []byte(`{"results":[{"bucket":"a","public":true},{"bucket":"b"}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	old := rememberRows
	rememberRows = rowsPath
	t.Cleanup(func() { rememberRows = old })

	output := captureStdout(t, func() {
		if err := runRemember(&cobra.Command{}, []string{"scan-9"}); err != nil {
			t.Errorf("runRemember: %v", err)
		}
	})
	if !strings.Contains(output, "2 bucket row(s)") {
		t.Errorf("unexpected output %q", output)
	}

	store := storage.NewLocal(c.StorageDir)
	if got := storage.Lookup(store, storage.KeyLastScanID); got != "scan-9" {
		t.Errorf("last_scan_id = %q", got)
	}
	rows, err := models.ParseBucketRows([]byte(storage.Lookup(store, storage.KeyLastScanRows)))
	if err != nil || len(rows) != 2 {
		t.Errorf("cached rows = %v (%v)", rows, err)
	}
}

func TestRememberWithoutRowsDropsStaleRows(t *testing.T) {
	c := testConfig(t, "http://127.0.0.1:1")
	withTestConfig(t, c)

	store := storage.NewLocal(c.StorageDir)
	if err := store.Set(storage.KeyLastScanRows, `[{"bucket":"old"}]`); err != nil {
		t.Fatal(err)
	}

	old := rememberRows
	rememberRows = ""
	t.Cleanup(func() { rememberRows = old })

	captureStdout(t, func() {
		if err := runRemember(&cobra.Command{}, []string{"scan-10"}); err != nil {
			t.Errorf("runRemember: %v", err)
		}
	})

	if got := storage.Lookup(store, storage.KeyLastScanID); got != "scan-10" {
		t.Errorf("last_scan_id = %q", got)
	}
	if got := storage.Lookup(store, storage.KeyLastScanRows); got != "" {
		t.Errorf("stale rows kept: %q", got)
	}
}

func TestRememberInvalidRows(t *testing.T) {
	withTestConfig(t, testConfig(t, "http://127.0.0.1:1"))

	rowsPath := filepath.Join(t.TempDir(), "rows.json")
	if err := os.WriteFile(rowsPath, []byte(`[{"bucket":`), 0644); err != nil {
		t.Fatal(err)
	}
	old := rememberRows
	rememberRows = rowsPath
	t.Cleanup(func() { rememberRows = old })

	err := runRemember(&cobra.Command{}, []string{"scan-1"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseRowsShapes(t *testing.T) {
	scan, err := parseRows("s", []byte(` [{"bucket":"a"}]`))
	if err != nil || len(scan.Buckets) != 1 {
		t.Errorf("array: %+v (%v)", scan, err)
	}
	scan, err = parseRows("s", []byte(`{"buckets":[{"bucket":"a"},{"bucket":"b"}]}`))
	if err != nil || len(scan.Buckets) != 2 {
		t.Errorf("payload: %+v (%v)", scan, err)
	}
}

func TestReadAllLimited(t *testing.T) {
	if _, err := readAllLimited(strings.NewReader("12345"), 4); err == nil {
		t.Error("expected error over limit")
	}
	data, err := readAllLimited(strings.NewReader("1234"), 4)
	if err != nil || string(data) != "1234" {
		t.Errorf("readAllLimited = %q (%v)", data, err)
	}
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")

	oldFile, oldForce := configFile, initForce
	configFile, initForce = path, false
	t.Cleanup(func() { configFile, initForce = oldFile, oldForce })

	captureStdout(t, func() {
		if err := runInit(&cobra.Command{}, nil); err != nil {
			t.Errorf("runInit: %v", err)
		}
	})
	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("written config should load: %v", err)
	}

	err := runInit(&cobra.Command{}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError on existing file, got %v", err)
	}
}
