package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gcsguardian/guardian/internal/storage"
)

func TestBuildStatusEmpty(t *testing.T) {
	c := testConfig(t, "https://backend.example.com")
	withTestConfig(t, c)

	result := buildStatus(storage.NewLocal(c.StorageDir))
	if result.Token.Source != "none" {
		t.Errorf("token source = %q, want none", result.Token.Source)
	}
	if result.Config.APIBase != "https://backend.example.com" {
		t.Errorf("api_base = %q", result.Config.APIBase)
	}
	if result.Cache.LastScanID != "" || result.Cache.CachedRows != 0 {
		t.Errorf("unexpected cache: %+v", result.Cache)
	}
}

func TestBuildStatusCached(t *testing.T) {
	c := testConfig(t, "https://backend.example.com")
	withTestConfig(t, c)

	store := storage.NewLocal(c.StorageDir)
	_ = store.Set(storage.KeyAccessToken, "cached-token-0123456789")
	_ = store.Set(storage.KeyLastScanID, "scan-1")
	_ = store.Set(storage.KeyLastScanRows, `[{"bucket":"a"},{"bucket":"b"}]`)

	result := buildStatus(store)
	if result.Token.Source != "cache" || result.Token.Masked != "cached...6789" {
		t.Errorf("unexpected token: %+v", result.Token)
	}
	if result.Cache.LastScanID != "scan-1" || result.Cache.CachedRows != 2 {
		t.Errorf("unexpected cache: %+v", result.Cache)
	}
}

func TestBuildStatusConfigTokenWins(t *testing.T) {
	c := testConfig(t, "https://backend.example.com")
	c.Token = "config-token-0123456789"
	withTestConfig(t, c)

	store := storage.NewLocal(c.StorageDir)
	_ = store.Set(storage.KeyAccessToken, "cached-token-0123456789")

	if result := buildStatus(store); result.Token.Source != "config" {
		t.Errorf("token source = %q, want config", result.Token.Source)
	}
}

func TestBuildStatusBadRows(t *testing.T) {
	c := testConfig(t, "https://backend.example.com")
	withTestConfig(t, c)

	store := storage.NewLocal(c.StorageDir)
	_ = store.Set(storage.KeyLastScanRows, `oops`)

	if result := buildStatus(store); result.Cache.RowsError == "" {
		t.Error("expected rows error")
	}
}

func TestWriteStatusTextNoToken(t *testing.T) {
	result := statusResult{
		Config: statusConfig{APIBase: "https://backend.example.com", Format: "text"},
		Token:  statusToken{Source: "none"},
		Cache:  statusCache{Backend: "file", Location: "/tmp/cache"},
	}

	output := captureStdout(t, func() {
		_ = writeStatusText(result)
	})

	if !strings.Contains(output, "guardian login") {
		t.Error("expected login hint when no token")
	}
	if !strings.Contains(output, "Last scan:      none") {
		t.Errorf("expected no last scan, got %q", output)
	}
}

func TestWriteStatusTextWithToken(t *testing.T) {
	result := statusResult{
		Token: statusToken{Source: "cache", Masked: "abcdef...wxyz"},
		Cache: statusCache{LastScanID: "scan-1", CachedRows: 3},
	}

	output := captureStdout(t, func() {
		_ = writeStatusText(result)
	})

	if !strings.Contains(output, "abcdef...wxyz (from cache)") {
		t.Errorf("expected masked token, got %q", output)
	}
	if !strings.Contains(output, "Cached rows:    3") {
		t.Errorf("expected row count, got %q", output)
	}
}

func TestWriteStatusJSON(t *testing.T) {
	result := statusResult{
		Config:     statusConfig{APIBase: "https://backend.example.com", Format: "json"},
		ConfigFile: "/home/guardian.yaml",
		Token:      statusToken{Source: "config", Masked: "abcdef...wxyz"},
		Cache:      statusCache{Backend: "sqlite", LastScanID: "scan-1"},
	}

	output := captureStdout(t, func() {
		_ = writeStatusJSON(result)
	})

	var parsed statusResult
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Token.Source != "config" || parsed.Cache.Backend != "sqlite" {
		t.Errorf("unexpected round trip: %+v", parsed)
	}
}
