package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/storage"
)

// openPersistent opens the configured persistent cache.
func openPersistent() (storage.Persistent, error) {
	dir, err := cfg.GetStoragePath()
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	store, err := storage.Open(cfg.CacheBackend, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}
	return store, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func userAgent() string {
	return "guardian/" + version
}

// configuredToken is the token from config or GUARDIAN_TOKEN.
func configuredToken() string {
	return cfg.Token
}

// maskToken masks a token for safe display: eyJhbG...9xQw
func maskToken(token string) string {
	if len(token) < 16 {
		return "****"
	}
	return token[:6] + "..." + token[len(token)-4:]
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
