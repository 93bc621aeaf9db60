package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gcsguardian/guardian/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve results pages over HTTP",
	Long: `Serve starts an HTTP server that renders results pages:

  GET /results?scan_id=<id>      HTML page with one card per public bucket
  GET /api/results?scan_id=<id>  the same view as JSON
  GET /healthz                   liveness

The access token is taken from the request's Authorization: Bearer header,
else the configured token, else the cached one. The configured and cached
token, and the remembered scan, are only used while listening on loopback;
on any other address every request must send its own bearer token.

Example:
  guardian serve --addr 127.0.0.1:8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default from config, 127.0.0.1:8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	persistent, err := openPersistent()
	if err != nil {
		slog.Error("open cache", "err", err)
		return err
	}
	defer func() { _ = persistent.Close() }()

	srv := server.New(server.Config{
		ListenAddr:   addr,
		APIBase:      cfg.APIBase,
		Token:        configuredToken(),
		Persistent:   persistent,
		HTTPClient:   httpClient(),
		UserAgent:    userAgent(),
		Version:      version,
		CopyFeedback: cfg.CopyFeedback,
		Logger:       slog.Default(),
	})

	fmt.Fprintf(os.Stderr, "Serving results on %s\n", addr)
	return listenAndServe(ctx, srv.HTTPServer())
}

// listenAndServe runs hs until ctx is done, then shuts it down gracefully.
func listenAndServe(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped", "addr", hs.Addr)
	return nil
}
