package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/storage"
)

var (
	// ErrMissingScanID means no scan id was given and none was remembered.
	ErrMissingScanID = errors.New("missing scan_id")
	// ErrMissingToken means no access token is available.
	ErrMissingToken = errors.New("missing access token")
	// ErrScanNotFound means no endpoint knew the scan and nothing was cached.
	ErrScanNotFound = errors.New("scan not found")
)

// Fetcher performs one authenticated GET against the backend.
type Fetcher interface {
	GetScan(ctx context.Context, path string) ([]byte, error)
}

// Loader fetches a scan from the backend, falling back to cached rows.
type Loader struct {
	Client     Fetcher
	Session    storage.Store
	Persistent storage.Store
	Logger     *slog.Logger
}

// ResolveScanID picks the scan to show: the explicit query value, then the
// session's last scan, then the persisted last scan.
func ResolveScanID(query string, session, persistent storage.Store) string {
	if id := strings.TrimSpace(query); id != "" {
		return id
	}
	if id := strings.TrimSpace(storage.Lookup(session, storage.KeyLastScanID)); id != "" {
		return id
	}
	return strings.TrimSpace(storage.Lookup(persistent, storage.KeyLastScanID))
}

// ResolveToken returns the injected token if any, else the persisted one.
func ResolveToken(accessor func() string, persistent storage.Store) string {
	if accessor != nil {
		if tok := strings.TrimSpace(accessor()); tok != "" {
			return tok
		}
	}
	return strings.TrimSpace(storage.Lookup(persistent, storage.KeyAccessToken))
}

// Load tries each scan endpoint in order. 404 and 405 move on to the next
// candidate; 401/403 and every other failure stop the probe. When all
// candidates miss, cached rows are used. Load never writes to a cache.
func (l *Loader) Load(ctx context.Context, scanID string) (*models.ScanResult, error) {
	if strings.TrimSpace(scanID) == "" {
		return nil, ErrMissingScanID
	}
	log := l.logger().With("scan_id", scanID)

	for _, path := range apiclient.ScanPaths(scanID) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := l.Client.GetScan(ctx, path)
		if err == nil {
			scan, perr := models.ParseScanPayload(scanID, body)
			if perr != nil {
				return nil, fmt.Errorf("parse %s: %w", path, perr)
			}
			log.Info("scan loaded", "path", path, "buckets", len(scan.Buckets))
			return scan, nil
		}

		var se *apiclient.StatusError
		if errors.As(err, &se) && se.NotFound() {
			log.Debug("scan endpoint miss", "path", path, "status", se.Code)
			continue
		}
		if errors.Is(err, apiclient.ErrUnauthorized) {
			log.Warn("scan request unauthorized", "path", path)
			return nil, err
		}
		log.Error("scan request failed", "path", path, "error", err)
		return nil, fmt.Errorf("load scan %s: %w", scanID, err)
	}

	rows, source := l.cachedRows(log)
	if rows == nil {
		log.Warn("scan not found on any endpoint and no cached rows")
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
	}
	log.Info("using cached scan rows", "source", source, "buckets", len(rows))
	return &models.ScanResult{ScanID: scanID, Buckets: rows, FromCache: true}, nil
}

// cachedRows returns the first parseable cached row set, session first.
func (l *Loader) cachedRows(log *slog.Logger) ([]models.BucketRecord, string) {
	sources := []struct {
		name  string
		store storage.Store
	}{
		{"session", l.Session},
		{"persistent", l.Persistent},
	}
	for _, src := range sources {
		raw := storage.Lookup(src.store, storage.KeyLastScanRows)
		if raw == "" {
			continue
		}
		rows, err := models.ParseBucketRows([]byte(raw))
		if err != nil {
			log.Warn("ignoring unreadable cached rows", "source", src.name, "error", err)
			continue
		}
		return rows, src.name
	}
	return nil, ""
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
