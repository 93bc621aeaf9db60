package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/classifier"
	"github.com/gcsguardian/guardian/internal/loader"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/remediate"
	"github.com/gcsguardian/guardian/internal/render"
	"github.com/gcsguardian/guardian/internal/storage"
)

// Page-level messages.
const (
	MsgMissingScanID  = "Missing scan_id."
	MsgMissingToken   = "Missing access token. Please sign in again."
	MsgSessionExpired = "Session expired. Please log in again."
	MsgLoadFailed     = "Could not load scan results."
)

// Env is everything one results view needs. Nothing is read from globals.
type Env struct {
	APIBase    string
	Token      func() string
	Session    storage.Store
	Persistent storage.Store
	Target     render.Target
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
}

// Outcome is what a results view produced.
type Outcome struct {
	Scan        *models.ScanResult
	Public      []models.BucketRecord
	Remediation remediate.Result
}

// Show resolves the scan, loads it, classifies its buckets and renders
// remediation cards for the public ones. Page-level failures are written to
// the target's summary and returned.
func Show(ctx context.Context, env Env, scanID string) (*Outcome, error) {
	log := env.Logger
	if log == nil {
		log = slog.Default()
	}

	id := loader.ResolveScanID(scanID, env.Session, env.Persistent)
	if id == "" {
		return nil, fail(env, loader.ErrMissingScanID)
	}
	log = log.With("scan_id", id)

	token := loader.ResolveToken(env.Token, env.Persistent)
	if token == "" {
		return nil, fail(env, loader.ErrMissingToken)
	}

	opts := []apiclient.Option{apiclient.WithLogger(log), apiclient.WithHTTPClient(env.HTTPClient)}
	if env.UserAgent != "" {
		opts = append(opts, apiclient.WithUserAgent(env.UserAgent))
	}
	client := apiclient.New(env.APIBase, func() string { return token }, opts...)

	ld := &loader.Loader{
		Client:     client,
		Session:    env.Session,
		Persistent: env.Persistent,
		Logger:     log,
	}
	scan, err := ld.Load(ctx, id)
	if err != nil {
		log.Error("could not load scan", "error", err)
		return nil, fail(env, err)
	}

	if obs, ok := env.Target.(render.ScanObserver); ok {
		obs.ObserveScan(scan)
	}

	public := classifier.PublicRows(scan.Buckets)
	for _, row := range public {
		log.Debug("public bucket", "bucket", row.Name(), "signals", classifier.Signals(row))
	}
	env.Target.Summary(Summary(len(public), id))

	renderer := &remediate.Renderer{Client: client, Logger: log}
	res := renderer.Run(ctx, env.Target, public)

	return &Outcome{Scan: scan, Public: public, Remediation: res}, nil
}

// Summary is the headline of a results view.
func Summary(publicCount int, scanID string) string {
	return fmt.Sprintf("%d public bucket(s) found in scan %s", publicCount, scanID)
}

// UserMessage maps a page-level failure to the sentence shown to the user.
// Details beyond the error class stay in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, loader.ErrMissingScanID):
		return MsgMissingScanID
	case errors.Is(err, loader.ErrMissingToken):
		return MsgMissingToken
	case errors.Is(err, apiclient.ErrUnauthorized):
		return MsgSessionExpired
	default:
		return MsgLoadFailed
	}
}

// Remember stores a scan as the last one viewed. The old id is dropped
// before the rows are replaced, so a failed write never leaves one scan's
// id paired with another scan's rows.
func Remember(s storage.Store, scan *models.ScanResult) error {
	if s == nil || scan == nil {
		return nil
	}
	rows, err := models.EncodeBucketRows(scan.Buckets)
	if err != nil {
		return err
	}
	if err := s.Delete(storage.KeyLastScanID); err != nil {
		return fmt.Errorf("forget previous scan id: %w", err)
	}
	if err := s.Set(storage.KeyLastScanRows, string(rows)); err != nil {
		return fmt.Errorf("remember scan rows: %w", err)
	}
	if err := s.Set(storage.KeyLastScanID, scan.ScanID); err != nil {
		return fmt.Errorf("remember scan id: %w", err)
	}
	return nil
}

func fail(env Env, err error) error {
	if env.Target != nil {
		env.Target.Summary(UserMessage(err))
	}
	return err
}
