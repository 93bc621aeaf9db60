package remediate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

// Messages shown on a target.
const (
	NoPublicBuckets  = "No public buckets found 🎉"
	UnauthorizedText = "AI call unauthorized. Please re-login."
)

// Reasoner produces a remediation plan for one bucket.
type Reasoner interface {
	Reason(ctx context.Context, rec models.BucketRecord) (*models.RemediationPlan, error)
}

// Renderer asks the reasoning backend about each public bucket and draws one
// card per bucket.
type Renderer struct {
	Client Reasoner
	Logger *slog.Logger
}

// Card is one rendered plan and the bucket it belongs to.
type Card struct {
	Bucket string
	Plan   *models.RemediationPlan
}

// Result summarizes one Run. Plans holds one entry per rendered card in scan
// order; bucket names are not unique.
type Result struct {
	Rendered  int
	Failed    int
	Plans     []Card
	Cancelled bool
}

// Total is the number of cards that settled.
func (r Result) Total() int {
	return r.Rendered + r.Failed
}

// Run renders rows in order. Each request is issued only after the previous
// one settled; a failed bucket gets an error card and the loop continues.
// When ctx is done, no further cards are created.
func (r *Renderer) Run(ctx context.Context, target render.Target, rows []models.BucketRecord) Result {
	var res Result
	log := r.logger()

	if len(rows) == 0 {
		target.Placeholder(NoPublicBuckets)
		return res
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			res.Cancelled = true
			log.Info("remediation cancelled", "remaining", len(rows)-res.Total())
			return res
		}

		name := row.Name()
		card := target.AddCard(name)

		plan, err := r.Client.Reason(ctx, row)
		if err != nil {
			res.Failed++
			log.Warn("remediation failed", "bucket", name, "error", err)
			card.ShowError(ErrorText(err))
			continue
		}

		res.Rendered++
		res.Plans = append(res.Plans, Card{Bucket: name, Plan: plan})
		log.Debug("remediation rendered", "bucket", name, "risk", plan.RiskLevel())
		card.ShowPlan(plan)
	}

	return res
}

// ErrorText is the card message for a failed reasoning call.
func ErrorText(err error) string {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return UnauthorizedText
	}
	return fmt.Sprintf("AI error: %v", err)
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
