package remediate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gcsguardian/guardian/internal/apiclient"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

// fakeReasoner answers per bucket name and records call order.
type fakeReasoner struct {
	calls  []string
	errs   map[string]error
	onCall func(name string)
}

func (f *fakeReasoner) Reason(_ context.Context, rec models.BucketRecord) (*models.RemediationPlan, error) {
	f.calls = append(f.calls, rec.Name())
	if f.onCall != nil {
		f.onCall(rec.Name())
	}
	if err, ok := f.errs[rec.Name()]; ok {
		return nil, err
	}
	return &models.RemediationPlan{
		OverallRisk: "Medium",
		Commands:    []string{"gsutil pap set enforced gs://" + rec.Name()},
	}, nil
}

func rows(names ...string) []models.BucketRecord {
	out := make([]models.BucketRecord, 0, len(names))
	for _, n := range names {
		out = append(out, models.BucketRecord{Bucket: n, Public: true})
	}
	return out
}

func TestRunEmptyShowsPlaceholder(t *testing.T) {
	client := &fakeReasoner{}
	target := render.NewJSONTarget(nil, false)

	res := (&Renderer{Client: client}).Run(context.Background(), target, nil)

	if len(client.calls) != 0 {
		t.Errorf("expected no backend calls, got %v", client.calls)
	}
	doc := target.Document()
	if doc.Placeholder != NoPublicBuckets {
		t.Errorf("placeholder = %q", doc.Placeholder)
	}
	if len(doc.Cards) != 0 || res.Total() != 0 {
		t.Errorf("expected no cards, got %d", len(doc.Cards))
	}
}

func TestRunSequentialInOrder(t *testing.T) {
	client := &fakeReasoner{}
	target := render.NewJSONTarget(nil, false)

	// Each call must see the previous card settled.
	client.onCall = func(name string) {
		doc := target.Document()
		for _, c := range doc.Cards[:len(doc.Cards)-1] {
			if c.Status == render.StatusLoading {
				t.Errorf("card %s still loading when %s was requested", c.Bucket, name)
			}
		}
	}

	res := (&Renderer{Client: client}).Run(context.Background(), target, rows("a", "b", "c"))

	if fmt.Sprint(client.calls) != "[a b c]" {
		t.Errorf("calls = %v", client.calls)
	}
	if res.Rendered != 3 || res.Failed != 0 || len(res.Plans) != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	for _, c := range target.Document().Cards {
		if c.Status != render.StatusReady || c.Risk != "medium" {
			t.Errorf("unexpected card: %+v", c)
		}
	}
}

// The middle bucket fails; its neighbours still render.
func TestRunFailureIsContained(t *testing.T) {
	client := &fakeReasoner{errs: map[string]error{
		"b": &apiclient.StatusError{Endpoint: "AI", Code: 500},
	}}
	target := render.NewJSONTarget(nil, false)

	res := (&Renderer{Client: client}).Run(context.Background(), target, rows("a", "b", "c"))

	if res.Rendered != 2 || res.Failed != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	cards := target.Document().Cards
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	if cards[1].Status != render.StatusError || cards[1].Error != "AI error: AI endpoint returned 500" {
		t.Errorf("unexpected error card: %+v", cards[1])
	}
	if cards[0].Status != render.StatusReady || cards[2].Status != render.StatusReady {
		t.Errorf("neighbour cards should render: %+v %+v", cards[0], cards[2])
	}
}

func TestRunUnauthorizedCard(t *testing.T) {
	client := &fakeReasoner{errs: map[string]error{"a": apiclient.ErrUnauthorized}}
	target := render.NewJSONTarget(nil, false)

	(&Renderer{Client: client}).Run(context.Background(), target, rows("a", "b"))

	cards := target.Document().Cards
	if cards[0].Error != UnauthorizedText {
		t.Errorf("error = %q", cards[0].Error)
	}
	if len(client.calls) != 2 {
		t.Errorf("unauthorized must not stop the loop, calls = %v", client.calls)
	}
}

func TestRunUnknownBucketName(t *testing.T) {
	client := &fakeReasoner{}
	target := render.NewJSONTarget(nil, false)

	(&Renderer{Client: client}).Run(context.Background(), target, []models.BucketRecord{{IAMPublic: true}})

	if got := target.Document().Cards[0].Bucket; got != models.UnknownBucket {
		t.Errorf("bucket = %q, want %q", got, models.UnknownBucket)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeReasoner{}
	client.onCall = func(name string) {
		if name == "a" {
			cancel()
		}
	}
	target := render.NewJSONTarget(nil, false)

	res := (&Renderer{Client: client}).Run(ctx, target, rows("a", "b", "c"))

	if !res.Cancelled {
		t.Error("expected Cancelled")
	}
	if len(client.calls) != 1 {
		t.Errorf("expected one call, got %v", client.calls)
	}
	if n := len(target.Document().Cards); n != 1 {
		t.Errorf("expected remaining cards to be skipped, got %d cards", n)
	}
}

func TestErrorText(t *testing.T) {
	wrapped := fmt.Errorf("reason: %w", apiclient.ErrUnauthorized)
	if ErrorText(wrapped) != UnauthorizedText {
		t.Errorf("wrapped unauthorized should map to re-login text")
	}
	if got := ErrorText(errors.New("boom")); got != "AI error: boom" {
		t.Errorf("ErrorText = %q", got)
	}
}

func TestRunKeepsPlansForRepeatedNames(t *testing.T) {
	client := &fakeReasoner{}
	target := render.NewJSONTarget(nil, false)
	in := append(rows("b", "b"), models.BucketRecord{Public: true}, models.BucketRecord{IAMPublic: true})

	res := (&Renderer{Client: client}).Run(context.Background(), target, in)

	if res.Rendered != 4 || len(res.Plans) != 4 {
		t.Fatalf("rendered=%d plans=%d, want 4 and 4", res.Rendered, len(res.Plans))
	}
	want := []string{"b", "b", models.UnknownBucket, models.UnknownBucket}
	for i, c := range res.Plans {
		if c.Bucket != want[i] || c.Plan == nil {
			t.Errorf("plan %d = %+v, want bucket %q", i, c, want[i])
		}
	}
}
