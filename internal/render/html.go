package render

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/gcsguardian/guardian/internal/clipboard"
	"github.com/gcsguardian/guardian/internal/models"
)

var pageTmpl = template.Must(template.New("results").Parse(resultsPageHTML))

// HTMLTarget collects a results view and renders it as a standalone page.
type HTMLTarget struct {
	mu           sync.Mutex
	summary      string
	placeholder  string
	cards        []*htmlCard
	copyFeedback time.Duration
}

type htmlCard struct {
	Bucket    string
	Status    string
	Risk      string
	RiskLabel string
	Reasons   []string
	Fixes     []string
	Commands  string
	Error     string
}

type htmlPage struct {
	Summary        string
	Placeholder    string
	Cards          []htmlCard
	LoadingText    string
	CopyLabel      string
	CopiedLabel    string
	CopyFeedbackMS int64
	Style          template.CSS
	Script         template.JS
}

// NewHTMLTarget creates an HTML target. copyFeedback <= 0 uses
// clipboard.DefaultFeedback, the same delay the terminal view uses.
func NewHTMLTarget(copyFeedback time.Duration) *HTMLTarget {
	if copyFeedback <= 0 {
		copyFeedback = clipboard.DefaultFeedback
	}
	return &HTMLTarget{copyFeedback: copyFeedback}
}

func (t *HTMLTarget) Summary(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = text
}

func (t *HTMLTarget) Placeholder(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.placeholder = text
}

func (t *HTMLTarget) AddCard(bucket string) Card {
	c := &htmlCard{Bucket: bucket, Status: StatusLoading}
	t.mu.Lock()
	t.cards = append(t.cards, c)
	t.mu.Unlock()
	return &htmlCardHandle{target: t, card: c}
}

// Render writes the full page.
func (t *HTMLTarget) Render(w io.Writer) error {
	t.mu.Lock()
	page := htmlPage{
		Summary:        t.summary,
		Placeholder:    t.placeholder,
		Cards:          make([]htmlCard, 0, len(t.cards)),
		LoadingText:    LoadingText,
		CopyLabel:      CopyLabel,
		CopiedLabel:    CopiedLabel,
		CopyFeedbackMS: t.copyFeedback.Milliseconds(),
		Style:          template.CSS(pageStyle),
		Script:         template.JS(copyScript),
	}
	for _, c := range t.cards {
		page.Cards = append(page.Cards, *c)
	}
	t.mu.Unlock()

	if err := pageTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render results page: %w", err)
	}
	return nil
}

type htmlCardHandle struct {
	target *HTMLTarget
	card   *htmlCard
}

func (h *htmlCardHandle) ShowPlan(plan *models.RemediationPlan) {
	h.target.mu.Lock()
	defer h.target.mu.Unlock()
	h.card.Status = StatusReady
	h.card.Risk = plan.RiskLevel()
	h.card.RiskLabel = RiskLabel(plan)
	if plan != nil {
		h.card.Reasons = plan.Reasons
		h.card.Fixes = plan.RecommendedFixes
	}
	h.card.Commands = plan.CommandBlock()
}

func (h *htmlCardHandle) ShowError(msg string) {
	h.target.mu.Lock()
	defer h.target.mu.Unlock()
	h.card.Status = StatusError
	h.card.Error = msg
}

// ScriptHash is the CSP source expression for the page's inline script.
func ScriptHash() string {
	return cspHash(copyScript)
}

// StyleHash is the CSP source expression for the page's inline style.
func StyleHash() string {
	return cspHash(pageStyle)
}

func cspHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
}

const pageStyle = `
    body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 900px; color: #1f2933; }
    .card { border: 1px solid #d9e2ec; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
    .risk { font-weight: 600; margin-bottom: .5rem; }
    .risk.critical { color: #b91c1c; }
    .risk.high { color: #dc2626; }
    .risk.medium { color: #d97706; }
    .risk.low { color: #15803d; }
    .risk.unknown { color: #6b7280; }
    .cmd { white-space: pre-wrap; font-family: ui-monospace, monospace; background: #f5f7fa; padding: .75rem; border-radius: 6px; }
    .copy-btn { margin-top: .5rem; }
    .error { color: #b91c1c; }
`

// copyScript is static so its hash can be pinned in the CSP. Labels and the
// delay are read from data attributes on #bucketList.
const copyScript = `
    (function () {
      var list = document.getElementById("bucketList");
      var label = list.dataset.copyLabel;
      var copied = list.dataset.copiedLabel;
      var delay = parseInt(list.dataset.copyFeedback, 10);
      list.querySelectorAll(".copy-btn").forEach(function (btn) {
        var timer = null;
        btn.addEventListener("click", function () {
          var cmd = btn.parentElement.querySelector(".cmd");
          navigator.clipboard.writeText(cmd ? cmd.textContent : "").then(function () {
            btn.textContent = copied;
            clearTimeout(timer);
            timer = setTimeout(function () { btn.textContent = label; }, delay);
          });
        });
      });
    })();
`

const resultsPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>GCS Guardian · Results</title>
  <style>{{.Style}}</style>
</head>
<body>
  <h1>Public bucket findings</h1>
  <p id="publicSummary">{{.Summary}}</p>
  <div id="bucketList" data-copy-label="{{.CopyLabel}}" data-copied-label="{{.CopiedLabel}}" data-copy-feedback="{{.CopyFeedbackMS}}">
    {{- if .Placeholder}}
    <div class="card">{{.Placeholder}}</div>
    {{- end}}
    {{- range .Cards}}
    <div class="card" data-bucket="{{.Bucket}}">
      <div><strong>{{.Bucket}}</strong></div>
      <div class="plan">
        {{- if eq .Status "loading"}}{{$.LoadingText}}
        {{- else if eq .Status "error"}}<span class="error">{{.Error}}</span>
        {{- else}}
        <div class="risk {{.Risk}}">Overall Risk: {{.RiskLabel}}</div>
        {{- if .Reasons}}
        <div><strong>Why risky:</strong><ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul></div>
        {{- end}}
        {{- if .Fixes}}
        <div><strong>Recommended fixes:</strong><ul>{{range .Fixes}}<li>{{.}}</li>{{end}}</ul></div>
        {{- end}}
        {{- if .Commands}}
        <div><strong>Commands:</strong><div class="cmd">{{.Commands}}</div><button type="button" class="copy-btn">{{$.CopyLabel}}</button></div>
        {{- end}}
        {{- end}}
      </div>
    </div>
    {{- end}}
  </div>
  <script>{{.Script}}</script>
</body>
</html>
`
