package render

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/gcsguardian/guardian/internal/models"
)

// Document is the machine-readable form of a results view.
type Document struct {
	ScanID      string        `json:"scan_id,omitempty"`
	FromCache   bool          `json:"from_cache,omitempty"`
	Summary     string        `json:"summary"`
	Placeholder string        `json:"placeholder,omitempty"`
	Cards       []*CardRecord `json:"cards"`
}

// CardRecord is one bucket card as it stands.
type CardRecord struct {
	Bucket string                  `json:"bucket"`
	Status string                  `json:"status"`
	Risk   string                  `json:"risk,omitempty"`
	Plan   *models.RemediationPlan `json:"plan,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// JSONTarget buffers the results view and writes it as one document.
type JSONTarget struct {
	mu     sync.Mutex
	doc    Document
	writer io.Writer
	pretty bool
}

// NewJSONTarget creates a new JSON target
func NewJSONTarget(writer io.Writer, pretty bool) *JSONTarget {
	return &JSONTarget{
		doc:    Document{Cards: []*CardRecord{}},
		writer: writer,
		pretty: pretty,
	}
}

func (t *JSONTarget) ObserveScan(scan *models.ScanResult) {
	if scan == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc.ScanID = scan.ScanID
	t.doc.FromCache = scan.FromCache
}

func (t *JSONTarget) Summary(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc.Summary = text
}

func (t *JSONTarget) Placeholder(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc.Placeholder = text
}

func (t *JSONTarget) AddCard(bucket string) Card {
	rec := &CardRecord{Bucket: bucket, Status: StatusLoading}
	t.mu.Lock()
	t.doc.Cards = append(t.doc.Cards, rec)
	t.mu.Unlock()
	return &jsonCard{target: t, rec: rec}
}

// Document returns a copy of the current document.
func (t *JSONTarget) Document() Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	doc := t.doc
	doc.Cards = make([]*CardRecord, len(t.doc.Cards))
	for i, c := range t.doc.Cards {
		cp := *c
		doc.Cards[i] = &cp
	}
	return doc
}

// Generate writes the document followed by a newline.
func (t *JSONTarget) Generate() error {
	doc := t.Document()

	var data []byte
	var err error

	if t.pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}

	if err != nil {
		return err
	}

	_, err = t.writer.Write(data)
	if err != nil {
		return err
	}

	// Add trailing newline for terminal output
	_, err = t.writer.Write([]byte("\n"))
	return err
}

type jsonCard struct {
	target *JSONTarget
	rec    *CardRecord
}

func (c *jsonCard) ShowPlan(plan *models.RemediationPlan) {
	c.target.mu.Lock()
	defer c.target.mu.Unlock()
	c.rec.Status = StatusReady
	c.rec.Risk = plan.RiskLevel()
	c.rec.Plan = plan
	c.rec.Error = ""
}

func (c *jsonCard) ShowError(msg string) {
	c.target.mu.Lock()
	defer c.target.mu.Unlock()
	c.rec.Status = StatusError
	c.rec.Plan = nil
	c.rec.Error = msg
}
