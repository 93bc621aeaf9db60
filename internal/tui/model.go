package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcsguardian/guardian/internal/clipboard"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeFilterRisk
)

// chromeLines is what header, detail panel and footer take from the terminal.
const chromeLines = headerHeight + detailHeight + 3

// card is one bucket as the model sees it. Index is its position in scan
// order and never changes.
type card struct {
	Index  int
	Bucket string
	Status string
	Plan   *models.RemediationPlan
	Error  string
}

// Options configures the model.
type Options struct {
	// CopyFeedback is how long "Copied ✓" is shown after a copy.
	CopyFeedback time.Duration
	// Copier receives copied commands. Defaults to the system clipboard.
	Copier clipboard.Writer
}

// Model is the Bubble Tea model behind `guardian results --format tui`.
type Model struct {
	scanID      string
	summary     string
	placeholder string
	fromCache   bool
	done        bool
	err         error
	cards       []card

	table       table.Model
	help        help.Model
	searchInput textinput.Model
	visible     []card
	filters     filterState
	sortBy      sortField
	mode        mode
	riskChoices []string
	riskCursor  int
	width       int
	height      int
	bucketWidth int
	statusMsg   string

	copier       clipboard.Writer
	confirm      clipboard.Confirmation
	confirmIndex int
	clipboard    string // last copied block
}

// New returns an empty model sized for an 80x24 terminal until the first
// WindowSizeMsg arrives.
func New(opts Options) Model {
	search := textinput.New()
	search.Placeholder = "bucket, reason or command"
	search.CharLimit = 64

	copier := opts.Copier
	if copier == nil {
		copier = clipboard.System{}
	}

	m := Model{
		help:         help.New(),
		searchInput:  search,
		sortBy:       sortByScan,
		width:        80,
		height:       24,
		copier:       copier,
		confirm:      clipboard.NewConfirmation(opts.CopyFeedback),
		confirmIndex: -1,
	}
	m.table = newTable(m.width, 10)
	m.bucketWidth = columnsFor(m.width)[1].Width
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.searchKey(msg)
		case modeFilterRisk:
			return m.riskPickerKey(msg), nil
		}
		return m.normalKey(msg)
	case copyExpiredMsg:
		m.confirm.Expire(msg.gen)
		return m, nil
	}

	if m.applyPipeline(msg) {
		return m, nil
	}

	var cmd tea.Cmd
	if m.mode == modeSearch {
		m.searchInput, cmd = m.searchInput.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// applyPipeline folds a results pipeline message into the model and
// reports whether msg was one.
func (m *Model) applyPipeline(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case scanMsg:
		m.scanID, m.fromCache = msg.scanID, msg.fromCache
	case summaryMsg:
		m.summary = msg.text
	case placeholderMsg:
		m.placeholder = msg.text
	case cardAddedMsg:
		m.cards = append(m.cards, card{Index: msg.index, Bucket: msg.bucket, Status: render.StatusLoading})
		m.refresh()
	case cardPlanMsg:
		c := m.card(msg.index)
		if c == nil {
			break
		}
		c.Status, c.Plan = render.StatusReady, msg.plan
		if c.Plan == nil {
			c.Plan = &models.RemediationPlan{}
		}
		m.riskChoices = uniqueRisks(m.cards)
		m.refresh()
	case cardErrorMsg:
		if c := m.card(msg.index); c != nil {
			c.Status, c.Error = render.StatusError, msg.text
			m.refresh()
		}
	case pipelineDoneMsg:
		m.done, m.err = true, msg.err
	default:
		return false
	}
	return true
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	cols := columnsFor(width)
	m.bucketWidth = cols[1].Width
	m.table.SetColumns(cols)
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-chromeLines, 3))
	m.refresh()
}

func (m Model) normalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.CopyFix):
		return m, m.copySelected()
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.RiskFilter):
		m.mode, m.riskCursor = modeFilterRisk, 0
		return m, nil
	case key.Matches(msg, keys.CycleSort):
		m.sortBy = (m.sortBy + 1) % sortFieldCount
		m.statusMsg = "Sort: " + sortFieldName(m.sortBy)
		m.refresh()
		return m, nil
	case key.Matches(msg, keys.Reset):
		m.filters, m.statusMsg = filterState{}, ""
		m.refresh()
		return m, nil
	}

	// Anything else drives the table; moving off a card drops its
	// copy confirmation.
	prev := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != prev {
		m.confirm.Cancel()
	}
	return m, cmd
}

func (m Model) searchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filters.SearchText = m.searchInput.Value()
		m.leaveSearch()
		m.refresh()
		return m, nil
	case tea.KeyEsc:
		m.searchInput.SetValue("")
		m.leaveSearch()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) leaveSearch() {
	m.mode = modeNormal
	m.searchInput.Blur()
}

// riskPickerKey moves through "All" followed by riskChoices.
func (m Model) riskPickerKey(msg tea.KeyMsg) Model {
	switch {
	case key.Matches(msg, keys.Up):
		m.riskCursor = max(m.riskCursor-1, 0)
	case key.Matches(msg, keys.Down):
		m.riskCursor = min(m.riskCursor+1, len(m.riskChoices))
	case msg.Type == tea.KeyEnter:
		m.filters.Risk = ""
		if m.riskCursor > 0 {
			m.filters.Risk = m.riskChoices[m.riskCursor-1]
		}
		m.statusMsg = ""
		if m.filters.Risk != "" {
			m.statusMsg = "Filter: " + m.filters.Risk
		}
		m.mode = modeNormal
		m.refresh()
	case msg.Type == tea.KeyEsc:
		m.mode = modeNormal
	}
	return m
}

// refresh recomputes the visible cards and table rows.
func (m *Model) refresh() {
	m.visible = applyFilters(m.cards, m.filters)
	sortCards(m.visible, m.sortBy)
	m.table.SetRows(buildRows(m.visible, m.bucketWidth))
}

func (m *Model) card(index int) *card {
	for i := range m.cards {
		if m.cards[i].Index == index {
			return &m.cards[i]
		}
	}
	return nil
}

func (m *Model) selected() *card {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return nil
	}
	return &m.visible[i]
}

// copySelected puts the selected card's command block on the clipboard and
// schedules the end of its confirmation.
func (m *Model) copySelected() tea.Cmd {
	c := m.selected()
	if c == nil || c.Status != render.StatusReady {
		m.statusMsg = "Nothing to copy"
		return nil
	}
	block := c.Plan.CommandBlock()
	if block == "" {
		m.statusMsg = "Nothing to copy"
		return nil
	}
	if err := m.copier.WriteAll(block); err != nil {
		m.statusMsg = fmt.Sprintf("Copy failed: %v", err)
		return nil
	}

	m.clipboard, m.statusMsg, m.confirmIndex = block, "", c.Index
	gen := m.confirm.Trigger()
	return tea.Tick(m.confirm.Delay, func(time.Time) tea.Msg { return copyExpiredMsg{gen: gen} })
}

// Pipeline renders a results view into target.
type Pipeline func(ctx context.Context, target render.Target) error

// Run starts the Bubble Tea program and feeds it from pipeline, which runs
// in its own goroutine. Quitting the program cancels the pipeline's context.
// The pipeline's error is returned once it has stopped.
func Run(ctx context.Context, opts Options, pipeline Pipeline) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	target := NewTarget(p.Send)

	finished := make(chan error, 1)
	go func() {
		err := pipeline(ctx, target)
		p.Send(pipelineDoneMsg{err: err})
		finished <- err
	}()

	_, runErr := p.Run()
	cancel()
	pipeErr := <-finished

	if runErr != nil {
		return runErr
	}
	return pipeErr
}
