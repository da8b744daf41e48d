package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/riskdesk/core"
	"github.com/jask/riskdesk/internal/artifact"
	"github.com/jask/riskdesk/widgets"
)

// loadTimeout bounds a single pane query against the fixture database.
const loadTimeout = 5 * time.Second

// Record is one table row and the artifact it opens. Key identifies the
// underlying row, e.g. a rule code or an alert id.
type Record struct {
	Key      string
	Cells    []string
	Artifact artifact.Artifact
}

// Column is a table column whose width is a share of the pane width.
type Column struct {
	Title  string
	Weight float64
}

// RecordAction is a pane-local key bound to the selected record.
type RecordAction struct {
	Key         string
	Description string
	Run         func(rec Record) tea.Cmd
}

type recordsLoadedMsg struct {
	Scope   string
	Records []Record
	Err     error
}

// RecordPane lists records in a bubbles table. Enter publishes the selected
// record's artifact to the workspace.
type RecordPane struct {
	id    string
	title string
	scope string
	jump  byte

	columns []Column
	load    func(ctx context.Context) ([]Record, error)
	actions []RecordAction

	table   table.Model
	records []Record
	err     error
	loaded  bool
}

func NewRecordPane(spec core.PaneSpec, columns []Column, load func(ctx context.Context) ([]Record, error), actions ...RecordAction) *RecordPane {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: 8}
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(4))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderForeground(widgets.ColorBorder)
	styles.Selected = styles.Selected.Bold(true).Foreground(lipgloss.Color("#1e1e2e")).Background(widgets.ColorSelected)
	t.SetStyles(styles)
	t.Blur()
	return &RecordPane{
		id:      spec.ID,
		title:   spec.Title,
		scope:   spec.Scope,
		jump:    spec.JumpKey,
		columns: columns,
		load:    load,
		actions: actions,
		table:   t,
	}
}

func (p *RecordPane) ID() string      { return p.id }
func (p *RecordPane) Title() string   { return p.title }
func (p *RecordPane) Scope() string   { return p.scope }
func (p *RecordPane) JumpKey() byte   { return p.jump }
func (p *RecordPane) Focusable() bool { return true }
func (p *RecordPane) Init() tea.Cmd   { return p.Reload() }

func (p *RecordPane) OnSelect() tea.Cmd   { return nil }
func (p *RecordPane) OnDeselect() tea.Cmd { return nil }
func (p *RecordPane) OnFocus() tea.Cmd {
	p.table.Focus()
	return nil
}
func (p *RecordPane) OnBlur() tea.Cmd {
	p.table.Blur()
	return nil
}

// Reload queries the records again off the update loop.
func (p *RecordPane) Reload() tea.Cmd {
	if p.load == nil {
		return nil
	}
	scope, load := p.scope, p.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		records, err := load(ctx)
		return recordsLoadedMsg{Scope: scope, Records: records, Err: err}
	}
}

// Records returns the loaded records in table order.
func (p *RecordPane) Records() []Record {
	return append([]Record(nil), p.records...)
}

// Selected is the record under the table cursor.
func (p *RecordPane) Selected() (Record, bool) {
	idx := p.table.Cursor()
	if idx < 0 || idx >= len(p.records) {
		return Record{}, false
	}
	return p.records[idx], true
}

// SetRecords replaces the rows, keeping the cursor in range.
func (p *RecordPane) SetRecords(records []Record) {
	p.records = records
	p.loaded = true
	rows := make([]table.Row, len(records))
	for i, rec := range records {
		row := make(table.Row, len(p.columns))
		copy(row, rec.Cells)
		rows[i] = row
	}
	p.table.SetRows(rows)
	if p.table.Cursor() >= len(rows) {
		p.table.SetCursor(max(0, len(rows)-1))
	}
}

func (p *RecordPane) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		if msg.Scope != p.scope {
			return nil
		}
		if msg.Err != nil {
			p.err = msg.Err
			return core.ErrorCmd(fmt.Errorf("load %s: %w", strings.ToLower(p.title), msg.Err))
		}
		p.err = nil
		p.SetRecords(msg.Records)
		return nil
	case tea.KeyMsg:
		if !p.table.Focused() {
			return nil
		}
		key := msg.String()
		if key == "enter" {
			rec, ok := p.Selected()
			if !ok {
				return nil
			}
			return core.PublishCmd(rec.Artifact)
		}
		for _, a := range p.actions {
			if a.Key == key {
				rec, ok := p.Selected()
				if !ok || a.Run == nil {
					return nil
				}
				return a.Run(rec)
			}
		}
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return cmd
	}
	return nil
}

func (p *RecordPane) layoutColumns(width int) {
	weights := make([]float64, len(p.columns))
	for i, c := range p.columns {
		weights[i] = c.Weight
	}
	// Each cell carries one column of padding on both sides.
	usable := max(len(p.columns), width-2*len(p.columns))
	widths := widgets.Split(usable, len(p.columns), weights)
	cols := make([]table.Column, len(p.columns))
	for i, c := range p.columns {
		cols[i] = table.Column{Title: c.Title, Width: max(1, widths[i])}
	}
	p.table.SetColumns(cols)
}

func (p *RecordPane) View(width, height int, selected, focused bool) string {
	innerW, innerH := widgets.InnerSize(width, height)
	var content string
	switch {
	case p.err != nil:
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Render("Error: " + p.err.Error())
	case !p.loaded:
		content = lipgloss.NewStyle().Foreground(widgets.ColorMuted).Render("Loading…")
	default:
		p.layoutColumns(innerW)
		p.table.SetWidth(innerW)
		p.table.SetHeight(max(2, innerH))
		content = p.table.View()
	}
	title := p.title
	if p.loaded {
		title = fmt.Sprintf("%s (%d)", p.title, len(p.records))
	}
	return widgets.Pane{Title: title, Content: content, Hint: p.hint(focused), Selected: selected, Focused: focused}.Render(width, height)
}

func (p *RecordPane) hint(focused bool) string {
	if !focused {
		return ""
	}
	parts := []string{"enter open"}
	for _, a := range p.actions {
		parts = append(parts, a.Key+" "+a.Description)
	}
	return strings.Join(parts, " · ")
}

// TextPane shows a block of text produced by a query, such as the merchant
// profile or rule performance.
type TextPane struct {
	*core.StaticPane
	load func(ctx context.Context) (string, error)
}

type textLoadedMsg struct {
	Scope string
	Text  string
	Err   error
}

func NewTextPane(spec core.PaneSpec, load func(ctx context.Context) (string, error)) *TextPane {
	return &TextPane{
		StaticPane: core.NewStaticPane(spec.ID, spec.Title, spec.Scope, spec.JumpKey, spec.Focusable, "Loading…"),
		load:       load,
	}
}

func (p *TextPane) Init() tea.Cmd { return p.Reload() }

func (p *TextPane) Reload() tea.Cmd {
	scope, load := p.Scope(), p.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		text, err := load(ctx)
		return textLoadedMsg{Scope: scope, Text: text, Err: err}
	}
}

func (p *TextPane) Update(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(textLoadedMsg)
	if !ok || loaded.Scope != p.Scope() {
		return nil
	}
	if loaded.Err != nil {
		p.SetText("Error: " + loaded.Err.Error())
		return core.ErrorCmd(fmt.Errorf("load %s: %w", strings.ToLower(p.Title()), loaded.Err))
	}
	p.SetText(loaded.Text)
	return nil
}
