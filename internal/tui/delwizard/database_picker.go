package delwizard

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/binder"
	"github.com/atelierhq/atelier/internal/draft"
)

// Picker phases: choose a table, search and pick a row, then adjust
// column visibility and alignment.
const (
	pickerPhaseTables = iota
	pickerPhaseRows
	pickerPhaseOptions
)

// DatabasePicker is the modal flow for binding an external table row to a
// databaseItem field. All choices stage in the binder; the draft is only
// touched on save.
type DatabasePicker struct {
	binder  *binder.Binder
	source  binder.TableSource
	fieldID string

	phase  int
	tables []api.Table
	cursor int

	searchInput textinput.Model
	filtered    []binder.RowSnapshot

	columnNames []string
	loading     bool
	loadErr     string
	width       int
	height      int
}

// NewDatabasePicker opens the picker for a databaseItem field.
func NewDatabasePicker(source binder.TableSource, store *draft.Store, fieldID string) (*DatabasePicker, error) {
	b, err := binder.New(source, store, fieldID)
	if err != nil {
		return nil, err
	}

	search := newInput("Type to search...")

	return &DatabasePicker{
		binder:      b,
		source:      source,
		fieldID:     fieldID,
		phase:       pickerPhaseTables,
		searchInput: search,
		loading:     true,
		width:       60,
		height:      20,
	}, nil
}

// Init starts the async table list load.
func (p *DatabasePicker) Init() tea.Cmd {
	source := p.source
	return func() tea.Msg {
		tables, err := source.ListWorkspaceTables(context.Background())
		if err != nil {
			return PickerErrorMsg{Err: err}
		}
		return TablesLoadedMsg{Tables: tables}
	}
}

// SetSize updates the picker dimensions.
func (p *DatabasePicker) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.searchInput.SetWidth(width - 10)
}

// Update handles messages for the picker.
func (p *DatabasePicker) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case TablesLoadedMsg:
		p.loading = false
		p.tables = msg.Tables
		p.cursor = 0
		// Reopening with a saved table jumps straight to its rows.
		if saved := p.binder.Table(); saved.ID != "" {
			for i, t := range p.tables {
				if t.ID == saved.ID {
					p.cursor = i
					return p.selectTable(t)
				}
			}
		}
		return nil

	case TableBoundMsg:
		p.loading = false
		p.phase = pickerPhaseRows
		p.filtered = p.binder.Search(p.searchInput.Value())
		p.cursor = 0
		return p.searchInput.Focus()

	case PickerErrorMsg:
		p.loading = false
		p.loadErr = msg.Err.Error()
		return nil

	case tea.KeyPressMsg:
		return p.handleKey(msg)
	}

	if p.phase == pickerPhaseRows {
		var cmd tea.Cmd
		before := p.searchInput.Value()
		p.searchInput, cmd = p.searchInput.Update(msg)
		if v := p.searchInput.Value(); v != before {
			p.filtered = p.binder.Search(v)
			p.cursor = 0
		}
		return cmd
	}
	return nil
}

func (p *DatabasePicker) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.binder.Cancel()
		return func() tea.Msg { return PickerClosedMsg{Saved: false} }

	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
		return nil
	case "down":
		if p.cursor < p.itemCount()-1 {
			p.cursor++
		}
		return nil

	case "enter":
		switch p.phase {
		case pickerPhaseTables:
			if p.cursor < len(p.tables) {
				return p.selectTable(p.tables[p.cursor])
			}
		case pickerPhaseRows:
			if p.cursor < len(p.filtered) {
				p.binder.PickItem(p.filtered[p.cursor])
				p.phase = pickerPhaseOptions
				p.columnNames = p.binder.ColumnNames()
				p.cursor = 0
				p.searchInput.Blur()
			}
		case pickerPhaseOptions:
			return p.save()
		}
		return nil

	case " ", "space":
		if p.phase == pickerPhaseOptions && p.cursor < len(p.columnNames) {
			name := p.columnNames[p.cursor]
			p.binder.SetColumnVisible(name, !p.binder.Visible(name))
		}
		return nil

	case "left", "right":
		if p.phase == pickerPhaseOptions {
			p.cycleAlignment(msg.String() == "right")
		}
		return nil

	case "ctrl+s":
		if p.phase == pickerPhaseOptions {
			return p.save()
		}
		return nil
	}

	if p.phase == pickerPhaseRows {
		var cmd tea.Cmd
		before := p.searchInput.Value()
		p.searchInput, cmd = p.searchInput.Update(msg)
		if v := p.searchInput.Value(); v != before {
			p.filtered = p.binder.Search(v)
			p.cursor = 0
		}
		return cmd
	}
	return nil
}

func (p *DatabasePicker) selectTable(table api.Table) tea.Cmd {
	p.loading = true
	p.loadErr = ""
	b := p.binder
	return func() tea.Msg {
		if err := b.SelectDatabase(context.Background(), table); err != nil {
			return PickerErrorMsg{Err: err}
		}
		return TableBoundMsg{}
	}
}

func (p *DatabasePicker) save() tea.Cmd {
	if err := p.binder.Save(); err != nil {
		p.loadErr = err.Error()
		return nil
	}
	return func() tea.Msg { return PickerClosedMsg{Saved: true} }
}

func (p *DatabasePicker) cycleAlignment(forward bool) {
	order := []draft.Alignment{draft.AlignLeft, draft.AlignCenter, draft.AlignRight}
	idx := 0
	for i, a := range order {
		if a == p.binder.Alignment() {
			idx = i
		}
	}
	if forward {
		idx = (idx + 1) % len(order)
	} else {
		idx = (idx + len(order) - 1) % len(order)
	}
	p.binder.SetAlignment(order[idx])
}

func (p *DatabasePicker) itemCount() int {
	switch p.phase {
	case pickerPhaseTables:
		return len(p.tables)
	case pickerPhaseRows:
		return len(p.filtered)
	case pickerPhaseOptions:
		return len(p.columnNames)
	}
	return 0
}

// View renders the picker.
func (p *DatabasePicker) View() string {
	var b strings.Builder
	title := titleStyle()

	switch p.phase {
	case pickerPhaseTables:
		b.WriteString(title.Render("Choose a database"))
	case pickerPhaseRows:
		b.WriteString(title.Render("Choose an item from " + p.binder.Table().Name))
	case pickerPhaseOptions:
		b.WriteString(title.Render("Display options"))
	}
	b.WriteString("\n\n")

	if p.loadErr != "" {
		b.WriteString(errorStyle().Render("✗ " + p.loadErr))
		b.WriteString("\n\n")
	}
	if p.loading {
		b.WriteString(mutedStyle().Render("Loading..."))
		b.WriteString("\n")
		return b.String()
	}

	switch p.phase {
	case pickerPhaseTables:
		for i, t := range p.tables {
			line := t.Name
			if t.Description != "" {
				line += "  " + mutedStyle().Render(t.Description)
			}
			b.WriteString(p.renderRow(i, line))
		}
		if len(p.tables) == 0 {
			b.WriteString(mutedStyle().Render("No tables available"))
			b.WriteString("\n")
		}
		b.WriteString("\n" + renderHintBar("↑↓", "navigate", "enter", "select", "esc", "cancel"))

	case pickerPhaseRows:
		b.WriteString(p.searchInput.View())
		b.WriteString("\n\n")
		for i, row := range p.filtered {
			b.WriteString(p.renderRow(i, fmt.Sprintf("%v", row["name"])))
		}
		if len(p.filtered) == 0 {
			b.WriteString(mutedStyle().Render("No matching items"))
			b.WriteString("\n")
		}
		b.WriteString("\n" + renderHintBar("↑↓", "navigate", "enter", "pick", "esc", "cancel"))

	case pickerPhaseOptions:
		b.WriteString(labelStyle().Render("Alignment: ") + string(p.binder.Alignment()))
		b.WriteString("\n\n")
		b.WriteString(labelStyle().Render("Columns"))
		b.WriteString("\n")
		for i, name := range p.columnNames {
			mark := "[ ]"
			if p.binder.Visible(name) {
				mark = "[x]"
			}
			b.WriteString(p.renderRow(i, mark+" "+name))
		}
		b.WriteString("\n" + renderHintBar("space", "toggle column", "←/→", "alignment", "enter", "save", "esc", "cancel"))
	}

	return b.String()
}

func (p *DatabasePicker) renderRow(i int, line string) string {
	if i == p.cursor {
		return selectedStyle().Render("› "+line) + "\n"
	}
	return "  " + line + "\n"
}
