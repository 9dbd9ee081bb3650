package delwizard

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/atelierhq/atelier/internal/attach"
	"github.com/atelierhq/atelier/internal/binder"
	"github.com/atelierhq/atelier/internal/draft"
)

// ContentStep manages the field list: adding, reordering, and removing
// content blocks, and hosting the inline editor for whichever field the
// editing session has active.
type ContentStep struct {
	store   *draft.Store
	session *draft.Session
	source  binder.TableSource
	limits  attach.Limits

	cursor   int
	showMenu bool
	menuIdx  int

	editors map[string]*fieldEditor
	picker  *DatabasePicker

	width  int
	height int
}

// NewContentStep creates the content step over the shared store/session.
func NewContentStep(store *draft.Store, session *draft.Session, source binder.TableSource, limits attach.Limits) *ContentStep {
	return &ContentStep{
		store:   store,
		session: session,
		source:  source,
		limits:  limits,
		editors: map[string]*fieldEditor{},
		width:   60,
		height:  20,
	}
}

// Init is a no-op; the step renders from store state.
func (s *ContentStep) Init() tea.Cmd {
	return nil
}

// Focus moves keyboard handling to the field list.
func (s *ContentStep) Focus() tea.Cmd {
	return s.focusActiveEditor()
}

// FocusLast behaves like Focus; the list is a single focus target.
func (s *ContentStep) FocusLast() tea.Cmd {
	return s.Focus()
}

// Blur blurs any open editor inputs.
func (s *ContentStep) Blur() {
	for _, e := range s.editors {
		e.Blur()
	}
}

// SetSize updates dimensions for the step and open editors.
func (s *ContentStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	for _, e := range s.editors {
		e.SetSize(width)
	}
	if s.picker != nil {
		s.picker.SetSize(width, height)
	}
}

// EditField opens the given field for editing, routing through the
// session so commit rules apply to whatever was active before.
func (s *ContentStep) EditField(id string) tea.Cmd {
	_ = s.session.Select(id) // commit failure leaves the old editor open
	return s.syncEditors()
}

// syncEditors reconciles editor components with the session's open set
// and focuses the newly activated field once.
func (s *ContentStep) syncEditors() tea.Cmd {
	open := map[string]bool{}
	for _, id := range s.session.Open() {
		open[id] = true
		if _, ok := s.editors[id]; !ok {
			e := newFieldEditor(s.store, id, s.limits)
			e.SetSize(s.width)
			s.editors[id] = e
		}
	}
	for id := range s.editors {
		if !open[id] {
			delete(s.editors, id)
		}
	}

	if id, ok := s.session.ShouldFocus(); ok {
		if e := s.editors[id]; e != nil {
			return e.Focus()
		}
	}
	return nil
}

func (s *ContentStep) focusActiveEditor() tea.Cmd {
	if e := s.editors[s.session.Active()]; e != nil {
		return e.Focus()
	}
	return nil
}

// Update handles messages for the content step.
func (s *ContentStep) Update(msg tea.Msg) tea.Cmd {
	// The picker is modal while open.
	if s.picker != nil {
		if closed, ok := msg.(PickerClosedMsg); ok {
			s.picker = nil
			_ = closed
			return s.focusActiveEditor()
		}
		return s.picker.Update(msg)
	}

	switch msg := msg.(type) {
	case openPickerMsg:
		picker, err := NewDatabasePicker(s.source, s.store, msg.FieldID)
		if err != nil {
			text := err.Error()
			return func() tea.Msg { return editorNoticeMsg{Text: text} }
		}
		picker.SetSize(s.width, s.height)
		s.picker = picker
		return picker.Init()

	case tea.KeyPressMsg:
		return s.handleKey(msg)

	case tea.MouseClickMsg:
		// Any interaction outside the open editor asks the session to
		// close it (database item fields are exempt).
		s.session.HandleOutsideInteraction()
		return s.syncEditors()
	}

	if e := s.editors[s.session.Active()]; e != nil {
		return e.Update(msg)
	}
	return nil
}

func (s *ContentStep) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if s.showMenu {
		return s.handleMenuKey(msg)
	}

	// Keys the editor never swallows.
	switch msg.String() {
	case "ctrl+s":
		if s.session.State() == draft.Editing {
			_ = s.session.CommitActive()
			return s.syncEditors()
		}
		return nil
	case "ctrl+a":
		s.showMenu = true
		s.menuIdx = 0
		return nil
	}

	// While a field is open, the editor consumes input.
	if e := s.editors[s.session.Active()]; e != nil {
		return e.Update(msg)
	}

	fields := s.store.Draft().Fields
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(fields)-1 {
			s.cursor++
		}
	case "enter":
		if s.cursor < len(fields) {
			return s.EditField(fields[s.cursor].ID)
		}
	case "a":
		s.showMenu = true
		s.menuIdx = 0
	case "ctrl+up", "K":
		if s.cursor > 0 && s.cursor < len(fields) {
			s.store.MoveFieldUp(s.cursor)
			s.cursor--
		}
	case "ctrl+down", "J":
		if s.cursor < len(fields)-1 {
			s.store.MoveFieldDown(s.cursor)
			s.cursor++
		}
	case "d", "delete":
		if s.cursor < len(fields) {
			s.session.RemoveField(fields[s.cursor].ID)
			if s.cursor >= len(fields)-1 && s.cursor > 0 {
				s.cursor--
			}
			return s.syncEditors()
		}
	}
	return nil
}

func (s *ContentStep) handleMenuKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.showMenu = false
	case "up", "k":
		if s.menuIdx > 0 {
			s.menuIdx--
		}
	case "down", "j":
		if s.menuIdx < len(draft.FieldTypes)-1 {
			s.menuIdx++
		}
	case "enter":
		s.showMenu = false
		id := s.session.AddField(draft.FieldTypes[s.menuIdx])
		s.cursor = len(s.store.Draft().Fields) - 1
		_ = id
		return s.syncEditors()
	}
	return nil
}

// View renders the field list, the add menu, or the open picker.
func (s *ContentStep) View() string {
	if s.picker != nil {
		return s.picker.View()
	}

	var b strings.Builder
	if s.showMenu {
		b.WriteString(titleStyle().Render("Add a content block"))
		b.WriteString("\n\n")
		for i, t := range draft.FieldTypes {
			line := t.Display()
			if i == s.menuIdx {
				b.WriteString(selectedStyle().Render("› "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("\n" + renderHintBar("↑↓", "navigate", "enter", "add", "esc", "close"))
		return b.String()
	}

	fields := s.store.Draft().Fields
	if len(fields) == 0 {
		b.WriteString(mutedStyle().Render("No content yet. Press 'a' to add a block."))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("a", "add block", "tab", "buttons", "esc", "back"))
		return b.String()
	}

	for i, f := range fields {
		line := fmt.Sprintf("%s  %s", f.Type.Display(), f.Label)
		if f.Label == "" {
			line = fmt.Sprintf("%s  %s", f.Type.Display(), mutedStyle().Render("(unlabeled)"))
		}
		marker := "  "
		if s.session.IsOpen(f.ID) {
			marker = "✎ "
		}
		if i == s.cursor && s.session.State() == draft.Idle {
			b.WriteString(selectedStyle().Render("› "+marker+line) + "\n")
		} else {
			b.WriteString("  " + marker + line + "\n")
		}

		if e, ok := s.editors[f.ID]; ok {
			b.WriteString("\n")
			b.WriteString(e.View())
			b.WriteString("\n")
		} else if msg := s.store.Error(fmt.Sprintf("field.%s.label", f.ID)); msg != "" {
			b.WriteString("    " + errorStyle().Render("✗ "+msg) + "\n")
		}
	}

	b.WriteString("\n")
	if s.session.State() == draft.Editing {
		b.WriteString(renderHintBar("ctrl+s", "close editor", "ctrl+a", "add block", "tab", "buttons"))
	} else {
		b.WriteString(renderHintBar(
			"↑↓", "navigate",
			"enter", "edit",
			"a", "add",
			"d", "remove",
			"ctrl+↑↓", "reorder",
			"tab", "buttons",
		))
	}
	return b.String()
}
