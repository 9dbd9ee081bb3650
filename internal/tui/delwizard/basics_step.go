package delwizard

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/tui/theme"
)

// Focusable slots of the basics step, in tab order.
const (
	basicsFocusName = iota
	basicsFocusDescription
	basicsFocusPrice
	basicsFocusType
	basicsFocusCustomType
	basicsFocusDate
	basicsFocusNotes
	basicsFocusCount
)

// BasicsStep edits the deliverable's scalar metadata. Every change is
// patched straight into the store so validation errors self-clear as the
// user types.
type BasicsStep struct {
	store *draft.Store

	nameInput       textinput.Model
	descInput       textinput.Model
	priceInput      textinput.Model
	customTypeInput textinput.Model
	dateInput       textinput.Model
	notesArea       textarea.Model

	typeIndex  int // index into draft.DeliverableTypes
	focusIndex int
	width      int
	height     int
}

// NewBasicsStep creates the step pre-filled from the store's draft.
func NewBasicsStep(store *draft.Store) *BasicsStep {
	d := store.Draft()

	s := &BasicsStep{
		store:  store,
		width:  60,
		height: 20,
	}

	s.nameInput = newInput("Deliverable name...")
	s.nameInput.SetValue(d.Name)
	s.descInput = newInput("Short description...")
	s.descInput.SetValue(d.Description)
	s.priceInput = newInput("e.g. 250.00 or $250.00")
	s.priceInput.SetValue(d.Price)
	s.customTypeInput = newInput("Custom type label...")
	s.customTypeInput.SetValue(d.CustomType)
	s.dateInput = newInput("YYYY-MM-DD (optional)")
	s.dateInput.SetValue(d.AvailabilityDate)

	s.notesArea = textarea.New()
	s.notesArea.Placeholder = "Internal notes, hidden from the client..."
	s.notesArea.SetHeight(3)
	s.notesArea.SetValue(d.TeamNotes)

	s.typeIndex = 0
	for i, t := range draft.DeliverableTypes {
		if t == d.Type {
			s.typeIndex = i
		}
	}
	return s
}

func newInput(placeholder string) textinput.Model {
	t := theme.Current()
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.SetStyles(textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Secondary)),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)),
			Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)),
			Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		},
		Cursor: textinput.CursorStyle{
			Color: lipgloss.Color(t.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	})
	in.SetWidth(50)
	return in
}

// Init focuses the first input.
func (s *BasicsStep) Init() tea.Cmd {
	return s.Focus()
}

// Focus gives focus to the first input.
func (s *BasicsStep) Focus() tea.Cmd {
	s.focusIndex = basicsFocusName
	return s.updateFocus()
}

// FocusLast gives focus to the last input.
func (s *BasicsStep) FocusLast() tea.Cmd {
	s.focusIndex = basicsFocusNotes
	return s.updateFocus()
}

// Blur removes focus from every input.
func (s *BasicsStep) Blur() {
	s.nameInput.Blur()
	s.descInput.Blur()
	s.priceInput.Blur()
	s.customTypeInput.Blur()
	s.dateInput.Blur()
	s.notesArea.Blur()
}

// SetSize updates the step dimensions.
func (s *BasicsStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.nameInput.SetWidth(inputWidth)
	s.descInput.SetWidth(inputWidth)
	s.priceInput.SetWidth(inputWidth)
	s.customTypeInput.SetWidth(inputWidth)
	s.dateInput.SetWidth(inputWidth)
	s.notesArea.SetWidth(inputWidth)
}

// customTypeVisible reports whether the custom type input participates in
// the tab order; it only exists for the "other" type.
func (s *BasicsStep) customTypeVisible() bool {
	return draft.DeliverableTypes[s.typeIndex] == draft.TypeOther
}

// Update handles messages for the basics step.
func (s *BasicsStep) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "tab":
			if s.focusIndex == basicsFocusCount-1 {
				return func() tea.Msg { return TabExitForwardMsg{} }
			}
			s.cycleFocus(1)
			return s.updateFocus()

		case "shift+tab":
			if s.focusIndex == basicsFocusName {
				return func() tea.Msg { return TabExitBackwardMsg{} }
			}
			s.cycleFocus(-1)
			return s.updateFocus()

		case "left", "right":
			if s.focusIndex == basicsFocusType {
				delta := 1
				if keyMsg.String() == "left" {
					delta = len(draft.DeliverableTypes) - 1
				}
				s.typeIndex = (s.typeIndex + delta) % len(draft.DeliverableTypes)
				t := draft.DeliverableTypes[s.typeIndex]
				s.store.PatchMetadata(draft.Metadata{Type: &t})
				return nil
			}
		}
	}

	return s.forwardToFocused(msg)
}

// cycleFocus moves the focus index, skipping the custom type input when
// the selected type is not "other".
func (s *BasicsStep) cycleFocus(dir int) {
	for {
		s.focusIndex = (s.focusIndex + dir + basicsFocusCount) % basicsFocusCount
		if s.focusIndex == basicsFocusCustomType && !s.customTypeVisible() {
			continue
		}
		return
	}
}

func (s *BasicsStep) updateFocus() tea.Cmd {
	s.Blur()
	switch s.focusIndex {
	case basicsFocusName:
		return s.nameInput.Focus()
	case basicsFocusDescription:
		return s.descInput.Focus()
	case basicsFocusPrice:
		return s.priceInput.Focus()
	case basicsFocusType:
		return nil // selector row, no input focus
	case basicsFocusCustomType:
		return s.customTypeInput.Focus()
	case basicsFocusDate:
		return s.dateInput.Focus()
	case basicsFocusNotes:
		return s.notesArea.Focus()
	}
	return nil
}

// forwardToFocused routes the message to the focused input and patches the
// store when the value changed.
func (s *BasicsStep) forwardToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focusIndex {
	case basicsFocusName:
		before := s.nameInput.Value()
		s.nameInput, cmd = s.nameInput.Update(msg)
		if v := s.nameInput.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{Name: &v})
		}
	case basicsFocusDescription:
		before := s.descInput.Value()
		s.descInput, cmd = s.descInput.Update(msg)
		if v := s.descInput.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{Description: &v})
		}
	case basicsFocusPrice:
		before := s.priceInput.Value()
		s.priceInput, cmd = s.priceInput.Update(msg)
		if v := s.priceInput.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{Price: &v})
		}
	case basicsFocusCustomType:
		before := s.customTypeInput.Value()
		s.customTypeInput, cmd = s.customTypeInput.Update(msg)
		if v := s.customTypeInput.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{CustomType: &v})
		}
	case basicsFocusDate:
		before := s.dateInput.Value()
		s.dateInput, cmd = s.dateInput.Update(msg)
		if v := s.dateInput.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{AvailabilityDate: &v})
		}
	case basicsFocusNotes:
		before := s.notesArea.Value()
		s.notesArea, cmd = s.notesArea.Update(msg)
		if v := s.notesArea.Value(); v != before {
			s.store.PatchMetadata(draft.Metadata{TeamNotes: &v})
		}
	}
	return cmd
}

// Refresh reloads every input from the store, used after hydration
// replaces the draft underneath the step.
func (s *BasicsStep) Refresh() {
	d := s.store.Draft()
	s.nameInput.SetValue(d.Name)
	s.descInput.SetValue(d.Description)
	s.priceInput.SetValue(d.Price)
	s.customTypeInput.SetValue(d.CustomType)
	s.dateInput.SetValue(d.AvailabilityDate)
	s.notesArea.SetValue(d.TeamNotes)
	for i, t := range draft.DeliverableTypes {
		if t == d.Type {
			s.typeIndex = i
		}
	}
}

// View renders the basics step.
func (s *BasicsStep) View() string {
	var b strings.Builder
	label := labelStyle()
	errStyle := errorStyle()

	writeField := func(title, errKey, view string) {
		b.WriteString(label.Render(title))
		b.WriteString("\n")
		b.WriteString(view)
		b.WriteString("\n")
		if msg := s.store.Error(errKey); msg != "" {
			b.WriteString(errStyle.Render("✗ " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	writeField("Name", "basics.name", s.nameInput.View())
	writeField("Description", "basics.description", s.descInput.View())
	writeField("Price", "basics.price", s.priceInput.View())

	// Type selector row
	b.WriteString(label.Render("Type"))
	b.WriteString("\n")
	b.WriteString(s.renderTypeSelector())
	b.WriteString("\n\n")

	if s.customTypeVisible() {
		writeField("Custom Type", "basics.customDeliverableType", s.customTypeInput.View())
	}
	writeField("Availability Date", "basics.availabilityDate", s.dateInput.View())
	writeField("Team Notes", "basics.teamNotes", s.notesArea.View())

	b.WriteString(renderHintBar(
		"tab", "next field",
		"←/→", "change type",
		"esc", "cancel",
	))
	return b.String()
}

func (s *BasicsStep) renderTypeSelector() string {
	var parts []string
	for i, t := range draft.DeliverableTypes {
		name := string(t)
		if i == s.typeIndex {
			if s.focusIndex == basicsFocusType {
				parts = append(parts, selectedStyle().Render(" "+name+" "))
			} else {
				parts = append(parts, labelStyle().Bold(true).Render("["+name+"]"))
			}
		} else {
			parts = append(parts, mutedStyle().Render(name))
		}
	}
	return strings.Join(parts, "  ")
}
