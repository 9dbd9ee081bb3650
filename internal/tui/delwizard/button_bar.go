package delwizard

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/atelierhq/atelier/internal/tui/theme"
)

// ButtonID identifies a navigation button's action.
type ButtonID int

const (
	ButtonNone ButtonID = iota
	ButtonBack
	ButtonNext
	ButtonSubmit
	ButtonClose
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
	ButtonFocused                     // Focused/highlighted state
)

// Button is a single button in the button bar.
type Button struct {
	ID    ButtonID
	Label string
	State ButtonState
}

// ButtonBar manages a set of buttons with focus tracking.
type ButtonBar struct {
	buttons []Button
	focused int // index of focused button, -1 when blurred
	width   int
}

// NewButtonBar creates a button bar with the given buttons, unfocused.
func NewButtonBar(buttons []Button) *ButtonBar {
	return &ButtonBar{
		buttons: buttons,
		focused: -1,
		width:   60,
	}
}

// SetWidth updates the width used to center the bar.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// FocusFirst focuses the first enabled button.
func (b *ButtonBar) FocusFirst() {
	b.Blur()
	for i := range b.buttons {
		if b.buttons[i].State != ButtonDisabled {
			b.setFocus(i)
			return
		}
	}
}

// FocusLast focuses the last enabled button.
func (b *ButtonBar) FocusLast() {
	b.Blur()
	for i := len(b.buttons) - 1; i >= 0; i-- {
		if b.buttons[i].State != ButtonDisabled {
			b.setFocus(i)
			return
		}
	}
}

// FocusNext advances focus to the next enabled button. It returns false
// when focus falls off the end (caller should move focus elsewhere).
func (b *ButtonBar) FocusNext() bool {
	for i := b.focused + 1; i < len(b.buttons); i++ {
		if b.buttons[i].State != ButtonDisabled {
			b.clearFocus()
			b.setFocus(i)
			return true
		}
	}
	b.Blur()
	return false
}

// FocusPrev moves focus to the previous enabled button. It returns false
// when focus falls off the start.
func (b *ButtonBar) FocusPrev() bool {
	for i := b.focused - 1; i >= 0; i-- {
		if b.buttons[i].State != ButtonDisabled {
			b.clearFocus()
			b.setFocus(i)
			return true
		}
	}
	b.Blur()
	return false
}

// Blur removes focus from all buttons.
func (b *ButtonBar) Blur() {
	b.clearFocus()
	b.focused = -1
}

// IsFocused reports whether any button holds focus.
func (b *ButtonBar) IsFocused() bool {
	return b.focused >= 0
}

// FocusedButton returns the id of the focused button, or ButtonNone.
func (b *ButtonBar) FocusedButton() ButtonID {
	if b.focused < 0 || b.focused >= len(b.buttons) {
		return ButtonNone
	}
	return b.buttons[b.focused].ID
}

// SetEnabled flips one button between normal and disabled.
func (b *ButtonBar) SetEnabled(id ButtonID, enabled bool) {
	for i := range b.buttons {
		if b.buttons[i].ID != id {
			continue
		}
		if enabled && b.buttons[i].State == ButtonDisabled {
			b.buttons[i].State = ButtonNormal
		}
		if !enabled {
			if b.focused == i {
				b.Blur()
			}
			b.buttons[i].State = ButtonDisabled
		}
	}
}

func (b *ButtonBar) setFocus(i int) {
	b.focused = i
	b.buttons[i].State = ButtonFocused
}

func (b *ButtonBar) clearFocus() {
	if b.focused >= 0 && b.focused < len(b.buttons) && b.buttons[b.focused].State == ButtonFocused {
		b.buttons[b.focused].State = ButtonNormal
	}
}

// Render renders the button bar centered in its width.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}
	t := theme.Current()

	normalStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgBase)).
		Background(lipgloss.Color(t.BgSurface0)).
		Padding(0, 2).
		MarginLeft(1).
		MarginRight(1)

	disabledStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgMuted)).
		Background(lipgloss.Color(t.BgMantle)).
		Padding(0, 2).
		MarginLeft(1).
		MarginRight(1)

	focusedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.BgBase)).
		Background(lipgloss.Color(t.Secondary)).
		Bold(true).
		Padding(0, 2).
		MarginLeft(1).
		MarginRight(1)

	var rendered []string
	for _, btn := range b.buttons {
		switch btn.State {
		case ButtonDisabled:
			rendered = append(rendered, disabledStyle.Render(btn.Label))
		case ButtonFocused:
			rendered = append(rendered, focusedStyle.Render(btn.Label))
		default:
			rendered = append(rendered, normalStyle.Render(btn.Label))
		}
	}

	result := strings.Join(rendered, "")
	return lipgloss.Place(b.width, 1, lipgloss.Center, lipgloss.Center, result)
}

// backNextButtons creates the standard Back/Next pair used by the Basic
// Details and Content stages.
func backNextButtons(backEnabled bool, nextLabel string) []Button {
	backState := ButtonNormal
	if !backEnabled {
		backState = ButtonDisabled
	}
	return []Button{
		{ID: ButtonBack, Label: "← Back", State: backState},
		{ID: ButtonNext, Label: nextLabel, State: ButtonNormal},
	}
}
