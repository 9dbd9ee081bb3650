package theme

import "charm.land/lipgloss/v2"

// Styles contains the pre-built lipgloss styles shared across views.
type Styles struct {
	Title       lipgloss.Style
	Label       lipgloss.Style
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	Hint        lipgloss.Style
	Modal       lipgloss.Style
}
