package delwizard

import (
	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/draft"
)

// TabExitForwardMsg is sent when Tab is pressed on a step's last input.
// The wizard moves focus to the navigation buttons.
type TabExitForwardMsg struct{}

// TabExitBackwardMsg is sent when Shift+Tab is pressed on a step's first
// input. The wizard moves focus to the buttons from the end.
type TabExitBackwardMsg struct{}

// HydratedMsg carries a deliverable fetched for editing. The draft is
// replaced wholesale; anything typed while loading is overwritten.
type HydratedMsg struct {
	Deliverable draft.Deliverable
}

// HydrateFailedMsg reports that the edit-mode fetch failed.
type HydrateFailedMsg struct {
	Err error
}

// SubmitDoneMsg reports a successful create/update round trip.
type SubmitDoneMsg struct {
	Saved draft.Deliverable
}

// SubmitFailedMsg reports a failed submit. Fields is non-empty when the
// backend returned a structured validation rejection.
type SubmitFailedMsg struct {
	Err    error
	Fields []string
}

// TablesLoadedMsg carries the workspace tables for the database picker.
type TablesLoadedMsg struct {
	Tables []api.Table
}

// TableBoundMsg reports that the picker's binder finished loading the
// selected table's schema and rows.
type TableBoundMsg struct{}

// PickerErrorMsg reports a failed table or row load inside the picker.
type PickerErrorMsg struct {
	Err error
}

// PickerClosedMsg is sent when the database picker closes. Saved reports
// whether the staged selection was committed onto the field.
type PickerClosedMsg struct {
	Saved bool
}

// FieldTextEditedMsg carries content back from the external editor for a
// multi-line text field.
type FieldTextEditedMsg struct {
	FieldID string
	Content string
}
