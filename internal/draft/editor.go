package draft

import (
	"errors"
	"strings"
)

// ErrLabelRequired is returned when a commit is refused because the field's
// label is empty or whitespace.
var ErrLabelRequired = errors.New("label is required")

// EditorState is the editing-session controller's coarse state.
type EditorState int

const (
	Idle EditorState = iota
	Editing
)

// Session is the editing-session controller. It enforces the
// single-active-editor rule: at most one field is open for editing, and a
// field cannot leave edit mode while its label is empty.
//
// Known edge case, preserved deliberately: Select away from a field whose
// commit fails leaves BOTH fields open. The newly targeted field holds
// focus; the stuck field keeps its label error until fixed. Callers that
// want strict single-editor behavior must check Select's error.
type Session struct {
	store *Store

	// open holds ids of fields currently in edit mode, oldest first.
	// The last entry is the focus target. Normally length 0 or 1; a failed
	// commit during Select can briefly grow it to 2.
	open []string

	// lastFocused guards the one-shot focus attempt per newly active field.
	lastFocused string
}

// NewSession creates a controller bound to the given store.
func NewSession(store *Store) *Session {
	return &Session{store: store}
}

// State returns Idle when no field is open for editing.
func (e *Session) State() EditorState {
	if len(e.open) == 0 {
		return Idle
	}
	return Editing
}

// Active returns the id of the field holding edit focus, or "".
func (e *Session) Active() string {
	if len(e.open) == 0 {
		return ""
	}
	return e.open[len(e.open)-1]
}

// Open returns the ids of all fields currently in edit mode, oldest first.
func (e *Session) Open() []string {
	out := make([]string, len(e.open))
	copy(out, e.open)
	return out
}

// IsOpen reports whether the field is in edit mode.
func (e *Session) IsOpen(id string) bool {
	for _, open := range e.open {
		if open == id {
			return true
		}
	}
	return false
}

// Select opens the field for editing. If another field is open, its commit
// is attempted first; on commit failure that field stays open and the
// error is returned, but the newly targeted field still enters edit mode.
func (e *Session) Select(id string) error {
	if e.IsOpen(id) {
		return nil
	}

	var commitErr error
	if active := e.Active(); active != "" {
		commitErr = e.Commit(active)
	}

	e.open = append(e.open, id)
	return commitErr
}

// AddField appends a new field through the store and opens it for editing.
// Returns the new field's id.
func (e *Session) AddField(t FieldType) string {
	id := e.store.AddField(t)
	e.autoOpen(id)
	return id
}

// autoOpen transitions directly to editing the given field, abandoning any
// prior edit session without a commit attempt.
func (e *Session) autoOpen(id string) {
	e.open = []string{id}
}

// RemoveField deletes the field through the store and drops it from the
// edit session. Removing the currently open field returns the controller
// to Idle (unless a stuck field remains open).
func (e *Session) RemoveField(id string) bool {
	if !e.store.RemoveField(id) {
		return false
	}
	e.drop(id)
	return true
}

// Commit closes the field's editor. It refuses, recording a label-required
// error, while the label is empty or whitespace.
func (e *Session) Commit(id string) error {
	f, ok := e.store.Field(id)
	if !ok {
		e.drop(id)
		return nil
	}
	if strings.TrimSpace(f.Label) == "" {
		e.store.SetError("field."+id+".label", "Label is required")
		return ErrLabelRequired
	}
	e.drop(id)
	return nil
}

// CommitActive commits the field currently holding focus.
func (e *Session) CommitActive() error {
	if active := e.Active(); active != "" {
		return e.Commit(active)
	}
	return nil
}

// HandleOutsideInteraction commits every open field except databaseItem
// fields, which only close through their explicit Done action or the
// picker's own close button.
func (e *Session) HandleOutsideInteraction() {
	for _, id := range e.Open() {
		f, ok := e.store.Field(id)
		if ok && f.Type == FieldDatabaseItem {
			continue
		}
		_ = e.Commit(id)
	}
}

// Clear abandons all edit sessions without commit checks. Used by the
// wizard when leaving the content stage.
func (e *Session) Clear() {
	e.open = nil
	e.lastFocused = ""
}

// ShouldFocus returns the active field id exactly once per activation so
// the view performs a single focus attempt and does not refocus while the
// same field stays open.
func (e *Session) ShouldFocus() (string, bool) {
	active := e.Active()
	if active == "" {
		e.lastFocused = ""
		return "", false
	}
	if active == e.lastFocused {
		return "", false
	}
	e.lastFocused = active
	return active, true
}

// drop removes id from the open set.
func (e *Session) drop(id string) {
	for i, open := range e.open {
		if open == id {
			e.open = append(e.open[:i], e.open[i+1:]...)
			return
		}
	}
}
