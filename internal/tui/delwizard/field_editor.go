package delwizard

import (
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/editor"

	"github.com/atelierhq/atelier/internal/attach"
	"github.com/atelierhq/atelier/internal/draft"
)

// openPickerMsg asks the content step to open the database picker for a
// databaseItem field.
type openPickerMsg struct {
	FieldID string
}

// editorNoticeMsg surfaces a non-fatal editor problem (bad attachment
// batch, unreadable file) as a toast.
type editorNoticeMsg struct {
	Text string
}

// fieldEditor is the inline edit form for one open field. All writes go
// through the store so errors self-clear; the editing session decides when
// the field may close.
type fieldEditor struct {
	store   *draft.Store
	fieldID string
	ftype   draft.FieldType
	limits  attach.Limits

	labelInput textinput.Model
	textInput  textinput.Model // shortText content / link text
	urlInput   textinput.Model // link url
	pathInput  textinput.Model // attachment path entry
	bodyArea   textarea.Model  // long text, specification, list items

	focusIndex int
	slots      int
	tmpFile    string
	width      int
}

// newFieldEditor builds the editor for the given field, pre-filled from
// the store.
func newFieldEditor(store *draft.Store, fieldID string, limits attach.Limits) *fieldEditor {
	f, _ := store.Field(fieldID)

	e := &fieldEditor{
		store:   store,
		fieldID: fieldID,
		ftype:   f.Type,
		limits:  limits,
		width:   60,
	}
	// A zero-value textarea.Model has a nil internal viewport and panics on
	// use; SetSize and Blur touch bodyArea regardless of field type.
	e.bodyArea = textarea.New()

	e.labelInput = newInput("Field label (required)...")
	e.labelInput.SetValue(f.Label)

	switch body := f.Body.(type) {
	case *draft.TextBody:
		if f.Type == draft.FieldShortText {
			e.textInput = newInput("Content...")
			e.textInput.SetValue(body.Content)
			e.slots = 2
		} else {
			e.bodyArea = textarea.New()
			e.bodyArea.Placeholder = "Content (ctrl+e opens $EDITOR)..."
			e.bodyArea.SetHeight(5)
			e.bodyArea.SetValue(body.Content)
			e.slots = 2
		}
	case *draft.ListBody:
		e.bodyArea = textarea.New()
		e.bodyArea.Placeholder = "One item per line..."
		e.bodyArea.SetHeight(5)
		e.bodyArea.SetValue(strings.Join(body.Items, "\n"))
		e.slots = 2
	case *draft.LinkBody:
		e.textInput = newInput("Display text...")
		e.textInput.SetValue(body.Text)
		e.urlInput = newInput("https://...")
		e.urlInput.SetValue(body.URL)
		e.slots = 3
	case *draft.AttachmentBody:
		e.pathInput = newInput("Path to file, enter to add (separate multiple with spaces)...")
		e.slots = 2
	case *draft.DatabaseBody:
		e.slots = 1
	}
	return e
}

// Init focuses the label input.
func (e *fieldEditor) Init() tea.Cmd {
	return e.Focus()
}

// Focus focuses the first slot.
func (e *fieldEditor) Focus() tea.Cmd {
	e.focusIndex = 0
	return e.updateFocus()
}

// Blur removes focus from all inputs.
func (e *fieldEditor) Blur() {
	e.labelInput.Blur()
	e.textInput.Blur()
	e.urlInput.Blur()
	e.pathInput.Blur()
	e.bodyArea.Blur()
}

// SetSize updates the editor width.
func (e *fieldEditor) SetSize(width int) {
	e.width = width
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	e.labelInput.SetWidth(inputWidth)
	e.textInput.SetWidth(inputWidth)
	e.urlInput.SetWidth(inputWidth)
	e.pathInput.SetWidth(inputWidth)
	e.bodyArea.SetWidth(inputWidth)
}

// Update handles messages for the editor.
func (e *fieldEditor) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "tab":
			e.focusIndex = (e.focusIndex + 1) % e.slots
			return e.updateFocus()
		case "shift+tab":
			e.focusIndex = (e.focusIndex - 1 + e.slots) % e.slots
			return e.updateFocus()
		case "ctrl+e":
			if e.ftype == draft.FieldLongText || e.ftype == draft.FieldSpecification {
				return e.openExternalEditor()
			}
		case "enter":
			switch e.ftype {
			case draft.FieldDatabaseItem:
				id := e.fieldID
				return func() tea.Msg { return openPickerMsg{FieldID: id} }
			case draft.FieldAttachment:
				if e.focusIndex == 1 {
					return e.stageFiles()
				}
			}
		}

	case FieldTextEditedMsg:
		if msg.FieldID == e.fieldID {
			e.bodyArea.SetValue(msg.Content)
			e.store.SetFieldProperty(e.fieldID, "content", msg.Content)
			if e.tmpFile != "" {
				_ = os.Remove(e.tmpFile)
				e.tmpFile = ""
			}
			return nil
		}
	}

	return e.forwardToFocused(msg)
}

func (e *fieldEditor) updateFocus() tea.Cmd {
	e.Blur()
	if e.focusIndex == 0 {
		return e.labelInput.Focus()
	}
	switch e.ftype {
	case draft.FieldShortText:
		return e.textInput.Focus()
	case draft.FieldLongText, draft.FieldSpecification, draft.FieldBulletList, draft.FieldNumberList:
		return e.bodyArea.Focus()
	case draft.FieldLink:
		if e.focusIndex == 1 {
			return e.textInput.Focus()
		}
		return e.urlInput.Focus()
	case draft.FieldAttachment:
		return e.pathInput.Focus()
	}
	return nil
}

func (e *fieldEditor) forwardToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if e.focusIndex == 0 {
		before := e.labelInput.Value()
		e.labelInput, cmd = e.labelInput.Update(msg)
		if v := e.labelInput.Value(); v != before {
			e.store.SetFieldProperty(e.fieldID, "label", v)
		}
		return cmd
	}

	switch e.ftype {
	case draft.FieldShortText:
		before := e.textInput.Value()
		e.textInput, cmd = e.textInput.Update(msg)
		if v := e.textInput.Value(); v != before {
			e.store.SetFieldProperty(e.fieldID, "content", v)
		}
	case draft.FieldLongText, draft.FieldSpecification:
		before := e.bodyArea.Value()
		e.bodyArea, cmd = e.bodyArea.Update(msg)
		if v := e.bodyArea.Value(); v != before {
			e.store.SetFieldProperty(e.fieldID, "content", v)
		}
	case draft.FieldBulletList, draft.FieldNumberList:
		before := e.bodyArea.Value()
		e.bodyArea, cmd = e.bodyArea.Update(msg)
		if v := e.bodyArea.Value(); v != before {
			e.store.SetFieldProperty(e.fieldID, "items", splitItems(v))
		}
	case draft.FieldLink:
		if e.focusIndex == 1 {
			before := e.textInput.Value()
			e.textInput, cmd = e.textInput.Update(msg)
			if v := e.textInput.Value(); v != before {
				e.store.SetFieldProperty(e.fieldID, "text", v)
			}
		} else {
			before := e.urlInput.Value()
			e.urlInput, cmd = e.urlInput.Update(msg)
			if v := e.urlInput.Value(); v != before {
				e.store.SetFieldProperty(e.fieldID, "url", v)
			}
		}
	case draft.FieldAttachment:
		e.pathInput, cmd = e.pathInput.Update(msg)
	}
	return cmd
}

// splitItems turns the textarea's lines into list items, dropping blank
// lines but preserving order.
func splitItems(v string) []string {
	var items []string
	for _, line := range strings.Split(v, "\n") {
		if strings.TrimSpace(line) != "" {
			items = append(items, line)
		}
	}
	return items
}

// stageFiles validates the entered paths as one batch and appends the
// resulting descriptors to the field. The whole batch is rejected on any
// violation, naming every offender.
func (e *fieldEditor) stageFiles() tea.Cmd {
	raw := strings.TrimSpace(e.pathInput.Value())
	if raw == "" {
		return nil
	}
	paths := strings.Fields(raw)

	f, _ := e.store.Field(e.fieldID)
	body := f.Body.(*draft.AttachmentBody)

	staged, err := attach.Stage(body.Attachments, paths, e.limits)
	if err != nil {
		text := err.Error()
		return func() tea.Msg { return editorNoticeMsg{Text: text} }
	}

	combined := append(append([]draft.Attachment{}, body.Attachments...), staged...)
	if err := e.store.SetFieldProperty(e.fieldID, "attachments", combined); err != nil {
		text := err.Error()
		return func() tea.Msg { return editorNoticeMsg{Text: text} }
	}
	e.pathInput.SetValue("")
	return nil
}

// openExternalEditor hands the multi-line content to $EDITOR.
func (e *fieldEditor) openExternalEditor() tea.Cmd {
	tmpfile, err := os.CreateTemp("", "atelier_field_*.md")
	if err != nil {
		return nil
	}
	if _, err := tmpfile.WriteString(e.bodyArea.Value()); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return nil
	}
	_ = tmpfile.Close()
	e.tmpFile = tmpfile.Name()

	cmd, err := editor.Command("atelier", tmpfile.Name())
	if err != nil {
		_ = os.Remove(tmpfile.Name())
		return nil
	}

	fieldID := e.fieldID
	path := tmpfile.Name()
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return FieldTextEditedMsg{FieldID: fieldID, Content: string(content)}
	})
}

// View renders the edit form.
func (e *fieldEditor) View() string {
	var b strings.Builder
	label := labelStyle()
	errStyle := errorStyle()

	b.WriteString(label.Render("Label"))
	b.WriteString("\n")
	b.WriteString(e.labelInput.View())
	b.WriteString("\n")
	if msg := e.store.Error(fmt.Sprintf("field.%s.label", e.fieldID)); msg != "" {
		b.WriteString(errStyle.Render("✗ " + msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch e.ftype {
	case draft.FieldShortText:
		e.writeBody(&b, "Content", "content", e.textInput.View())
	case draft.FieldLongText, draft.FieldSpecification:
		e.writeBody(&b, "Content", "content", e.bodyArea.View())
	case draft.FieldBulletList, draft.FieldNumberList:
		e.writeBody(&b, "Items (one per line)", "items", e.bodyArea.View())
	case draft.FieldLink:
		e.writeBody(&b, "Display Text", "text", e.textInput.View())
		e.writeBody(&b, "URL", "url", e.urlInput.View())
	case draft.FieldAttachment:
		b.WriteString(e.renderAttachments())
		e.writeBody(&b, "Add Files", "attachments", e.pathInput.View())
	case draft.FieldDatabaseItem:
		b.WriteString(mutedStyle().Render("Press enter to choose a database item"))
		b.WriteString("\n")
	}

	b.WriteString(renderHintBar(e.hints()...))
	return b.String()
}

func (e *fieldEditor) writeBody(b *strings.Builder, title, prop, view string) {
	b.WriteString(labelStyle().Render(title))
	b.WriteString("\n")
	b.WriteString(view)
	b.WriteString("\n")
	if msg := e.store.Error(fmt.Sprintf("field.%s.%s", e.fieldID, prop)); msg != "" {
		b.WriteString(errorStyle().Render("✗ " + msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (e *fieldEditor) renderAttachments() string {
	f, _ := e.store.Field(e.fieldID)
	body := f.Body.(*draft.AttachmentBody)
	if len(body.Attachments) == 0 {
		return mutedStyle().Render("No files attached") + "\n\n"
	}
	var b strings.Builder
	for _, att := range body.Attachments {
		state := "pending"
		if att.FileRef != "" {
			state = "uploaded"
		}
		b.WriteString(fmt.Sprintf("  📎 %s (%s, %s)\n", att.Name, humanSize(att.Size), state))
	}
	b.WriteString("\n")
	return b.String()
}

func (e *fieldEditor) hints() []string {
	base := []string{"tab", "next input", "ctrl+s", "done"}
	switch e.ftype {
	case draft.FieldLongText, draft.FieldSpecification:
		return append(base, "ctrl+e", "$EDITOR")
	case draft.FieldAttachment:
		return append(base, "enter", "add files")
	case draft.FieldDatabaseItem:
		return []string{"enter", "pick item", "ctrl+s", "done"}
	}
	return base
}
