// Package draft holds the deliverable-under-construction: the typed content
// field model, the mutable draft store, the editing-session controller, and
// the stage validation rules. All mutation flows through Store operations so
// views never touch draft state directly.
package draft

import (
	"encoding/json"
	"fmt"
)

// FieldType identifies one of the eight content block variants.
type FieldType string

const (
	FieldShortText     FieldType = "shortText"
	FieldLongText      FieldType = "longText"
	FieldBulletList    FieldType = "bulletList"
	FieldNumberList    FieldType = "numberList"
	FieldLink          FieldType = "link"
	FieldSpecification FieldType = "specification"
	FieldAttachment    FieldType = "attachment"
	FieldDatabaseItem  FieldType = "databaseItem"
)

// FieldTypes lists all variants in menu order.
var FieldTypes = []FieldType{
	FieldShortText,
	FieldLongText,
	FieldBulletList,
	FieldNumberList,
	FieldLink,
	FieldSpecification,
	FieldAttachment,
	FieldDatabaseItem,
}

// Valid reports whether t is one of the known variants.
func (t FieldType) Valid() bool {
	switch t {
	case FieldShortText, FieldLongText, FieldBulletList, FieldNumberList,
		FieldLink, FieldSpecification, FieldAttachment, FieldDatabaseItem:
		return true
	default:
		return false
	}
}

// Display returns the human-readable name shown in the add-field menu.
func (t FieldType) Display() string {
	switch t {
	case FieldShortText:
		return "Short Text"
	case FieldLongText:
		return "Long Text"
	case FieldBulletList:
		return "Bullet List"
	case FieldNumberList:
		return "Numbered List"
	case FieldLink:
		return "Link"
	case FieldSpecification:
		return "Specification"
	case FieldAttachment:
		return "Attachments"
	case FieldDatabaseItem:
		return "Database Item"
	default:
		return string(t)
	}
}

// Alignment controls how a database item renders inside the document.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Attachment describes one file attached to an attachment field.
// A non-empty FileRef means the backend already stores the binary; such
// entries pass through submission untouched and are never re-uploaded.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"type"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`     // transient local path before upload
	FileRef  string `json:"fileRef,omitempty"` // backend file identifier once persisted
}

// Body is the closed set of per-variant payloads. Exactly one body kind
// pairs with each FieldType; consumption sites switch exhaustively.
type Body interface {
	isBody()
}

// TextBody backs shortText, longText, and specification fields.
type TextBody struct {
	Content string
}

// ListBody backs bulletList and numberList fields. Item order is the
// document order and is preserved across edits.
type ListBody struct {
	Items []string
}

// LinkBody backs link fields.
type LinkBody struct {
	Text string
	URL  string
}

// AttachmentBody backs attachment fields. Order is preserved.
type AttachmentBody struct {
	Attachments []Attachment
}

// DatabaseBody backs databaseItem fields. Item is a point-in-time row
// snapshot from an external table; it does not track source changes.
type DatabaseBody struct {
	Item           map[string]any
	DatabaseID     string
	DatabaseName   string
	Alignment      Alignment
	VisibleColumns map[string]bool
}

func (TextBody) isBody()       {}
func (ListBody) isBody()       {}
func (LinkBody) isBody()       {}
func (AttachmentBody) isBody() {}
func (DatabaseBody) isBody()   {}

// Field is one typed content block of a deliverable. ID is unique within
// the draft; Label is required before the field can leave edit mode.
type Field struct {
	ID    string
	Type  FieldType
	Label string
	Body  Body
}

// NewField returns a field of the given type with an empty payload.
func NewField(id string, t FieldType) Field {
	f := Field{ID: id, Type: t}
	switch t {
	case FieldShortText, FieldLongText, FieldSpecification:
		f.Body = &TextBody{}
	case FieldBulletList, FieldNumberList:
		f.Body = &ListBody{Items: []string{}}
	case FieldLink:
		f.Body = &LinkBody{}
	case FieldAttachment:
		f.Body = &AttachmentBody{Attachments: []Attachment{}}
	case FieldDatabaseItem:
		f.Body = &DatabaseBody{
			Alignment:      AlignLeft,
			VisibleColumns: map[string]bool{},
		}
	default:
		// Unknown types get a text body so the draft stays renderable;
		// validation rejects them before submit.
		f.Body = &TextBody{}
	}
	return f
}

// Clone returns a deep copy of the field. The copy shares no body memory
// with the original, so one side may be read or marshalled while the
// other is being edited.
func (f Field) Clone() Field {
	out := f
	switch body := f.Body.(type) {
	case *TextBody:
		b := *body
		out.Body = &b
	case *ListBody:
		b := ListBody{Items: append([]string(nil), body.Items...)}
		out.Body = &b
	case *LinkBody:
		b := *body
		out.Body = &b
	case *AttachmentBody:
		b := AttachmentBody{Attachments: append([]Attachment(nil), body.Attachments...)}
		out.Body = &b
	case *DatabaseBody:
		b := *body
		if body.Item != nil {
			b.Item = make(map[string]any, len(body.Item))
			for k, v := range body.Item {
				b.Item[k] = v
			}
		}
		if body.VisibleColumns != nil {
			b.VisibleColumns = make(map[string]bool, len(body.VisibleColumns))
			for k, v := range body.VisibleColumns {
				b.VisibleColumns[k] = v
			}
		}
		out.Body = &b
	}
	return out
}

// fieldJSON is the flattened wire shape: {id, type, label, ...variant keys}.
type fieldJSON struct {
	ID    string    `json:"id"`
	Type  FieldType `json:"type"`
	Label string    `json:"label"`

	Content *string `json:"content,omitempty"`

	Items []string `json:"items,omitempty"`

	Text *string `json:"text,omitempty"`
	URL  *string `json:"url,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`

	SelectedItem       map[string]any  `json:"selectedItem,omitempty"`
	SelectedDatabaseID *string         `json:"selectedDatabaseId,omitempty"`
	DatabaseName       *string         `json:"databaseName,omitempty"`
	Alignment          *Alignment      `json:"alignment,omitempty"`
	VisibleColumns     map[string]bool `json:"visibleColumns,omitempty"`
}

// MarshalJSON flattens the field into the backend payload shape.
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{ID: f.ID, Type: f.Type, Label: f.Label}

	switch body := f.Body.(type) {
	case *TextBody:
		out.Content = &body.Content
	case *ListBody:
		items := body.Items
		if items == nil {
			items = []string{}
		}
		out.Items = items
	case *LinkBody:
		out.Text = &body.Text
		out.URL = &body.URL
	case *AttachmentBody:
		out.Attachments = body.Attachments
	case *DatabaseBody:
		out.SelectedItem = body.Item
		if body.DatabaseID != "" {
			out.SelectedDatabaseID = &body.DatabaseID
		}
		if body.DatabaseName != "" {
			out.DatabaseName = &body.DatabaseName
		}
		alignment := body.Alignment
		if alignment == "" {
			alignment = AlignLeft
		}
		out.Alignment = &alignment
		out.VisibleColumns = body.VisibleColumns
	default:
		return nil, fmt.Errorf("field %s: unknown body %T", f.ID, f.Body)
	}

	return json.Marshal(out)
}

// UnmarshalJSON is the exhaustive inverse of MarshalJSON.
func (f *Field) UnmarshalJSON(data []byte) error {
	var in fieldJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown field type %q", in.Type)
	}

	f.ID = in.ID
	f.Type = in.Type
	f.Label = in.Label

	switch in.Type {
	case FieldShortText, FieldLongText, FieldSpecification:
		body := &TextBody{}
		if in.Content != nil {
			body.Content = *in.Content
		}
		f.Body = body
	case FieldBulletList, FieldNumberList:
		items := in.Items
		if items == nil {
			items = []string{}
		}
		f.Body = &ListBody{Items: items}
	case FieldLink:
		body := &LinkBody{}
		if in.Text != nil {
			body.Text = *in.Text
		}
		if in.URL != nil {
			body.URL = *in.URL
		}
		f.Body = body
	case FieldAttachment:
		attachments := in.Attachments
		if attachments == nil {
			attachments = []Attachment{}
		}
		f.Body = &AttachmentBody{Attachments: attachments}
	case FieldDatabaseItem:
		body := &DatabaseBody{
			Item:           in.SelectedItem,
			Alignment:      AlignLeft,
			VisibleColumns: in.VisibleColumns,
		}
		if in.SelectedDatabaseID != nil {
			body.DatabaseID = *in.SelectedDatabaseID
		}
		if in.DatabaseName != nil {
			body.DatabaseName = *in.DatabaseName
		}
		if in.Alignment != nil && *in.Alignment != "" {
			body.Alignment = *in.Alignment
		}
		if body.VisibleColumns == nil {
			body.VisibleColumns = map[string]bool{}
		}
		f.Body = body
	}

	return nil
}
