package draft

import (
	"fmt"

	"github.com/rs/xid"
)

// DeliverableType categorizes a deliverable for the client.
type DeliverableType string

const (
	TypeDigital  DeliverableType = "digital"
	TypeService  DeliverableType = "service"
	TypePhysical DeliverableType = "physical"
	TypePackage  DeliverableType = "package"
	TypeOther    DeliverableType = "other"
)

// DeliverableTypes lists the selector options in display order.
var DeliverableTypes = []DeliverableType{
	TypeDigital, TypeService, TypePhysical, TypePackage, TypeOther,
}

// Valid reports whether t is a known deliverable type.
func (t DeliverableType) Valid() bool {
	switch t {
	case TypeDigital, TypeService, TypePhysical, TypePackage, TypeOther:
		return true
	default:
		return false
	}
}

// Deliverable is the draft record under construction. Fields render and
// submit in insertion order.
type Deliverable struct {
	ID               string          `json:"id,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            string          `json:"price"`
	Type             DeliverableType `json:"deliverableType"`
	CustomType       string          `json:"customDeliverableType,omitempty"`
	AvailabilityDate string          `json:"availabilityDate,omitempty"`
	TeamNotes        string          `json:"teamNotes"`
	Fields           []Field         `json:"customFields"`
}

// Clone returns a deep copy of the deliverable, including every field
// body. Used to snapshot the draft for submission while editing goes on.
func (d Deliverable) Clone() Deliverable {
	out := d
	out.Fields = make([]Field, len(d.Fields))
	for i, f := range d.Fields {
		out.Fields[i] = f.Clone()
	}
	return out
}

// Metadata is a partial patch of the draft's scalar metadata. Nil fields
// are left untouched.
type Metadata struct {
	Name             *string
	Description      *string
	Price            *string
	Type             *DeliverableType
	CustomType       *string
	AvailabilityDate *string
	TeamNotes        *string
}

// Store owns the single mutable draft for one open wizard instance.
// Every mutating call marks the draft dirty and clears any error keyed to
// the property just touched, so validation errors self-clear on edit.
type Store struct {
	d      Deliverable
	errors map[string]string
	dirty  bool
}

// NewStore creates a store holding an empty draft.
func NewStore() *Store {
	return &Store{
		d:      emptyDraft(),
		errors: make(map[string]string),
	}
}

func emptyDraft() Deliverable {
	return Deliverable{
		Type:   TypeDigital,
		Fields: []Field{},
	}
}

// Draft returns a value copy of the current draft for reading. Views must
// route all writes through Store operations.
func (s *Store) Draft() Deliverable {
	return s.d
}

// Dirty reports whether the draft changed since creation or hydration.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Errors returns a copy of the current validation error map.
func (s *Store) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Error returns the message stored under key, if any.
func (s *Store) Error(key string) string {
	return s.errors[key]
}

// SetError records a validation error under a stage-qualified key such as
// "basics.price" or "field.<id>.label".
func (s *Store) SetError(key, msg string) {
	s.errors[key] = msg
}

// ClearError removes a single error entry.
func (s *Store) ClearError(key string) {
	delete(s.errors, key)
}

// ClearErrors drops all recorded errors.
func (s *Store) ClearErrors() {
	s.errors = make(map[string]string)
}

// PatchMetadata applies the non-nil parts of the patch to the draft.
func (s *Store) PatchMetadata(patch Metadata) {
	if patch.Name != nil {
		s.d.Name = *patch.Name
		s.ClearError("basics.name")
	}
	if patch.Description != nil {
		s.d.Description = *patch.Description
		s.ClearError("basics.description")
	}
	if patch.Price != nil {
		s.d.Price = *patch.Price
		s.ClearError("basics.price")
	}
	if patch.Type != nil {
		s.d.Type = *patch.Type
		s.ClearError("basics.deliverableType")
	}
	if patch.CustomType != nil {
		s.d.CustomType = *patch.CustomType
		s.ClearError("basics.customDeliverableType")
	}
	if patch.AvailabilityDate != nil {
		s.d.AvailabilityDate = *patch.AvailabilityDate
		s.ClearError("basics.availabilityDate")
	}
	if patch.TeamNotes != nil {
		s.d.TeamNotes = *patch.TeamNotes
		s.ClearError("basics.teamNotes")
	}
	s.dirty = true
}

// AddField appends a new empty field of the given type and returns its id.
func (s *Store) AddField(t FieldType) string {
	id := xid.New().String()
	s.d.Fields = append(s.d.Fields, NewField(id, t))
	s.dirty = true
	return id
}

// RemoveField deletes the field with the given id. Returns false if the id
// is unknown.
func (s *Store) RemoveField(id string) bool {
	for i, f := range s.d.Fields {
		if f.ID == id {
			s.d.Fields = append(s.d.Fields[:i], s.d.Fields[i+1:]...)
			s.clearFieldErrors(id)
			s.dirty = true
			return true
		}
	}
	return false
}

// MoveFieldUp swaps the field at index with its predecessor. Index 0 is a
// no-op; all other orderings are preserved.
func (s *Store) MoveFieldUp(index int) {
	if index <= 0 || index >= len(s.d.Fields) {
		return
	}
	s.d.Fields[index-1], s.d.Fields[index] = s.d.Fields[index], s.d.Fields[index-1]
	s.dirty = true
}

// MoveFieldDown swaps the field at index with its successor. The last index
// is a no-op.
func (s *Store) MoveFieldDown(index int) {
	if index < 0 || index >= len(s.d.Fields)-1 {
		return
	}
	s.d.Fields[index], s.d.Fields[index+1] = s.d.Fields[index+1], s.d.Fields[index]
	s.dirty = true
}

// Field returns the field with the given id.
func (s *Store) Field(id string) (Field, bool) {
	for _, f := range s.d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// FieldIndex returns the position of the field with the given id, or -1.
func (s *Store) FieldIndex(id string) int {
	for i, f := range s.d.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// fieldRef returns a pointer into the draft's field slice for mutation.
func (s *Store) fieldRef(id string) (*Field, error) {
	for i := range s.d.Fields {
		if s.d.Fields[i].ID == id {
			return &s.d.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("field not found: %s", id)
}

// SetFieldProperty writes one property of a field. The accepted keys depend
// on the field's variant; a mismatched key or value type is an error.
func (s *Store) SetFieldProperty(id, key string, value any) error {
	f, err := s.fieldRef(id)
	if err != nil {
		return err
	}

	// Label is shared across all variants.
	if key == "label" {
		label, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: label must be a string", id)
		}
		f.Label = label
		s.touchField(id, key)
		return nil
	}

	switch body := f.Body.(type) {
	case *TextBody:
		if key != "content" {
			return fmt.Errorf("field %s (%s): unknown property %q", id, f.Type, key)
		}
		content, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: content must be a string", id)
		}
		body.Content = content

	case *ListBody:
		if key != "items" {
			return fmt.Errorf("field %s (%s): unknown property %q", id, f.Type, key)
		}
		items, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field %s: items must be a string slice", id)
		}
		body.Items = items

	case *LinkBody:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: %s must be a string", id, key)
		}
		switch key {
		case "text":
			body.Text = str
		case "url":
			body.URL = str
		default:
			return fmt.Errorf("field %s (%s): unknown property %q", id, f.Type, key)
		}

	case *AttachmentBody:
		if key != "attachments" {
			return fmt.Errorf("field %s (%s): unknown property %q", id, f.Type, key)
		}
		attachments, ok := value.([]Attachment)
		if !ok {
			return fmt.Errorf("field %s: attachments must be []Attachment", id)
		}
		body.Attachments = attachments

	case *DatabaseBody:
		switch key {
		case "selectedItem":
			item, ok := value.(map[string]any)
			if !ok && value != nil {
				return fmt.Errorf("field %s: selectedItem must be a map", id)
			}
			body.Item = item
		case "selectedDatabaseId":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %s: selectedDatabaseId must be a string", id)
			}
			body.DatabaseID = str
		case "databaseName":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %s: databaseName must be a string", id)
			}
			body.DatabaseName = str
		case "alignment":
			alignment, ok := value.(Alignment)
			if !ok {
				return fmt.Errorf("field %s: alignment must be an Alignment", id)
			}
			body.Alignment = alignment
		case "visibleColumns":
			cols, ok := value.(map[string]bool)
			if !ok {
				return fmt.Errorf("field %s: visibleColumns must be map[string]bool", id)
			}
			body.VisibleColumns = cols
		default:
			return fmt.Errorf("field %s (%s): unknown property %q", id, f.Type, key)
		}

	default:
		return fmt.Errorf("field %s: unknown body %T", id, f.Body)
	}

	s.touchField(id, key)
	return nil
}

// touchField marks the draft dirty and self-clears the error for the
// property just edited.
func (s *Store) touchField(id, key string) {
	s.dirty = true
	s.ClearError(fmt.Sprintf("field.%s.%s", id, key))
}

// clearFieldErrors drops every error belonging to one field.
func (s *Store) clearFieldErrors(id string) {
	prefix := fmt.Sprintf("field.%s.", id)
	for k := range s.errors {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.errors, k)
		}
	}
}

// Hydrate overwrites the whole draft from a fetched deliverable and resets
// the dirty flag.
func (s *Store) Hydrate(d Deliverable) {
	if d.Fields == nil {
		d.Fields = []Field{}
	}
	if d.Type == "" {
		d.Type = TypeDigital
	}
	s.d = d
	s.errors = make(map[string]string)
	s.dirty = false
}

// Reset discards the draft, returning the store to an empty, clean state.
// Called on successful submit or discard.
func (s *Store) Reset() {
	s.d = emptyDraft()
	s.errors = make(map[string]string)
	s.dirty = false
}
