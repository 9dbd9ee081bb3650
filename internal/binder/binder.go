// Package binder drives the database-item picker: choosing an external
// table, searching its rows, snapshotting one row into a draft field, and
// managing the per-field column visibility mask.
package binder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/draft"
)

// TableSource supplies table metadata and rows. Satisfied by *api.Client
// directly and by the caching wrapper in internal/cache.
type TableSource interface {
	ListWorkspaceTables(ctx context.Context) ([]api.Table, error)
	GetTableSchema(ctx context.Context, tableID string) (api.TableSchema, error)
	GetTableRecords(ctx context.Context, tableID string) ([]api.Record, error)
}

// RowSnapshot is one table row flattened for embedding into a field: values
// keyed by column name (raw column id when the column is unnamed), plus the
// row's "id" and "position", with the primary column aliased to "name".
type RowSnapshot map[string]any

// systemColumns are bookkeeping keys hidden from rendered output unless the
// user opts them back in.
var systemColumns = map[string]bool{
	"id":        true,
	"position":  true,
	"_id":       true,
	"__v":       true,
	"createdAt": true,
	"updatedAt": true,
}

// IsSystemColumn reports whether name is hidden by default.
func IsSystemColumn(name string) bool {
	return systemColumns[name]
}

// Binder is the edit session of a single databaseItem field. It stages
// every choice locally; nothing reaches the draft store until Save.
type Binder struct {
	source  TableSource
	store   *draft.Store
	fieldID string

	table   api.Table
	columns []api.Column
	rows    []RowSnapshot

	selected  RowSnapshot
	visible   map[string]bool
	alignment draft.Alignment
}

// New opens a binder session for the given databaseItem field. A previously
// saved selection (snapshot, mask, alignment, table identity) is preloaded
// so reopening the picker shows the saved state.
func New(source TableSource, store *draft.Store, fieldID string) (*Binder, error) {
	f, ok := store.Field(fieldID)
	if !ok {
		return nil, fmt.Errorf("binder: no field %s", fieldID)
	}
	body, ok := f.Body.(*draft.DatabaseBody)
	if !ok {
		return nil, fmt.Errorf("binder: field %s is %s, not databaseItem", fieldID, f.Type)
	}

	b := &Binder{
		source:    source,
		store:     store,
		fieldID:   fieldID,
		alignment: body.Alignment,
		visible:   map[string]bool{},
	}
	if b.alignment == "" {
		b.alignment = draft.AlignLeft
	}
	if body.DatabaseID != "" {
		b.table = api.Table{ID: body.DatabaseID, Name: body.DatabaseName}
	}
	if body.Item != nil {
		b.selected = RowSnapshot(body.Item)
	}
	for col, v := range body.VisibleColumns {
		b.visible[col] = v
	}
	return b, nil
}

// ListTables fetches the tables available to bind against.
func (b *Binder) ListTables(ctx context.Context) ([]api.Table, error) {
	return b.source.ListWorkspaceTables(ctx)
}

// SelectDatabase loads the chosen table's schema and rows. Switching to a
// different table than the saved one resets the selection and rebuilds the
// default visibility mask; reselecting the saved table keeps both.
func (b *Binder) SelectDatabase(ctx context.Context, table api.Table) error {
	schema, err := b.source.GetTableSchema(ctx, table.ID)
	if err != nil {
		return fmt.Errorf("load table %s: %w", table.ID, err)
	}
	records, err := b.source.GetTableRecords(ctx, table.ID)
	if err != nil {
		return fmt.Errorf("load table %s rows: %w", table.ID, err)
	}

	switched := b.table.ID != table.ID
	b.table = table
	b.columns = schema.Columns
	b.rows = make([]RowSnapshot, 0, len(records))
	for _, rec := range records {
		b.rows = append(b.rows, Normalize(rec, schema.Columns))
	}

	if switched || len(b.visible) == 0 {
		b.selected = nil
		b.visible = defaultMask(b.rows, schema.Columns)
	}
	return nil
}

// Table returns the currently bound table (zero value when none).
func (b *Binder) Table() api.Table { return b.table }

// Rows returns every loaded row snapshot in table order.
func (b *Binder) Rows() []RowSnapshot { return b.rows }

// Search returns the rows whose string-valued columns contain query,
// case-insensitively. An empty query returns all rows.
func (b *Binder) Search(query string) []RowSnapshot {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return b.rows
	}
	var out []RowSnapshot
	for _, row := range b.rows {
		for _, v := range row {
			s, ok := v.(string)
			if ok && strings.Contains(strings.ToLower(s), query) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// PickItem stages row as the selection. It takes effect only on Save.
func (b *Binder) PickItem(row RowSnapshot) {
	b.selected = row
}

// Selected returns the staged selection, or nil.
func (b *Binder) Selected() RowSnapshot { return b.selected }

// ColumnNames returns the display keys of the staged selection (or of the
// loaded schema when nothing is selected yet), system keys last. Each name
// appears once even when the schema itself carries an "id" or "position"
// column.
func (b *Binder) ColumnNames() []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if len(b.columns) > 0 {
		for _, col := range b.columns {
			add(displayKey(col))
		}
	} else {
		var keys []string
		for k := range b.selected {
			if !systemColumns[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k)
		}
	}
	add("id")
	add("position")
	return names
}

// Visible reports whether a column renders in the document.
func (b *Binder) Visible(name string) bool {
	if v, ok := b.visible[name]; ok {
		return v
	}
	return !systemColumns[name]
}

// SetColumnVisible toggles one column in the staged mask.
func (b *Binder) SetColumnVisible(name string, visible bool) {
	if b.visible == nil {
		b.visible = map[string]bool{}
	}
	b.visible[name] = visible
}

// Alignment returns the staged alignment.
func (b *Binder) Alignment() draft.Alignment { return b.alignment }

// SetAlignment stages how the item renders in the document.
func (b *Binder) SetAlignment(a draft.Alignment) { b.alignment = a }

// Save commits the staged selection, table identity, visibility mask, and
// alignment onto the field. A selection is required.
func (b *Binder) Save() error {
	if b.selected == nil {
		return fmt.Errorf("binder: no item selected")
	}
	if err := b.store.SetFieldProperty(b.fieldID, "selectedItem", map[string]any(b.selected)); err != nil {
		return err
	}
	if err := b.store.SetFieldProperty(b.fieldID, "selectedDatabaseId", b.table.ID); err != nil {
		return err
	}
	if err := b.store.SetFieldProperty(b.fieldID, "databaseName", b.table.Name); err != nil {
		return err
	}
	if err := b.store.SetFieldProperty(b.fieldID, "alignment", b.alignment); err != nil {
		return err
	}
	return b.store.SetFieldProperty(b.fieldID, "visibleColumns", b.visible)
}

// Cancel discards everything staged since the session opened, restoring
// the field's saved selection, mask, and alignment. The draft store is
// untouched.
func (b *Binder) Cancel() {
	f, ok := b.store.Field(b.fieldID)
	if !ok {
		return
	}
	body := f.Body.(*draft.DatabaseBody)
	b.selected = nil
	if body.Item != nil {
		b.selected = RowSnapshot(body.Item)
	}
	b.alignment = body.Alignment
	if b.alignment == "" {
		b.alignment = draft.AlignLeft
	}
	b.visible = map[string]bool{}
	for col, v := range body.VisibleColumns {
		b.visible[col] = v
	}
}

// Normalize flattens one raw record into the snapshot shape: each value
// keyed by its column's name (raw id when the column is unnamed), row id
// and position carried as "id"/"position", and the first column's value
// aliased to "name".
func Normalize(rec api.Record, columns []api.Column) RowSnapshot {
	snap := RowSnapshot{
		"id":       rec.ID,
		"position": rec.Position,
	}
	for i, col := range columns {
		v, ok := rec.Values[col.ID]
		if !ok {
			continue
		}
		snap[displayKey(col)] = v
		if i == 0 {
			snap["name"] = v
		}
	}
	return snap
}

func displayKey(col api.Column) string {
	if col.Name != "" {
		return col.Name
	}
	return col.ID
}

// defaultMask shows every non-system column and hides the system ones.
func defaultMask(rows []RowSnapshot, columns []api.Column) map[string]bool {
	mask := map[string]bool{}
	for _, col := range columns {
		key := displayKey(col)
		mask[key] = !systemColumns[key]
	}
	for sys := range systemColumns {
		mask[sys] = false
	}
	return mask
}
