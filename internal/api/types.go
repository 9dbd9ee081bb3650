package api

import "github.com/atelierhq/atelier/internal/draft"

// Table is one external tabular data source available to the workspace.
type Table struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Column is one column definition of an external table. Slice order is the
// table's column order; the first column is the primary display column.
type Column struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// TableSchema is the column layout returned by GET /tables/{id}.
type TableSchema struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Record is one raw row of an external table, values keyed by column id.
type Record struct {
	ID       string         `json:"id"`
	Position int            `json:"position"`
	Values   map[string]any `json:"values"`
}

// SubmitPayload is the JSON document placed in the multipart "data" field
// on create/update. The draft's keys are inlined alongside the owning
// project's identifier.
type SubmitPayload struct {
	draft.Deliverable
	Project string `json:"project"`
}

// Upload is one binary part of a create/update request, keyed by the
// generated file identifier referenced from an attachment field.
type Upload struct {
	FileID   string
	Name     string
	MIMEType string
	Data     []byte
}
