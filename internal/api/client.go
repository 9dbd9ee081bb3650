// Package api is the HTTP collaborator for the deliverables backend. It
// owns request shaping (including the multipart create/update submit) and
// translates backend rejections into typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/logger"
)

// Client talks to the deliverables backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the given base URL. The token, if non-empty, is
// sent as a bearer credential on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetDeliverable fetches an existing deliverable for hydration.
func (c *Client) GetDeliverable(ctx context.Context, id string) (draft.Deliverable, error) {
	var d draft.Deliverable
	if err := c.getJSON(ctx, "/deliverables/"+url.PathEscape(id), &d); err != nil {
		return draft.Deliverable{}, fmt.Errorf("get deliverable %s: %w", id, err)
	}
	return d, nil
}

// ListWorkspaceTables fetches the tables available for database-item fields.
func (c *Client) ListWorkspaceTables(ctx context.Context) ([]Table, error) {
	var tables []Table
	if err := c.getJSON(ctx, "/tables/workspace", &tables); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// GetTableSchema fetches the column definitions of one table.
func (c *Client) GetTableSchema(ctx context.Context, tableID string) (TableSchema, error) {
	var schema TableSchema
	if err := c.getJSON(ctx, "/tables/"+url.PathEscape(tableID), &schema); err != nil {
		return TableSchema{}, fmt.Errorf("get table %s: %w", tableID, err)
	}
	return schema, nil
}

// GetTableRecords fetches the rows of one table.
func (c *Client) GetTableRecords(ctx context.Context, tableID string) ([]Record, error) {
	var records []Record
	if err := c.getJSON(ctx, "/tables/"+url.PathEscape(tableID)+"/records", &records); err != nil {
		return nil, fmt.Errorf("get table %s records: %w", tableID, err)
	}
	return records, nil
}

// CreateDeliverable submits a new deliverable as a single multipart request:
// one "data" field holding the payload JSON plus one binary part per upload.
func (c *Client) CreateDeliverable(ctx context.Context, payload SubmitPayload, uploads []Upload) (draft.Deliverable, error) {
	return c.submit(ctx, http.MethodPost, "/deliverables", payload, uploads)
}

// UpdateDeliverable submits changes to an existing deliverable in the same
// multipart shape as create.
func (c *Client) UpdateDeliverable(ctx context.Context, id string, payload SubmitPayload, uploads []Upload) (draft.Deliverable, error) {
	return c.submit(ctx, http.MethodPut, "/deliverables/"+url.PathEscape(id), payload, uploads)
}

func (c *Client) submit(ctx context.Context, method, path string, payload SubmitPayload, uploads []Upload) (draft.Deliverable, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return draft.Deliverable{}, fmt.Errorf("encode payload: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("data", string(data)); err != nil {
		return draft.Deliverable{}, fmt.Errorf("write data field: %w", err)
	}
	for _, up := range uploads {
		part, err := createFilePart(mw, up)
		if err != nil {
			return draft.Deliverable{}, fmt.Errorf("write part %s: %w", up.FileID, err)
		}
		if _, err := part.Write(up.Data); err != nil {
			return draft.Deliverable{}, fmt.Errorf("write part %s: %w", up.FileID, err)
		}
	}
	if err := mw.Close(); err != nil {
		return draft.Deliverable{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return draft.Deliverable{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	logger.Debug("api: %s %s (%d uploads, %d byte payload)", method, path, len(uploads), len(data))
	resp, err := c.http.Do(req)
	if err != nil {
		return draft.Deliverable{}, fmt.Errorf("submit deliverable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return draft.Deliverable{}, decodeError(resp)
	}

	var saved draft.Deliverable
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return draft.Deliverable{}, fmt.Errorf("decode response: %w", err)
	}
	return saved, nil
}

func createFilePart(mw *multipart.Writer, up Upload) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, up.FileID, up.Name))
	mime := up.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	return mw.CreatePart(h)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeError turns a non-2xx response into a typed error. A body carrying a
// "fields" array is a structured validation failure; anything else becomes a
// StatusError with whatever message the backend offered.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var v ServerValidationError
	if err := json.Unmarshal(raw, &v); err == nil && len(v.Fields) > 0 {
		return &v
	}

	var generic struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &generic)
	msg := generic.Error
	if msg == "" {
		msg = generic.Message
	}
	return &StatusError{Status: resp.StatusCode, Message: msg}
}
