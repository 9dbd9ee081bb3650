package draftmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atelierhq/atelier/internal/draft"
)

// extractText pulls the text payload out of a CallToolResult.
func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

func callRequest(tool string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	}
}

func TestServerStartRandomPort(t *testing.T) {
	s := New(draft.NewStore())
	ctx := context.Background()

	port, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Errorf("invalid port number: %d", port)
	}

	expectedURL := fmt.Sprintf("http://localhost:%d/mcp", port)
	if s.URL() != expectedURL {
		t.Errorf("URL mismatch: got %s, want %s", s.URL(), expectedURL)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}

func TestServerDoubleStart(t *testing.T) {
	s := New(draft.NewStore())
	ctx := context.Background()

	if _, err := s.Start(ctx); err != nil {
		t.Fatalf("first Start() failed: %v", err)
	}
	defer s.Stop()

	if _, err := s.Start(ctx); err == nil {
		t.Error("second Start() should have returned an error")
	}
}

func TestSetDetailsHandler(t *testing.T) {
	s := New(draft.NewStore())

	result, err := s.handleSetDetails(context.Background(), callRequest("set-details", map[string]any{
		"name":            "Brand Kit",
		"price":           "$250.00",
		"deliverableType": "digital",
		"teamNotes":       "rush job",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractText(result))
	}

	d := s.Store().Draft()
	if d.Name != "Brand Kit" || d.Price != "$250.00" || d.Type != draft.TypeDigital {
		t.Errorf("details not applied: %+v", d)
	}
	if d.TeamNotes != "rush job" {
		t.Errorf("team notes not applied: %+v", d)
	}
	if d.Description != "" {
		t.Errorf("omitted parameters must stay untouched: %+v", d)
	}
}

func TestSetDetailsHandlerRejectsBadPrice(t *testing.T) {
	s := New(draft.NewStore())

	result, err := s.handleSetDetails(context.Background(), callRequest("set-details", map[string]any{
		"price": "ten dollars",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("invalid price should produce a tool error")
	}
	if s.Store().Draft().Price != "" {
		t.Error("rejected price must not be applied")
	}
}

func TestAddFieldHandler(t *testing.T) {
	s := New(draft.NewStore())

	t.Run("bullet list with items", func(t *testing.T) {
		result, err := s.handleAddField(context.Background(), callRequest("add-field", map[string]any{
			"type":  "bulletList",
			"label": "Included Assets",
			"items": []any{"Primary logo", "Favicon"},
		}))
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", extractText(result))
		}

		id := extractText(result)
		f, ok := s.Store().Field(id)
		if !ok {
			t.Fatalf("returned id %q not in store", id)
		}
		if f.Label != "Included Assets" {
			t.Errorf("label not applied: %+v", f)
		}
		items := f.Body.(*draft.ListBody).Items
		if len(items) != 2 || items[0] != "Primary logo" {
			t.Errorf("items not applied: %v", items)
		}
	})

	t.Run("link with url and text", func(t *testing.T) {
		result, _ := s.handleAddField(context.Background(), callRequest("add-field", map[string]any{
			"type":  "link",
			"label": "Moodboard",
			"url":   "https://example.com/board",
			"text":  "View the board",
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", extractText(result))
		}
		f, _ := s.Store().Field(extractText(result))
		body := f.Body.(*draft.LinkBody)
		if body.URL != "https://example.com/board" || body.Text != "View the board" {
			t.Errorf("link body not applied: %+v", body)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		result, _ := s.handleAddField(context.Background(), callRequest("add-field", map[string]any{
			"type":  "carousel",
			"label": "X",
		}))
		if !result.IsError {
			t.Fatal("unknown field type should produce a tool error")
		}
	})

	t.Run("blank label rejected", func(t *testing.T) {
		result, _ := s.handleAddField(context.Background(), callRequest("add-field", map[string]any{
			"type":  "shortText",
			"label": "   ",
		}))
		if !result.IsError {
			t.Fatal("blank label should produce a tool error")
		}
	})
}

func TestListAndRemoveFieldHandlers(t *testing.T) {
	s := New(draft.NewStore())

	add, _ := s.handleAddField(context.Background(), callRequest("add-field", map[string]any{
		"type": "shortText", "label": "Summary",
	}))
	id := extractText(add)

	list, err := s.handleListFields(context.Background(), callRequest("list-fields", nil))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var entries []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(extractText(list)), &entries); err != nil {
		t.Fatalf("list-fields output is not JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id || entries[0].Type != "shortText" {
		t.Errorf("unexpected listing: %+v", entries)
	}

	remove, _ := s.handleRemoveField(context.Background(), callRequest("remove-field", map[string]any{"id": id}))
	if remove.IsError {
		t.Fatalf("unexpected tool error: %s", extractText(remove))
	}
	if _, ok := s.Store().Field(id); ok {
		t.Error("field should be gone after remove-field")
	}

	missing, _ := s.handleRemoveField(context.Background(), callRequest("remove-field", map[string]any{"id": "nope"}))
	if !missing.IsError || !strings.Contains(extractText(missing), "nope") {
		t.Errorf("removing a missing field should name it: %s", extractText(missing))
	}
}
