package draftmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atelierhq/atelier/internal/draft"
)

// registerTools wires the draft assembly tools onto the MCP server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("set-details",
			mcp.WithDescription("Set the deliverable's basic details; omitted parameters are left unchanged"),
			mcp.WithString("name", mcp.Description("Deliverable name")),
			mcp.WithString("description", mcp.Description("Short description")),
			mcp.WithString("price", mcp.Description("Price, e.g. 250.00 or $250.00")),
			mcp.WithString("deliverableType", mcp.Description("One of: digital, service, physical, package, other")),
			mcp.WithString("customDeliverableType", mcp.Description("Free-form type label when deliverableType is other")),
			mcp.WithString("availabilityDate", mcp.Description("ISO date the deliverable becomes available")),
			mcp.WithString("teamNotes", mcp.Description("Internal notes, not shown to the client")),
		),
		s.handleSetDetails,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add-field",
			mcp.WithDescription("Append a content field to the draft and return its id"),
			mcp.WithString("type", mcp.Required(),
				mcp.Description("Field type: shortText, longText, bulletList, numberList, link, specification, attachment, databaseItem"),
			),
			mcp.WithString("label", mcp.Required(),
				mcp.Description("Field label shown as the block heading"),
			),
			mcp.WithString("content", mcp.Description("Text content for shortText, longText, or specification fields")),
			mcp.WithArray("items",
				mcp.Description("Ordered items for bulletList or numberList fields"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithString("url", mcp.Description("Target URL for link fields")),
			mcp.WithString("text", mcp.Description("Display text for link fields")),
		),
		s.handleAddField,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list-fields",
			mcp.WithDescription("List the draft's content fields in document order"),
		),
		s.handleListFields,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("remove-field",
			mcp.WithDescription("Remove a content field by id"),
			mcp.WithString("id", mcp.Required(),
				mcp.Description("The field id returned by add-field or list-fields"),
			),
		),
		s.handleRemoveField,
	)
}

func (s *Server) handleSetDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	var patch draft.Metadata
	if v, ok := args["name"].(string); ok {
		patch.Name = &v
	}
	if v, ok := args["description"].(string); ok {
		patch.Description = &v
	}
	if v, ok := args["price"].(string); ok {
		if !draft.ValidPrice(v) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid price %q: expected a number with optional $ and cents", v)), nil
		}
		patch.Price = &v
	}
	if v, ok := args["deliverableType"].(string); ok {
		t := draft.DeliverableType(v)
		if !t.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid deliverableType %q", v)), nil
		}
		patch.Type = &t
	}
	if v, ok := args["customDeliverableType"].(string); ok {
		patch.CustomType = &v
	}
	if v, ok := args["availabilityDate"].(string); ok {
		patch.AvailabilityDate = &v
	}
	if v, ok := args["teamNotes"].(string); ok {
		patch.TeamNotes = &v
	}

	s.mu.Lock()
	s.store.PatchMetadata(patch)
	s.mu.Unlock()

	return mcp.NewToolResultText("details updated"), nil
}

func (s *Server) handleAddField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	typeStr, ok := args["type"].(string)
	if !ok || typeStr == "" {
		return mcp.NewToolResultError("missing 'type' parameter"), nil
	}
	fieldType := draft.FieldType(typeStr)
	if !fieldType.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown field type %q", typeStr)), nil
	}

	label, ok := args["label"].(string)
	if !ok || strings.TrimSpace(label) == "" {
		return mcp.NewToolResultError("missing or empty 'label' parameter"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.store.AddField(fieldType)
	if err := s.store.SetFieldProperty(id, "label", label); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch fieldType {
	case draft.FieldShortText, draft.FieldLongText, draft.FieldSpecification:
		if content, ok := args["content"].(string); ok {
			if err := s.store.SetFieldProperty(id, "content", content); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	case draft.FieldBulletList, draft.FieldNumberList:
		if itemsRaw, ok := args["items"].([]any); ok {
			items := make([]string, 0, len(itemsRaw))
			for i, raw := range itemsRaw {
				item, ok := raw.(string)
				if !ok {
					return mcp.NewToolResultError(fmt.Sprintf("item %d is not a string", i)), nil
				}
				items = append(items, item)
			}
			if err := s.store.SetFieldProperty(id, "items", items); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	case draft.FieldLink:
		if url, ok := args["url"].(string); ok {
			if err := s.store.SetFieldProperty(id, "url", url); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		if text, ok := args["text"].(string); ok {
			if err := s.store.SetFieldProperty(id, "text", text); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	}

	return mcp.NewToolResultText(id), nil
}

func (s *Server) handleListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	d := s.store.Draft()
	s.mu.Unlock()

	type entry struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Label string `json:"label"`
	}
	entries := make([]entry, 0, len(d.Fields))
	for _, f := range d.Fields {
		entries = append(entries, entry{ID: f.ID, Type: string(f.Type), Label: f.Label})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal fields: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRemoveField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("missing 'id' parameter"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.store.Field(id); !found {
		return mcp.NewToolResultError(fmt.Sprintf("no field with id %q", id)), nil
	}
	s.store.RemoveField(id)
	return mcp.NewToolResultText("field removed"), nil
}
