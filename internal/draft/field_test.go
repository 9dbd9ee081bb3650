package draft

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFieldJSON_TextVariants(t *testing.T) {
	f := NewField("f1", FieldShortText)
	f.Label = "Summary"
	f.Body = &TextBody{Content: "A short summary"}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"type":"shortText"`) {
		t.Errorf("expected type tag in %s", data)
	}
	if !strings.Contains(string(data), `"content":"A short summary"`) {
		t.Errorf("expected flattened content in %s", data)
	}

	var back Field
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	body, ok := back.Body.(*TextBody)
	if !ok {
		t.Fatalf("expected TextBody, got %T", back.Body)
	}
	if body.Content != "A short summary" || back.Label != "Summary" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestFieldJSON_ListKeepsOrder(t *testing.T) {
	f := NewField("f2", FieldBulletList)
	f.Label = "Included Assets"
	f.Body = &ListBody{Items: []string{"Primary logo", "Favicon"}}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"items":["Primary logo","Favicon"]`) {
		t.Errorf("expected ordered items in %s", data)
	}
}

func TestFieldJSON_Link(t *testing.T) {
	f := NewField("f3", FieldLink)
	f.Label = "Style Guide"
	f.Body = &LinkBody{Text: "Figma", URL: "https://figma.com/file/x"}

	data, _ := json.Marshal(f)
	var back Field
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	body := back.Body.(*LinkBody)
	if body.URL != "https://figma.com/file/x" || body.Text != "Figma" {
		t.Errorf("round trip mismatch: %+v", body)
	}
}

func TestFieldJSON_AttachmentFileRefSurvives(t *testing.T) {
	f := NewField("f4", FieldAttachment)
	f.Label = "Files"
	f.Body = &AttachmentBody{Attachments: []Attachment{
		{Name: "logo.png", MIMEType: "image/png", Size: 1024, FileRef: "file_abc"},
		{Name: "draft.pdf", MIMEType: "application/pdf", Size: 2048, URL: "/tmp/draft.pdf"},
	}}

	data, _ := json.Marshal(f)
	var back Field
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	atts := back.Body.(*AttachmentBody).Attachments
	if len(atts) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(atts))
	}
	if atts[0].FileRef != "file_abc" {
		t.Error("expected fileRef preserved")
	}
	if atts[1].URL != "/tmp/draft.pdf" {
		t.Error("expected transient url preserved")
	}
}

func TestFieldJSON_DatabaseItem(t *testing.T) {
	f := NewField("f5", FieldDatabaseItem)
	f.Label = "Inventory"
	f.Body = &DatabaseBody{
		Item:           map[string]any{"id": "row_1", "name": "Desk Lamp"},
		DatabaseID:     "tbl_9",
		DatabaseName:   "Inventory",
		Alignment:      AlignCenter,
		VisibleColumns: map[string]bool{"name": true, "id": false},
	}

	data, _ := json.Marshal(f)
	if !strings.Contains(string(data), `"selectedDatabaseId":"tbl_9"`) {
		t.Errorf("expected selectedDatabaseId in %s", data)
	}
	if !strings.Contains(string(data), `"alignment":"center"`) {
		t.Errorf("expected alignment in %s", data)
	}

	var back Field
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	body := back.Body.(*DatabaseBody)
	if body.Item["name"] != "Desk Lamp" {
		t.Error("expected row snapshot preserved")
	}
	if body.Alignment != AlignCenter {
		t.Errorf("expected center alignment, got %s", body.Alignment)
	}
	if body.VisibleColumns["id"] {
		t.Error("expected id column hidden in mask")
	}
}

func TestFieldJSON_UnknownTypeRejected(t *testing.T) {
	var f Field
	err := json.Unmarshal([]byte(`{"id":"x","type":"mystery","label":"?"}`), &f)
	if err == nil {
		t.Error("expected error for unknown field type")
	}
}

func TestNewField_EmptyPayloads(t *testing.T) {
	for _, ft := range FieldTypes {
		f := NewField("id", ft)
		if f.Body == nil {
			t.Errorf("expected body for %s", ft)
		}
		if !f.Type.Valid() {
			t.Errorf("expected valid type for %s", ft)
		}
	}

	db := NewField("id", FieldDatabaseItem).Body.(*DatabaseBody)
	if db.Alignment != AlignLeft {
		t.Error("expected left alignment default")
	}
	if db.VisibleColumns == nil {
		t.Error("expected empty visibility mask, not nil")
	}
}
