package delwizard

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/glamour/v2"

	"github.com/atelierhq/atelier/internal/binder"
	"github.com/atelierhq/atelier/internal/draft"
)

// renderMarkdown renders markdown with glamour, falling back to the raw
// text if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSuffix(rendered, "\n")
}

// documentMarkdown assembles the full deliverable document as markdown:
// metadata header followed by every content field in order.
func documentMarkdown(d draft.Deliverable) string {
	var b strings.Builder

	name := d.Name
	if name == "" {
		name = "Untitled Deliverable"
	}
	b.WriteString("# " + name + "\n\n")

	if d.Description != "" {
		b.WriteString(d.Description + "\n\n")
	}

	typeName := string(d.Type)
	if d.Type == draft.TypeOther && d.CustomType != "" {
		typeName = d.CustomType
	}
	b.WriteString(fmt.Sprintf("**Price:** %s  \n**Type:** %s", d.Price, typeName))
	if d.AvailabilityDate != "" {
		b.WriteString("  \n**Available:** " + d.AvailabilityDate)
	}
	b.WriteString("\n")

	for _, f := range d.Fields {
		b.WriteString("\n")
		b.WriteString(fieldMarkdown(f))
	}

	if d.TeamNotes != "" {
		b.WriteString("\n---\n\n**Team notes** (internal)\n\n" + d.TeamNotes + "\n")
	}
	return b.String()
}

// fieldMarkdown renders one content field as a markdown block.
func fieldMarkdown(f draft.Field) string {
	var b strings.Builder
	label := f.Label
	if label == "" {
		label = "(unlabeled)"
	}
	b.WriteString("## " + label + "\n\n")

	switch body := f.Body.(type) {
	case *draft.TextBody:
		if body.Content != "" {
			b.WriteString(body.Content + "\n")
		}
	case *draft.ListBody:
		for i, item := range body.Items {
			if f.Type == draft.FieldNumberList {
				b.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
			} else {
				b.WriteString("- " + item + "\n")
			}
		}
	case *draft.LinkBody:
		text := body.Text
		if text == "" {
			text = body.URL
		}
		b.WriteString(fmt.Sprintf("[%s](%s)\n", text, body.URL))
	case *draft.AttachmentBody:
		for _, att := range body.Attachments {
			b.WriteString(fmt.Sprintf("- 📎 %s (%s, %s)\n", att.Name, att.MIMEType, humanSize(att.Size)))
		}
	case *draft.DatabaseBody:
		b.WriteString(databaseItemMarkdown(body))
	}
	return b.String()
}

// databaseItemMarkdown renders a bound row snapshot as a two-column table
// of the visible keys, honoring the field's alignment.
func databaseItemMarkdown(body *draft.DatabaseBody) string {
	if body.Item == nil {
		return "_No item selected_\n"
	}

	keys := visibleKeys(body)
	if len(keys) == 0 {
		return "_All columns hidden_\n"
	}

	align := "---"
	switch body.Alignment {
	case draft.AlignCenter:
		align = ":---:"
	case draft.AlignRight:
		align = "---:"
	}

	var b strings.Builder
	if body.DatabaseName != "" {
		b.WriteString("_From " + body.DatabaseName + "_\n\n")
	}
	b.WriteString("| Field | Value |\n")
	b.WriteString("| --- | " + align + " |\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("| %s | %v |\n", k, body.Item[k]))
	}
	return b.String()
}

// visibleKeys returns the snapshot keys that pass the visibility mask, in
// stable order with the primary alias first. System columns stay hidden
// unless explicitly enabled.
func visibleKeys(body *draft.DatabaseBody) []string {
	var keys []string
	for k := range body.Item {
		if k == "name" {
			continue // alias of the primary column, always shown first
		}
		visible, masked := body.VisibleColumns[k]
		if masked {
			if !visible {
				continue
			}
		} else if binder.IsSystemColumn(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if _, ok := body.Item["name"]; ok {
		keys = append([]string{"name"}, keys...)
	}
	return keys
}

func humanSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
