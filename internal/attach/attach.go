// Package attach stages local files onto attachment fields and resolves
// them into multipart uploads at submit time. Binary content is never held
// in the draft; files are read from disk only when the request is built.
package attach

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/xid"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/logger"
)

// Limits bounds what a single attachment field accepts.
type Limits struct {
	MaxCount     int
	MaxBytes     int64
	AllowedMIMEs []string
}

// Allowed reports whether mimeType passes the allow-list. An empty list
// allows everything.
func (l Limits) Allowed(mimeType string) bool {
	if len(l.AllowedMIMEs) == 0 {
		return true
	}
	for _, m := range l.AllowedMIMEs {
		if strings.EqualFold(m, mimeType) {
			return true
		}
	}
	return false
}

// BatchError rejects an entire add-files batch. Reasons names every
// offending file so the user can fix the batch in one pass.
type BatchError struct {
	Reasons []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("attachment batch rejected: %s", strings.Join(e.Reasons, "; "))
}

// ReadError marks one staged file that could not be read at submit time.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read attachment %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Stage validates a batch of local file paths against the limits, given
// how many attachments the field already holds, and turns them into
// transient descriptors (URL set to the local path, no FileRef). The batch
// is all-or-nothing: any violation rejects every file, and the error names
// each offender.
func Stage(existing []draft.Attachment, paths []string, limits Limits) ([]draft.Attachment, error) {
	var reasons []string
	if limits.MaxCount > 0 && len(existing)+len(paths) > limits.MaxCount {
		reasons = append(reasons, fmt.Sprintf(
			"adding %d files exceeds the limit of %d per field (%d already attached)",
			len(paths), limits.MaxCount, len(existing)))
	}

	staged := make([]draft.Attachment, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		info, err := os.Stat(path)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if limits.MaxBytes > 0 && info.Size() > limits.MaxBytes {
			reasons = append(reasons, fmt.Sprintf("%s: %d bytes exceeds the %d byte limit", name, info.Size(), limits.MaxBytes))
		}
		mimeType := detectMIME(path)
		if !limits.Allowed(mimeType) {
			reasons = append(reasons, fmt.Sprintf("%s: type %s is not allowed", name, mimeType))
		}
		staged = append(staged, draft.Attachment{
			Name:     name,
			MIMEType: mimeType,
			Size:     info.Size(),
			URL:      path,
		})
	}

	if len(reasons) > 0 {
		return nil, &BatchError{Reasons: reasons}
	}
	return staged, nil
}

// Prepared is the submit-ready resolution of a draft's attachment fields.
type Prepared struct {
	Fields  []draft.Field
	Uploads []api.Upload
	Skipped []ReadError
}

// Prepare walks the draft's fields and resolves every attachment that has
// no FileRef into a binary upload keyed by a generated identifier; that
// identifier is written into the payload copy's fileRef so the backend can
// pair part and descriptor. Attachments that already carry a FileRef pass
// through untouched. A file that cannot be read is skipped, not fatal: its
// descriptor stays in the payload without a FileRef.
func Prepare(fields []draft.Field) Prepared {
	out := Prepared{Fields: make([]draft.Field, len(fields))}
	copy(out.Fields, fields)

	for i, f := range out.Fields {
		body, ok := f.Body.(*draft.AttachmentBody)
		if !ok {
			continue
		}
		resolved := &draft.AttachmentBody{
			Attachments: make([]draft.Attachment, len(body.Attachments)),
		}
		copy(resolved.Attachments, body.Attachments)

		for j := range resolved.Attachments {
			att := &resolved.Attachments[j]
			if att.FileRef != "" {
				continue
			}
			data, err := os.ReadFile(att.URL)
			if err != nil {
				logger.Warn("attach: skipping %s: %v", att.Name, err)
				out.Skipped = append(out.Skipped, ReadError{Name: att.Name, Err: err})
				continue
			}
			id := UploadID(att.Name)
			out.Uploads = append(out.Uploads, api.Upload{
				FileID:   id,
				Name:     att.Name,
				MIMEType: att.MIMEType,
				Data:     data,
			})
			att.FileRef = id
			att.URL = ""
		}
		out.Fields[i].Body = resolved
	}
	return out
}

// UploadID generates the identifier pairing a binary part with its
// descriptor: a slug of the file name plus a unique suffix.
func UploadID(name string) string {
	return slug.Make(name) + "-" + xid.New().String()
}

func detectMIME(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		// Strip charset parameters, the backend matches bare types.
		if i := strings.Index(t, ";"); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
