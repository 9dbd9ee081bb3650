package delwizard

import (
	"context"
	"errors"
	"testing"

	"charm.land/bubbles/v2/cursor"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/draft"
)

type fakeBackend struct {
	deliverable draft.Deliverable
	getErr      error

	created     *api.SubmitPayload
	updated     *api.SubmitPayload
	updatedID   string
	uploads     []api.Upload
	submitErr   error
	submitSaved draft.Deliverable
}

func (f *fakeBackend) GetDeliverable(_ context.Context, id string) (draft.Deliverable, error) {
	if f.getErr != nil {
		return draft.Deliverable{}, f.getErr
	}
	return f.deliverable, nil
}

func (f *fakeBackend) CreateDeliverable(_ context.Context, payload api.SubmitPayload, uploads []api.Upload) (draft.Deliverable, error) {
	f.created = &payload
	f.uploads = uploads
	if f.submitErr != nil {
		return draft.Deliverable{}, f.submitErr
	}
	return f.submitSaved, nil
}

func (f *fakeBackend) UpdateDeliverable(_ context.Context, id string, payload api.SubmitPayload, uploads []api.Upload) (draft.Deliverable, error) {
	f.updated = &payload
	f.updatedID = id
	f.uploads = uploads
	if f.submitErr != nil {
		return draft.Deliverable{}, f.submitErr
	}
	return f.submitSaved, nil
}

type fakeTableSource struct{}

func (fakeTableSource) ListWorkspaceTables(context.Context) ([]api.Table, error) {
	return nil, nil
}

func (fakeTableSource) GetTableSchema(context.Context, string) (api.TableSchema, error) {
	return api.TableSchema{}, nil
}

func (fakeTableSource) GetTableRecords(context.Context, string) ([]api.Record, error) {
	return nil, nil
}

type fakeInvalidator struct {
	projects []string
}

func (f *fakeInvalidator) InvalidateDeliverables(_ context.Context, project string) error {
	f.projects = append(f.projects, project)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Project:         "proj-1",
		MaxAttachments:  5,
		MaxAttachmentMB: 10,
	}
}

func newTestWizard(t *testing.T, backend *fakeBackend, mode Mode, id string) *Wizard {
	t.Helper()
	w := New(testConfig(), backend, fakeTableSource{}, nil, mode, id)
	_ = w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return w
}

// runCmd executes a command tree, feeding every produced message back into
// the wizard, and returns the messages seen.
func runCmd(w *Wizard, cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	// Cursor blink messages reschedule themselves forever; feeding
	// them back would keep runCmd from ever terminating.
	if _, ok := msg.(cursor.BlinkMsg); ok {
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(w, c)...)
		}
		return out
	}
	_, next := w.Update(msg)
	return append([]tea.Msg{msg}, runCmd(w, next)...)
}

func TestWizardStartsOnBasics(t *testing.T) {
	w := newTestWizard(t, &fakeBackend{}, ModeCreate, "")

	if w.Stage() != draft.StageBasics {
		t.Errorf("Expected StageBasics, got %v", w.Stage())
	}
}

func TestWizardPreviewPinnedToReview(t *testing.T) {
	backend := &fakeBackend{deliverable: draft.Deliverable{ID: "d1", Name: "Logo Pack", Price: "150"}}
	w := New(testConfig(), backend, fakeTableSource{}, nil, ModePreview, "d1")
	cmd := w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	runCmd(w, cmd)

	if w.Stage() != draft.StageReview {
		t.Errorf("Expected preview to open on Review, got %v", w.Stage())
	}
	// Navigation keys never move a preview off the review stage.
	w.handleGlobalKey(keyPress("tab"))
	if w.Stage() != draft.StageReview {
		t.Error("Expected preview to stay on Review")
	}
}

func keyPress(s string) tea.KeyPressMsg {
	switch s {
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	}
	return tea.KeyPressMsg{Code: rune(s[0]), Text: s}
}

func TestWizardNextBlockedByInvalidBasics(t *testing.T) {
	w := newTestWizard(t, &fakeBackend{}, ModeCreate, "")

	cmd := w.next()
	runCmd(w, cmd)

	if w.Stage() != draft.StageBasics {
		t.Errorf("Expected to stay on basics, got %v", w.Stage())
	}
	if w.Store().Error("basics.name") == "" {
		t.Error("Expected a name error to be recorded")
	}
	if w.Store().Error("basics.price") == "" {
		t.Error("Expected a price error to be recorded")
	}
}

func TestWizardNextAdvancesWhenValid(t *testing.T) {
	w := newTestWizard(t, &fakeBackend{}, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})

	runCmd(w, w.next())
	if w.Stage() != draft.StageContent {
		t.Fatalf("Expected StageContent, got %v", w.Stage())
	}

	runCmd(w, w.next())
	if w.Stage() != draft.StageReview {
		t.Fatalf("Expected StageReview, got %v", w.Stage())
	}
}

func TestWizardContentFailureTargetsFirstInvalidField(t *testing.T) {
	w := newTestWizard(t, &fakeBackend{}, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())

	// Two fields; the first is missing its label and content.
	first := w.Store().AddField(draft.FieldShortText)
	second := w.Store().AddField(draft.FieldShortText)
	require.NoError(t, w.Store().SetFieldProperty(second, "label", "Notes"))
	require.NoError(t, w.Store().SetFieldProperty(second, "content", "ok"))

	runCmd(w, w.next())

	assert.Equal(t, draft.StageContent, w.Stage())
	assert.True(t, w.session.IsOpen(first), "first invalid field should become the active edit target")
	assert.Equal(t, first, w.session.Active())
}

func TestWizardBackAlwaysAllowed(t *testing.T) {
	w := newTestWizard(t, &fakeBackend{}, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())

	// Add an invalid field, then go back: allowed, data kept.
	w.Store().AddField(draft.FieldLink)
	runCmd(w, w.back())

	if w.Stage() != draft.StageBasics {
		t.Fatalf("Expected StageBasics, got %v", w.Stage())
	}
	if len(w.Store().Draft().Fields) != 1 {
		t.Error("Expected entered field to survive going back")
	}
	if w.session.State() != draft.Idle {
		t.Error("Expected back to clear the editing session")
	}
}

func TestWizardSubmitCreates(t *testing.T) {
	backend := &fakeBackend{submitSaved: draft.Deliverable{ID: "d-new", Name: "Logo Pack", Price: "150"}}
	w := newTestWizard(t, backend, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())
	require.Equal(t, draft.StageReview, w.Stage())

	runCmd(w, w.submit())

	require.NotNil(t, backend.created, "expected a create request")
	assert.Nil(t, backend.updated)
	assert.Equal(t, "proj-1", backend.created.Project)
	assert.Equal(t, "Logo Pack", backend.created.Name)
	assert.True(t, w.submitted)
	assert.Equal(t, "d-new", w.Store().Draft().ID, "store should hold the saved record")
}

func TestWizardSubmitUpdatesExisting(t *testing.T) {
	backend := &fakeBackend{
		deliverable: draft.Deliverable{ID: "d7", Name: "Logo Pack", Price: "150"},
		submitSaved: draft.Deliverable{ID: "d7", Name: "Logo Pack v2", Price: "150"},
	}
	w := New(testConfig(), backend, fakeTableSource{}, nil, ModeEdit, "d7")
	cmd := w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	runCmd(w, cmd)
	require.Equal(t, "d7", w.Store().Draft().ID, "hydration should load the record")

	runCmd(w, w.next())
	runCmd(w, w.next())
	runCmd(w, w.submit())

	require.Equal(t, "d7", backend.updatedID, "expected an update, not a create")
	assert.Nil(t, backend.created)
	assert.Equal(t, "Logo Pack v2", w.Store().Draft().Name)
}

func TestWizardSubmitInvalidatesCacheBeforeDone(t *testing.T) {
	backend := &fakeBackend{submitSaved: draft.Deliverable{ID: "d-new"}}
	invalid := &fakeInvalidator{}
	w := New(testConfig(), backend, fakeTableSource{}, invalid, ModeCreate, "")
	_ = w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())

	cmd := w.submit()
	require.NotNil(t, cmd)
	msg := cmd()

	// The invalidation must have completed by the time success is
	// reported; it cannot be left racing shutdown.
	require.Len(t, invalid.projects, 1)
	assert.Equal(t, "proj-1", invalid.projects[0])
	_, ok := msg.(SubmitDoneMsg)
	require.True(t, ok, "expected SubmitDoneMsg, got %T", msg)
}

func TestWizardSubmitFailureSkipsInvalidation(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("boom")}
	invalid := &fakeInvalidator{}
	w := New(testConfig(), backend, fakeTableSource{}, invalid, ModeCreate, "")
	_ = w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())

	runCmd(w, w.submit())

	assert.Empty(t, invalid.projects, "a failed submit must leave the cache alone")
}

func TestWizardSubmitSnapshotsDraft(t *testing.T) {
	backend := &fakeBackend{submitSaved: draft.Deliverable{ID: "d-new"}}
	w := newTestWizard(t, backend, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	id := w.Store().AddField(draft.FieldShortText)
	require.NoError(t, w.Store().SetFieldProperty(id, "label", "Summary"))
	require.NoError(t, w.Store().SetFieldProperty(id, "content", "before"))
	w.session.Clear()
	runCmd(w, w.next())
	require.Equal(t, draft.StageReview, w.Stage())

	cmd := w.submit()
	require.NotNil(t, cmd)

	// The user keeps editing while the request is in flight; the payload
	// must hold the content as of the moment submit was pressed.
	require.NoError(t, w.Store().SetFieldProperty(id, "content", "after"))
	msg := cmd()
	_, ok := msg.(SubmitDoneMsg)
	require.True(t, ok, "expected SubmitDoneMsg, got %T", msg)

	require.NotNil(t, backend.created)
	require.Len(t, backend.created.Fields, 1)
	body := backend.created.Fields[0].Body.(*draft.TextBody)
	assert.Equal(t, "before", body.Content)

	// And the submitted fields must not share body memory with the draft.
	f, _ := w.Store().Field(id)
	assert.NotSame(t, f.Body, backend.created.Fields[0].Body)
}

func TestWizardServerRejectionForcesBasics(t *testing.T) {
	backend := &fakeBackend{submitErr: &api.ServerValidationError{
		Message: "validation failed",
		Fields:  []string{"price", "name"},
	}}
	w := newTestWizard(t, backend, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())
	require.Equal(t, draft.StageReview, w.Stage())

	runCmd(w, w.submit())

	assert.Equal(t, draft.StageBasics, w.Stage(), "a basics rejection returns to Basic Details")
	assert.NotEmpty(t, w.Store().Error("basics.price"))
	assert.NotEmpty(t, w.Store().Error("basics.name"))
	assert.False(t, w.submitted)
}

func TestWizardServerErrorWithoutFieldsShowsToast(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("boom")}
	w := newTestWizard(t, backend, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())

	runCmd(w, w.submit())

	assert.Equal(t, draft.StageReview, w.Stage(), "an opaque failure stays on Review")
	assert.Contains(t, w.toast, "boom")
}

func TestWizardSubmitRevalidatesContent(t *testing.T) {
	backend := &fakeBackend{}
	w := newTestWizard(t, backend, ModeCreate, "")
	name, price := "Logo Pack", "150"
	w.Store().PatchMetadata(draft.Metadata{Name: &name, Price: &price})
	runCmd(w, w.next())
	runCmd(w, w.next())

	// The draft went invalid after reaching Review (e.g. via the MCP tools).
	bad := w.Store().AddField(draft.FieldLink)
	require.NoError(t, w.Store().SetFieldProperty(bad, "label", "Docs"))

	runCmd(w, w.submit())

	assert.Nil(t, backend.created, "an invalid draft must not reach the backend")
	assert.Equal(t, draft.StageContent, w.Stage())
	assert.True(t, w.session.IsOpen(bad))
}

func TestWizardHydrateFailureShowsToast(t *testing.T) {
	backend := &fakeBackend{getErr: errors.New("not found")}
	w := New(testConfig(), backend, fakeTableSource{}, nil, ModeEdit, "nope")
	cmd := w.Init()
	w.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	runCmd(w, cmd)

	if w.toast == "" {
		t.Error("Expected a toast after hydration failure")
	}
	if w.hydrating {
		t.Error("Expected hydrating to clear")
	}
}
