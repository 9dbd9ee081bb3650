// Package delwizard is the deliverable builder: a three-stage Bubble Tea
// wizard (Basic Details → Content → Review) over the draft store, with a
// read-only preview mode. All async work (hydration, table loads, submit)
// runs through tea.Cmd so the draft only mutates on the event loop.
package delwizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/atelierhq/atelier/internal/api"
	"github.com/atelierhq/atelier/internal/attach"
	"github.com/atelierhq/atelier/internal/binder"
	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/draft"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/tui/theme"
)

// Mode selects how the wizard opens.
type Mode int

const (
	ModeCreate  Mode = iota // empty draft, POST on submit
	ModeEdit                // hydrate by id, PUT on submit
	ModePreview             // read-only, pinned to Review
)

// Backend is the slice of the API client the wizard needs.
type Backend interface {
	GetDeliverable(ctx context.Context, id string) (draft.Deliverable, error)
	CreateDeliverable(ctx context.Context, payload api.SubmitPayload, uploads []api.Upload) (draft.Deliverable, error)
	UpdateDeliverable(ctx context.Context, id string, payload api.SubmitPayload, uploads []api.Upload) (draft.Deliverable, error)
}

// Invalidator drops cached deliverable lists after a successful submit.
type Invalidator interface {
	InvalidateDeliverables(ctx context.Context, project string) error
}

// Wizard is the top-level Bubble Tea model.
type Wizard struct {
	cfg     *config.Config
	backend Backend
	source  binder.TableSource
	invalid Invalidator

	mode          Mode
	deliverableID string

	store   *draft.Store
	session *draft.Session
	stage   draft.Stage

	basicsStep  *BasicsStep
	contentStep *ContentStep
	reviewStep  *ReviewStep

	buttonBar     *ButtonBar
	buttonFocused bool

	hydrating  bool
	submitting bool
	submitted  bool
	cancelled  bool
	toast      string

	width  int
	height int
}

// New creates a wizard. deliverableID is required for ModeEdit and
// ModePreview.
func New(cfg *config.Config, backend Backend, source binder.TableSource, invalid Invalidator, mode Mode, deliverableID string) *Wizard {
	store := draft.NewStore()
	w := &Wizard{
		cfg:           cfg,
		backend:       backend,
		source:        source,
		invalid:       invalid,
		mode:          mode,
		deliverableID: deliverableID,
		store:         store,
		session:       draft.NewSession(store),
		stage:         draft.StageBasics,
	}
	if mode == ModePreview {
		w.stage = draft.StageReview
	}
	return w
}

// Run drives the wizard to completion on a fresh Bubble Tea program.
func Run(w *Wizard) error {
	p := tea.NewProgram(w)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	final, ok := finalModel.(*Wizard)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if final.cancelled {
		return fmt.Errorf("wizard cancelled by user")
	}
	return nil
}

// Store exposes the draft store (used by tests and the MCP handoff).
func (w *Wizard) Store() *draft.Store {
	return w.store
}

// Stage returns the active wizard stage.
func (w *Wizard) Stage() draft.Stage {
	return w.stage
}

func (w *Wizard) limits() attach.Limits {
	return attach.Limits{
		MaxCount:     w.cfg.MaxAttachments,
		MaxBytes:     w.cfg.MaxAttachmentBytes(),
		AllowedMIMEs: w.cfg.AllowedMIMETypes,
	}
}

// Init builds the stage components and, in edit/preview mode, starts the
// async hydration fetch.
func (w *Wizard) Init() tea.Cmd {
	w.basicsStep = NewBasicsStep(w.store)
	w.contentStep = NewContentStep(w.store, w.session, w.source, w.limits())
	w.reviewStep = NewReviewStep(w.store, w.mode == ModePreview)

	var cmds []tea.Cmd
	if w.mode == ModeCreate {
		cmds = append(cmds, w.basicsStep.Init())
	}
	if w.mode == ModeEdit || w.mode == ModePreview {
		w.hydrating = true
		cmds = append(cmds, w.hydrate())
	}
	return tea.Batch(cmds...)
}

// hydrate fetches the deliverable being edited. The user may type while
// it runs; the fetched draft overwrites whatever they entered.
func (w *Wizard) hydrate() tea.Cmd {
	backend := w.backend
	id := w.deliverableID
	return func() tea.Msg {
		d, err := backend.GetDeliverable(context.Background(), id)
		if err != nil {
			return HydrateFailedMsg{Err: err}
		}
		return HydratedMsg{Deliverable: d}
	}
}

// Update handles messages for the wizard.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if cmd, handled := w.handleGlobalKey(msg); handled {
			return w, cmd
		}

	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.updateStepSizes()
		return w, nil

	case HydratedMsg:
		w.hydrating = false
		w.store.Hydrate(msg.Deliverable)
		w.session.Clear()
		w.basicsStep.Refresh()
		w.reviewStep.Refresh()
		return w, nil

	case HydrateFailedMsg:
		w.hydrating = false
		w.toast = "Failed to load deliverable: " + msg.Err.Error()
		return w, nil

	case editorNoticeMsg:
		w.toast = msg.Text
		return w, nil

	case SubmitDoneMsg:
		w.submitting = false
		w.submitted = true
		w.store.Hydrate(msg.Saved)
		return w, tea.Quit

	case SubmitFailedMsg:
		w.submitting = false
		w.applySubmitFailure(msg)
		return w, nil

	case TabExitForwardMsg:
		w.focusButtons(true)
		return w, nil

	case TabExitBackwardMsg:
		w.focusButtons(false)
		return w, nil
	}

	return w, w.updateCurrentStep(msg)
}

// handleGlobalKey processes wizard-level keys. The bool result reports
// whether the key was consumed.
func (w *Wizard) handleGlobalKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	if w.toast != "" {
		w.toast = ""
	}

	if w.buttonFocused && w.buttonBar != nil {
		switch msg.String() {
		case "tab", "right":
			if !w.buttonBar.FocusNext() {
				w.buttonFocused = false
				return w.focusStepFirst(), true
			}
			return nil, true
		case "shift+tab", "left":
			if !w.buttonBar.FocusPrev() {
				w.buttonFocused = false
				return w.focusStepLast(), true
			}
			return nil, true
		case "enter", " ", "space":
			return w.activateButton(w.buttonBar.FocusedButton()), true
		}
	}

	switch msg.String() {
	case "ctrl+c":
		w.cancelled = true
		return tea.Quit, true
	case "esc":
		if w.mode == ModePreview {
			return tea.Quit, true
		}
		if w.contentStep != nil && w.contentStep.picker != nil {
			return nil, false // picker handles its own esc
		}
		if w.stage == draft.StageBasics {
			w.cancelled = true
			return tea.Quit, true
		}
		return w.back(), true
	case "tab":
		if !w.buttonFocused && w.tabReachesButtons() {
			w.focusButtons(true)
			return nil, true
		}
	case "shift+tab":
		if !w.buttonFocused && w.tabReachesButtons() {
			w.focusButtons(false)
			return nil, true
		}
	}
	return nil, false
}

// tabReachesButtons reports whether a bare Tab should jump to the button
// bar. The basics step routes Tab itself via TabExit messages; on the
// content and review stages Tab goes straight to the buttons unless an
// editor is open.
func (w *Wizard) tabReachesButtons() bool {
	if w.mode == ModePreview {
		return false
	}
	switch w.stage {
	case draft.StageContent:
		return w.session.State() == draft.Idle && w.contentStep.picker == nil && !w.contentStep.showMenu
	case draft.StageReview:
		return true
	}
	return false
}

func (w *Wizard) focusButtons(first bool) {
	w.buttonFocused = true
	w.blurStep()
	w.ensureButtonBar()
	if first {
		w.buttonBar.FocusFirst()
	} else {
		w.buttonBar.FocusLast()
	}
}

func (w *Wizard) ensureButtonBar() {
	if w.buttonBar != nil {
		return
	}
	switch w.stage {
	case draft.StageBasics:
		w.buttonBar = NewButtonBar(backNextButtons(false, "Next →"))
	case draft.StageContent:
		w.buttonBar = NewButtonBar(backNextButtons(true, "Next →"))
	case draft.StageReview:
		label := "Create"
		if w.mode == ModeEdit {
			label = "Save Changes"
		}
		w.buttonBar = NewButtonBar([]Button{
			{ID: ButtonBack, Label: "← Back", State: ButtonNormal},
			{ID: ButtonSubmit, Label: label, State: ButtonNormal},
		})
	}
	w.buttonBar.SetWidth(w.contentWidth())
}

func (w *Wizard) activateButton(id ButtonID) tea.Cmd {
	switch id {
	case ButtonBack:
		return w.back()
	case ButtonNext:
		return w.next()
	case ButtonSubmit:
		return w.submit()
	}
	return nil
}

// next validates the current stage and advances. On content failure the
// first invalid field becomes the active edit target.
func (w *Wizard) next() tea.Cmd {
	result := w.store.ValidateStage(w.stage)
	if !result.OK() {
		if w.stage == draft.StageContent && result.FirstFieldID != "" {
			return w.setStage(w.stage, func() tea.Cmd {
				return w.contentStep.EditField(result.FirstFieldID)
			})
		}
		return nil
	}

	w.session.Clear()
	switch w.stage {
	case draft.StageBasics:
		return w.setStage(draft.StageContent, nil)
	case draft.StageContent:
		w.reviewStep.Refresh()
		return w.setStage(draft.StageReview, nil)
	}
	return nil
}

// back always succeeds; entered data stays in the store.
func (w *Wizard) back() tea.Cmd {
	w.session.Clear()
	switch w.stage {
	case draft.StageContent:
		return w.setStage(draft.StageBasics, func() tea.Cmd { return w.basicsStep.Focus() })
	case draft.StageReview:
		return w.setStage(draft.StageContent, nil)
	}
	return nil
}

func (w *Wizard) setStage(stage draft.Stage, after func() tea.Cmd) tea.Cmd {
	w.stage = stage
	w.buttonFocused = false
	w.buttonBar = nil
	w.updateStepSizes()
	if after != nil {
		return after()
	}
	return nil
}

// submit re-validates, resolves attachments, and fires the single
// multipart request. Create vs update is decided by the draft's id.
func (w *Wizard) submit() tea.Cmd {
	if w.submitting {
		return nil
	}
	if basics := w.store.ValidateStage(draft.StageBasics); !basics.OK() {
		w.toast = "Fix the highlighted details first"
		return w.setStage(draft.StageBasics, func() tea.Cmd { return w.basicsStep.Focus() })
	}
	if content := w.store.ValidateStage(draft.StageContent); !content.OK() {
		first := content.FirstFieldID
		return w.setStage(draft.StageContent, func() tea.Cmd {
			if first != "" {
				return w.contentStep.EditField(first)
			}
			return nil
		})
	}

	w.submitting = true
	// Deep copy so the request goroutine never shares field bodies with
	// the draft the UI keeps editing.
	d := w.store.Draft().Clone()
	backend := w.backend
	invalid := w.invalid
	project := w.cfg.Project

	return func() tea.Msg {
		prepared := attach.Prepare(d.Fields)
		for _, skip := range prepared.Skipped {
			logger.Warn("submit: %v", &skip)
		}

		payload := api.SubmitPayload{Deliverable: d, Project: project}
		payload.Fields = prepared.Fields

		var (
			saved draft.Deliverable
			err   error
		)
		if d.ID == "" {
			saved, err = backend.CreateDeliverable(context.Background(), payload, prepared.Uploads)
		} else {
			saved, err = backend.UpdateDeliverable(context.Background(), d.ID, payload, prepared.Uploads)
		}
		if err != nil {
			var verr *api.ServerValidationError
			if errors.As(err, &verr) {
				return SubmitFailedMsg{Err: verr, Fields: verr.Fields}
			}
			return SubmitFailedMsg{Err: err}
		}

		// Invalidate before reporting success so the cache is already
		// clean when the program shuts down.
		if invalid != nil {
			if err := invalid.InvalidateDeliverables(context.Background(), project); err != nil {
				logger.Warn("cache invalidation failed: %v", err)
			}
		}
		return SubmitDoneMsg{Saved: saved}
	}
}

// basicsServerFields maps backend payload field names onto basics error
// keys. Anything else surfaces as a toast only.
var basicsServerFields = map[string]string{
	"name":                  "basics.name",
	"description":           "basics.description",
	"price":                 "basics.price",
	"deliverableType":       "basics.deliverableType",
	"customDeliverableType": "basics.customDeliverableType",
	"availabilityDate":      "basics.availabilityDate",
	"teamNotes":             "basics.teamNotes",
}

// applySubmitFailure maps a server rejection into local error state. A
// structured rejection naming basic-detail fields forces the wizard back
// to the Basic Details stage.
func (w *Wizard) applySubmitFailure(msg SubmitFailedMsg) {
	if len(msg.Fields) == 0 {
		w.toast = "Submit failed: " + msg.Err.Error()
		return
	}

	forceBasics := false
	for _, f := range msg.Fields {
		if key, ok := basicsServerFields[f]; ok {
			w.store.SetError(key, "Rejected by the server")
			forceBasics = true
		}
	}
	w.toast = "The server rejected some fields: " + strings.Join(msg.Fields, ", ")
	if forceBasics && w.stage != draft.StageBasics {
		w.setStage(draft.StageBasics, nil)
	}
}

func (w *Wizard) updateCurrentStep(msg tea.Msg) tea.Cmd {
	switch w.stage {
	case draft.StageBasics:
		if w.basicsStep != nil {
			return w.basicsStep.Update(msg)
		}
	case draft.StageContent:
		if w.contentStep != nil {
			return w.contentStep.Update(msg)
		}
	case draft.StageReview:
		if w.reviewStep != nil {
			return w.reviewStep.Update(msg)
		}
	}
	return nil
}

func (w *Wizard) focusStepFirst() tea.Cmd {
	switch w.stage {
	case draft.StageBasics:
		return w.basicsStep.Focus()
	case draft.StageContent:
		return w.contentStep.Focus()
	}
	return nil
}

func (w *Wizard) focusStepLast() tea.Cmd {
	switch w.stage {
	case draft.StageBasics:
		return w.basicsStep.FocusLast()
	case draft.StageContent:
		return w.contentStep.FocusLast()
	}
	return nil
}

func (w *Wizard) blurStep() {
	switch w.stage {
	case draft.StageBasics:
		w.basicsStep.Blur()
	case draft.StageContent:
		w.contentStep.Blur()
	}
}

func (w *Wizard) contentWidth() int {
	width := w.width - 10
	if width < 60 {
		width = 60
	}
	if width > 100 {
		width = 100
	}
	return width
}

func (w *Wizard) updateStepSizes() {
	width := w.contentWidth() - 6
	height := w.height - 10
	if height < 10 {
		height = 10
	}
	if w.basicsStep != nil {
		w.basicsStep.SetSize(width, height)
	}
	if w.contentStep != nil {
		w.contentStep.SetSize(width, height)
	}
	if w.reviewStep != nil {
		w.reviewStep.SetSize(width, height)
	}
}

// View renders the wizard.
func (w *Wizard) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if w.width == 0 || w.height == 0 {
		view.Content = lipgloss.NewLayer("")
		return view
	}

	content := w.renderStage()
	centered := lipgloss.Place(w.width, w.height, lipgloss.Center, lipgloss.Center, content)

	canvas := uv.NewScreenBuffer(w.width, w.height)
	uv.NewStyledString(centered).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: w.width, Y: w.height},
	})
	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (w *Wizard) renderStage() string {
	t := theme.Current()

	var titleText string
	if w.mode == ModePreview {
		titleText = "Deliverable Preview"
	} else {
		titleText = fmt.Sprintf("Deliverable Builder - Step %d of 3: %s", int(w.stage)+1, w.stage)
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Primary)).
		MarginBottom(1).
		Render(titleText)

	var stepContent string
	if w.hydrating {
		stepContent = mutedStyle().Render("Loading deliverable...")
	} else {
		switch w.stage {
		case draft.StageBasics:
			stepContent = w.basicsStep.View()
		case draft.StageContent:
			stepContent = w.contentStep.View()
		case draft.StageReview:
			stepContent = w.reviewStep.View()
		}
	}

	sections := []string{title, stepContent}

	if w.mode != ModePreview {
		w.ensureButtonBar()
		sections = append(sections, "", w.buttonBar.Render())
	}
	if w.submitting {
		sections = append(sections, mutedStyle().Render("Submitting..."))
	}
	if w.toast != "" {
		sections = append(sections, errorStyle().Render("⚠ "+w.toast))
	}

	modalStyle := lipgloss.NewStyle().
		Width(w.contentWidth()).
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.BorderFocused))

	return modalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
