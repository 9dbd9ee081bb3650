package delwizard

import (
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/atelierhq/atelier/internal/draft"
)

// ReviewStep shows the assembled document as rendered markdown. In
// preview mode it is the only reachable stage and the wizard is
// read-only.
type ReviewStep struct {
	viewport viewport.Model
	store    *draft.Store
	preview  bool
	width    int
	height   int
}

// NewReviewStep creates the review step over the shared store.
func NewReviewStep(store *draft.Store, preview bool) *ReviewStep {
	vp := viewport.New(
		viewport.WithWidth(60),
		viewport.WithHeight(10),
	)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	s := &ReviewStep{
		viewport: vp,
		store:    store,
		preview:  preview,
		width:    60,
		height:   20,
	}
	s.Refresh()
	return s
}

// Init is a no-op.
func (s *ReviewStep) Init() tea.Cmd {
	return nil
}

// Refresh re-renders the document from the current draft.
func (s *ReviewStep) Refresh() {
	md := documentMarkdown(s.store.Draft())
	s.viewport.SetContent(renderMarkdown(md, s.width))
	s.viewport.GotoTop()
}

// SetSize updates the review dimensions and re-renders.
func (s *ReviewStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.viewport.SetWidth(width)
	vpHeight := height - 1
	if vpHeight < 5 {
		vpHeight = 5
	}
	s.viewport.SetHeight(vpHeight)
	s.Refresh()
}

// Update forwards scrolling to the viewport.
func (s *ReviewStep) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

// View renders the document plus a hint bar.
func (s *ReviewStep) View() string {
	var b strings.Builder
	b.WriteString(s.viewport.View())
	b.WriteString("\n")
	if s.preview {
		b.WriteString(renderHintBar("↑↓", "scroll", "esc", "close"))
	} else {
		b.WriteString(renderHintBar("↑↓", "scroll", "tab", "buttons", "esc", "back"))
	}
	return b.String()
}
