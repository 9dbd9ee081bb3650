package draft

import (
	"errors"
	"testing"
)

func TestSession_AddFieldOpensNewest(t *testing.T) {
	s := NewStore()
	e := NewSession(s)

	if e.State() != Idle {
		t.Fatal("expected Idle before any field exists")
	}

	id := e.AddField(FieldShortText)

	if e.State() != Editing {
		t.Error("expected Editing after AddField")
	}
	if e.Active() != id {
		t.Errorf("expected newest field %s active, got %s", id, e.Active())
	}

	fields := s.Draft().Fields
	if len(fields) != 1 || fields[len(fields)-1].ID != id {
		t.Error("expected field appended to the end of the list")
	}
}

func TestSession_CommitRequiresLabel(t *testing.T) {
	s := NewStore()
	e := NewSession(s)
	id := e.AddField(FieldShortText)

	err := e.Commit(id)
	if !errors.Is(err, ErrLabelRequired) {
		t.Fatalf("expected ErrLabelRequired, got %v", err)
	}
	if !e.IsOpen(id) {
		t.Error("expected field to stay open after refused commit")
	}
	if s.Error("field."+id+".label") == "" {
		t.Error("expected label-required error recorded")
	}

	t.Run("whitespace label still refused", func(t *testing.T) {
		_ = s.SetFieldProperty(id, "label", "   ")
		if err := e.Commit(id); !errors.Is(err, ErrLabelRequired) {
			t.Errorf("expected ErrLabelRequired for whitespace label, got %v", err)
		}
	})

	t.Run("commit succeeds once labeled", func(t *testing.T) {
		_ = s.SetFieldProperty(id, "label", "Overview")
		if err := e.Commit(id); err != nil {
			t.Fatalf("unexpected commit error: %v", err)
		}
		if e.State() != Idle {
			t.Error("expected Idle after successful commit")
		}
	})
}

// Select away from a field whose commit fails deliberately leaves both
// fields open: the stuck field keeps its label error, the newly targeted
// field holds focus. This pins the resolution of a known source ambiguity.
func TestSession_SelectAwayFromUnlabeledFieldLeavesBothOpen(t *testing.T) {
	s := NewStore()
	e := NewSession(s)

	stuck := e.AddField(FieldShortText)
	target := s.AddField(FieldLongText)
	_ = s.SetFieldProperty(target, "label", "Details")

	err := e.Select(target)
	if !errors.Is(err, ErrLabelRequired) {
		t.Fatalf("expected Select to report the failed commit, got %v", err)
	}

	if !e.IsOpen(stuck) {
		t.Error("expected the unlabeled field to remain open")
	}
	if !e.IsOpen(target) {
		t.Error("expected the newly targeted field to be open too")
	}
	if e.Active() != target {
		t.Errorf("expected focus on the newly targeted field, got %s", e.Active())
	}
	if got := len(e.Open()); got != 2 {
		t.Errorf("expected 2 open editors, got %d", got)
	}
}

func TestSession_SelectCommitsPreviousField(t *testing.T) {
	s := NewStore()
	e := NewSession(s)

	first := e.AddField(FieldShortText)
	_ = s.SetFieldProperty(first, "label", "Summary")
	second := s.AddField(FieldLink)

	if err := e.Select(second); err != nil {
		t.Fatalf("unexpected Select error: %v", err)
	}
	if e.IsOpen(first) {
		t.Error("expected first field committed and closed")
	}
	if e.Active() != second {
		t.Error("expected second field active")
	}
}

func TestSession_RemoveOpenFieldReturnsToIdle(t *testing.T) {
	s := NewStore()
	e := NewSession(s)
	id := e.AddField(FieldShortText)

	if !e.RemoveField(id) {
		t.Fatal("expected removal to succeed")
	}
	if e.State() != Idle {
		t.Error("expected Idle after removing the open field")
	}
}

func TestSession_OutsideInteraction(t *testing.T) {
	t.Run("commits open non-database fields", func(t *testing.T) {
		s := NewStore()
		e := NewSession(s)
		id := e.AddField(FieldShortText)
		_ = s.SetFieldProperty(id, "label", "Summary")

		e.HandleOutsideInteraction()

		if e.IsOpen(id) {
			t.Error("expected outside interaction to commit the field")
		}
	})

	t.Run("leaves unlabeled field open with error", func(t *testing.T) {
		s := NewStore()
		e := NewSession(s)
		id := e.AddField(FieldLongText)

		e.HandleOutsideInteraction()

		if !e.IsOpen(id) {
			t.Error("expected unlabeled field to stay open")
		}
		if s.Error("field."+id+".label") == "" {
			t.Error("expected label-required error")
		}
	})

	t.Run("databaseItem fields are exempt", func(t *testing.T) {
		s := NewStore()
		e := NewSession(s)
		id := e.AddField(FieldDatabaseItem)
		_ = s.SetFieldProperty(id, "label", "Inventory Row")

		e.HandleOutsideInteraction()

		if !e.IsOpen(id) {
			t.Error("expected databaseItem field to ignore outside interaction")
		}

		// An explicit Done action still closes it.
		if err := e.Commit(id); err != nil {
			t.Fatalf("unexpected commit error: %v", err)
		}
		if e.IsOpen(id) {
			t.Error("expected explicit commit to close the picker field")
		}
	})
}

func TestSession_ShouldFocusFiresOncePerActivation(t *testing.T) {
	s := NewStore()
	e := NewSession(s)
	id := e.AddField(FieldShortText)

	got, ok := e.ShouldFocus()
	if !ok || got != id {
		t.Fatalf("expected one focus attempt for %s, got %s/%v", id, got, ok)
	}
	if _, ok := e.ShouldFocus(); ok {
		t.Error("expected no repeated focus while the same field stays open")
	}

	// A new activation fires again.
	_ = s.SetFieldProperty(id, "label", "x")
	_ = e.Commit(id)
	second := e.AddField(FieldLink)
	if got, ok := e.ShouldFocus(); !ok || got != second {
		t.Errorf("expected focus attempt for %s, got %s/%v", second, got, ok)
	}
}

func TestSession_Clear(t *testing.T) {
	s := NewStore()
	e := NewSession(s)
	e.AddField(FieldShortText)

	e.Clear()

	if e.State() != Idle {
		t.Error("expected Idle after Clear")
	}
}
