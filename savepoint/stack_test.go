package savepoint

import "testing"

func copyInt(v int) int { return v }

func TestSavepointThenRollbackRestoresHead(t *testing.T) {
	s := NewStack(1, Level{Nest: 0})
	s.Savepoint(copyInt, Level{Nest: 1})
	s.SetHead(2, true)
	if got := s.Head().Value; got != 2 {
		t.Fatalf("head=%d, want 2", got)
	}

	outcome := s.Rollback()
	if outcome != RollbackRestored {
		t.Fatalf("outcome=%v, want RollbackRestored", outcome)
	}
	if got := s.Head().Value; got != 1 {
		t.Fatalf("head after rollback=%d, want 1", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d, want 1", s.Len())
	}
}

func TestRollbackToEmptyReportsEmptied(t *testing.T) {
	s := NewStack(1, Level{Nest: 0})
	if outcome := s.Rollback(); outcome != RollbackEmptied {
		t.Fatalf("outcome=%v, want RollbackEmptied", outcome)
	}
	if s.Len() != 0 {
		t.Fatalf("len=%d, want 0", s.Len())
	}
}

func TestReleaseFoldsTwoLevelsIntoOne(t *testing.T) {
	// BEGIN; x=1 (level 0); SAVEPOINT; x=2 (level 1); RELEASE savepoint.
	s := NewStack(1, Level{Nest: 0})
	s.Savepoint(copyInt, Level{Nest: 1})
	s.SetHead(2, true)

	outcome := s.Release(Level{Nest: 1}, false)
	if outcome != ReleaseFolded {
		t.Fatalf("outcome=%v, want ReleaseFolded", outcome)
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d, want 1", s.Len())
	}
	if got := s.Head().Value; got != 2 {
		t.Fatalf("head=%d, want 2", got)
	}
	if got := s.Head().Level; !got.Equal(Level{Nest: 0}) {
		t.Fatalf("level=%v, want {Nest:0}", got)
	}
}

func TestReleasePromotesWhenParentUntouched(t *testing.T) {
	// Object only touched at level 2 (BEGIN; SAVEPOINT a; SAVEPOINT b; x=1 at level 2; RELEASE b).
	s := NewStack(0, Level{Nest: 0})
	s.Savepoint(copyInt, Level{Nest: 2})
	s.SetHead(1, true)

	outcome := s.Release(Level{Nest: 2}, false)
	if outcome != ReleasePromoted {
		t.Fatalf("outcome=%v, want ReleasePromoted", outcome)
	}
	if got := s.Head().Level; !got.Equal(Level{Nest: 1}) {
		t.Fatalf("level=%v, want {Nest:1}", got)
	}
}

func TestReleaseOfInvalidHeadAtTopDestroysObject(t *testing.T) {
	s := NewStack(0, Level{Nest: 0})
	s.Invalidate()
	if outcome := s.Release(Level{Nest: 0}, true); outcome != ReleaseDestroyed {
		t.Fatalf("outcome=%v, want ReleaseDestroyed", outcome)
	}
}

func TestChangedAtCurrentAndUpperLevel(t *testing.T) {
	s := NewStack(0, Level{Nest: 0})
	if !s.ChangedAtCurrentLevel(Level{Nest: 0}) {
		t.Fatalf("expected changed at level 0")
	}
	if s.ChangedAtCurrentLevel(Level{Nest: 1}) {
		t.Fatalf("did not expect changed at level 1")
	}
	// Head is still at level 0, current is 1: head is "at upper level".
	if !s.ChangedAtUpperLevel(Level{Nest: 1}) {
		t.Fatalf("expected changed at upper level")
	}

	s.Savepoint(copyInt, Level{Nest: 1})
	if !s.ChangedAtCurrentLevel(Level{Nest: 1}) {
		t.Fatalf("expected changed at level 1 after savepoint")
	}
	if !s.ChangedAtUpperLevel(Level{Nest: 1}) {
		t.Fatalf("expected second state to report changed at upper level")
	}
}

func TestSynthesizeReplacesEmptiedStack(t *testing.T) {
	s := NewStack(1, Level{Nest: 0})
	s.Rollback()
	if s.Len() != 0 {
		t.Fatalf("expected emptied stack")
	}
	s.Synthesize(9, Level{Nest: 0})
	if s.Len() != 1 || s.Head().Value != 9 || !s.Head().Valid {
		t.Fatalf("unexpected state after synthesize: %+v", s.Head())
	}
}
