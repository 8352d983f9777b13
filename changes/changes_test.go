package changes

import (
	"testing"

	"github.com/wilhasse/sessionvars-go/savepoint"
)

// testObject is a minimal Changeable used to exercise Stack without pulling
// in objstore.
type testObject struct {
	result         ReleaseResult
	rollbackResult RollbackResult
}

func (o *testObject) ReleaseAt(current savepoint.Level, atTopLevel bool) ReleaseResult {
	return o.result
}

func (o *testObject) RollbackAt(current savepoint.Level, atTopLevel bool) RollbackResult {
	return o.rollbackResult
}

func TestEnsureDepthBuildsIntermediateFrames(t *testing.T) {
	s := New()
	s.EnsureDepth(3)
	if s.Depth() != 3 {
		t.Fatalf("depth=%d, want 3", s.Depth())
	}
	s.EnsureDepth(1)
	if s.Depth() != 3 {
		t.Fatalf("EnsureDepth should not shrink, depth=%d", s.Depth())
	}
}

func TestPopAndReleaseOrdersVariablesBeforePackages(t *testing.T) {
	s := New()
	s.EnsureDepth(1)

	var order []string
	v := &orderRecorder{name: "var", order: &order}
	p := &orderRecorder{name: "pkg", order: &order}
	s.Current().TrackVariable(v)
	s.Current().TrackPackage(p)

	s.PopAndRelease(savepoint.Level{Nest: 0}, true)

	if len(order) != 2 || order[0] != "var" || order[1] != "pkg" {
		t.Fatalf("expected [var pkg], got %v", order)
	}
}

type orderRecorder struct {
	name  string
	order *[]string
}

func (r *orderRecorder) ReleaseAt(savepoint.Level, bool) ReleaseResult {
	*r.order = append(*r.order, r.name)
	return ReleaseResult{}
}

func (r *orderRecorder) RollbackAt(savepoint.Level, bool) RollbackResult {
	*r.order = append(*r.order, r.name)
	return RollbackResult{}
}

func TestPopAndReleaseReturnsDestroyedObjects(t *testing.T) {
	s := New()
	s.EnsureDepth(1)

	kept := &testObject{}
	gone := &testObject{result: ReleaseResult{Destroy: true}}
	s.Current().TrackVariable(kept)
	s.Current().TrackVariable(gone)

	destroyed := s.PopAndRelease(savepoint.Level{Nest: 0}, true)
	if len(destroyed) != 1 || destroyed[0] != Changeable(gone) {
		t.Fatalf("expected only gone to be reported destroyed, got %v", destroyed)
	}
	if s.Depth() != 0 {
		t.Fatalf("expected frame popped, depth=%d", s.Depth())
	}
}

func TestPopAndReleasePromotesIntoParentFrame(t *testing.T) {
	s := New()
	s.EnsureDepth(2)

	promoted := &testObject{result: ReleaseResult{Promoted: true}}
	s.Current().TrackVariable(promoted)

	s.PopAndRelease(savepoint.Level{Nest: 1}, false)

	if s.Depth() != 1 {
		t.Fatalf("depth=%d, want 1", s.Depth())
	}
	if len(s.Current().ChangedVariables) != 1 || s.Current().ChangedVariables[0] != Changeable(promoted) {
		t.Fatalf("expected promoted object re-tracked in parent frame")
	}
}

func TestPopAndRollbackRepromotesIntoParentFrame(t *testing.T) {
	s := New()
	s.EnsureDepth(2)

	repromoted := &testObject{rollbackResult: RollbackResult{Repromote: true}}
	s.Current().TrackPackage(repromoted)

	s.PopAndRollback(savepoint.Level{Nest: 1}, false)

	if s.Depth() != 1 {
		t.Fatalf("depth=%d, want 1", s.Depth())
	}
	if len(s.Current().ChangedPackages) != 1 || s.Current().ChangedPackages[0] != Changeable(repromoted) {
		t.Fatalf("expected repromoted package re-tracked in parent frame")
	}
}

func TestPopAndRollbackEmptiesStackArena(t *testing.T) {
	s := New()
	s.EnsureDepth(2)
	s.Current().TrackPackage(&testObject{})

	s.PopAndRollback(savepoint.Level{Nest: 1}, false)
	if s.Depth() != 1 {
		t.Fatalf("depth=%d, want 1", s.Depth())
	}

	s.PopAndRollback(savepoint.Level{Nest: 0}, true)
	if s.Depth() != 0 {
		t.Fatalf("depth=%d, want 0", s.Depth())
	}
	if s.root != nil {
		t.Fatalf("expected stack arena freed once empty")
	}
}

func TestCurrentAndParent(t *testing.T) {
	s := New()
	if s.Current() != nil || s.Parent() != nil {
		t.Fatalf("expected nil frames on empty stack")
	}
	s.EnsureDepth(2)
	if s.Current() == s.Parent() {
		t.Fatalf("expected distinct current and parent frames")
	}
}
