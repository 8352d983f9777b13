// Package changes implements the changes stack: one frame per active
// subtransaction nesting level, each holding the packages and variables
// mutated at that level. It drives release/rollback processing and answers
// nothing about object identity — membership in "the current frame" is a
// consequence of an object's own savepoint.Stack head level (see
// savepoint.Stack.ChangedAtCurrentLevel), not something the changes stack
// tracks independently.
package changes

import (
	"github.com/wilhasse/sessionvars-go/arena"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// Changeable is implemented by objstore.Package and objstore.Variable.
// objstore imports this package for the interface and for Frame (passed in
// to every mutation); changes never imports objstore, so there is no cycle.
type Changeable interface {
	// ReleaseAt runs savepoint release for this object at the level the
	// enclosing subtransaction just committed.
	ReleaseAt(current savepoint.Level, atTopLevel bool) ReleaseResult
	// RollbackAt runs savepoint rollback for this object at the level the
	// enclosing subtransaction just aborted.
	RollbackAt(current savepoint.Level, atTopLevel bool) RollbackResult
}

// ReleaseResult reports what ReleaseAt did so the changes stack can act on
// the owning collection and on the parent frame.
type ReleaseResult struct {
	// Destroy means the object has no further history and its owner
	// (package map or package's variable table) must drop it.
	Destroy bool
	// Promoted means the object's head state was decremented a level and,
	// if a parent frame exists, must be re-tracked there (spec.md §4.4:
	// "the object is appended to that frame").
	Promoted bool
}

// RollbackResult reports what RollbackAt did. An object whose prior state is
// restored reports neither flag; an object left with no states reports
// Destroy, except a package that still carries regular variables (it gets a
// fresh valid state and reports neither) and an empty package in a nested
// subtransaction, which is left invalid at the parent level and reports
// Repromote so it stays tracked in the parent frame (spec.md §4.3).
type RollbackResult struct {
	// Destroy means the object has no states left and must be dropped by
	// its owner.
	Destroy bool
	// Repromote means the object was left invalid at the parent level and
	// must be re-tracked in the parent frame, if one exists.
	Repromote bool
}

// Frame holds the objects touched at one nesting level.
type Frame struct {
	region           *arena.Region
	ChangedVariables []Changeable
	ChangedPackages  []Changeable
}

func newFrame(parent *arena.Region) *Frame {
	return &Frame{region: arena.NewChild(parent, arena.BlockStartSize)}
}

// TrackVariable appends v to this frame's variable list. Callers are
// expected to call this only the first time an object is touched at the
// current level (spec.md §4.4); the changes stack does not deduplicate.
func (f *Frame) TrackVariable(v Changeable) {
	f.ChangedVariables = append(f.ChangedVariables, v)
}

// TrackPackage appends p to this frame's package list.
func (f *Frame) TrackPackage(p Changeable) {
	f.ChangedPackages = append(f.ChangedPackages, p)
}

func (f *Frame) destroy() {
	if f.region != nil {
		f.region.Destroy()
	}
}
