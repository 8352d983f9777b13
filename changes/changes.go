package changes

import (
	"github.com/wilhasse/sessionvars-go/arena"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// Stack is the changes stack from spec.md §4.4: one Frame per active
// subtransaction nesting depth, backed by a single arena whose children are
// destroyed frame-by-frame as subtransactions commit or abort. A Stack with
// no frames is "absent", per invariant 6 (changes-stack depth equals
// transaction nesting depth).
type Stack struct {
	root   *arena.Region
	frames []*Frame
}

// New returns an empty changes stack.
func New() *Stack {
	return &Stack{}
}

// Depth reports the number of active frames.
func (s *Stack) Depth() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// EnsureDepth grows the stack to n frames, lazily building any intermediate
// frames — "push a new frame, lazily building intermediate frames if the
// stack is absent but current_level > 0" (spec.md §4.4).
func (s *Stack) EnsureDepth(n int) {
	if s.root == nil {
		s.root = arena.New(arena.BlockStartSize)
	}
	for len(s.frames) < n {
		s.frames = append(s.frames, newFrame(s.root))
	}
}

// Current returns the innermost frame, or nil if the stack is empty.
func (s *Stack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Parent returns the frame one level up from Current, or nil.
func (s *Stack) Parent() *Frame {
	if len(s.frames) < 2 {
		return nil
	}
	return s.frames[len(s.frames)-2]
}

// PopAndRelease pops the current frame and runs savepoint release over its
// objects, variables before packages (spec.md §4.4 ordering). Objects
// promoted to the parent level are re-tracked in the new current frame, if
// one exists; destroyed objects are returned for the caller's owner
// (package map, or the package's variable tables) to drop.
func (s *Stack) PopAndRelease(current savepoint.Level, atTopLevel bool) []Changeable {
	if len(s.frames) == 0 {
		return nil
	}
	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	parent := s.Current()

	var destroyed []Changeable
	for _, v := range frame.ChangedVariables {
		result := v.ReleaseAt(current, atTopLevel)
		if result.Destroy {
			destroyed = append(destroyed, v)
		} else if result.Promoted && parent != nil {
			parent.TrackVariable(v)
		}
	}
	for _, p := range frame.ChangedPackages {
		result := p.ReleaseAt(current, atTopLevel)
		if result.Destroy {
			destroyed = append(destroyed, p)
		} else if result.Promoted && parent != nil {
			parent.TrackPackage(p)
		}
	}
	frame.destroy()
	s.collapseIfEmpty()
	return destroyed
}

// PopAndRollback pops the current frame and runs savepoint rollback over its
// objects, variables before packages. An object that reports Repromote (an
// empty package left invalid at the parent level, spec.md §4.3) is
// re-tracked in the parent frame instead of being reported destroyed.
func (s *Stack) PopAndRollback(current savepoint.Level, atTopLevel bool) []Changeable {
	if len(s.frames) == 0 {
		return nil
	}
	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	parent := s.Current()

	var destroyed []Changeable
	for _, v := range frame.ChangedVariables {
		result := v.RollbackAt(current, atTopLevel)
		if result.Destroy {
			destroyed = append(destroyed, v)
		} else if result.Repromote && parent != nil {
			parent.TrackVariable(v)
		}
	}
	for _, p := range frame.ChangedPackages {
		result := p.RollbackAt(current, atTopLevel)
		if result.Destroy {
			destroyed = append(destroyed, p)
		} else if result.Repromote && parent != nil {
			parent.TrackPackage(p)
		}
	}
	frame.destroy()
	s.collapseIfEmpty()
	return destroyed
}

func (s *Stack) collapseIfEmpty() {
	if len(s.frames) == 0 && s.root != nil {
		s.root.Destroy()
		s.root = nil
	}
}
