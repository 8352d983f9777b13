// Package savepoint implements the per-object savepoint history stack: for
// every transactional package or variable, a stack of states tagged with the
// transaction nesting level at which each was created. The head of the stack
// is always the "actual" state a reader observes.
package savepoint

// Level identifies the transaction nesting at which a state was created.
// Nest is the subtransaction depth (0 = no subtransaction open). Atx is the
// autonomous-transaction depth; builds that never open an autonomous scope
// leave it at 0 throughout, which collapses every comparison below to the
// single-level case described in spec.md §9.
type Level struct {
	Atx  int
	Nest int
}

// Equal reports whether two levels are identical in both dimensions.
func (l Level) Equal(other Level) bool {
	return l.Atx == other.Atx && l.Nest == other.Nest
}

// Dec returns the level one subtransaction shallower, in the same
// autonomous scope.
func (l Level) Dec() Level {
	return Level{Atx: l.Atx, Nest: l.Nest - 1}
}

// Entry is one state in an object's savepoint stack.
type Entry[T any] struct {
	Value T
	Level Level
	Valid bool
}
