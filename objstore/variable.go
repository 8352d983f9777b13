package objstore

import (
	"github.com/wilhasse/sessionvars-go/changes"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// Variable is a named entry inside a Package: spec.md §3. Either
// IsTransactional is true and states holds a savepoint.Stack of
// VariableState snapshots, or it is false and regularBody is the single
// live value.
type Variable struct {
	Name            string
	TypeID          int
	IsRecord        bool
	IsTransactional bool
	IsDeleted       bool

	states      *savepoint.Stack[VariableState]
	regularBody ValueBody

	pkg *Package
}

// newVariable creates a variable and, if transactional, its initial
// savepoint state at level.
func newVariable(name string, typeID int, isRecord, isTransactional bool, level savepoint.Level, pkg *Package) *Variable {
	v := &Variable{Name: name, TypeID: typeID, IsRecord: isRecord, IsTransactional: isTransactional, pkg: pkg}
	body := ValueBody{Null: true}
	if isRecord {
		body = ValueBody{Record: NewRecordTable()}
	}
	if isTransactional {
		v.states = savepoint.NewStack(VariableState{Body: body}, level)
	} else {
		v.regularBody = body
	}
	return v
}

// Owner returns the package v belongs to, so a caller holding only the
// Changeable returned by a destroyed-object list can find where to drop it.
func (v *Variable) Owner() *Package {
	return v.pkg
}

// Valid reports whether the variable's current state (transactional head, or
// the regular flag) is usable.
func (v *Variable) Valid() bool {
	if v.IsTransactional {
		return v.states.Len() > 0 && v.states.Head().Valid
	}
	return !v.IsDeleted
}

// beginMutation savepoints the variable if it has not yet been touched at
// current, tracking it in frame — spec.md §4.3/§4.4: "if the variable exists
// and is transactional, and has not yet been mutated at the current nesting
// level, a savepoint is pushed first."
func (v *Variable) beginMutation(current savepoint.Level, frame *changes.Frame) {
	if !v.IsTransactional {
		return
	}
	if v.states.ChangedAtCurrentLevel(current) {
		return
	}
	v.states.Savepoint(copyVariableState, current)
	if frame != nil {
		frame.TrackVariable(v)
	}
}

// body returns the live value body: the transactional head, or the regular
// body.
func (v *Variable) body() *ValueBody {
	if v.IsTransactional {
		return &v.states.Head().Value.Body
	}
	return &v.regularBody
}

// SetScalar overwrites the variable's scalar value. Fails KindMismatch if the
// variable is a record variable.
func (v *Variable) SetScalar(value any, null bool, current savepoint.Level, frame *changes.Frame) error {
	if v.IsRecord {
		return ErrKindMismatch
	}
	v.beginMutation(current, frame)
	body := v.body()
	body.Scalar, body.Null = value, null
	return nil
}

// Scalar reads the variable's scalar value.
func (v *Variable) Scalar() (any, bool, error) {
	if v.IsRecord {
		return nil, false, ErrKindMismatch
	}
	if !v.Valid() {
		return nil, true, ErrUnknownVariable
	}
	body := v.body()
	return body.Scalar, body.Null, nil
}

// Records returns the live row table. Fails KindMismatch if the variable is
// scalar.
func (v *Variable) Records() (*RecordTable, error) {
	if !v.IsRecord {
		return nil, ErrKindMismatch
	}
	if !v.Valid() {
		return nil, ErrUnknownVariable
	}
	return v.body().Record, nil
}

// TouchForWrite savepoints a record variable ahead of an in-place row
// mutation (insert/update/delete), since those mutate RecordTable state
// shared by the head without going through SetScalar.
func (v *Variable) TouchForWrite(current savepoint.Level, frame *changes.Frame) error {
	if !v.IsRecord {
		return ErrKindMismatch
	}
	v.beginMutation(current, frame)
	return nil
}

// Remove marks the variable deleted (regular) or invalidates its head state
// (transactional), per spec.md §4.1 remove_variable.
func (v *Variable) Remove(current savepoint.Level, frame *changes.Frame) {
	if !v.IsTransactional {
		v.IsDeleted = true
		return
	}
	v.beginMutation(current, frame)
	v.states.Invalidate()
}

// ReleaseAt implements changes.Changeable.
func (v *Variable) ReleaseAt(current savepoint.Level, atTopLevel bool) changes.ReleaseResult {
	if !v.IsTransactional {
		return changes.ReleaseResult{}
	}
	switch v.states.Release(current, atTopLevel) {
	case savepoint.ReleaseDestroyed:
		return changes.ReleaseResult{Destroy: true}
	case savepoint.ReleasePromoted:
		return changes.ReleaseResult{Promoted: true}
	default: // ReleaseFolded
		return changes.ReleaseResult{}
	}
}

// RollbackAt implements changes.Changeable. A variable never survives an
// empty rollback stack (only packages do, via their regular-variable table);
// a stateless variable is simply destroyed, per spec.md §4.3.
func (v *Variable) RollbackAt(current savepoint.Level, atTopLevel bool) changes.RollbackResult {
	if !v.IsTransactional {
		return changes.RollbackResult{}
	}
	return changes.RollbackResult{Destroy: v.states.Rollback() == savepoint.RollbackEmptied}
}
