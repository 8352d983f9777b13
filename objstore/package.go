package objstore

import (
	"github.com/wilhasse/sessionvars-go/changes"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// Package is a named namespace of variables: spec.md §3. It owns two
// independent variable tables (regular and transactional) and a savepoint
// stack of PackageState snapshots tracking how many transactional variables
// are currently valid.
type Package struct {
	Name string

	regular map[string]*Variable
	trans   map[string]*Variable

	states *savepoint.Stack[PackageState]
}

// newPackage creates a package with its initial valid state at level.
func newPackage(name string, level savepoint.Level) *Package {
	return &Package{
		Name:    name,
		regular: make(map[string]*Variable),
		trans:   make(map[string]*Variable),
		states:  savepoint.NewStack(PackageState{}, level),
	}
}

// Valid reports whether the package's head state is valid.
func (p *Package) Valid() bool {
	return p.states.Len() > 0 && p.states.Head().Valid
}

// TransVarNum returns the head state's count of valid transactional
// variables.
func (p *Package) TransVarNum() int {
	return p.states.Head().Value.TransVarNum
}

// beginMutation savepoints the package's state if untouched at current.
func (p *Package) beginMutation(current savepoint.Level, frame *changes.Frame) {
	if p.states.ChangedAtCurrentLevel(current) {
		return
	}
	p.states.Savepoint(copyPackageState, current)
	if frame != nil {
		frame.TrackPackage(p)
	}
}

// Resurrect handles create_package being called against a package that
// exists but is currently invalid (it was logically removed earlier in this
// transaction): promote it to valid at current, and invalidate every
// pre-existing transactional variable, since "the resurrection of the
// package does not resurrect its contents" (spec.md §4.1).
func (p *Package) Resurrect(current savepoint.Level, frame *changes.Frame) {
	p.beginMutation(current, frame)
	head := p.states.Head()
	head.Valid = true
	head.Value.TransVarNum = 0
	for _, v := range p.trans {
		if v.Valid() {
			v.Remove(current, frame)
		}
	}
}

// GetVariable looks up name in the regular table first, then the
// transactional table, validating the type when typeID >= 0 and the kind
// (record vs scalar) against wantRecord on every call. strict turns a
// miss (absent, or present but invalid) into ErrUnknownVariable.
func (p *Package) GetVariable(name string, typeID int, wantRecord bool, strict bool) (*Variable, error) {
	v := p.regular[name]
	if v == nil {
		v = p.trans[name]
	}
	if v == nil || !v.Valid() {
		if strict {
			return nil, ErrUnknownVariable
		}
		return nil, nil
	}
	if typeID >= 0 && v.TypeID != typeID {
		return nil, ErrTypeMismatch
	}
	if v.IsRecord != wantRecord {
		return nil, ErrKindMismatch
	}
	return v, nil
}

// HasVariable reports whether name refers to a currently valid variable of
// either kind, ignoring type and record/scalar distinctions (spec.md §6
// "variable exists").
func (p *Package) HasVariable(name string) bool {
	v := p.regular[name]
	if v == nil {
		v = p.trans[name]
	}
	return v != nil && v.Valid()
}

// CreateVariable enforces name uniqueness across both tables (spec.md
// invariant 1) and returns the existing variable, savepointed if needed, or
// a freshly created one.
func (p *Package) CreateVariable(name string, typeID int, isRecord, isTransactional bool, current savepoint.Level, frame *changes.Frame) (*Variable, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	existing := p.regular[name]
	if existing == nil {
		existing = p.trans[name]
	}
	if existing != nil {
		if existing.IsTransactional != isTransactional {
			return nil, ErrTransactionalityConflict
		}
		if existing.IsRecord != isRecord {
			return nil, ErrKindMismatch
		}
		if existing.IsTransactional {
			existing.beginMutation(current, frame)
		}
		return existing, nil
	}

	v := newVariable(name, typeID, isRecord, isTransactional, current, p)
	if isTransactional {
		p.trans[name] = v
		p.beginMutation(current, frame)
		p.states.Head().Value.TransVarNum++
		// newVariable seeds v's savepoint stack with its initial state already
		// at current, so beginMutation's changed-at-current-level check would
		// never track it on its own: track it explicitly here so a nested
		// savepoint that creates this variable still rolls it back on abort.
		if frame != nil {
			frame.TrackVariable(v)
		}
	} else {
		p.regular[name] = v
	}
	return v, nil
}

// RemoveVariable invalidates (transactional) or drops (regular) the named
// variable, updating the package's valid-variable bookkeeping and
// invalidating the package itself if the count reaches zero (spec.md §4.1).
func (p *Package) RemoveVariable(name string, current savepoint.Level, frame *changes.Frame) error {
	if _, ok := p.regular[name]; ok {
		delete(p.regular, name)
		p.checkEmpty(current, frame)
		return nil
	}
	v, ok := p.trans[name]
	if !ok || !v.Valid() {
		return ErrUnknownVariable
	}
	v.Remove(current, frame)
	p.beginMutation(current, frame)
	p.states.Head().Value.TransVarNum--
	p.checkEmpty(current, frame)
	return nil
}

// RemovePackage destroys every regular variable immediately, invalidates
// every still-valid transactional variable, and invalidates the package
// itself at current (spec.md §4.1).
func (p *Package) RemovePackage(current savepoint.Level, frame *changes.Frame) {
	p.regular = make(map[string]*Variable)
	for _, v := range p.trans {
		if v.Valid() {
			v.Remove(current, frame)
		}
	}
	p.beginMutation(current, frame)
	p.states.Head().Value.TransVarNum = 0
	p.states.Invalidate()
}

// DropVariable physically removes v, identified by name and pointer
// identity, from whichever table holds it. Called by the owner
// (session/txn) once a Variable's ReleaseAt or RollbackAt reports Destroy.
func (p *Package) DropVariable(v *Variable) {
	if v == nil {
		return
	}
	if existing, ok := p.regular[v.Name]; ok && existing == v {
		delete(p.regular, v.Name)
		return
	}
	if existing, ok := p.trans[v.Name]; ok && existing == v {
		delete(p.trans, v.Name)
	}
}

// checkEmpty invalidates the package if it now has zero valid variables in
// either table (spec.md invariant 5).
func (p *Package) checkEmpty(current savepoint.Level, frame *changes.Frame) {
	if len(p.regular) > 0 || p.TransVarNum() > 0 {
		return
	}
	p.beginMutation(current, frame)
	p.states.Invalidate()
}

// ReleaseAt implements changes.Changeable.
func (p *Package) ReleaseAt(current savepoint.Level, atTopLevel bool) changes.ReleaseResult {
	switch p.states.Release(current, atTopLevel) {
	case savepoint.ReleaseDestroyed:
		return changes.ReleaseResult{Destroy: true}
	case savepoint.ReleasePromoted:
		return changes.ReleaseResult{Promoted: true}
	default: // ReleaseFolded
		return changes.ReleaseResult{}
	}
}

// RollbackAt implements changes.Changeable. A package that empties out but
// still carries regular variables survives by synthesizing a fresh valid
// state at the parent level; a genuinely empty package is destroyed at top
// level, or left invalid and re-tracked in the parent frame when nested
// (spec.md §4.3).
func (p *Package) RollbackAt(current savepoint.Level, atTopLevel bool) changes.RollbackResult {
	if p.states.Rollback() == savepoint.RollbackRestored {
		return changes.RollbackResult{}
	}
	parent := current.Dec()
	if len(p.regular) > 0 {
		p.states.Synthesize(PackageState{}, parent)
		return changes.RollbackResult{}
	}
	if atTopLevel {
		return changes.RollbackResult{Destroy: true}
	}
	p.states.Synthesize(PackageState{}, parent)
	p.states.Invalidate()
	return changes.RollbackResult{Repromote: true}
}
