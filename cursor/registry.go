// Package cursor implements the cursor-safety registry from spec.md §4.5:
// bookkeeping for live iteration scans over record variables and the
// top-level package table, so they can be invalidated on rollback, on
// removal of the object they scan, or at executor end.
package cursor

import "github.com/wilhasse/sessionvars-go/savepoint"

// Kind distinguishes a scan over a record variable's row table from a scan
// over the package hash (used by the packages-stats reporter).
type Kind int

const (
	KindVariable Kind = iota
	KindPackage
)

// Scan is one entry in variables_stats or packages_stats: a live iteration
// handle, the level at which it was opened, and a back-pointer to the object
// it scans. Owner is compared by identity (==) against the object a removal
// targets; callers pass the *objstore.Variable or *objstore.Package pointer.
type Scan struct {
	id          uint64
	kind        Kind
	owner       any
	level       savepoint.Level
	done        bool
	onTerminate func()
}

// Done reports whether the scan has been terminated — by an explicit Close,
// by rollback, by removal of its owner, or by executor end. A terminated
// scan's consumer observes "done" on its next fetch, never a crash.
func (s *Scan) Done() bool {
	return s == nil || s.done
}

func (s *Scan) terminate() {
	if s.done {
		return
	}
	s.done = true
	if s.onTerminate != nil {
		s.onTerminate()
	}
}

// Registry holds every live scan for one session (or one autonomous scope;
// see BeginAutonomous).
type Registry struct {
	nextID    uint64
	variables []*Scan
	packages  []*Scan
}

// NewRegistry returns an empty cursor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OpenVariableScan registers a new scan over a record variable's row table.
func (r *Registry) OpenVariableScan(owner any, level savepoint.Level, onTerminate func()) *Scan {
	return r.open(KindVariable, owner, level, onTerminate)
}

// OpenPackageScan registers a new scan over the top-level package hash.
func (r *Registry) OpenPackageScan(owner any, level savepoint.Level, onTerminate func()) *Scan {
	return r.open(KindPackage, owner, level, onTerminate)
}

func (r *Registry) open(kind Kind, owner any, level savepoint.Level, onTerminate func()) *Scan {
	r.nextID++
	scan := &Scan{id: r.nextID, kind: kind, owner: owner, level: level, onTerminate: onTerminate}
	switch kind {
	case KindVariable:
		r.variables = append(r.variables, scan)
	case KindPackage:
		r.packages = append(r.packages, scan)
	}
	return scan
}

// Close ends a scan normally (the consumer exhausted it or walked away).
func (r *Registry) Close(scan *Scan) {
	if scan == nil {
		return
	}
	scan.terminate()
	r.variables = removeScan(r.variables, scan)
	r.packages = removeScan(r.packages, scan)
}

// TerminateAll ends every live scan: executor end, top-level commit, and
// top-level abort all do this (spec.md §4.5).
func (r *Registry) TerminateAll() {
	for _, s := range r.variables {
		s.terminate()
	}
	for _, s := range r.packages {
		s.terminate()
	}
	r.variables = nil
	r.packages = nil
}

// TerminateAtLevel discards (terminating first) every scan opened at exactly
// the given level: a subtransaction committing or aborting takes its local
// scans with it.
func (r *Registry) TerminateAtLevel(level savepoint.Level) {
	r.variables = terminateMatching(r.variables, func(s *Scan) bool { return s.level.Equal(level) })
	r.packages = terminateMatching(r.packages, func(s *Scan) bool { return s.level.Equal(level) })
}

// TerminateByOwner ends every scan referencing owner: removing a variable or
// a package must not leave a dangling scan behind.
func (r *Registry) TerminateByOwner(owner any) {
	r.variables = terminateMatching(r.variables, func(s *Scan) bool { return s.owner == owner })
	r.packages = terminateMatching(r.packages, func(s *Scan) bool { return s.owner == owner })
}

// ActiveCount reports the total number of live (non-terminated) scans,
// variables and packages combined.
func (r *Registry) ActiveCount() int {
	return len(r.variables) + len(r.packages)
}

// snapshot is the saved state installed by BeginAutonomous and restored by
// EndAutonomous.
type snapshot struct {
	variables []*Scan
	packages  []*Scan
}

// BeginAutonomous saves the registry's current entries and installs fresh
// empty lists, returning a token to pass to EndAutonomous. The suspended
// scans are hidden, not terminated (spec.md §4.5).
func (r *Registry) BeginAutonomous() any {
	saved := &snapshot{variables: r.variables, packages: r.packages}
	r.variables = nil
	r.packages = nil
	return saved
}

// EndAutonomous terminates every scan opened during the autonomous scope,
// then restores the scans suspended by the matching BeginAutonomous.
func (r *Registry) EndAutonomous(token any) {
	r.TerminateAll()
	saved, ok := token.(*snapshot)
	if !ok || saved == nil {
		return
	}
	r.variables = saved.variables
	r.packages = saved.packages
}

func removeScan(scans []*Scan, target *Scan) []*Scan {
	for i, s := range scans {
		if s == target {
			return append(scans[:i], scans[i+1:]...)
		}
	}
	return scans
}

func terminateMatching(scans []*Scan, match func(*Scan) bool) []*Scan {
	kept := scans[:0]
	for _, s := range scans {
		if match(s) {
			s.terminate()
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
