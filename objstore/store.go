package objstore

import (
	"github.com/wilhasse/sessionvars-go/changes"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// Store is the session's package map: spec.md §9's "global mutable session
// state ... packages map". It is the owner of record: ReleaseAt/RollbackAt
// report Destroy, but only Store.Drop and Store.DropPackage actually remove
// a package from the map.
type Store struct {
	packages map[string]*Package
}

// NewStore returns an empty package map.
func NewStore() *Store {
	return &Store{packages: make(map[string]*Package)}
}

// Len reports the number of packages, valid or not.
func (s *Store) Len() int {
	return len(s.packages)
}

// GetPackage returns the package iff its head state is valid; otherwise nil,
// or ErrUnknownPackage when strict (spec.md §4.1 get_package).
func (s *Store) GetPackage(name string, strict bool) (*Package, error) {
	p := s.packages[name]
	if p == nil || !p.Valid() {
		if strict {
			return nil, ErrUnknownPackage
		}
		return nil, nil
	}
	return p, nil
}

// CreatePackage is idempotent: it creates the package on first reference, or
// resurrects it if present-but-invalid (spec.md §4.1 create_package). Returns
// ErrInvalidParameter if name exceeds MaxNameLength.
func (s *Store) CreatePackage(name string, current savepoint.Level, frame *changes.Frame) (*Package, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p, ok := s.packages[name]
	if !ok {
		p = newPackage(name, current)
		s.packages[name] = p
		if frame != nil {
			frame.TrackPackage(p)
		}
		return p, nil
	}
	if !p.Valid() {
		p.Resurrect(current, frame)
	}
	return p, nil
}

// RemovePackage invalidates the named package (spec.md §4.1 remove_package).
// It does not remove the map entry directly; Drop does that once the
// changes stack (or an implicit auto-commit wrapper) reports Destroy.
func (s *Store) RemovePackage(name string, current savepoint.Level, frame *changes.Frame) error {
	p, ok := s.packages[name]
	if !ok || !p.Valid() {
		return ErrUnknownPackage
	}
	p.RemovePackage(current, frame)
	return nil
}

// RemoveAll invalidates every currently-valid package (spec.md §9's
// remove_packages; callers terminate cursor-registry scans first, per the
// Open Question decision).
func (s *Store) RemoveAll(current savepoint.Level, frame *changes.Frame) {
	for _, p := range s.packages {
		if p.Valid() {
			p.RemovePackage(current, frame)
		}
	}
}

// Drop physically removes a package from the map. Called by the owner
// (session/txn) once ReleaseAt or RollbackAt reports Destroy for it.
func (s *Store) Drop(name string) {
	delete(s.packages, name)
}

// DropPackage physically removes p from the map, for callers holding a
// *Package pointer (e.g. a changes.Changeable the txn engine reported
// destroyed). Unlike Drop, it removes the entry under p.Name only if that
// entry is p itself.
func (s *Store) DropPackage(p *Package) {
	if p == nil {
		return
	}
	if existing, ok := s.packages[p.Name]; ok && existing == p {
		delete(s.packages, p.Name)
	}
}

// PackageInfo is one row of the list_packages_and_variables / package_stats
// callable surface.
type PackageInfo struct {
	Package  string
	Variable string
	IsRecord bool
	EstBytes int
}

// ListPackagesAndVariables returns one row per valid variable in every valid
// package, skipping invalid entries (spec.md §6).
func (s *Store) ListPackagesAndVariables() []PackageInfo {
	var out []PackageInfo
	for name, p := range s.packages {
		if !p.Valid() {
			continue
		}
		for varName, v := range p.regular {
			if v.Valid() {
				out = append(out, PackageInfo{Package: name, Variable: varName, IsRecord: v.IsRecord})
			}
		}
		for varName, v := range p.trans {
			if v.Valid() {
				out = append(out, PackageInfo{Package: name, Variable: varName, IsRecord: v.IsRecord})
			}
		}
	}
	return out
}

// PackageStats reports a memory-footprint estimate per valid package (spec.md
// §6 package stats / the original's pgv_stats), summing each record
// variable's row-count estimator as a cheap stand-in for byte footprint.
func (s *Store) PackageStats() []PackageInfo {
	var out []PackageInfo
	for name, p := range s.packages {
		if !p.Valid() {
			continue
		}
		bytes := 0
		for _, v := range p.regular {
			bytes += variableFootprint(v)
		}
		for _, v := range p.trans {
			bytes += variableFootprint(v)
		}
		out = append(out, PackageInfo{Package: name, EstBytes: bytes})
	}
	return out
}

func variableFootprint(v *Variable) int {
	if !v.Valid() {
		return 0
	}
	body := v.body()
	if body.Record != nil {
		return body.Record.EstimateRowCount()
	}
	return 1
}
