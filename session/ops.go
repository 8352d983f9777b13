package session

import (
	"reflect"

	"github.com/wilhasse/sessionvars-go/cursor"
	"github.com/wilhasse/sessionvars-go/objstore"
)

// typeRegistry assigns a stable small integer per distinct Go type encountered, a
// stand-in for the host's OID type cache (spec.md §4.1's type-id comparison):
// the first scalar of a given Go type gets the next id, every later one
// reuses it.
type typeRegistry struct {
	ids map[reflect.Type]int
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{ids: make(map[reflect.Type]int)}
}

func (r *typeRegistry) of(value any) int {
	if value == nil {
		return -1
	}
	t := reflect.TypeOf(value)
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := len(r.ids)
	r.ids[t] = id
	return id
}

// SetScalar implements "set scalar" (spec.md §6): creates the package and
// variable on first reference, then overwrites the variable's scalar value.
func (s *Session) SetScalar(pkgName, varName string, value any, null, isTransactional bool) error {
	return s.withAutoCommit(func() error {
		current := s.level()
		frame := s.engine.Frame()
		pkg, err := s.store.CreatePackage(pkgName, current, frame)
		if err != nil {
			return err
		}
		tid := s.types().of(value)
		v, err := pkg.CreateVariable(varName, tid, false, isTransactional, current, frame)
		if err != nil {
			return err
		}
		return v.SetScalar(value, null, current, frame)
	})
}

// GetScalar implements "get scalar": typeHint < 0 skips the type check.
func (s *Session) GetScalar(pkgName, varName string, typeHint int, strict bool) (any, bool, error) {
	pkg, err := s.store.GetPackage(pkgName, strict)
	if err != nil || pkg == nil {
		return nil, true, err
	}
	v, err := pkg.GetVariable(varName, typeHint, false, strict)
	if err != nil || v == nil {
		return nil, true, err
	}
	return v.Scalar()
}

// InsertRow implements "insert row": establishes the row descriptor on the
// variable's first call.
func (s *Session) InsertRow(pkgName, varName string, row objstore.Row, isTransactional bool) error {
	return s.withAutoCommit(func() error {
		current := s.level()
		frame := s.engine.Frame()
		pkg, err := s.store.CreatePackage(pkgName, current, frame)
		if err != nil {
			return err
		}
		v, err := pkg.CreateVariable(varName, -1, true, isTransactional, current, frame)
		if err != nil {
			return err
		}
		if err := v.TouchForWrite(current, frame); err != nil {
			return err
		}
		tbl, err := v.Records()
		if err != nil {
			return err
		}
		return tbl.Insert(row, s.config.ConvertUnknownOID)
	})
}

// UpdateRow implements "update row": true iff a row matching the key existed.
// TouchForWrite must run before Records(): it may savepoint the variable and
// install a freshly cloned table as the new head, so the live table can only
// be fetched afterward (the same order InsertRow already follows).
func (s *Session) UpdateRow(pkgName, varName string, row objstore.Row) (bool, error) {
	var updated bool
	err := s.withAutoCommit(func() error {
		_, v, err := s.recordTable(pkgName, varName, true)
		if err != nil {
			return err
		}
		if err := v.TouchForWrite(s.level(), s.engine.Frame()); err != nil {
			return err
		}
		tbl, err := v.Records()
		if err != nil {
			return err
		}
		updated, err = tbl.Update(row)
		return err
	})
	return updated, err
}

// DeleteRow implements "delete row": true iff a row matching key existed.
// Same fetch-after-touch ordering as UpdateRow.
func (s *Session) DeleteRow(pkgName, varName string, key any) (bool, error) {
	var deleted bool
	err := s.withAutoCommit(func() error {
		_, v, err := s.recordTable(pkgName, varName, true)
		if err != nil {
			return err
		}
		if err := v.TouchForWrite(s.level(), s.engine.Frame()); err != nil {
			return err
		}
		tbl, err := v.Records()
		if err != nil {
			return err
		}
		deleted = tbl.Delete(key)
		return nil
	})
	return deleted, err
}

// SelectRows implements "select rows": the whole row set, plus a registered
// cursor scan that the caller must Close (or let Commit/Abort/RemoveVariable
// terminate).
func (s *Session) SelectRows(pkgName, varName string) ([]objstore.Row, *cursor.Scan, error) {
	tbl, v, err := s.recordTable(pkgName, varName, true)
	if err != nil {
		return nil, nil, err
	}
	scan := s.cursors.OpenVariableScan(v, s.engine.Level(), nil)
	return tbl.All(), scan, nil
}

// CloseScan ends a scan opened by SelectRows, once the caller has consumed
// it (or walked away early).
func (s *Session) CloseScan(scan *cursor.Scan) {
	s.cursors.Close(scan)
}

// SelectRowByKey implements "select row by key".
func (s *Session) SelectRowByKey(pkgName, varName string, key any) (objstore.Row, bool, error) {
	tbl, _, err := s.recordTable(pkgName, varName, true)
	if err != nil {
		return nil, false, err
	}
	row, ok := tbl.SelectByKey(key)
	return row, ok, nil
}

// SelectRowsByKeys implements "select rows by keys": rejects multidimensional
// input with ErrFeatureNotSupported, skips unmatched elements.
func (s *Session) SelectRowsByKeys(pkgName, varName string, keys []any) ([]objstore.Row, error) {
	tbl, _, err := s.recordTable(pkgName, varName, true)
	if err != nil {
		return nil, err
	}
	return tbl.SelectByKeys(keys)
}

// VariableExists implements "variable exists".
func (s *Session) VariableExists(pkgName, varName string) bool {
	pkg, err := s.store.GetPackage(pkgName, false)
	if err != nil || pkg == nil {
		return false
	}
	return pkg.HasVariable(varName)
}

// PackageExists implements "package exists".
func (s *Session) PackageExists(pkgName string) bool {
	pkg, err := s.store.GetPackage(pkgName, false)
	return err == nil && pkg != nil
}

// RemoveVariable implements "remove variable".
func (s *Session) RemoveVariable(pkgName, varName string) error {
	return s.withAutoCommit(func() error {
		pkg, err := s.store.GetPackage(pkgName, true)
		if err != nil {
			return err
		}
		if v, _ := pkg.GetVariable(varName, -1, false, false); v != nil {
			s.cursors.TerminateByOwner(v)
		}
		if v, _ := pkg.GetVariable(varName, -1, true, false); v != nil {
			s.cursors.TerminateByOwner(v)
		}
		return pkg.RemoveVariable(varName, s.level(), s.engine.Frame())
	})
}

// RemovePackage implements "remove package".
func (s *Session) RemovePackage(pkgName string) error {
	return s.withAutoCommit(func() error {
		pkg, err := s.store.GetPackage(pkgName, true)
		if err != nil {
			return err
		}
		s.cursors.TerminateByOwner(pkg)
		return s.store.RemovePackage(pkgName, s.level(), s.engine.Frame())
	})
}

// RemoveAllPackages implements "remove all packages": valid outside any live
// transaction (spec.md §6); the cursor registry is cleared first, per the
// Open Question decision in DESIGN.md.
func (s *Session) RemoveAllPackages() error {
	return s.withAutoCommit(func() error {
		s.cursors.TerminateAll()
		s.store.RemoveAll(s.level(), s.engine.Frame())
		return nil
	})
}

// ListPackagesAndVariables implements "list packages and variables".
func (s *Session) ListPackagesAndVariables() []objstore.PackageInfo {
	return s.store.ListPackagesAndVariables()
}

// PackageStats implements "package stats".
func (s *Session) PackageStats() []objstore.PackageInfo {
	return s.store.PackageStats()
}

// recordTable resolves a record variable, optionally strict, and returns its
// live row table alongside the variable itself.
func (s *Session) recordTable(pkgName, varName string, strict bool) (*objstore.RecordTable, *objstore.Variable, error) {
	pkg, err := s.store.GetPackage(pkgName, strict)
	if err != nil || pkg == nil {
		return nil, nil, err
	}
	v, err := pkg.GetVariable(varName, -1, true, strict)
	if err != nil || v == nil {
		return nil, nil, err
	}
	tbl, err := v.Records()
	return tbl, v, err
}

// types lazily creates the session's type-id registry.
func (s *Session) types() *typeRegistry {
	if s.typeIDs == nil {
		s.typeIDs = newTypeRegistry()
	}
	return s.typeIDs
}

