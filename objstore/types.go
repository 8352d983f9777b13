// Package objstore implements the object model and storage layer: packages,
// their variables, scalar and record value bodies, and the keyed row table a
// record variable owns. Packages and variables are the two types the changes
// stack tracks (they implement changes.Changeable) and the two types the
// savepoint package's generic Stack holds states for.
package objstore

// MaxNameLength bounds package and variable names, mirroring a host
// identifier-length limit (spec.md §6: "a variable name must fit within the
// host's identifier-length bound").
const MaxNameLength = 63

// validateName enforces MaxNameLength on a package or variable name,
// checked by both Store.CreatePackage and Package.CreateVariable.
func validateName(name string) error {
	if len(name) > MaxNameLength {
		return ErrInvalidParameter
	}
	return nil
}

// ValueBody is the tagged union a variable's live value or savepoint state
// carries. For scalar variables only Scalar/Null are meaningful; for record
// variables only Record is. Which is live is determined by the owning
// Variable's IsRecord flag, not by this struct — the "tagged variant" of
// spec.md §9 is the Variable, not ValueBody itself.
type ValueBody struct {
	Scalar any
	Null   bool
	Record *RecordTable
}

// copy deep-copies a value body for "create savepoint" (spec.md §4.3):
// scalars copy by value (Go's any already does, for the immutable values
// this store deals in), records get a fresh table via Clone.
func (b ValueBody) copy() ValueBody {
	out := ValueBody{Scalar: b.Scalar, Null: b.Null}
	if b.Record != nil {
		out.Record = b.Record.Clone()
	}
	return out
}

// VariableState is one entry in a transactional variable's savepoint stack.
type VariableState struct {
	Body ValueBody
}

func copyVariableState(s VariableState) VariableState {
	return VariableState{Body: s.Body.copy()}
}

// PackageState is one entry in a package's savepoint stack: spec.md §3 says
// a PackageState is "a validity flag, (atx_level, nest_level), and the count
// of valid transactional variables" — validity and level live in the
// enclosing savepoint.Entry, so only the count is carried here.
type PackageState struct {
	TransVarNum int
}

func copyPackageState(s PackageState) PackageState {
	return s
}
