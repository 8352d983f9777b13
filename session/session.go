// Package session is the top-level callable surface: the methods a caller
// (CLI, embedding program) drives directly, wiring arena/objstore/savepoint/
// changes/txn/cursor/config together the way dict/boot.go's System singleton
// and dolt's dsess.DoltSession wire their own layers (spec.md §6).
package session

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wilhasse/sessionvars-go/changes"
	"github.com/wilhasse/sessionvars-go/config"
	"github.com/wilhasse/sessionvars-go/cursor"
	"github.com/wilhasse/sessionvars-go/objstore"
	"github.com/wilhasse/sessionvars-go/savepoint"
	"github.com/wilhasse/sessionvars-go/txn"
)

// Session owns one store, one transaction engine, and one cursor registry:
// the full state of a single caller's session (spec.md §5 — single-threaded,
// no cross-session sharing).
type Session struct {
	store   *objstore.Store
	engine  *txn.Engine
	cursors *cursor.Registry
	config  config.Config
	log     *logrus.Entry

	savepoints []string
	typeIDs    *typeRegistry
}

// New returns a session with the default configuration.
func New() *Session {
	return NewWithConfig(config.Default())
}

// NewWithConfig returns a session using cfg instead of the default.
func NewWithConfig(cfg config.Config) *Session {
	cursors := cursor.NewRegistry()
	return &Session{
		store:   objstore.NewStore(),
		engine:  txn.NewEngine(cursors),
		cursors: cursors,
		config:  cfg,
		log:     logrus.WithField("component", "session"),
	}
}

// dropObjects physically removes every object a subtransaction boundary
// reported Destroy for: a package vanishes from the store, a variable
// vanishes from its owning package's table. changes.Changeable carries no
// owner back-pointer, so this type-switches on the two concrete objstore
// types it can ever see.
func (s *Session) dropObjects(destroyed []changes.Changeable) {
	for _, obj := range destroyed {
		switch o := obj.(type) {
		case *objstore.Package:
			s.log.WithField("package", o.Name).Debug("package destroyed")
			s.store.DropPackage(o)
		case *objstore.Variable:
			s.log.WithField("variable", o.Name).Debug("variable destroyed")
			if owner := o.Owner(); owner != nil {
				owner.DropVariable(o)
			}
		}
	}
}

// Begin opens a top-level transaction. Statements issued before Begin (or
// after the matching Commit/Abort) run as an implicit single-statement
// transaction: Frame() opens one lazily and the session's autocommit helper
// (withAutoCommit) closes it immediately.
func (s *Session) Begin() {
	s.engine.TopBegin()
}

// Commit commits the current top-level transaction.
func (s *Session) Commit() {
	s.engine.TopCommit(s.dropObjects)
}

// Abort aborts the current top-level transaction.
func (s *Session) Abort() {
	s.engine.TopAbort(s.dropObjects)
}

// CreateSavepoint opens a nested subtransaction named name (spec.md §4.3/4.4;
// naming follows dolt's dsess.DoltSession.CreateSavepoint).
func (s *Session) CreateSavepoint(name string) {
	s.engine.SubBegin()
	s.savepoints = append(s.savepoints, name)
}

// ReleaseSavepoint commits name and every subtransaction nested inside it.
// Returns an "unknown savepoint" error if name was never created (or
// already released/rolled back).
func (s *Session) ReleaseSavepoint(name string) error {
	n, err := s.savepointDepth(name)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s.engine.SubRelease(s.dropObjects)
	}
	s.savepoints = s.savepoints[:len(s.savepoints)-n]
	return nil
}

// RollbackToSavepoint aborts name and every subtransaction nested inside it,
// restoring state as of name's creation.
func (s *Session) RollbackToSavepoint(name string) error {
	n, err := s.savepointDepth(name)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s.engine.SubRollback(s.dropObjects)
	}
	s.savepoints = s.savepoints[:len(s.savepoints)-n]
	return nil
}

// savepointDepth finds name from the top of the stack and reports how many
// levels (name's own plus everything nested inside it) must be popped.
func (s *Session) savepointDepth(name string) (int, error) {
	for i := len(s.savepoints) - 1; i >= 0; i-- {
		if s.savepoints[i] == name {
			return len(s.savepoints) - i, nil
		}
	}
	return 0, errors.Errorf("session: unknown savepoint %q", name)
}

// BeginAutonomous opens an autonomous transaction: a transaction nested in
// autonomous-transaction space (Atx) rather than subtransaction space
// (Nest), invisible to the enclosing transaction's eventual commit/abort
// (spec.md §9).
func (s *Session) BeginAutonomous() {
	s.engine.BeginAutonomous()
}

// EndAutonomous closes the current autonomous transaction, committing its
// changes if commit is true or discarding them otherwise.
func (s *Session) EndAutonomous(commit bool) {
	s.engine.EndAutonomous(commit, s.dropObjects)
}

// level returns the current nesting level, opening an implicit top-level
// frame first if the caller is not inside an explicit Begin/Commit block.
func (s *Session) level() savepoint.Level {
	s.engine.Frame()
	return s.engine.Level()
}

// withAutoCommit runs fn inside the current transaction if one is open, or
// wraps it in an implicit single-statement transaction (begin, run, commit)
// otherwise — the non-transactional call path spec.md §9 describes for
// remove_packages and friends.
func (s *Session) withAutoCommit(fn func() error) error {
	implicit := !s.engine.InTransaction()
	if implicit {
		s.engine.TopBegin()
	}
	err := fn()
	if implicit {
		if err != nil {
			s.engine.TopAbort(s.dropObjects)
		} else {
			s.engine.TopCommit(s.dropObjects)
		}
	}
	return err
}
