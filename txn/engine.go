// Package txn drives the changes stack and the cursor registry across a
// session's subtransaction and top-level transaction boundaries (spec.md
// §4.4, §4.5, §9). It knows nothing about packages or variables beyond the
// changes.Changeable interface: the actual promotion/demotion/destruction
// decisions live in objstore.
package txn

import (
	"github.com/sirupsen/logrus"

	"github.com/wilhasse/sessionvars-go/changes"
	"github.com/wilhasse/sessionvars-go/cursor"
	"github.com/wilhasse/sessionvars-go/savepoint"
)

// DestroyFunc receives the objects a subtransaction boundary destroyed, so
// the caller can drop them from their owning package or the package table.
type DestroyFunc func([]changes.Changeable)

// Engine is one session's transaction-boundary coordinator: a changes stack,
// the current savepoint level, and the cursor registry it keeps in lockstep.
// A session wraps one Engine; autonomous transactions push a fresh scope
// onto autonomous and restore it on EndAutonomous (spec.md §9).
type Engine struct {
	stack   *changes.Stack
	cursors *cursor.Registry
	level   savepoint.Level
	log     *logrus.Entry

	autonomous []scope
}

// scope is the state an autonomous transaction suspends and later restores.
type scope struct {
	stack       *changes.Stack
	level       savepoint.Level
	cursorToken any
}

// NewEngine returns an engine with no transaction yet open. cursors is the
// session's cursor registry; the engine terminates scans at the same
// boundaries it processes changes-stack frames.
func NewEngine(cursors *cursor.Registry) *Engine {
	return &Engine{
		stack:   changes.New(),
		cursors: cursors,
		log:     logrus.WithField("component", "txn"),
	}
}

// Level reports the current nesting level.
func (e *Engine) Level() savepoint.Level {
	return e.level
}

// InTransaction reports whether a top-level transaction is open.
func (e *Engine) InTransaction() bool {
	return e.stack.Depth() > 0
}

// Frame returns the changes-stack frame new mutations should be tracked
// into, opening the top-level frame first if none is open yet (an implicit
// single-statement transaction, spec.md §4.4).
func (e *Engine) Frame() *changes.Frame {
	if e.stack.Depth() == 0 {
		e.stack.EnsureDepth(1)
	}
	return e.stack.Current()
}

// TopBegin opens the top-level transaction's frame. Calling it when one is
// already open is a no-op: statements outside an explicit BEGIN get an
// implicit single-statement transaction via Frame instead.
func (e *Engine) TopBegin() {
	if e.stack.Depth() > 0 {
		return
	}
	e.stack.EnsureDepth(1)
	e.log.Debug("transaction begin")
}

// SubBegin opens a new subtransaction nested one level deeper than the
// current one (SAVEPOINT).
func (e *Engine) SubBegin() {
	e.level.Nest++
	e.stack.EnsureDepth(e.level.Nest + 1)
	e.log.WithField("level", e.level).Debug("savepoint begin")
}

// SubRelease commits the innermost subtransaction (RELEASE SAVEPOINT),
// folding its frame into the parent one.
func (e *Engine) SubRelease(drop DestroyFunc) {
	if e.level.Nest == 0 {
		e.log.Warn("release called with no open savepoint")
		return
	}
	e.pop(e.stack.PopAndRelease, drop)
	e.level.Nest--
}

// SubRollback aborts the innermost subtransaction (ROLLBACK TO SAVEPOINT).
func (e *Engine) SubRollback(drop DestroyFunc) {
	if e.level.Nest == 0 {
		e.log.Warn("rollback called with no open savepoint")
		return
	}
	e.pop(e.stack.PopAndRollback, drop)
	e.level.Nest--
}

// TopCommit commits the top-level transaction. Any subtransactions still
// open are released first, innermost out, as if each had been RELEASEd in
// turn; every scan, at every level, is then terminated.
func (e *Engine) TopCommit(drop DestroyFunc) {
	for e.level.Nest > 0 {
		e.SubRelease(drop)
	}
	destroyed := e.stack.PopAndRelease(e.level, true)
	if drop != nil && len(destroyed) > 0 {
		drop(destroyed)
	}
	e.cursors.TerminateAll()
	e.level = savepoint.Level{Atx: e.level.Atx}
	e.log.Debug("transaction commit")
}

// TopAbort aborts the top-level transaction: every open subtransaction is
// rolled back, innermost out, then the top-level frame itself.
func (e *Engine) TopAbort(drop DestroyFunc) {
	for e.level.Nest > 0 {
		e.SubRollback(drop)
	}
	destroyed := e.stack.PopAndRollback(e.level, true)
	if drop != nil && len(destroyed) > 0 {
		drop(destroyed)
	}
	e.cursors.TerminateAll()
	e.level = savepoint.Level{Atx: e.level.Atx}
	e.log.Debug("transaction abort")
}

// pop runs one subtransaction-boundary frame pop, terminating the scans
// opened at that level before handing destroyed objects to drop.
func (e *Engine) pop(popFn func(savepoint.Level, bool) []changes.Changeable, drop DestroyFunc) {
	destroyed := popFn(e.level, false)
	e.cursors.TerminateAtLevel(e.level)
	if drop != nil && len(destroyed) > 0 {
		drop(destroyed)
	}
}

// BeginAutonomous suspends the current changes stack, level, and cursor
// scope and installs a fresh one with Atx incremented (spec.md §9): the
// autonomous transaction runs as if it were a brand new session's top-level
// transaction, invisible to the outer transaction's eventual commit/abort.
func (e *Engine) BeginAutonomous() {
	e.autonomous = append(e.autonomous, scope{
		stack:       e.stack,
		level:       e.level,
		cursorToken: e.cursors.BeginAutonomous(),
	})
	e.stack = changes.New()
	e.level = savepoint.Level{Atx: e.level.Atx + 1}
	e.log.WithField("atx", e.level.Atx).Debug("autonomous transaction begin")
}

// EndAutonomous commits or aborts whatever the autonomous transaction left
// open, then restores the suspended outer scope.
func (e *Engine) EndAutonomous(commit bool, drop DestroyFunc) {
	if len(e.autonomous) == 0 {
		e.log.Warn("end-autonomous called with no autonomous scope open")
		return
	}
	if commit {
		e.TopCommit(drop)
	} else {
		e.TopAbort(drop)
	}

	last := len(e.autonomous) - 1
	saved := e.autonomous[last]
	e.autonomous = e.autonomous[:last]

	e.stack = saved.stack
	e.level = saved.level
	e.cursors.EndAutonomous(saved.cursorToken)
	e.log.WithField("atx", e.level.Atx).Debug("autonomous transaction end")
}
