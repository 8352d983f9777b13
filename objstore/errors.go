package objstore

import "errors"

// Error kinds from spec.md §7: every user-visible failure is one of these.
var (
	ErrInvalidParameter         = errors.New("objstore: invalid parameter")
	ErrUnknownPackage           = errors.New("objstore: unknown package")
	ErrUnknownVariable          = errors.New("objstore: unknown variable")
	ErrTypeMismatch             = errors.New("objstore: type mismatch")
	ErrKindMismatch             = errors.New("objstore: kind mismatch")
	ErrTransactionalityConflict = errors.New("objstore: transactionality conflict")
	ErrFeatureNotSupported      = errors.New("objstore: feature not supported")
)
