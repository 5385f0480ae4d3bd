package models

import "errors"

// Domain error sentinels. Services wrap these with context via fmt.Errorf
// and handlers map them to HTTP statuses with errors.Is. None of them are
// retried automatically; all are terminal for the triggering operation.
var (
	// ErrValidation covers bad or missing input at order creation or
	// profile edit. The caller is expected to re-prompt the user.
	ErrValidation = errors.New("validation failed")

	// ErrAuth covers bad credentials on login.
	ErrAuth = errors.New("invalid credentials")

	// ErrRequiresRecentLogin is returned when a sensitive operation
	// (password change) is attempted with a stale session.
	ErrRequiresRecentLogin = errors.New("recent login required")

	// ErrNotFound is returned when a referenced order or user no longer
	// exists.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional update loses a race,
	// e.g. two riders accepting the same pending order. The losing caller
	// is told the order was already taken.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the caller's stored profile does not
	// match the actor required for the attempted transition.
	ErrForbidden = errors.New("forbidden")
)
