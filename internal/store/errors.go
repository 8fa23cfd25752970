package store

import "errors"

// Closed set of error kinds surfaced by the stores. Callers classify with
// errors.Is; anything else is a storage failure passed through wrapped.
var (
	ErrNotFound       = errors.New("not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadyMember  = errors.New("already a member")
	ErrNotInHousehold = errors.New("not in household")
)
