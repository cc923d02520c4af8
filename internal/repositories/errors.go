package repositories

import "errors"

// ErrNotFound reports that no row matched the lookup or mutation.
var ErrNotFound = errors.New("repositories: not found")

// ErrConflict reports a write rejected by a uniqueness constraint.
var ErrConflict = errors.New("repositories: conflict")
