package domain

import "errors"

// Structural integrity failures. These mean the knowledge base itself is
// malformed; callers must abort the load instead of continuing with a
// partial table.
var (
	ErrUnknownPartition      = errors.New("collection has no identifiable partition marker")
	ErrMissingNode           = errors.New("revocation edge references a node missing from the graph")
	ErrRevocationCycle       = errors.New("revocation chain does not terminate")
	ErrBrokenRevocationChain = errors.New("revoked technique has no revoked-by target")
	ErrNotActive             = errors.New("trusted technique is not active")
)
