package provenance

import "errors"

// Failure taxonomy. Every rejected operation wraps exactly one of these
// sentinels; callers dispatch with errors.Is. A rejection never leaves
// partial state behind.
var (
	// ErrInvalidReference is returned when a node, item, step, or identity
	// does not exist or is malformed.
	ErrInvalidReference = errors.New("referenced record does not exist")

	// ErrUnauthorized is returned when the caller lacks the owner, operator,
	// or approval standing an action requires.
	ErrUnauthorized = errors.New("caller lacks standing for this action")

	// ErrConstraintViolation is returned when an operation would break a
	// registry invariant: deleting with active children, malformed
	// precedent shape, or a wrong continuation count.
	ErrConstraintViolation = errors.New("operation violates a ledger constraint")

	// ErrInvalidFileSignature is returned when a file signature carries a
	// zero digest, algorithm, or size.
	ErrInvalidFileSignature = errors.New("file signature has a zero field")
)
