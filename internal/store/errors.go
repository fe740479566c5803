package store

import "errors"

// Sentinel errors for caller-side classification with errors.Is.
// Backing-store failures are wrapped with %w and carry no sentinel;
// they propagate unmodified in meaning and are never retried here.
var (
	// ErrNoIdentity is returned when an identity-keyed operation is
	// invoked for a type that has no integer identity field.
	ErrNoIdentity = errors.New("entity type has no identity field")

	// ErrUnknownColumn is returned when a caller names a column that
	// does not correspond to a persistable field of the entity type.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrMalformedClause is returned by DeleteWhere when the clause does
	// not literally begin with the WHERE keyword.
	ErrMalformedClause = errors.New("clause must begin with WHERE")

	// ErrUnsafeQuery is returned when the textual safety guards reject a
	// statement: a destructive keyword on the read-only path, or a
	// statement separator in an existence-check clause. The guards are
	// best-effort string checks, not SQL validation.
	ErrUnsafeQuery = errors.New("statement rejected by safety guard")
)
