package relevec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIndex is returned for a negative index or an index outside the schema bounds.
	ErrInvalidIndex = errors.New("invalid dimension index")

	// ErrInvalidValue is returned when a setter receives NaN or ±Inf.
	ErrInvalidValue = errors.New("invalid dimension value")

	// ErrUnknownDimensionName is returned for a name the schema does not declare.
	ErrUnknownDimensionName = errors.New("unknown dimension name")

	// ErrMixedKeyTypes is returned when one call mixes index and name keys.
	ErrMixedKeyTypes = errors.New("mixed dimension key types")

	// ErrSchemaMismatch is returned for arithmetic between vectors of different schemas.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrZeroMagnitude is returned when normalizing a (near-)zero vector.
	ErrZeroMagnitude = errors.New("cannot normalize a vector with zero magnitude")

	// ErrInvalidNameFormat is returned when a schema name violates the naming contract.
	ErrInvalidNameFormat = errors.New("invalid schema name format")

	// ErrNameUnavailable is the common parent of the two name-uniqueness errors.
	ErrNameUnavailable = errors.New("schema name unavailable")

	// ErrNameAlreadyRegistered is returned when the name is already in the registry.
	ErrNameAlreadyRegistered = fmt.Errorf("%w: already registered", ErrNameUnavailable)

	// ErrNameCollidesWithHost is returned when the name is bound in the host namespace.
	ErrNameCollidesWithHost = fmt.Errorf("%w: collides with host namespace", ErrNameUnavailable)

	// ErrAmbiguousShape is returned when both dim_count and dim_names are supplied.
	ErrAmbiguousShape = errors.New("ambiguous shape: dim_count and dim_names are mutually exclusive")

	// ErrDuplicateDimensionName is returned for a repeated name in a named schema.
	ErrDuplicateDimensionName = errors.New("duplicate dimension name")

	// ErrUnknownSchema is returned when a vector record references an unregistered schema.
	ErrUnknownSchema = errors.New("unknown schema")

	// ErrMalformedRecord is returned for records with missing or ill-typed fields.
	ErrMalformedRecord = errors.New("malformed record")
)

// IndexError reports an index rejected by a schema.
//
// Bound is -1 for unconstrained schemas.
type IndexError struct {
	Index int
	Bound int
}

func (e *IndexError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid dimension index %d: must be non-negative", e.Index)
	}
	return fmt.Sprintf("invalid dimension index %d: must be below %d", e.Index, e.Bound)
}

func (e *IndexError) Unwrap() error { return ErrInvalidIndex }

// NameError reports a rejected schema name.
//
// The underlying kind (ErrInvalidNameFormat, ErrNameAlreadyRegistered or
// ErrNameCollidesWithHost) can be accessed via errors.Is.
type NameError struct {
	Name   string
	Reason string
	cause  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("schema name %q: %s", e.Name, e.Reason)
}

func (e *NameError) Unwrap() error { return e.cause }

// ImportError reports the registry entry at which ImportAll stopped.
type ImportError struct {
	Name string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import schema %q: %v", e.Name, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
