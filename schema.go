package relevec

import (
	"fmt"
	"slices"
)

// Kind identifies the dimension space a schema describes.
type Kind uint8

const (
	// KindUnconstrained accepts any non-negative index.
	KindUnconstrained Kind = iota
	// KindBounded accepts indices in [0, count).
	KindBounded
	// KindNamed accepts indices in [0, len(names)) and maps each to a name.
	KindNamed
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnconstrained:
		return "Unconstrained"
	case KindBounded:
		return "Bounded"
	case KindNamed:
		return "Named"
	default:
		return "Unknown"
	}
}

// Schema describes the legal dimension space for a family of vectors.
//
// Schemas are created by a Registry and never change afterwards, so a
// *Schema may be shared freely. Two vectors are compatible only if they
// reference the same *Schema.
type Schema struct {
	name  string
	kind  Kind
	count int
	names []string
	index map[string]int
}

func newUnconstrainedSchema(name string) *Schema {
	return &Schema{name: name, kind: KindUnconstrained}
}

func newBoundedSchema(name string, count int) (*Schema, error) {
	if count < 0 {
		return nil, malformed("dim_count %d is negative", count)
	}
	return &Schema{name: name, kind: KindBounded, count: count}, nil
}

func newNamedSchema(name string, names []string) (*Schema, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("%w: %q appears more than once", ErrDuplicateDimensionName, n)
		}
		index[n] = i
	}
	return &Schema{
		name:  name,
		kind:  KindNamed,
		count: len(names),
		names: slices.Clone(names),
		index: index,
	}, nil
}

// Name returns the registry name of the schema.
func (s *Schema) Name() string { return s.name }

// Kind returns the schema variant.
func (s *Schema) Kind() Kind { return s.kind }

// DimCount returns the number of valid indices.
// The second result is false for unconstrained schemas.
func (s *Schema) DimCount() (int, bool) {
	if s.kind == KindUnconstrained {
		return 0, false
	}
	return s.count, true
}

// DimNames returns a copy of the ordered dimension names, or nil if the
// schema is not named.
func (s *Schema) DimNames() []string {
	if s.kind != KindNamed {
		return nil
	}
	return slices.Clone(s.names)
}

// IsValidIndex reports whether idx lies within the schema bounds.
// A negative idx is a caller error and returns ErrInvalidIndex.
func (s *Schema) IsValidIndex(idx int) (bool, error) {
	if idx < 0 {
		return false, &IndexError{Index: idx, Bound: s.bound()}
	}
	if s.kind == KindUnconstrained {
		return true, nil
	}
	return idx < s.count, nil
}

func (s *Schema) checkIndex(idx int) error {
	ok, err := s.IsValidIndex(idx)
	if err != nil {
		return err
	}
	if !ok {
		return &IndexError{Index: idx, Bound: s.bound()}
	}
	return nil
}

func (s *Schema) bound() int {
	if s.kind == KindUnconstrained {
		return -1
	}
	return s.count
}

// IndexForName resolves a dimension name to its index.
func (s *Schema) IndexForName(name string) (int, error) {
	if s.kind != KindNamed {
		return 0, fmt.Errorf("%w: schema %s has no named dimensions", ErrUnknownDimensionName, s.name)
	}
	idx, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not declared by %s", ErrUnknownDimensionName, name, s.name)
	}
	return idx, nil
}

// NameForIndex returns the dimension name at idx. It reports false for
// schemas without names and for indices out of range.
func (s *Schema) NameForIndex(idx int) (string, bool) {
	if s.kind != KindNamed || idx < 0 || idx >= len(s.names) {
		return "", false
	}
	return s.names[idx], true
}

// Describe returns the serializable shape descriptor of the schema.
func (s *Schema) Describe() SchemaRecord {
	switch s.kind {
	case KindBounded:
		n := s.count
		return SchemaRecord{DimCount: &n}
	case KindNamed:
		return SchemaRecord{DimNames: s.DimNames()}
	default:
		return SchemaRecord{}
	}
}

// String returns a short human-readable form such as "Cn(Named:3)".
func (s *Schema) String() string {
	if s.kind == KindUnconstrained {
		return fmt.Sprintf("%s(%s)", s.name, s.kind)
	}
	return fmt.Sprintf("%s(%s:%d)", s.name, s.kind, s.count)
}
