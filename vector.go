package relevec

import (
	"fmt"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Epsilon is the tolerance used for magnitude comparisons.
const Epsilon = 1e-6

// ApproxEqual reports whether a and b differ by less than Epsilon.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Vector is a sparse vector over the dimension space of a Schema.
//
// Indices without an entry have value 0.0. A Vector is owned by its creator
// and is not safe for concurrent mutation.
type Vector struct {
	schema  *Schema
	values  map[int]float64
	support *roaring64.Bitmap // indices present in values
}

// NewVector creates a vector over schema from entries. Keys must be all
// indices or all names; names are resolved through the schema.
func NewVector(schema *Schema, entries ...Entry) (*Vector, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrUnknownSchema)
	}
	v := &Vector{schema: schema}
	if err := v.Assign(entries...); err != nil {
		return nil, err
	}
	return v, nil
}

// NewVectorFromIndexes creates a vector from an index-keyed map.
func NewVectorFromIndexes(schema *Schema, values map[int]float64) (*Vector, error) {
	entries := make([]Entry, 0, len(values))
	for idx, val := range values {
		entries = append(entries, At(idx, val))
	}
	return NewVector(schema, entries...)
}

// NewVectorFromNames creates a vector from a name-keyed map.
func NewVectorFromNames(schema *Schema, values map[string]float64) (*Vector, error) {
	entries := make([]Entry, 0, len(values))
	for name, val := range values {
		entries = append(entries, Named(name, val))
	}
	return NewVector(schema, entries...)
}

// Schema returns the schema the vector belongs to.
func (v *Vector) Schema() *Schema { return v.schema }

// Assign replaces every value of the vector with entries.
// On error the vector is left unchanged.
func (v *Vector) Assign(entries ...Entry) error {
	values, err := resolveEntries(v.schema, entries)
	if err != nil {
		return err
	}
	support := roaring64.New()
	for idx := range values {
		support.Add(uint64(idx))
	}
	v.values = values
	v.support = support
	return nil
}

// Get returns the value at idx, or 0.0 if no entry is present.
func (v *Vector) Get(idx int) (float64, error) {
	if err := v.schema.checkIndex(idx); err != nil {
		return 0, err
	}
	return v.values[idx], nil
}

// Set stores val at idx.
func (v *Vector) Set(idx int, val float64) error {
	if err := v.schema.checkIndex(idx); err != nil {
		return err
	}
	if err := checkValue(val); err != nil {
		return err
	}
	v.values[idx] = val
	v.support.Add(uint64(idx))
	return nil
}

// GetByName returns the value of the named dimension.
func (v *Vector) GetByName(name string) (float64, error) {
	idx, err := v.schema.IndexForName(name)
	if err != nil {
		return 0, err
	}
	return v.Get(idx)
}

// SetByName stores val at the named dimension.
func (v *Vector) SetByName(name string, val float64) error {
	idx, err := v.schema.IndexForName(name)
	if err != nil {
		return err
	}
	return v.Set(idx, val)
}

// Len returns the number of stored entries, explicit zeros included.
func (v *Vector) Len() int { return len(v.values) }

// Support returns a copy of the set of indices that carry an entry.
func (v *Vector) Support() *roaring64.Bitmap { return v.support.Clone() }

// Entries returns the stored entries as index keys in ascending order.
func (v *Vector) Entries() []Entry {
	out := make([]Entry, 0, len(v.values))
	it := v.support.Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		out = append(out, At(idx, v.values[idx]))
	}
	return out
}

// MagnitudeSquared returns the sum of squares of all stored values.
func (v *Vector) MagnitudeSquared() float64 {
	var sum float64
	it := v.support.Iterator()
	for it.HasNext() {
		val := v.values[int(it.Next())]
		sum += val * val
	}
	return sum
}

// Magnitude returns the Euclidean norm of the vector.
func (v *Vector) Magnitude() float64 {
	return math.Sqrt(v.MagnitudeSquared())
}

// IsNormalized reports whether the vector has unit length within Epsilon.
func (v *Vector) IsNormalized() bool {
	return ApproxEqual(v.MagnitudeSquared(), 1.0)
}

// Normalize scales the vector to unit length. A vector that is already unit
// length within Epsilon is left as is.
func (v *Vector) Normalize() error {
	m2 := v.MagnitudeSquared()
	if m2 < Epsilon {
		return ErrZeroMagnitude
	}
	if ApproxEqual(m2, 1.0) {
		return nil
	}
	m := math.Sqrt(m2)
	for idx, val := range v.values {
		v.values[idx] = val / m
	}
	return nil
}

// Dot returns the dot product of v and other, which must share v's schema.
//
// Only indices present in both vectors contribute. They are summed in
// ascending order, so v.Dot(w) and w.Dot(v) are identical.
func (v *Vector) Dot(other *Vector) (float64, error) {
	if other == nil || other.schema != v.schema {
		return 0, fmt.Errorf("%w: %s vs %s", ErrSchemaMismatch, v.schema.Name(), schemaName(other))
	}
	var sum float64
	it := roaring64.And(v.support, other.support).Iterator()
	for it.HasNext() {
		idx := int(it.Next())
		sum += v.values[idx] * other.values[idx]
	}
	return sum, nil
}

// Equal reports whether other has the same schema and the same value at every
// index. A stored 0.0 equals an absent entry.
func (v *Vector) Equal(other *Vector) bool {
	if other == nil || other.schema != v.schema {
		return false
	}
	for idx, val := range v.values {
		if other.values[idx] != val {
			return false
		}
	}
	for idx, val := range other.values {
		if v.values[idx] != val {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the vector.
func (v *Vector) Clone() *Vector {
	values := make(map[int]float64, len(v.values))
	for idx, val := range v.values {
		values[idx] = val
	}
	return &Vector{schema: v.schema, values: values, support: v.support.Clone()}
}

// String renders the vector as "Schema {k: v, ...}", keyed by name for named
// schemas.
func (v *Vector) String() string {
	var b strings.Builder
	b.WriteString(v.schema.Name())
	b.WriteString(" {")
	for i, e := range v.Entries() {
		if i > 0 {
			b.WriteString(", ")
		}
		if name, ok := v.schema.NameForIndex(e.Key.Index()); ok {
			b.WriteString(name)
		} else {
			b.WriteString(e.Key.String())
		}
		fmt.Fprintf(&b, ": %g", e.Value)
	}
	b.WriteString("}")
	return b.String()
}

func checkValue(val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidValue, val)
	}
	return nil
}

func schemaName(v *Vector) string {
	if v == nil {
		return "<nil>"
	}
	return v.schema.Name()
}
