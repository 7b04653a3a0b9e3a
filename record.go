package relevec

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Field names of the interchange records.
const (
	FieldSchemaName = "schema_name"
	FieldEntries    = "entries"
	FieldDimCount   = "dim_count"
	FieldDimNames   = "dim_names"

	// legacyFieldDimCount is accepted on decode only.
	legacyFieldDimCount = "dim_ct"
)

// SchemaRecord is the interchange form of a schema definition.
//
// Both fields nil describes an unconstrained schema. A non-nil (possibly
// empty) DimNames describes a named schema. Setting both is ambiguous.
type SchemaRecord struct {
	DimCount *int
	DimNames []string
}

// Map returns the portable form: {}, {"dim_count": n} or {"dim_names": [...]}.
func (r SchemaRecord) Map() map[string]any {
	m := make(map[string]any, 1)
	if r.DimCount != nil {
		m[FieldDimCount] = *r.DimCount
	}
	if r.DimNames != nil {
		names := make([]any, len(r.DimNames))
		for i, n := range r.DimNames {
			names[i] = n
		}
		m[FieldDimNames] = names
	}
	return m
}

// RegistryRecord maps schema names to their definitions.
type RegistryRecord map[string]SchemaRecord

// Map returns the portable form of the registry record.
func (r RegistryRecord) Map() map[string]any {
	m := make(map[string]any, len(r))
	for name, rec := range r {
		m[name] = rec.Map()
	}
	return m
}

// Names returns the schema names in ascending order.
func (r RegistryRecord) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VectorRecord is the interchange form of a vector.
type VectorRecord struct {
	SchemaName string
	Entries    []Entry
}

// Map returns the portable form. Entries are keyed by string for name keys
// and by int for index keys.
func (r VectorRecord) Map() map[string]any {
	var entries any
	if len(r.Entries) > 0 && r.Entries[0].Key.IsName() {
		byName := make(map[string]float64, len(r.Entries))
		for _, e := range r.Entries {
			byName[e.Key.Name()] = e.Value
		}
		entries = byName
	} else {
		byIndex := make(map[int]float64, len(r.Entries))
		for _, e := range r.Entries {
			byIndex[e.Key.Index()] = e.Value
		}
		entries = byIndex
	}
	return map[string]any{
		FieldSchemaName: r.SchemaName,
		FieldEntries:    entries,
	}
}

// DecodeSchemaRecord converts a generic tree, as produced by JSON or YAML
// decoding, into a SchemaRecord.
func DecodeSchemaRecord(raw any) (SchemaRecord, error) {
	m, ok := asStringMap(raw)
	if !ok {
		return SchemaRecord{}, malformed("schema record is %T, expected a mapping", raw)
	}
	var rec SchemaRecord
	countRaw, hasCount := m[FieldDimCount]
	if !hasCount {
		countRaw, hasCount = m[legacyFieldDimCount]
	}
	if hasCount && countRaw != nil {
		n, ok := asInt(countRaw)
		if !ok {
			return SchemaRecord{}, malformed("%s is %v (%T), expected an integer", FieldDimCount, countRaw, countRaw)
		}
		if n < 0 {
			return SchemaRecord{}, malformed("%s %d is negative", FieldDimCount, n)
		}
		rec.DimCount = &n
	}
	if namesRaw, ok := m[FieldDimNames]; ok && namesRaw != nil {
		names, err := asStringSlice(namesRaw)
		if err != nil {
			return SchemaRecord{}, err
		}
		rec.DimNames = names
	}
	return rec, nil
}

// DecodeRegistryRecord converts a generic tree into a RegistryRecord.
func DecodeRegistryRecord(raw any) (RegistryRecord, error) {
	m, ok := asStringMap(raw)
	if !ok {
		return nil, malformed("registry record is %T, expected a mapping", raw)
	}
	out := make(RegistryRecord, len(m))
	for name, v := range m {
		rec, err := DecodeSchemaRecord(v)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		out[name] = rec
	}
	return out, nil
}

// DecodeVectorRecord converts a generic tree into a VectorRecord.
//
// String keys become name keys and integer keys become index keys; the
// schema decides later how string keys are resolved. Mixing both key types
// fails with ErrMixedKeyTypes.
func DecodeVectorRecord(raw any) (VectorRecord, error) {
	m, ok := asStringMap(raw)
	if !ok {
		return VectorRecord{}, malformed("vector record is %T, expected a mapping", raw)
	}
	name, ok := m[FieldSchemaName].(string)
	if !ok {
		return VectorRecord{}, malformed("%s is missing or not a string", FieldSchemaName)
	}
	if err := ValidateName(name); err != nil {
		return VectorRecord{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	entriesRaw, ok := m[FieldEntries]
	if !ok {
		return VectorRecord{}, malformed("%s is missing", FieldEntries)
	}
	entries, err := decodeEntries(entriesRaw)
	if err != nil {
		return VectorRecord{}, err
	}
	return VectorRecord{SchemaName: name, Entries: entries}, nil
}

func decodeEntries(raw any) ([]Entry, error) {
	var entries []Entry
	add := func(k any, v any) error {
		val, ok := asFloat(v)
		if !ok {
			return malformed("entry %v has value %v (%T), expected a number", k, v, v)
		}
		switch key := k.(type) {
		case string:
			entries = append(entries, Named(key, val))
		default:
			idx, ok := asInt(key)
			if !ok {
				return malformed("entry key %v (%T) is neither a name nor an index", k, k)
			}
			entries = append(entries, At(idx, val))
		}
		return nil
	}
	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			if err := add(k, v); err != nil {
				return nil, err
			}
		}
	case map[any]any:
		for k, v := range m {
			if err := add(k, v); err != nil {
				return nil, err
			}
		}
	case map[string]float64:
		for k, v := range m {
			entries = append(entries, Named(k, v))
		}
	case map[int]float64:
		for k, v := range m {
			entries = append(entries, At(k, v))
		}
	case nil:
	default:
		return nil, malformed("%s is %T, expected a mapping", FieldEntries, raw)
	}
	for _, e := range entries {
		if e.Key.IsName() != entries[0].Key.IsName() {
			return nil, ErrMixedKeyTypes
		}
	}
	return entries, nil
}

// indexEntries rewrites name keys holding decimal indices into index keys.
// Formats such as JSON cannot carry integer object keys.
func indexEntries(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if !e.Key.IsName() {
			out[i] = e
			continue
		}
		idx, err := strconv.Atoi(e.Key.Name())
		if err != nil || idx < 0 || strconv.Itoa(idx) != e.Key.Name() {
			return nil, malformed("entry key %q is not a dimension index", e.Key.Name())
		}
		out[i] = At(idx, e.Value)
	}
	return out, nil
}

func asStringMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringSlice(raw any) ([]string, error) {
	switch s := raw.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, v := range s {
			str, ok := v.(string)
			if !ok {
				return nil, malformed("%s[%d] is %T, expected a string", FieldDimNames, i, v)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, malformed("%s is %T, expected a list of strings", FieldDimNames, raw)
	}
}

// asInt accepts Go integers and integral floats; JSON decodes every number as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), n <= math.MaxInt
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), n <= math.MaxInt
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, ok := asInt(n)
		return float64(i), ok
	default:
		return 0, false
	}
}
