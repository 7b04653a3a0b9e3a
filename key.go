package relevec

import "strconv"

// DimensionKey identifies a dimension either by index or by name.
//
// The zero value is IndexKey(0).
type DimensionKey struct {
	index int
	name  string
	named bool
}

// IndexKey returns a key addressing dimension idx.
func IndexKey(idx int) DimensionKey { return DimensionKey{index: idx} }

// NameKey returns a key addressing the dimension called name.
func NameKey(name string) DimensionKey { return DimensionKey{name: name, named: true} }

// IsName reports whether the key is a dimension name.
func (k DimensionKey) IsName() bool { return k.named }

// Index returns the index of an index key.
func (k DimensionKey) Index() int { return k.index }

// Name returns the name of a name key.
func (k DimensionKey) Name() string { return k.name }

// String returns the name, or the decimal index.
func (k DimensionKey) String() string {
	if k.named {
		return k.name
	}
	return strconv.Itoa(k.index)
}

// Entry is one dimension key with its value.
type Entry struct {
	Key   DimensionKey
	Value float64
}

// At returns an index-keyed entry.
func At(idx int, v float64) Entry { return Entry{Key: IndexKey(idx), Value: v} }

// Named returns a name-keyed entry.
func Named(name string, v float64) Entry { return Entry{Key: NameKey(name), Value: v} }

// resolveEntries maps entries onto indices of s. All keys must be of the same
// type. Values are validated but nothing is stored.
func resolveEntries(s *Schema, entries []Entry) (map[int]float64, error) {
	out := make(map[int]float64, len(entries))
	if len(entries) == 0 {
		return out, nil
	}
	byName := entries[0].Key.IsName()
	for _, e := range entries {
		if e.Key.IsName() != byName {
			return nil, ErrMixedKeyTypes
		}
		idx := e.Key.Index()
		if byName {
			var err error
			if idx, err = s.IndexForName(e.Key.Name()); err != nil {
				return nil, err
			}
		} else if err := s.checkIndex(idx); err != nil {
			return nil, err
		}
		if err := checkValue(e.Value); err != nil {
			return nil, err
		}
		out[idx] = e.Value
	}
	return out, nil
}
