package litetable

import (
	"bytes"
	"sort"
)

// RowRange is a contiguous range of row keys.
type RowRange = ByteRange

// PrefixRange returns the range of every row key starting with prefix.
func PrefixRange(prefix []byte) RowRange {
	r := RowRange{Start: ClosedBound(bytes.Clone(prefix))}
	if end := PrefixSuccessor(prefix); end != nil {
		r.End = OpenBound(end)
	}
	if len(prefix) == 0 {
		r.Start = Bound{}
	}
	return r
}

// InfiniteRange returns the range covering every row key from start onward.
func InfiniteRange(start []byte) RowRange {
	return RowRange{Start: ClosedBound(start)}
}

// RowSet is a union of single row keys and row ranges. An empty set selects the whole table.
type RowSet struct {
	Keys   [][]byte
	Ranges []RowRange
}

// IsEmpty reports whether the set names no keys or ranges, i.e. it selects every row.
func (s RowSet) IsEmpty() bool {
	return len(s.Keys) == 0 && len(s.Ranges) == 0
}

// Contains reports whether key is selected by the set.
func (s RowSet) Contains(key []byte) bool {
	if s.IsEmpty() {
		return true
	}
	for _, k := range s.Keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	for _, r := range s.Ranges {
		if r.Contains(key) {
			return true
		}
	}
	return false
}

// Validate checks every range in the set.
func (s RowSet) Validate() error {
	for _, r := range s.Ranges {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, k := range s.Keys {
		if len(k) == 0 {
			return NewError(ErrInvalidRowSet, "row key must not be empty")
		}
	}
	return nil
}

// SortedKeys returns the set's explicit keys in ascending order without duplicates.
func (s RowSet) SortedKeys() [][]byte {
	keys := make([][]byte, len(s.Keys))
	copy(keys, s.Keys)
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	out := keys[:0]
	for i, k := range keys {
		if i > 0 && bytes.Equal(k, keys[i-1]) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Resume returns the part of the set that has not been served once every row up to and
// including lastKey has been delivered. Keys at or below lastKey are dropped, ranges that end at
// or below it are dropped and ranges that straddle it restart just after it.
//
// ok is false when nothing is left to read. The returned set must not be used in that case,
// since an empty RowSet selects the whole table.
func (s RowSet) Resume(lastKey []byte) (RowSet, bool) {
	if len(lastKey) == 0 {
		return s, true
	}
	if s.IsEmpty() {
		return RowSet{Ranges: []RowRange{{Start: OpenBound(bytes.Clone(lastKey))}}}, true
	}

	var out RowSet
	for _, k := range s.Keys {
		if bytes.Compare(k, lastKey) > 0 {
			out.Keys = append(out.Keys, k)
		}
	}

	for _, r := range s.Ranges {
		startRead := r.Start.IsUnbounded() || bytes.Compare(r.Start.Value, lastKey) <= 0
		if !startRead {
			// the whole range lies after lastKey
			out.Ranges = append(out.Ranges, r)
			continue
		}
		endNotRead := r.End.IsUnbounded() || bytes.Compare(lastKey, r.End.Value) < 0
		if endNotRead {
			out.Ranges = append(out.Ranges, RowRange{Start: OpenBound(bytes.Clone(lastKey)), End: r.End})
		}
	}

	if out.IsEmpty() {
		return RowSet{}, false
	}
	return out, true
}
