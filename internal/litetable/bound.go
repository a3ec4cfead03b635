package litetable

import (
	"bytes"
)

// BoundKind describes one end of a byte range.
type BoundKind int

const (
	Unbounded BoundKind = iota
	Closed
	Open
)

// Bound is one end of a range over byte strings (row keys, qualifiers or values).
type Bound struct {
	Kind  BoundKind
	Value []byte
}

// ClosedBound returns an inclusive bound at v.
func ClosedBound(v []byte) Bound {
	return Bound{Kind: Closed, Value: v}
}

// OpenBound returns an exclusive bound at v.
func OpenBound(v []byte) Bound {
	return Bound{Kind: Open, Value: v}
}

// IsUnbounded reports whether the bound places no restriction.
func (b Bound) IsUnbounded() bool {
	return b.Kind == Unbounded
}

// admitsAsStart reports whether v is on the permitted side of b used as a lower bound.
func (b Bound) admitsAsStart(v []byte) bool {
	switch b.Kind {
	case Closed:
		return bytes.Compare(v, b.Value) >= 0
	case Open:
		return bytes.Compare(v, b.Value) > 0
	}
	return true
}

// admitsAsEnd reports whether v is on the permitted side of b used as an upper bound.
func (b Bound) admitsAsEnd(v []byte) bool {
	switch b.Kind {
	case Closed:
		return bytes.Compare(v, b.Value) <= 0
	case Open:
		return bytes.Compare(v, b.Value) < 0
	}
	return true
}

// ByteRange is a range over byte strings with independent bounds on each side.
type ByteRange struct {
	Start Bound
	End   Bound
}

// Contains reports whether v falls within the range.
func (r ByteRange) Contains(v []byte) bool {
	return r.Start.admitsAsStart(v) && r.End.admitsAsEnd(v)
}

// IsEmpty reports whether no byte string can fall within the range.
func (r ByteRange) IsEmpty() bool {
	if r.Start.IsUnbounded() || r.End.IsUnbounded() {
		return false
	}
	c := bytes.Compare(r.Start.Value, r.End.Value)
	if c > 0 {
		return true
	}
	if c == 0 {
		return r.Start.Kind == Open || r.End.Kind == Open
	}
	return false
}

// Validate rejects ranges whose start sorts after their end. A range whose bounds meet with an
// open side is empty but legal.
func (r ByteRange) Validate() error {
	if r.Start.IsUnbounded() || r.End.IsUnbounded() {
		return nil
	}
	if bytes.Compare(r.Start.Value, r.End.Value) > 0 {
		return NewError(ErrInvalidRowSet, "start %q sorts after end %q", r.Start.Value, r.End.Value)
	}
	return nil
}

// PrefixSuccessor returns the smallest byte string greater than every string carrying prefix,
// or nil when no such string exists (the prefix is empty or all 0xff).
func PrefixSuccessor(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
