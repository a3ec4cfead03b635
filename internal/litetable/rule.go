package litetable

import (
	"encoding/binary"
)

// maxRules is the most rules a single read-modify-write may carry.
const maxRules = 100000

// ReadModifyWriteRule transforms the latest cell of a column. The concrete types are
// AppendValue and IncrementAmount.
type ReadModifyWriteRule interface {
	isRule()
	column() (string, []byte)
}

// AppendValue appends Value to the latest cell of the column, or writes it when the column is
// empty.
type AppendValue struct {
	Family    string
	Qualifier []byte
	Value     []byte
}

// IncrementAmount adds Amount to the latest cell of the column, read as a 64-bit big-endian
// signed integer. An empty column counts as zero.
type IncrementAmount struct {
	Family    string
	Qualifier []byte
	Amount    int64
}

func (*AppendValue) isRule()     {}
func (*IncrementAmount) isRule() {}

func (r *AppendValue) column() (string, []byte)     { return r.Family, r.Qualifier }
func (r *IncrementAmount) column() (string, []byte) { return r.Family, r.Qualifier }

// RuleColumn returns the family and qualifier a rule writes.
func RuleColumn(r ReadModifyWriteRule) (string, []byte) {
	return r.column()
}

// ValidateRules checks a rule list destined for a single row.
func ValidateRules(rules []ReadModifyWriteRule) error {
	if len(rules) == 0 {
		return NewError(ErrInvalidMutation, "no rules provided")
	}
	if len(rules) > maxRules {
		return NewError(ErrInvalidMutation, "too many rules: %d > %d", len(rules), maxRules)
	}
	for i, r := range rules {
		switch r := r.(type) {
		case *AppendValue, *IncrementAmount:
			if family, _ := r.column(); !ValidFamilyName(family) {
				return NewError(ErrInvalidMutation, "rule %d: invalid family name %q", i, family)
			}
		case nil:
			return NewError(ErrInvalidMutation, "rule %d is nil", i)
		default:
			return NewError(ErrInvalidMutation, "rule %d: unknown type %T", i, r)
		}
	}
	return nil
}

// ApplyRule returns the value produced by r over the column's latest value. prev is nil when the
// column has no cells.
func ApplyRule(r ReadModifyWriteRule, prev []byte) ([]byte, error) {
	switch r := r.(type) {
	case *AppendValue:
		out := make([]byte, 0, len(prev)+len(r.Value))
		return append(append(out, prev...), r.Value...), nil
	case *IncrementAmount:
		var v int64
		if prev != nil {
			if len(prev) != 8 {
				return nil, NewError(ErrInvalidMutation, "increment on a %d byte value, want 8", len(prev))
			}
			v = int64(binary.BigEndian.Uint64(prev))
		}
		out := make([]byte, 8)
		binary.BigEndian.PutUint64(out, uint64(v+r.Amount))
		return out, nil
	}
	return nil, NewError(ErrInvalidMutation, "unknown rule type %T", r)
}
