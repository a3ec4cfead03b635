package litetable

import (
	"regexp"
)

// maxMutations is the most mutations a single row write may carry.
const maxMutations = 100000

var familyNamePattern = regexp.MustCompile(`^[-_.a-zA-Z0-9]+$`)

// Mutation is one change applied to a row. The concrete types are SetCell, DeleteFromColumn,
// DeleteFromFamily and DeleteFromRow.
type Mutation interface {
	isMutation()
}

// SetCell writes a value into a cell. A TimestampMicros of ServerTimestamp lets the server
// choose the timestamp.
type SetCell struct {
	Family          string
	Qualifier       []byte
	TimestampMicros int64
	Value           []byte
}

// DeleteFromColumn deletes the cells of a column whose timestamps fall in Range.
type DeleteFromColumn struct {
	Family    string
	Qualifier []byte
	Range     TimestampRange
}

// DeleteFromFamily deletes every cell of a family.
type DeleteFromFamily struct {
	Family string
}

// DeleteFromRow deletes every cell of the row.
type DeleteFromRow struct{}

func (*SetCell) isMutation()          {}
func (*DeleteFromColumn) isMutation() {}
func (*DeleteFromFamily) isMutation() {}
func (*DeleteFromRow) isMutation()    {}

// TimestampRange is the half-open range [StartMicros, EndMicros). An EndMicros of zero means
// no upper bound.
type TimestampRange struct {
	StartMicros int64
	EndMicros   int64
}

// Contains reports whether ts falls in the range.
func (r TimestampRange) Contains(ts int64) bool {
	if ts < r.StartMicros {
		return false
	}
	return r.EndMicros == 0 || ts < r.EndMicros
}

// Validate rejects negative or inverted ranges.
func (r TimestampRange) Validate() error {
	if r.StartMicros < 0 || r.EndMicros < 0 {
		return NewError(ErrInvalidMutation, "timestamp range bounds must not be negative")
	}
	if r.EndMicros != 0 && r.EndMicros < r.StartMicros {
		return NewError(ErrInvalidMutation, "timestamp range end %d precedes start %d",
			r.EndMicros, r.StartMicros)
	}
	return nil
}

// ValidFamilyName reports whether name can be used as a column family.
func ValidFamilyName(name string) bool {
	return familyNamePattern.MatchString(name)
}

// ValidateMutations checks a mutation list destined for a single row.
func ValidateMutations(muts []Mutation) error {
	if len(muts) == 0 {
		return NewError(ErrInvalidMutation, "no mutations provided")
	}
	if len(muts) > maxMutations {
		return NewError(ErrInvalidMutation, "too many mutations: %d > %d", len(muts), maxMutations)
	}

	for i, m := range muts {
		switch m := m.(type) {
		case *SetCell:
			if !ValidFamilyName(m.Family) {
				return NewError(ErrInvalidMutation, "mutation %d: invalid family name %q", i, m.Family)
			}
			if m.TimestampMicros < ServerTimestamp {
				return NewError(ErrInvalidMutation, "mutation %d: invalid timestamp %d", i,
					m.TimestampMicros)
			}
		case *DeleteFromColumn:
			if !ValidFamilyName(m.Family) {
				return NewError(ErrInvalidMutation, "mutation %d: invalid family name %q", i, m.Family)
			}
			if err := m.Range.Validate(); err != nil {
				return NewError(ErrInvalidMutation, "mutation %d: %s", i, err.(*Error).Context)
			}
		case *DeleteFromFamily:
			if !ValidFamilyName(m.Family) {
				return NewError(ErrInvalidMutation, "mutation %d: invalid family name %q", i, m.Family)
			}
		case *DeleteFromRow:
		case nil:
			return NewError(ErrInvalidMutation, "mutation %d is nil", i)
		default:
			return NewError(ErrInvalidMutation, "mutation %d: unknown type %T", i, m)
		}
	}
	return nil
}
