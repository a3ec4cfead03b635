// Package filter implements the row filter language: structural combinators (Chain, Interleave,
// Condition, Sink) over leaf predicates, limits and transformers.
//
// A filter tree is compiled once with Compile, which rejects malformed trees before any row is
// evaluated. The resulting Program is immutable and safe for concurrent use.
package filter

import (
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// Filter is a node of a row filter tree. The concrete types are the pointer types declared in
// this package.
type Filter interface {
	isFilter()
}

// Chain applies each filter to the output of the previous one. An empty chain passes its input
// through unchanged.
type Chain struct {
	Filters []Filter
}

// Interleave applies every filter to the same input and merges the outputs in canonical cell
// order. A cell emitted by several branches is emitted several times.
type Interleave struct {
	Filters []Filter
}

// Condition evaluates Predicate over the whole row. When it yields at least one cell True is
// applied to the input, otherwise False is. A nil branch yields no cells.
type Condition struct {
	Predicate Filter
	True      Filter
	False     Filter
}

// Sink delivers its input straight to the final output. Cells it delivers are dropped from any
// other path that reaches an Interleave merge or the final output.
type Sink struct{}

// PassAll passes every cell.
type PassAll struct{}

// BlockAll drops every cell.
type BlockAll struct{}

// RowKeyRegex passes the row when the regular expression matches anywhere in its key.
type RowKeyRegex struct {
	Pattern []byte
}

// RowSample passes the row with the given probability. The decision is derived from the row key
// so evaluating the same row twice gives the same answer.
type RowSample struct {
	Probability float64
}

// FamilyNameRegex passes cells whose family name matches.
type FamilyNameRegex struct {
	Pattern string
}

// QualifierRegex passes cells whose qualifier matches.
type QualifierRegex struct {
	Pattern []byte
}

// ColumnRange passes cells of Family whose qualifier falls in Range.
type ColumnRange struct {
	Family string
	Range  litetable.ByteRange
}

// TimestampRange passes cells whose timestamp falls in Range.
type TimestampRange struct {
	Range litetable.TimestampRange
}

// ValueRegex passes cells whose value matches.
type ValueRegex struct {
	Pattern []byte
}

// ValueRange passes cells whose value falls in Range.
type ValueRange struct {
	Range litetable.ByteRange
}

// CellsPerRowOffset skips the first N cells of each row.
type CellsPerRowOffset struct {
	N int32
}

// CellsPerRowLimit passes the first N cells of each row.
type CellsPerRowLimit struct {
	N int32
}

// CellsPerColumnLimit passes the first N cells of each column, i.e. the N newest versions.
type CellsPerColumnLimit struct {
	N int32
}

// StripValue replaces every value with an empty one.
type StripValue struct{}

// ApplyLabel appends Label to every cell.
type ApplyLabel struct {
	Label string
}

func (*Chain) isFilter()               {}
func (*Interleave) isFilter()          {}
func (*Condition) isFilter()           {}
func (*Sink) isFilter()                {}
func (*PassAll) isFilter()             {}
func (*BlockAll) isFilter()            {}
func (*RowKeyRegex) isFilter()         {}
func (*RowSample) isFilter()           {}
func (*FamilyNameRegex) isFilter()     {}
func (*QualifierRegex) isFilter()      {}
func (*ColumnRange) isFilter()         {}
func (*TimestampRange) isFilter()      {}
func (*ValueRegex) isFilter()          {}
func (*ValueRange) isFilter()          {}
func (*CellsPerRowOffset) isFilter()   {}
func (*CellsPerRowLimit) isFilter()    {}
func (*CellsPerColumnLimit) isFilter() {}
func (*StripValue) isFilter()          {}
func (*ApplyLabel) isFilter()          {}
