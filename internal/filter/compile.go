package filter

import (
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"reflect"
	"regexp"
)

const (
	// MaxDepth is the deepest a filter tree may nest.
	MaxDepth = 20
	// maxLabelLength is the longest label ApplyLabel accepts.
	maxLabelLength = 15
)

var labelPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type opKind int

const (
	opChain opKind = iota
	opInterleave
	opCondition
	opSink
	opPassAll
	opBlockAll
	opRowKeyRegex
	opRowSample
	opFamilyRegex
	opQualifierRegex
	opColumnRange
	opTimestampRange
	opValueRegex
	opValueRange
	opRowOffset
	opRowLimit
	opColumnLimit
	opStripValue
	opApplyLabel
)

// node is the compiled form of a Filter. Leaf parameters are copied so a Program does not depend
// on the tree it was compiled from.
type node struct {
	op opKind

	children []*node

	// condition branches; onTrue and onFalse may be nil
	predicate, onTrue, onFalse *node

	re     *regexp.Regexp
	family string
	rng    litetable.ByteRange
	ts     litetable.TimestampRange
	n      int
	prob   float64
	label  string
}

// Program is a compiled filter tree.
type Program struct {
	root *node
}

// Compile validates f and prepares it for evaluation. Every problem is reported as
// ErrInvalidFilterTree. A nil filter compiles to a nil Program, which passes every cell.
func Compile(f Filter) (*Program, error) {
	if isNil(f) {
		return nil, nil
	}
	root, err := compile(f, 1, false)
	if err != nil {
		return nil, err
	}
	return &Program{root: root}, nil
}

// MustCompile is like Compile but panics on error. It is meant for filters written as literals.
func MustCompile(f Filter) *Program {
	p, err := Compile(f)
	if err != nil {
		panic(err)
	}
	return p
}

func isNil(f Filter) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func invalid(format string, args ...interface{}) error {
	return litetable.NewError(litetable.ErrInvalidFilterTree, format, args...)
}

func compile(f Filter, depth int, underCondition bool) (*node, error) {
	if isNil(f) {
		return nil, invalid("nil filter at depth %d", depth)
	}
	if depth > MaxDepth {
		return nil, invalid("filter nests deeper than %d levels", MaxDepth)
	}

	switch f := f.(type) {
	case *Chain:
		return compileList(opChain, f.Filters, depth, underCondition)
	case *Interleave:
		return compileList(opInterleave, f.Filters, depth, underCondition)
	case *Condition:
		n := &node{op: opCondition}
		var err error
		if n.predicate, err = compile(f.Predicate, depth+1, true); err != nil {
			return nil, err
		}
		if !isNil(f.True) {
			if n.onTrue, err = compile(f.True, depth+1, true); err != nil {
				return nil, err
			}
		}
		if !isNil(f.False) {
			if n.onFalse, err = compile(f.False, depth+1, true); err != nil {
				return nil, err
			}
		}
		return n, nil
	case *Sink:
		if underCondition {
			return nil, invalid("sink cannot be used within a condition")
		}
		return &node{op: opSink}, nil
	case *PassAll:
		return &node{op: opPassAll}, nil
	case *BlockAll:
		return &node{op: opBlockAll}, nil
	case *RowKeyRegex:
		return compileRegex(opRowKeyRegex, "row key", string(f.Pattern))
	case *RowSample:
		if !(f.Probability > 0 && f.Probability < 1) {
			return nil, invalid("row sample probability %v must be between 0 and 1 exclusive",
				f.Probability)
		}
		return &node{op: opRowSample, prob: f.Probability}, nil
	case *FamilyNameRegex:
		return compileRegex(opFamilyRegex, "family name", f.Pattern)
	case *QualifierRegex:
		return compileRegex(opQualifierRegex, "qualifier", string(f.Pattern))
	case *ColumnRange:
		if f.Family == "" {
			return nil, invalid("column range requires a family")
		}
		if err := f.Range.Validate(); err != nil {
			return nil, invalid("column range: %s", errContext(err))
		}
		return &node{op: opColumnRange, family: f.Family, rng: f.Range}, nil
	case *TimestampRange:
		if err := f.Range.Validate(); err != nil {
			return nil, invalid("timestamp range: %s", errContext(err))
		}
		return &node{op: opTimestampRange, ts: f.Range}, nil
	case *ValueRegex:
		return compileRegex(opValueRegex, "value", string(f.Pattern))
	case *ValueRange:
		if err := f.Range.Validate(); err != nil {
			return nil, invalid("value range: %s", errContext(err))
		}
		return &node{op: opValueRange, rng: f.Range}, nil
	case *CellsPerRowOffset:
		return compileCount(opRowOffset, "cells per row offset", f.N)
	case *CellsPerRowLimit:
		return compileCount(opRowLimit, "cells per row limit", f.N)
	case *CellsPerColumnLimit:
		return compileCount(opColumnLimit, "cells per column limit", f.N)
	case *StripValue:
		return &node{op: opStripValue}, nil
	case *ApplyLabel:
		if len(f.Label) > maxLabelLength || !labelPattern.MatchString(f.Label) {
			return nil, invalid("label %q must match [a-z0-9-]+ and be at most %d characters",
				f.Label, maxLabelLength)
		}
		return &node{op: opApplyLabel, label: f.Label}, nil
	}
	return nil, invalid("unknown filter type %T", f)
}

func compileList(op opKind, filters []Filter, depth int, underCondition bool) (*node, error) {
	n := &node{op: op, children: make([]*node, 0, len(filters))}
	for _, sub := range filters {
		c, err := compile(sub, depth+1, underCondition)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	return n, nil
}

func compileRegex(op opKind, field, pattern string) (*node, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalid("%s regex %q: %v", field, pattern, err)
	}
	return &node{op: op, re: re}, nil
}

func compileCount(op opKind, name string, n int32) (*node, error) {
	if n < 0 {
		return nil, invalid("%s must not be negative, got %d", name, n)
	}
	return &node{op: op, n: int(n)}, nil
}

// errContext strips the sentinel from a range validation error so it can be rewrapped.
func errContext(err error) string {
	if e, ok := err.(*litetable.Error); ok {
		return e.Context
	}
	return err.Error()
}
