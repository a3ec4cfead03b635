package filter

import (
	"bytes"
	"github.com/cespare/xxhash/v2"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"math"
	"slices"
)

// cell is a RowCell tagged with the position it held in the input row. Copies produced by an
// Interleave keep the id of the cell they came from.
type cell struct {
	litetable.RowCell
	id int
}

// evaluation holds the state of one row's evaluation. It is discarded afterward.
type evaluation struct {
	key       []byte
	delivered map[int]struct{}
	sunk      []cell
}

// Apply filters row and returns the surviving cells as a new row, or nil when every cell was
// removed. The input row is not modified.
func (p *Program) Apply(row *litetable.Row) *litetable.Row {
	if row == nil {
		return nil
	}
	cells := p.ApplyCells(row.Key, row.Cells())
	if len(cells) == 0 {
		return nil
	}
	return litetable.NewRow(row.Key, cells)
}

// ApplyCells filters the cells of the row identified by key. cells must be in canonical order;
// the result is too.
func (p *Program) ApplyCells(key []byte, cells []litetable.RowCell) []litetable.RowCell {
	if p == nil {
		return slices.Clone(cells)
	}

	in := make([]cell, len(cells))
	for i, c := range cells {
		in[i] = cell{RowCell: c, id: i}
	}

	ev := &evaluation{key: key, delivered: make(map[int]struct{})}
	out := ev.eval(p.root, in)

	final := make([]cell, 0, len(ev.sunk)+len(out))
	final = append(final, ev.sunk...)
	final = append(final, ev.undelivered(out)...)
	sortCells(final)

	res := make([]litetable.RowCell, len(final))
	for i, c := range final {
		res[i] = c.RowCell
	}
	return res
}

// Matches reports whether at least one cell of row survives the filter.
func (p *Program) Matches(row *litetable.Row) bool {
	if row == nil {
		return false
	}
	return len(p.ApplyCells(row.Key, row.Cells())) > 0
}

func (ev *evaluation) eval(n *node, in []cell) []cell {
	switch n.op {
	case opChain:
		out := in
		for _, c := range n.children {
			out = ev.eval(c, out)
		}
		return out

	case opInterleave:
		var merged []cell
		for _, c := range n.children {
			merged = append(merged, ev.eval(c, in)...)
		}
		merged = ev.undelivered(merged)
		sortCells(merged)
		return merged

	case opCondition:
		if len(ev.eval(n.predicate, in)) > 0 {
			return ev.branch(n.onTrue, in)
		}
		return ev.branch(n.onFalse, in)

	case opSink:
		for _, c := range in {
			if _, ok := ev.delivered[c.id]; ok {
				continue
			}
			ev.delivered[c.id] = struct{}{}
			ev.sunk = append(ev.sunk, c)
		}
		return nil

	case opPassAll:
		return in

	case opBlockAll:
		return nil

	case opRowKeyRegex:
		if n.re.Match(ev.key) {
			return in
		}
		return nil

	case opRowSample:
		if sampled(ev.key, n.prob) {
			return in
		}
		return nil

	case opFamilyRegex:
		return keep(in, func(c *cell) bool { return n.re.MatchString(c.Family) })

	case opQualifierRegex:
		return keep(in, func(c *cell) bool { return n.re.Match(c.Qualifier) })

	case opColumnRange:
		return keep(in, func(c *cell) bool { return c.Family == n.family && n.rng.Contains(c.Qualifier) })

	case opTimestampRange:
		return keep(in, func(c *cell) bool { return n.ts.Contains(c.TimestampMicros) })

	case opValueRegex:
		return keep(in, func(c *cell) bool { return n.re.Match(c.Value) })

	case opValueRange:
		return keep(in, func(c *cell) bool { return n.rng.Contains(c.Value) })

	case opRowOffset:
		if n.n >= len(in) {
			return nil
		}
		return in[n.n:]

	case opRowLimit:
		if n.n < len(in) {
			return in[:n.n]
		}
		return in

	case opColumnLimit:
		return columnLimit(in, n.n)

	case opStripValue:
		out := make([]cell, len(in))
		for i, c := range in {
			c.Value = nil
			out[i] = c
		}
		return out

	case opApplyLabel:
		out := make([]cell, len(in))
		for i, c := range in {
			c.Labels = append(slices.Clone(c.Labels), n.label)
			out[i] = c
		}
		return out
	}
	return nil
}

func (ev *evaluation) branch(n *node, in []cell) []cell {
	if n == nil {
		return nil
	}
	return ev.eval(n, in)
}

// undelivered drops the cells a sink has already sent to the output.
func (ev *evaluation) undelivered(cells []cell) []cell {
	if len(ev.delivered) == 0 {
		return cells
	}
	return keep(cells, func(c *cell) bool {
		_, ok := ev.delivered[c.id]
		return !ok
	})
}

func keep(in []cell, pred func(c *cell) bool) []cell {
	var out []cell
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

// columnLimit keeps the first limit cells of every column. Cells of a column are adjacent in
// canonical order.
func columnLimit(in []cell, limit int) []cell {
	var (
		out   []cell
		count int
	)
	for i, c := range in {
		if i == 0 || c.Family != in[i-1].Family || !bytes.Equal(c.Qualifier, in[i-1].Qualifier) {
			count = 0
		}
		count++
		if count <= limit {
			out = append(out, c)
		}
	}
	return out
}

func sortCells(cells []cell) {
	slices.SortStableFunc(cells, func(a, b cell) int {
		return litetable.CompareCells(&a.RowCell, &b.RowCell)
	})
}

// sampled maps the row key onto [0, 1) and keeps the row when it lands below p.
func sampled(key []byte, p float64) bool {
	return float64(xxhash.Sum64(key))/math.Exp2(64) < p
}
