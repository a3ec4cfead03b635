package litetable

import (
	"bytes"
)

// ServerTimestamp asks the server to assign the cell timestamp when the mutation is applied.
const ServerTimestamp int64 = -1

// Cell is a single versioned value within a column.
type Cell struct {
	TimestampMicros int64    `json:"timestamp"`
	Value           []byte   `json:"value"`
	Labels          []string `json:"labels,omitempty"` // attached by label transformers only
}

// Column is a qualifier and its cells, newest first.
type Column struct {
	Qualifier []byte `json:"qualifier"`
	Cells     []Cell `json:"cells"`
}

// Family is a named group of columns ordered by qualifier.
type Family struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Row is a complete snapshot of one row:
//
// Example:
//
//	Row{
//	  Key: []byte("row1"),
//	  Families: []Family{
//	    {Name: "cf1", Columns: []Column{
//	      {Qualifier: []byte("a"), Cells: []Cell{{TimestampMicros: 200}, {TimestampMicros: 100}}},
//	      {Qualifier: []byte("b"), Cells: []Cell{{TimestampMicros: 100}}},
//	    }},
//	    {Name: "cf2", Columns: ...},
//	  },
//	}
//
// Families are ordered by name, columns by qualifier (byte order) and cells by timestamp
// descending. A Row handed out by this module is never modified afterward.
type Row struct {
	Key      []byte   `json:"key"`
	Families []Family `json:"families"`
}

// RowCell is a cell together with its location in the row. It is the unit the filter
// language operates on.
type RowCell struct {
	Family    string
	Qualifier []byte
	Cell
}

// Family returns the family with the given name.
func (r *Row) Family(name string) (*Family, bool) {
	for i := range r.Families {
		if r.Families[i].Name == name {
			return &r.Families[i], true
		}
	}
	return nil, false
}

// Column returns the column in family with the given qualifier.
func (r *Row) Column(family string, qualifier []byte) (*Column, bool) {
	fam, ok := r.Family(family)
	if !ok {
		return nil, false
	}
	for i := range fam.Columns {
		if bytes.Equal(fam.Columns[i].Qualifier, qualifier) {
			return &fam.Columns[i], true
		}
	}
	return nil, false
}

// CellCount returns the number of cells in the row.
func (r *Row) CellCount() int {
	n := 0
	for _, fam := range r.Families {
		for _, col := range fam.Columns {
			n += len(col.Cells)
		}
	}
	return n
}

// Cells flattens the row into canonical order: family asc, qualifier asc, timestamp desc.
func (r *Row) Cells() []RowCell {
	out := make([]RowCell, 0, r.CellCount())
	for _, fam := range r.Families {
		for _, col := range fam.Columns {
			for _, c := range col.Cells {
				out = append(out, RowCell{Family: fam.Name, Qualifier: col.Qualifier, Cell: c})
			}
		}
	}
	return out
}

// NewRow groups a flat list of cells, already in canonical order, into a Row. Cells that share
// a family and qualifier are grouped together only when they are adjacent.
func NewRow(key []byte, cells []RowCell) *Row {
	row := &Row{Key: key}
	for _, c := range cells {
		n := len(row.Families)
		if n == 0 || row.Families[n-1].Name != c.Family {
			row.Families = append(row.Families, Family{Name: c.Family})
			n++
		}
		fam := &row.Families[n-1]

		m := len(fam.Columns)
		if m == 0 || !bytes.Equal(fam.Columns[m-1].Qualifier, c.Qualifier) {
			fam.Columns = append(fam.Columns, Column{Qualifier: c.Qualifier})
			m++
		}
		fam.Columns[m-1].Cells = append(fam.Columns[m-1].Cells, c.Cell)
	}
	return row
}

// CompareCells orders two cells canonically. It returns a negative number when a sorts before b.
func CompareCells(a, b *RowCell) int {
	if a.Family != b.Family {
		if a.Family < b.Family {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(a.Qualifier, b.Qualifier); c != 0 {
		return c
	}
	switch {
	case a.TimestampMicros > b.TimestampMicros:
		return -1
	case a.TimestampMicros < b.TimestampMicros:
		return 1
	}
	return 0
}

// HasLabel reports whether the cell already carries label.
func (c *Cell) HasLabel(label string) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// CellChunk is one fragment of a ReadRows response. Fields follow the wire shape: the row key,
// family and qualifier are only present when they change, timestamp and labels only on the
// first chunk of a cell, and ValueSize is non-zero only on non-final slices of a split value.
type CellChunk struct {
	RowKey          []byte
	FamilyName      *string
	Qualifier       *[]byte
	TimestampMicros int64
	Labels          []string
	Value           []byte
	ValueSize       int32
	ResetRow        bool
	CommitRow       bool
}

// HasCellData reports whether the chunk carries anything other than row status.
func (c *CellChunk) HasCellData() bool {
	return len(c.RowKey) > 0 ||
		c.FamilyName != nil ||
		c.Qualifier != nil ||
		len(c.Value) > 0 ||
		c.TimestampMicros != 0 ||
		len(c.Labels) > 0 ||
		c.ValueSize != 0
}

// ReadRowsResponse is one frame of a row read stream.
type ReadRowsResponse struct {
	Chunks []*CellChunk
	// LastScannedRowKey is set when the server scanned past rows that produced no output.
	LastScannedRowKey []byte
}

// Ptr returns a pointer to v. Useful for building chunks with explicit sticky fields.
func Ptr[T any](v T) *T {
	return &v
}
