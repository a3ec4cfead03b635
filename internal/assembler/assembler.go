// Package assembler rebuilds complete rows from the cell chunks of a ReadRows stream.
//
// An Assembler is a sequential state machine owned by a single stream. It is not safe for
// concurrent use; run one Assembler per open scan.
package assembler

import (
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"slices"
)

// maxPrealloc caps the buffer reserved from a declared value size. Larger values grow as
// their slices arrive.
const maxPrealloc = 1 << 20

// State is the position of the assembler within the chunk protocol.
type State int

const (
	// AwaitingRow is the initial state and the state after a commit or reset.
	AwaitingRow State = iota
	// InRow means at least one cell of the current row has been received.
	InRow
	// InCell means the value of the current cell is split and more slices are expected.
	InCell
	// Failed means a fatal error was returned. The assembler accepts no further input.
	Failed
	// Aborted means Abort was called. The assembler accepts no further input.
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingRow:
		return "AwaitingRow"
	case InRow:
		return "InRow"
	case InCell:
		return "InCell"
	case Failed:
		return "Failed"
	case Aborted:
		return "Aborted"
	}
	return "Unknown"
}

// Assembler converts an ordered sequence of chunks into committed rows.
type Assembler struct {
	state State
	err   error

	// lastKey is the greatest row key committed or scanned past. Every new row must sort after it.
	lastKey []byte

	// sticky state of the row being built
	rowKey    []byte
	family    string
	qualifier []byte
	timestamp int64
	labels    []string

	// value accumulation for the current cell
	value     []byte
	valueSize int32

	cells []litetable.RowCell
}

// New returns an assembler awaiting the first row.
func New() *Assembler {
	return &Assembler{state: AwaitingRow}
}

// State returns the current state.
func (a *Assembler) State() State {
	return a.state
}

// LastRowKey returns the greatest row key committed or scanned past so far.
func (a *Assembler) LastRowKey() []byte {
	return a.lastKey
}

// Pending reports whether a row has been started but not committed.
func (a *Assembler) Pending() bool {
	return a.state == InRow || a.state == InCell
}

// Push consumes the next chunk. It returns the completed row when the chunk commits one and nil
// otherwise. Any error is fatal: the pending row is discarded and every later call fails with
// the same error.
func (a *Assembler) Push(chunk *litetable.CellChunk) (*litetable.Row, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, a.fail(litetable.NewError(litetable.ErrMalformedChunk, "nil chunk"))
	}
	if chunk.ResetRow && chunk.CommitRow {
		return nil, a.fail(litetable.NewError(litetable.ErrMalformedChunk,
			"reset and commit are mutually exclusive"))
	}
	if chunk.ValueSize < 0 {
		return nil, a.fail(litetable.NewError(litetable.ErrMalformedChunk,
			"negative value size %d", chunk.ValueSize))
	}
	if chunk.ValueSize > 0 && chunk.CommitRow {
		return nil, a.fail(litetable.NewError(litetable.ErrMalformedChunk,
			"a chunk with a value size cannot commit the row"))
	}

	var err error
	switch a.state {
	case AwaitingRow:
		err = a.startRow(chunk)
	case InRow:
		err = a.continueRow(chunk)
	case InCell:
		err = a.continueCell(chunk)
	}
	if err != nil {
		return nil, a.fail(err)
	}

	if chunk.ResetRow {
		return nil, nil
	}
	if chunk.CommitRow {
		return a.commit(), nil
	}
	return nil, nil
}

// ScannedPast records a lastScannedRowKey marker. Rows that follow must sort after key.
func (a *Assembler) ScannedPast(key []byte) error {
	if err := a.usable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return nil
	}
	if a.lastKey != nil && bytes.Compare(key, a.lastKey) < 0 {
		return a.fail(litetable.NewError(litetable.ErrOrderViolation,
			"scanned past %q after %q", key, a.lastKey))
	}
	a.advance(key)
	return nil
}

// Finish signals the end of input. It fails with ErrIncompleteStream when a row is pending.
func (a *Assembler) Finish() error {
	if err := a.usable(); err != nil {
		return err
	}
	if a.Pending() {
		return a.fail(litetable.NewError(litetable.ErrIncompleteStream,
			"stream ended with uncommitted row %q", a.rowKey))
	}
	return nil
}

// Abort discards any pending row and refuses further input. Aborting is never a commit.
func (a *Assembler) Abort() {
	a.clearRow()
	a.state = Aborted
	a.err = nil
}

func (a *Assembler) usable() error {
	switch a.state {
	case Aborted:
		return litetable.NewError(litetable.ErrStreamAborted, "assembler no longer accepts input")
	case Failed:
		return a.err
	}
	return nil
}

func (a *Assembler) fail(err error) error {
	a.clearRow()
	a.state = Failed
	a.err = err
	return err
}

func (a *Assembler) startRow(c *litetable.CellChunk) error {
	if c.ResetRow {
		return litetable.NewError(litetable.ErrMalformedChunk, "a new row cannot be reset")
	}
	if len(c.RowKey) == 0 {
		return litetable.NewError(litetable.ErrMalformedChunk, "a new row must carry a row key")
	}
	if a.lastKey != nil && bytes.Compare(c.RowKey, a.lastKey) <= 0 {
		return litetable.NewError(litetable.ErrOrderViolation,
			"row key %q does not sort after %q", c.RowKey, a.lastKey)
	}
	if c.FamilyName == nil {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"the first chunk of row %q must carry a family", c.RowKey)
	}
	if c.Qualifier == nil {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"the first chunk of row %q must carry a qualifier", c.RowKey)
	}

	a.rowKey = bytes.Clone(c.RowKey)
	return a.beginCell(c)
}

func (a *Assembler) continueRow(c *litetable.CellChunk) error {
	if c.ResetRow {
		return a.reset(c)
	}
	if len(c.RowKey) > 0 && !bytes.Equal(c.RowKey, a.rowKey) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"row key %q arrived before row %q was committed", c.RowKey, a.rowKey)
	}
	return a.beginCell(c)
}

func (a *Assembler) continueCell(c *litetable.CellChunk) error {
	if c.ResetRow {
		return a.reset(c)
	}
	if len(c.RowKey) > 0 && !bytes.Equal(c.RowKey, a.rowKey) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"row key %q arrived while a value of row %q was incomplete", c.RowKey, a.rowKey)
	}
	if c.FamilyName != nil && *c.FamilyName != a.family {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"family %q arrived while a value in family %q was incomplete", *c.FamilyName, a.family)
	}
	if c.Qualifier != nil && !bytes.Equal(*c.Qualifier, a.qualifier) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"qualifier %q arrived while a value of column %q was incomplete", *c.Qualifier,
			a.qualifier)
	}
	if c.TimestampMicros != 0 && c.TimestampMicros != a.timestamp {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"timestamp changed from %d to %d within a cell", a.timestamp, c.TimestampMicros)
	}
	if len(c.Labels) > 0 && !slices.Equal(c.Labels, a.labels) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"labels changed from %v to %v within a cell", a.labels, c.Labels)
	}
	if c.ValueSize > 0 && c.ValueSize != a.valueSize {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"value size changed from %d to %d within a cell", a.valueSize, c.ValueSize)
	}

	if err := a.appendValue(c.Value); err != nil {
		return err
	}
	if c.ValueSize > 0 {
		return nil
	}
	if len(a.value) != int(a.valueSize) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"value of %d bytes does not match declared size %d", len(a.value), a.valueSize)
	}
	a.finishCell()
	return nil
}

// beginCell starts a new cell at the location named by the chunk, inheriting the family and
// qualifier when they are absent.
func (a *Assembler) beginCell(c *litetable.CellChunk) error {
	family := a.family
	qualifier := a.qualifier
	if c.FamilyName != nil {
		if *c.FamilyName == "" {
			return litetable.NewError(litetable.ErrMalformedChunk, "family name must not be empty")
		}
		if c.Qualifier == nil {
			return litetable.NewError(litetable.ErrMalformedChunk,
				"family %q must be accompanied by a qualifier", *c.FamilyName)
		}
		family = *c.FamilyName
	}
	if c.Qualifier != nil {
		if family == "" {
			return litetable.NewError(litetable.ErrMalformedChunk, "qualifier without a family")
		}
		qualifier = *c.Qualifier
	}

	next := litetable.RowCell{
		Family:    family,
		Qualifier: qualifier,
		Cell:      litetable.Cell{TimestampMicros: c.TimestampMicros},
	}
	if n := len(a.cells); n > 0 {
		if litetable.CompareCells(&a.cells[n-1], &next) > 0 {
			return litetable.NewError(litetable.ErrOrderViolation,
				"cell %s:%q@%d sorts before %s:%q@%d", family, qualifier, c.TimestampMicros,
				a.cells[n-1].Family, a.cells[n-1].Qualifier, a.cells[n-1].TimestampMicros)
		}
	}

	a.family = family
	a.qualifier = bytes.Clone(qualifier)
	a.timestamp = c.TimestampMicros
	a.labels = slices.Clone(c.Labels)
	a.valueSize = c.ValueSize

	if c.ValueSize > 0 {
		a.value = make([]byte, 0, min(int(c.ValueSize), maxPrealloc))
		if err := a.appendValue(c.Value); err != nil {
			return err
		}
		a.state = InCell
		return nil
	}

	a.value = bytes.Clone(c.Value)
	a.finishCell()
	return nil
}

func (a *Assembler) appendValue(v []byte) error {
	if a.valueSize > 0 && len(a.value)+len(v) > int(a.valueSize) {
		return litetable.NewError(litetable.ErrMalformedChunk,
			"value exceeds declared size %d", a.valueSize)
	}
	a.value = append(a.value, v...)
	return nil
}

func (a *Assembler) finishCell() {
	a.cells = append(a.cells, litetable.RowCell{
		Family:    a.family,
		Qualifier: a.qualifier,
		Cell: litetable.Cell{
			TimestampMicros: a.timestamp,
			Value:           a.value,
			Labels:          a.labels,
		},
	})
	a.value = nil
	a.valueSize = 0
	a.state = InRow
}

func (a *Assembler) reset(c *litetable.CellChunk) error {
	if c.HasCellData() {
		return litetable.NewError(litetable.ErrMalformedChunk, "a reset must carry no data")
	}
	a.clearRow()
	a.state = AwaitingRow
	return nil
}

func (a *Assembler) commit() *litetable.Row {
	row := litetable.NewRow(a.rowKey, a.cells)
	a.advance(a.rowKey)
	a.clearRow()
	a.state = AwaitingRow
	return row
}

func (a *Assembler) advance(key []byte) {
	if a.lastKey == nil || bytes.Compare(key, a.lastKey) > 0 {
		a.lastKey = bytes.Clone(key)
	}
}

func (a *Assembler) clearRow() {
	a.rowKey = nil
	a.family = ""
	a.qualifier = nil
	a.timestamp = 0
	a.labels = nil
	a.value = nil
	a.valueSize = 0
	a.cells = nil
}
