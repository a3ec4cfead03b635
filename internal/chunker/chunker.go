// Package chunker splits rows into the chunk sequence a ReadRows stream carries.
package chunker

import (
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// DefaultMaxValueSize is the largest value slice placed in a single chunk.
const DefaultMaxValueSize = 1 << 20

// Options controls how a row is split.
type Options struct {
	// MaxValueSize caps the value bytes carried by one chunk. Zero means DefaultMaxValueSize.
	MaxValueSize int
	// RepeatSticky repeats the family and qualifier on every cell instead of omitting them when
	// unchanged. Both forms are valid on the wire.
	RepeatSticky bool
}

// Split returns the chunks for row. The row key and location fields are only set when they
// change (unless RepeatSticky is set), values larger than MaxValueSize are sliced with
// ValueSize carried on every slice but the last, and the last chunk commits the row.
//
// A row without cells produces no chunks.
func Split(row *litetable.Row, opts Options) []*litetable.CellChunk {
	maxSize := opts.MaxValueSize
	if maxSize <= 0 {
		maxSize = DefaultMaxValueSize
	}

	var (
		chunks   []*litetable.CellChunk
		lastFam  string
		lastQual []byte
		first    = true
	)

	for _, cell := range row.Cells() {
		head := &litetable.CellChunk{
			TimestampMicros: cell.TimestampMicros,
			Labels:          cell.Labels,
		}
		if first {
			head.RowKey = row.Key
		}
		if first || opts.RepeatSticky || cell.Family != lastFam {
			head.FamilyName = litetable.Ptr(cell.Family)
			head.Qualifier = litetable.Ptr(cell.Qualifier)
		} else if !bytes.Equal(cell.Qualifier, lastQual) {
			head.Qualifier = litetable.Ptr(cell.Qualifier)
		}
		first = false
		lastFam = cell.Family
		lastQual = cell.Qualifier

		if len(cell.Value) <= maxSize {
			head.Value = cell.Value
			chunks = append(chunks, head)
			continue
		}

		total := int32(len(cell.Value))
		head.Value = cell.Value[:maxSize]
		head.ValueSize = total
		chunks = append(chunks, head)

		for off := maxSize; off < len(cell.Value); off += maxSize {
			end := off + maxSize
			next := &litetable.CellChunk{}
			if end < len(cell.Value) {
				next.ValueSize = total
			} else {
				end = len(cell.Value)
			}
			next.Value = cell.Value[off:end]
			chunks = append(chunks, next)
		}
	}

	if len(chunks) > 0 {
		chunks[len(chunks)-1].CommitRow = true
	}
	return chunks
}

// ResetChunk returns a chunk that discards the row in progress.
func ResetChunk() *litetable.CellChunk {
	return &litetable.CellChunk{ResetRow: true}
}
