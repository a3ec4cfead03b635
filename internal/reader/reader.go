// Package reader turns a stream of ReadRows response frames into rows.
package reader

import (
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/assembler"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/rs/zerolog/log"
	"io"
)

//go:generate mockgen -destination=./source_mock.go -package=reader -source=reader.go

// Source yields ReadRows response frames in order. It returns io.EOF once the stream has ended
// cleanly.
type Source interface {
	Recv() (*litetable.ReadRowsResponse, error)
}

// Event is one item produced by a Stream: either a committed row or a marker that the server
// scanned past ScannedPast without producing a row.
type Event struct {
	Row         *litetable.Row
	ScannedPast []byte
}

type Config struct {
	Source Source
	// RowSet is the set the read was issued for. It is used to compute the resumption set.
	RowSet litetable.RowSet
	// Filter is applied to every row on the client side. Optional.
	Filter *filter.Program
	// RowsLimit stops the stream after that many rows. Zero means no limit.
	RowsLimit int64
	// Cancel is called when the stream is closed. Optional.
	Cancel context.CancelFunc
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Source == nil {
		errGrp = append(errGrp, fmt.Errorf("source required"))
	}
	if c.RowsLimit < 0 {
		errGrp = append(errGrp, fmt.Errorf("rows limit must not be negative"))
	}
	if err := c.RowSet.Validate(); err != nil {
		errGrp = append(errGrp, err)
	}
	return errors.Join(errGrp...)
}

// Stream assembles the rows of a single read. It is not safe for concurrent use.
type Stream struct {
	src    Source
	asm    *assembler.Assembler
	filter *filter.Program
	rowSet litetable.RowSet
	limit  int64
	cancel context.CancelFunc

	// chunks of the current frame not yet pushed, and the frame's scanned marker
	pending []*litetable.CellChunk
	scanned []byte

	rows int64
	done bool
	err  error
}

// New returns a stream reading from cfg.Source.
func New(cfg *Config) (*Stream, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Stream{
		src:    cfg.Source,
		asm:    assembler.New(),
		filter: cfg.Filter,
		rowSet: cfg.RowSet,
		limit:  cfg.RowsLimit,
		cancel: cfg.Cancel,
	}, nil
}

// Next returns the next event. It returns io.EOF once the stream has ended cleanly or the rows
// limit was reached. Any other error is final and is returned again by later calls.
//
// Cancelling ctx aborts the stream: a partially received row is discarded, never returned.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	for {
		if s.err != nil {
			return Event{}, s.err
		}
		if s.done {
			return Event{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			s.abort(fmt.Errorf("%w: %w", litetable.ErrStreamAborted, err))
			return Event{}, s.err
		}
		if s.limit > 0 && s.rows >= s.limit {
			s.finish()
			return Event{}, io.EOF
		}

		if len(s.pending) > 0 {
			chunk := s.pending[0]
			s.pending = s.pending[1:]

			row, err := s.asm.Push(chunk)
			if err != nil {
				s.abort(err)
				return Event{}, err
			}
			if row == nil {
				continue
			}
			if row = s.filter.Apply(row); row == nil {
				continue
			}
			s.rows++
			return Event{Row: row}, nil
		}

		if s.scanned != nil {
			key := s.scanned
			s.scanned = nil
			if err := s.asm.ScannedPast(key); err != nil {
				s.abort(err)
				return Event{}, err
			}
			return Event{ScannedPast: key}, nil
		}

		resp, err := s.src.Recv()
		if errors.Is(err, io.EOF) {
			if err := s.asm.Finish(); err != nil {
				s.abort(err)
				return Event{}, err
			}
			s.finish()
			return Event{}, io.EOF
		}
		if err != nil {
			s.abort(err)
			return Event{}, err
		}

		s.pending = resp.Chunks
		if len(resp.LastScannedRowKey) > 0 {
			s.scanned = resp.LastScannedRowKey
		}
	}
}

// ReadAll drains the stream and returns every row.
func (s *Stream) ReadAll(ctx context.Context) ([]*litetable.Row, error) {
	var rows []*litetable.Row
	for {
		ev, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if ev.Row != nil {
			rows = append(rows, ev.Row)
		}
	}
}

// LastRowKey returns the greatest row key delivered or scanned past.
func (s *Stream) LastRowKey() []byte {
	return s.asm.LastRowKey()
}

// Resume returns the row set a new read should use to continue where this one stopped, and the
// rows limit it should carry. ok is false when nothing is left to read.
func (s *Stream) Resume() (set litetable.RowSet, rowsLimit int64, ok bool) {
	if s.limit > 0 {
		rowsLimit = s.limit - s.rows
		if rowsLimit <= 0 {
			return litetable.RowSet{}, 0, false
		}
	}
	set, ok = s.rowSet.Resume(s.asm.LastRowKey())
	return set, rowsLimit, ok
}

// Close releases the stream. Rows not yet returned are discarded.
func (s *Stream) Close() {
	if !s.done && s.err == nil {
		s.abort(litetable.NewError(litetable.ErrStreamAborted, "stream closed"))
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Stream) abort(err error) {
	s.asm.Abort()
	s.pending = nil
	s.scanned = nil
	s.err = err
	log.Debug().Err(err).Int64("rows", s.rows).Msg("read stream aborted")
}

func (s *Stream) finish() {
	s.done = true
	s.pending = nil
	s.scanned = nil
	log.Debug().Int64("rows", s.rows).Str("lastKey", string(s.asm.LastRowKey())).
		Msg("read stream finished")
}
