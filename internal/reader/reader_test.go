package reader

import (
	"context"
	"errors"
	"github.com/litetable/litetable-bigtable/internal/chunker"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"io"
	"testing"
)

func testRow(key string) *litetable.Row {
	return &litetable.Row{
		Key: []byte(key),
		Families: []litetable.Family{{
			Name: "cf",
			Columns: []litetable.Column{{
				Qualifier: []byte("q"),
				Cells:     []litetable.Cell{{TimestampMicros: 1000, Value: []byte("value-" + key)}},
			}},
		}},
	}
}

func chunksFor(rows ...*litetable.Row) []*litetable.CellChunk {
	var out []*litetable.CellChunk
	for _, r := range rows {
		out = append(out, chunker.Split(r, chunker.Options{MaxValueSize: 4})...)
	}
	return out
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := map[string]struct {
		cfg   *Config
		error string
	}{
		"invalid config": {
			cfg:   &Config{RowsLimit: -1},
			error: "source required\nrows limit must not be negative",
		},
		"invalid row set": {
			cfg: &Config{Source: NewMockSource(ctrl), RowSet: litetable.RowSet{Ranges: []litetable.RowRange{{
				Start: litetable.ClosedBound([]byte("z")),
				End:   litetable.ClosedBound([]byte("a")),
			}}}},
			error: `invalid row set: start "z" sorts after end "a"`,
		},
		"valid config": {
			cfg: &Config{Source: NewMockSource(ctrl)},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := New(test.cfg)
			if test.error != "" {
				req.Error(err)
				req.Nil(got)
				req.Equal(test.error, err.Error())
				return
			}
			req.NoError(err)
			req.NotNil(got)
		})
	}
}

func TestStream_Next(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chunks := chunksFor(testRow("a"), testRow("b"))
	src := NewMockSource(ctrl)
	gomock.InOrder(
		// the first row is split across frames
		src.EXPECT().Recv().Return(&litetable.ReadRowsResponse{Chunks: chunks[:1]}, nil),
		src.EXPECT().Recv().Return(&litetable.ReadRowsResponse{
			Chunks:            chunks[1:],
			LastScannedRowKey: []byte("m"),
		}, nil),
		src.EXPECT().Recv().Return(nil, io.EOF),
	)

	s, err := New(&Config{Source: src})
	req.NoError(err)

	ctx := context.Background()
	ev, err := s.Next(ctx)
	req.NoError(err)
	req.Equal(testRow("a"), ev.Row)

	ev, err = s.Next(ctx)
	req.NoError(err)
	req.Equal(testRow("b"), ev.Row)

	ev, err = s.Next(ctx)
	req.NoError(err)
	req.Nil(ev.Row)
	req.Equal([]byte("m"), ev.ScannedPast)
	req.Equal([]byte("m"), s.LastRowKey())

	_, err = s.Next(ctx)
	req.ErrorIs(err, io.EOF)
	_, err = s.Next(ctx)
	req.ErrorIs(err, io.EOF)

	set, limit, ok := s.Resume()
	req.True(ok)
	req.Zero(limit)
	req.Equal(litetable.RowSet{Ranges: []litetable.RowRange{{Start: litetable.OpenBound([]byte("m"))}}}, set)
}

func TestStream_Errors(t *testing.T) {
	t.Parallel()

	partial := chunksFor(testRow("a"))
	partial = partial[:len(partial)-1]

	tests := map[string]struct {
		frames  []*litetable.ReadRowsResponse
		recvErr error
		wantErr error
	}{
		"stream ends mid row": {
			frames:  []*litetable.ReadRowsResponse{{Chunks: partial}},
			recvErr: io.EOF,
			wantErr: litetable.ErrIncompleteStream,
		},
		"transport failure": {
			frames:  []*litetable.ReadRowsResponse{{Chunks: partial}},
			recvErr: assert.AnError,
			wantErr: assert.AnError,
		},
		"malformed chunk": {
			frames: []*litetable.ReadRowsResponse{{Chunks: []*litetable.CellChunk{
				{RowKey: []byte("a"), FamilyName: litetable.Ptr("cf"), Qualifier: litetable.Ptr([]byte("q")),
					ResetRow: true, CommitRow: true},
			}}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"scanned marker goes backwards": {
			frames: []*litetable.ReadRowsResponse{
				{Chunks: chunksFor(testRow("k"))},
				{LastScannedRowKey: []byte("c")},
			},
			recvErr: io.EOF,
			wantErr: litetable.ErrOrderViolation,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			req := require.New(t)
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			src := NewMockSource(ctrl)
			var prev *gomock.Call
			for _, f := range tc.frames {
				call := src.EXPECT().Recv().Return(f, nil)
				if prev != nil {
					call.After(prev)
				}
				prev = call
			}
			if tc.recvErr != nil {
				src.EXPECT().Recv().Return(nil, tc.recvErr).MaxTimes(1).After(prev)
			}

			s, err := New(&Config{Source: src})
			req.NoError(err)

			rows, err := s.ReadAll(context.Background())
			req.ErrorIs(err, tc.wantErr)
			for _, r := range rows {
				req.Equal(testRow(string(r.Key)), r)
			}

			// the error is final
			_, again := s.Next(context.Background())
			req.Equal(err, again)
		})
	}
}

func TestStream_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancelled before reading", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		s, err := New(&Config{Source: NewMockSource(ctrl)})
		req.NoError(err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = s.Next(ctx)
		req.ErrorIs(err, litetable.ErrStreamAborted)
		req.ErrorIs(err, context.Canceled)
	})

	t.Run("cancelled mid row", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		all := chunksFor(testRow("a"))
		src := NewMockSource(ctrl)
		src.EXPECT().Recv().DoAndReturn(func() (*litetable.ReadRowsResponse, error) {
			cancel()
			return &litetable.ReadRowsResponse{Chunks: all[:1]}, nil
		})

		s, err := New(&Config{Source: src})
		req.NoError(err)

		ev, err := s.Next(ctx)
		req.Nil(ev.Row)
		req.ErrorIs(err, litetable.ErrStreamAborted)
	})

	t.Run("close calls cancel", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cancelled := false
		s, err := New(&Config{Source: NewMockSource(ctrl), Cancel: func() { cancelled = true }})
		req.NoError(err)

		s.Close()
		req.True(cancelled)
		_, err = s.Next(context.Background())
		req.ErrorIs(err, litetable.ErrStreamAborted)
	})
}

func TestStream_LimitAndFilter(t *testing.T) {
	t.Parallel()

	t.Run("rows limit", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		src := NewMockSource(ctrl)
		src.EXPECT().Recv().Return(&litetable.ReadRowsResponse{
			Chunks: chunksFor(testRow("a"), testRow("b"), testRow("c")),
		}, nil)

		s, err := New(&Config{Source: src, RowsLimit: 2})
		req.NoError(err)

		rows, err := s.ReadAll(context.Background())
		req.NoError(err)
		req.Len(rows, 2)
		req.Equal([]byte("b"), rows[1].Key)

		_, _, ok := s.Resume()
		req.False(ok)
	})

	t.Run("resume carries the remaining limit", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		src := NewMockSource(ctrl)
		gomock.InOrder(
			src.EXPECT().Recv().Return(&litetable.ReadRowsResponse{Chunks: chunksFor(testRow("b"))}, nil),
			src.EXPECT().Recv().Return(nil, assert.AnError),
		)

		set := litetable.RowSet{
			Keys:   [][]byte{[]byte("a"), []byte("z")},
			Ranges: []litetable.RowRange{{Start: litetable.ClosedBound([]byte("b")), End: litetable.OpenBound([]byte("d"))}},
		}
		s, err := New(&Config{Source: src, RowsLimit: 5, RowSet: set})
		req.NoError(err)

		rows, err := s.ReadAll(context.Background())
		req.ErrorIs(err, assert.AnError)
		req.Len(rows, 1)

		next, limit, ok := s.Resume()
		req.True(ok)
		req.Equal(int64(4), limit)
		req.Equal(litetable.RowSet{
			Keys:   [][]byte{[]byte("z")},
			Ranges: []litetable.RowRange{{Start: litetable.OpenBound([]byte("b")), End: litetable.OpenBound([]byte("d"))}},
		}, next)
	})

	t.Run("client side filter", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		src := NewMockSource(ctrl)
		gomock.InOrder(
			src.EXPECT().Recv().Return(&litetable.ReadRowsResponse{
				Chunks: chunksFor(testRow("a"), testRow("b"), testRow("c")),
			}, nil),
			src.EXPECT().Recv().Return(nil, io.EOF),
		)

		prog, err := filter.Compile(&filter.ValueRegex{Pattern: []byte("-[ac]$")})
		req.NoError(err)

		s, err := New(&Config{Source: src, Filter: prog})
		req.NoError(err)

		rows, err := s.ReadAll(context.Background())
		req.NoError(err)
		req.Len(rows, 2)
		req.Equal(testRow("a"), rows[0])
		req.Equal(testRow("c"), rows[1])
		req.Equal([]byte("c"), s.LastRowKey())
	})
}

func TestStream_Empty(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := NewMockSource(ctrl)
	src.EXPECT().Recv().Return(nil, io.EOF)

	s, err := New(&Config{Source: src})
	require.NoError(t, err)
	_, err = s.Next(context.Background())
	require.True(t, errors.Is(err, io.EOF))
}
