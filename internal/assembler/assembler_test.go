package assembler

import (
	"errors"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/chunker"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func fam(s string) *string { return litetable.Ptr(s) }

func qual(s string) *[]byte { return litetable.Ptr([]byte(s)) }

// feed pushes every chunk and collects committed rows. It stops at the first error.
func feed(a *Assembler, chunks ...*litetable.CellChunk) ([]*litetable.Row, error) {
	var rows []*litetable.Row
	for _, c := range chunks {
		row, err := a.Push(c)
		if err != nil {
			return rows, err
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	return rows, a.Finish()
}

func TestAssembler_SplitValue(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	a := New()
	rows, err := feed(a,
		&litetable.CellChunk{
			RowKey:          []byte("r1"),
			FamilyName:      fam("cf"),
			Qualifier:       qual("q1"),
			TimestampMicros: 100,
			Value:           []byte("ab"),
			ValueSize:       4,
		},
		&litetable.CellChunk{Value: []byte("cd"), CommitRow: true},
	)
	req.NoError(err)
	req.Len(rows, 1)

	req.Equal(&litetable.Row{
		Key: []byte("r1"),
		Families: []litetable.Family{{
			Name: "cf",
			Columns: []litetable.Column{{
				Qualifier: []byte("q1"),
				Cells:     []litetable.Cell{{TimestampMicros: 100, Value: []byte("abcd")}},
			}},
		}},
	}, rows[0])
	req.Equal(AwaitingRow, a.State())
	req.Equal([]byte("r1"), a.LastRowKey())
}

func TestAssembler_DeclaredSizeIsNotTrusted(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	a := New()
	_, err := a.Push(&litetable.CellChunk{
		RowKey:          []byte("r1"),
		FamilyName:      fam("cf"),
		Qualifier:       qual("q"),
		TimestampMicros: 100,
		Value:           []byte("a"),
		ValueSize:       math.MaxInt32,
	})
	req.NoError(err)
	req.Equal(InCell, a.State())
	req.LessOrEqual(cap(a.value), maxPrealloc)

	_, err = a.Push(&litetable.CellChunk{Value: []byte("b"), CommitRow: true})
	req.ErrorIs(err, litetable.ErrMalformedChunk)
	req.Equal(Failed, a.State())
}

func TestAssembler_StickyFields(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	omitted, err := feed(New(),
		&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("a"), Qualifier: qual("x"),
			TimestampMicros: 30, Value: []byte("1")},
		&litetable.CellChunk{TimestampMicros: 20, Value: []byte("2")},
		&litetable.CellChunk{Qualifier: qual("y"), TimestampMicros: 10, Value: []byte("3")},
		&litetable.CellChunk{FamilyName: fam("b"), Qualifier: qual("x"), TimestampMicros: 10,
			Value: []byte("4"), CommitRow: true},
	)
	req.NoError(err)

	explicit, err := feed(New(),
		&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("a"), Qualifier: qual("x"),
			TimestampMicros: 30, Value: []byte("1")},
		&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("a"), Qualifier: qual("x"),
			TimestampMicros: 20, Value: []byte("2")},
		&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("a"), Qualifier: qual("y"),
			TimestampMicros: 10, Value: []byte("3")},
		&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("b"), Qualifier: qual("x"),
			TimestampMicros: 10, Value: []byte("4"), CommitRow: true},
	)
	req.NoError(err)

	req.Equal(explicit, omitted)
	req.Len(omitted, 1)
	req.Len(omitted[0].Families, 2)
	req.Len(omitted[0].Families[0].Columns, 2)
	req.Len(omitted[0].Families[0].Columns[0].Cells, 2)
}

func TestAssembler_Reset(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	b := []*litetable.CellChunk{
		{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("b"), TimestampMicros: 5,
			Value: []byte("kept")},
		{Qualifier: qual("c"), Value: []byte("also"), CommitRow: true},
	}
	want, err := feed(New(), b...)
	req.NoError(err)

	t.Run("reset after complete cells", func(t *testing.T) {
		chunks := []*litetable.CellChunk{
			{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("a"), Value: []byte("gone")},
			{Qualifier: qual("z"), Value: []byte("gone too")},
			chunker.ResetChunk(),
		}
		got, err := feed(New(), append(chunks, b...)...)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("reset in the middle of a split value", func(t *testing.T) {
		chunks := []*litetable.CellChunk{
			{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("a"), Value: []byte("ab"),
				ValueSize: 10},
			chunker.ResetChunk(),
		}
		got, err := feed(New(), append(chunks, b...)...)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("reset does not advance the last key", func(t *testing.T) {
		a := New()
		_, err := a.Push(&litetable.CellChunk{RowKey: []byte("r9"), FamilyName: fam("cf"),
			Qualifier: qual("a")})
		require.NoError(t, err)
		_, err = a.Push(chunker.ResetChunk())
		require.NoError(t, err)
		require.Nil(t, a.LastRowKey())
		require.False(t, a.Pending())
	})
}

func TestAssembler_MultipleRows(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	rows, err := feed(New(),
		&litetable.CellChunk{RowKey: []byte("a"), FamilyName: fam("cf"), Qualifier: qual("q"),
			Value: []byte("1"), CommitRow: true},
		&litetable.CellChunk{RowKey: []byte("b"), FamilyName: fam("cf"), Qualifier: qual("q"),
			Value: []byte("2")},
		&litetable.CellChunk{RowKey: []byte("b"), Qualifier: qual("r"), Value: []byte("3"),
			CommitRow: true},
	)
	req.NoError(err)
	req.Len(rows, 2)
	req.Equal([]byte("a"), rows[0].Key)
	req.Equal([]byte("b"), rows[1].Key)
	req.Equal(2, rows[1].CellCount())
}

func TestAssembler_Errors(t *testing.T) {
	t.Parallel()
	row1 := &litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"),
		TimestampMicros: 10, Value: []byte("v")}
	commit := func(c litetable.CellChunk) *litetable.CellChunk {
		c.CommitRow = true
		return &c
	}

	tests := map[string]struct {
		chunks  []*litetable.CellChunk
		wantErr error
	}{
		"reset and commit on the same chunk": {
			chunks:  []*litetable.CellChunk{row1, {ResetRow: true, CommitRow: true}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"reset and commit on a new row": {
			chunks: []*litetable.CellChunk{{RowKey: []byte("r1"), FamilyName: fam("cf"),
				Qualifier: qual("q"), ResetRow: true, CommitRow: true}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"stream ends with pending row": {
			chunks:  []*litetable.CellChunk{row1},
			wantErr: litetable.ErrIncompleteStream,
		},
		"stream ends inside a split value": {
			chunks: []*litetable.CellChunk{{RowKey: []byte("r1"), FamilyName: fam("cf"),
				Qualifier: qual("q"), Value: []byte("a"), ValueSize: 2}},
			wantErr: litetable.ErrIncompleteStream,
		},
		"new row without key": {
			chunks:  []*litetable.CellChunk{{FamilyName: fam("cf"), Qualifier: qual("q")}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new row without family": {
			chunks:  []*litetable.CellChunk{{RowKey: []byte("r1"), Qualifier: qual("q")}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new row without qualifier": {
			chunks:  []*litetable.CellChunk{{RowKey: []byte("r1"), FamilyName: fam("cf")}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"reset before any row": {
			chunks:  []*litetable.CellChunk{chunker.ResetChunk()},
			wantErr: litetable.ErrMalformedChunk,
		},
		"reset carrying data": {
			chunks:  []*litetable.CellChunk{row1, {Value: []byte("x"), ResetRow: true}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"family without qualifier mid row": {
			chunks:  []*litetable.CellChunk{row1, {FamilyName: fam("dd")}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"commit with value size": {
			chunks:  []*litetable.CellChunk{row1, {Value: []byte("x"), ValueSize: 3, CommitRow: true}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new row key without commit": {
			chunks:  []*litetable.CellChunk{row1, {RowKey: []byte("r2"), FamilyName: fam("cf"), Qualifier: qual("q")}},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new family while value incomplete": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Value: []byte("a"), ValueSize: 2},
				{FamilyName: fam("zz"), Qualifier: qual("q"), Value: []byte("b")},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new qualifier while value incomplete": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Value: []byte("a"), ValueSize: 2},
				{Qualifier: qual("r"), Value: []byte("b")},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"new row key while value incomplete": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Value: []byte("a"), ValueSize: 2},
				{RowKey: []byte("r2"), Value: []byte("b")},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"labels change while value incomplete": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Labels: []string{"a"},
					Value: []byte("a"), ValueSize: 2},
				{Labels: []string{"b"}, Value: []byte("b")},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"value longer than declared": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Value: []byte("a"), ValueSize: 2},
				{Value: []byte("bc")},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"value shorter than declared": {
			chunks: []*litetable.CellChunk{
				{RowKey: []byte("r1"), FamilyName: fam("cf"), Qualifier: qual("q"), Value: []byte("a"), ValueSize: 3},
				{Value: []byte("b"), CommitRow: true},
			},
			wantErr: litetable.ErrMalformedChunk,
		},
		"row keys not increasing": {
			chunks:  []*litetable.CellChunk{commit(*row1), commit(*row1)},
			wantErr: litetable.ErrOrderViolation,
		},
		"row key decreasing": {
			chunks: []*litetable.CellChunk{commit(*row1), {RowKey: []byte("r0"), FamilyName: fam("cf"),
				Qualifier: qual("q"), CommitRow: true}},
			wantErr: litetable.ErrOrderViolation,
		},
		"qualifier decreasing": {
			chunks:  []*litetable.CellChunk{row1, {Qualifier: qual("a"), Value: []byte("v")}},
			wantErr: litetable.ErrOrderViolation,
		},
		"family decreasing": {
			chunks:  []*litetable.CellChunk{row1, {FamilyName: fam("aa"), Qualifier: qual("z")}},
			wantErr: litetable.ErrOrderViolation,
		},
		"timestamp increasing within a column": {
			chunks:  []*litetable.CellChunk{row1, {TimestampMicros: 11, Value: []byte("v")}},
			wantErr: litetable.ErrOrderViolation,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			a := New()
			_, err := feed(a, tc.chunks...)
			req.Error(err)
			req.True(errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
			req.Equal(Failed, a.State())
			req.False(a.Pending())

			// the failure is sticky
			_, err = a.Push(row1)
			req.True(errors.Is(err, tc.wantErr))
		})
	}
}

func TestAssembler_Abort(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	a := New()
	row, err := a.Push(&litetable.CellChunk{RowKey: []byte("r1"), FamilyName: fam("cf"),
		Qualifier: qual("q"), Value: []byte("partial"), ValueSize: 20})
	req.NoError(err)
	req.Nil(row)
	req.True(a.Pending())

	a.Abort()
	req.Equal(Aborted, a.State())
	req.False(a.Pending())

	row, err = a.Push(&litetable.CellChunk{Value: []byte("rest"), CommitRow: true})
	req.Nil(row)
	req.True(errors.Is(err, litetable.ErrStreamAborted))
	req.True(errors.Is(a.Finish(), litetable.ErrStreamAborted))
	req.True(errors.Is(a.ScannedPast([]byte("z")), litetable.ErrStreamAborted))
}

func TestAssembler_ScannedPast(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	a := New()
	req.NoError(a.ScannedPast(nil))
	req.NoError(a.ScannedPast([]byte("m")))
	req.Equal([]byte("m"), a.LastRowKey())

	_, err := a.Push(&litetable.CellChunk{RowKey: []byte("c"), FamilyName: fam("cf"),
		Qualifier: qual("q"), CommitRow: true})
	req.True(errors.Is(err, litetable.ErrOrderViolation))

	b := New()
	req.NoError(b.ScannedPast([]byte("m")))
	req.True(errors.Is(b.ScannedPast([]byte("a")), litetable.ErrOrderViolation))
}

func TestAssembler_RoundTrip(t *testing.T) {
	t.Parallel()

	bigValue := make([]byte, 1000)
	for i := range bigValue {
		bigValue[i] = byte(i)
	}

	rows := []*litetable.Row{
		{
			Key: []byte("row-a"),
			Families: []litetable.Family{
				{Name: "cf1", Columns: []litetable.Column{
					{Qualifier: []byte("q1"), Cells: []litetable.Cell{
						{TimestampMicros: 3000, Value: bigValue},
						{TimestampMicros: 2000, Value: []byte("mid")},
						{TimestampMicros: 1000, Value: []byte("old"), Labels: []string{"l1"}},
					}},
					{Qualifier: []byte("q2"), Cells: []litetable.Cell{{TimestampMicros: 1000, Value: []byte("x")}}},
				}},
				{Name: "cf2", Columns: []litetable.Column{
					{Qualifier: []byte("q1"), Cells: []litetable.Cell{{TimestampMicros: 5, Value: bigValue[:17]}}},
				}},
			},
		},
		{
			Key: []byte("row-b"),
			Families: []litetable.Family{
				{Name: "cf1", Columns: []litetable.Column{
					{Qualifier: []byte("\x00binary"), Cells: []litetable.Cell{{TimestampMicros: 1, Value: []byte("y")}}},
				}},
			},
		},
	}

	for _, maxSize := range []int{1, 3, 16, 999, 1000, 4096} {
		for _, repeat := range []bool{false, true} {
			t.Run(fmt.Sprintf("max value %d repeat sticky %t", maxSize, repeat), func(t *testing.T) {
				req := require.New(t)
				a := New()

				var got []*litetable.Row
				for _, row := range rows {
					chunks := chunker.Split(row, chunker.Options{MaxValueSize: maxSize, RepeatSticky: repeat})
					out, err := feed(a, chunks...)
					req.NoError(err)
					got = append(got, out...)
				}
				req.Equal(rows, got)
			})
		}
	}
}
