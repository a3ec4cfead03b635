package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// RowSetFromProto converts a wire row set. A nil set selects every row.
func RowSetFromProto(s *btpb.RowSet) litetable.RowSet {
	var out litetable.RowSet
	out.Keys = append(out.Keys, s.GetRowKeys()...)
	for _, r := range s.GetRowRanges() {
		out.Ranges = append(out.Ranges, RowRangeFromProto(r))
	}
	return out
}

// RowSetToProto converts a row set to its wire form.
func RowSetToProto(s litetable.RowSet) *btpb.RowSet {
	out := &btpb.RowSet{RowKeys: s.Keys}
	for _, r := range s.Ranges {
		out.RowRanges = append(out.RowRanges, RowRangeToProto(r))
	}
	return out
}

// RowRangeFromProto converts a wire row range. Missing bounds are unbounded, and so is an empty
// end key: no row key sorts below the empty one, so Bigtable reads it as the end of the table.
func RowRangeFromProto(r *btpb.RowRange) litetable.RowRange {
	var out litetable.RowRange
	switch s := r.GetStartKey().(type) {
	case *btpb.RowRange_StartKeyClosed:
		out.Start = litetable.ClosedBound(s.StartKeyClosed)
	case *btpb.RowRange_StartKeyOpen:
		out.Start = litetable.OpenBound(s.StartKeyOpen)
	}
	switch e := r.GetEndKey().(type) {
	case *btpb.RowRange_EndKeyClosed:
		if len(e.EndKeyClosed) > 0 {
			out.End = litetable.ClosedBound(e.EndKeyClosed)
		}
	case *btpb.RowRange_EndKeyOpen:
		if len(e.EndKeyOpen) > 0 {
			out.End = litetable.OpenBound(e.EndKeyOpen)
		}
	}
	return out
}

// RowRangeToProto converts a row range to its wire form.
func RowRangeToProto(r litetable.RowRange) *btpb.RowRange {
	out := &btpb.RowRange{}
	switch r.Start.Kind {
	case litetable.Closed:
		out.StartKey = &btpb.RowRange_StartKeyClosed{StartKeyClosed: r.Start.Value}
	case litetable.Open:
		out.StartKey = &btpb.RowRange_StartKeyOpen{StartKeyOpen: r.Start.Value}
	}
	switch r.End.Kind {
	case litetable.Closed:
		out.EndKey = &btpb.RowRange_EndKeyClosed{EndKeyClosed: r.End.Value}
	case litetable.Open:
		out.EndKey = &btpb.RowRange_EndKeyOpen{EndKeyOpen: r.End.Value}
	}
	return out
}
