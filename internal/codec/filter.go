package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

func invalidFilter(format string, args ...interface{}) error {
	return litetable.NewError(litetable.ErrInvalidFilterTree, format, args...)
}

// FilterFromProto converts a wire filter tree. A nil filter converts to nil. A filter with no
// variant set, or a boolean variant set to false, is rejected.
func FilterFromProto(f *btpb.RowFilter) (filter.Filter, error) {
	if f == nil {
		return nil, nil
	}
	return filterFromProto(f)
}

func filterFromProto(f *btpb.RowFilter) (filter.Filter, error) {
	if f == nil {
		return nil, invalidFilter("missing sub-filter")
	}

	switch v := f.Filter.(type) {
	case *btpb.RowFilter_Chain_:
		subs, err := filtersFromProto(v.Chain.GetFilters())
		if err != nil {
			return nil, err
		}
		return &filter.Chain{Filters: subs}, nil
	case *btpb.RowFilter_Interleave_:
		subs, err := filtersFromProto(v.Interleave.GetFilters())
		if err != nil {
			return nil, err
		}
		return &filter.Interleave{Filters: subs}, nil
	case *btpb.RowFilter_Condition_:
		return conditionFromProto(v.Condition)
	case *btpb.RowFilter_Sink:
		if !v.Sink {
			return nil, invalidFilter("sink must be true when set")
		}
		return &filter.Sink{}, nil
	case *btpb.RowFilter_PassAllFilter:
		if !v.PassAllFilter {
			return nil, invalidFilter("pass_all_filter must be true when set")
		}
		return &filter.PassAll{}, nil
	case *btpb.RowFilter_BlockAllFilter:
		if !v.BlockAllFilter {
			return nil, invalidFilter("block_all_filter must be true when set")
		}
		return &filter.BlockAll{}, nil
	case *btpb.RowFilter_RowKeyRegexFilter:
		return &filter.RowKeyRegex{Pattern: v.RowKeyRegexFilter}, nil
	case *btpb.RowFilter_RowSampleFilter:
		return &filter.RowSample{Probability: v.RowSampleFilter}, nil
	case *btpb.RowFilter_FamilyNameRegexFilter:
		return &filter.FamilyNameRegex{Pattern: v.FamilyNameRegexFilter}, nil
	case *btpb.RowFilter_ColumnQualifierRegexFilter:
		return &filter.QualifierRegex{Pattern: v.ColumnQualifierRegexFilter}, nil
	case *btpb.RowFilter_ColumnRangeFilter:
		return &filter.ColumnRange{
			Family: v.ColumnRangeFilter.GetFamilyName(),
			Range:  columnRangeFromProto(v.ColumnRangeFilter),
		}, nil
	case *btpb.RowFilter_TimestampRangeFilter:
		return &filter.TimestampRange{Range: timestampRangeFromProto(v.TimestampRangeFilter)}, nil
	case *btpb.RowFilter_ValueRegexFilter:
		return &filter.ValueRegex{Pattern: v.ValueRegexFilter}, nil
	case *btpb.RowFilter_ValueRangeFilter:
		return &filter.ValueRange{Range: valueRangeFromProto(v.ValueRangeFilter)}, nil
	case *btpb.RowFilter_CellsPerRowOffsetFilter:
		return &filter.CellsPerRowOffset{N: v.CellsPerRowOffsetFilter}, nil
	case *btpb.RowFilter_CellsPerRowLimitFilter:
		return &filter.CellsPerRowLimit{N: v.CellsPerRowLimitFilter}, nil
	case *btpb.RowFilter_CellsPerColumnLimitFilter:
		return &filter.CellsPerColumnLimit{N: v.CellsPerColumnLimitFilter}, nil
	case *btpb.RowFilter_StripValueTransformer:
		if !v.StripValueTransformer {
			return nil, invalidFilter("strip_value_transformer must be true when set")
		}
		return &filter.StripValue{}, nil
	case *btpb.RowFilter_ApplyLabelTransformer:
		return &filter.ApplyLabel{Label: v.ApplyLabelTransformer}, nil
	case nil:
		return nil, invalidFilter("row filter has no variant set")
	}
	return nil, invalidFilter("unsupported row filter %T", f.Filter)
}

func filtersFromProto(fs []*btpb.RowFilter) ([]filter.Filter, error) {
	out := make([]filter.Filter, 0, len(fs))
	for _, f := range fs {
		sub, err := filterFromProto(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func conditionFromProto(c *btpb.RowFilter_Condition) (filter.Filter, error) {
	pred, err := filterFromProto(c.GetPredicateFilter())
	if err != nil {
		return nil, err
	}
	out := &filter.Condition{Predicate: pred}
	if c.GetTrueFilter() != nil {
		if out.True, err = filterFromProto(c.GetTrueFilter()); err != nil {
			return nil, err
		}
	}
	if c.GetFalseFilter() != nil {
		if out.False, err = filterFromProto(c.GetFalseFilter()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FilterToProto converts a filter tree to its wire form. A nil filter converts to nil.
func FilterToProto(f filter.Filter) (*btpb.RowFilter, error) {
	if f == nil {
		return nil, nil
	}
	return filterToProto(f)
}

func filterToProto(f filter.Filter) (*btpb.RowFilter, error) {
	switch f := f.(type) {
	case *filter.Chain:
		subs, err := filtersToProto(f.Filters)
		if err != nil {
			return nil, err
		}
		return &btpb.RowFilter{Filter: &btpb.RowFilter_Chain_{
			Chain: &btpb.RowFilter_Chain{Filters: subs},
		}}, nil
	case *filter.Interleave:
		subs, err := filtersToProto(f.Filters)
		if err != nil {
			return nil, err
		}
		return &btpb.RowFilter{Filter: &btpb.RowFilter_Interleave_{
			Interleave: &btpb.RowFilter_Interleave{Filters: subs},
		}}, nil
	case *filter.Condition:
		cond := &btpb.RowFilter_Condition{}
		var err error
		if cond.PredicateFilter, err = filterToProto(f.Predicate); err != nil {
			return nil, err
		}
		if f.True != nil {
			if cond.TrueFilter, err = filterToProto(f.True); err != nil {
				return nil, err
			}
		}
		if f.False != nil {
			if cond.FalseFilter, err = filterToProto(f.False); err != nil {
				return nil, err
			}
		}
		return &btpb.RowFilter{Filter: &btpb.RowFilter_Condition_{Condition: cond}}, nil
	case *filter.Sink:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_Sink{Sink: true}}, nil
	case *filter.PassAll:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_PassAllFilter{PassAllFilter: true}}, nil
	case *filter.BlockAll:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_BlockAllFilter{BlockAllFilter: true}}, nil
	case *filter.RowKeyRegex:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_RowKeyRegexFilter{RowKeyRegexFilter: f.Pattern}}, nil
	case *filter.RowSample:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_RowSampleFilter{RowSampleFilter: f.Probability}}, nil
	case *filter.FamilyNameRegex:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_FamilyNameRegexFilter{
			FamilyNameRegexFilter: f.Pattern,
		}}, nil
	case *filter.QualifierRegex:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_ColumnQualifierRegexFilter{
			ColumnQualifierRegexFilter: f.Pattern,
		}}, nil
	case *filter.ColumnRange:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_ColumnRangeFilter{
			ColumnRangeFilter: columnRangeToProto(f.Family, f.Range),
		}}, nil
	case *filter.TimestampRange:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_TimestampRangeFilter{
			TimestampRangeFilter: timestampRangeToProto(f.Range),
		}}, nil
	case *filter.ValueRegex:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_ValueRegexFilter{ValueRegexFilter: f.Pattern}}, nil
	case *filter.ValueRange:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_ValueRangeFilter{
			ValueRangeFilter: valueRangeToProto(f.Range),
		}}, nil
	case *filter.CellsPerRowOffset:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_CellsPerRowOffsetFilter{
			CellsPerRowOffsetFilter: f.N,
		}}, nil
	case *filter.CellsPerRowLimit:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_CellsPerRowLimitFilter{
			CellsPerRowLimitFilter: f.N,
		}}, nil
	case *filter.CellsPerColumnLimit:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_CellsPerColumnLimitFilter{
			CellsPerColumnLimitFilter: f.N,
		}}, nil
	case *filter.StripValue:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_StripValueTransformer{StripValueTransformer: true}}, nil
	case *filter.ApplyLabel:
		return &btpb.RowFilter{Filter: &btpb.RowFilter_ApplyLabelTransformer{
			ApplyLabelTransformer: f.Label,
		}}, nil
	case nil:
		return nil, invalidFilter("missing sub-filter")
	}
	return nil, invalidFilter("unsupported filter %T", f)
}

func filtersToProto(fs []filter.Filter) ([]*btpb.RowFilter, error) {
	out := make([]*btpb.RowFilter, 0, len(fs))
	for _, f := range fs {
		pf, err := filterToProto(f)
		if err != nil {
			return nil, err
		}
		out = append(out, pf)
	}
	return out, nil
}

func columnRangeFromProto(r *btpb.ColumnRange) litetable.ByteRange {
	var out litetable.ByteRange
	switch s := r.GetStartQualifier().(type) {
	case *btpb.ColumnRange_StartQualifierClosed:
		out.Start = litetable.ClosedBound(s.StartQualifierClosed)
	case *btpb.ColumnRange_StartQualifierOpen:
		out.Start = litetable.OpenBound(s.StartQualifierOpen)
	}
	switch e := r.GetEndQualifier().(type) {
	case *btpb.ColumnRange_EndQualifierClosed:
		out.End = litetable.ClosedBound(e.EndQualifierClosed)
	case *btpb.ColumnRange_EndQualifierOpen:
		out.End = litetable.OpenBound(e.EndQualifierOpen)
	}
	return out
}

func columnRangeToProto(family string, r litetable.ByteRange) *btpb.ColumnRange {
	out := &btpb.ColumnRange{FamilyName: family}
	switch r.Start.Kind {
	case litetable.Closed:
		out.StartQualifier = &btpb.ColumnRange_StartQualifierClosed{StartQualifierClosed: r.Start.Value}
	case litetable.Open:
		out.StartQualifier = &btpb.ColumnRange_StartQualifierOpen{StartQualifierOpen: r.Start.Value}
	}
	switch r.End.Kind {
	case litetable.Closed:
		out.EndQualifier = &btpb.ColumnRange_EndQualifierClosed{EndQualifierClosed: r.End.Value}
	case litetable.Open:
		out.EndQualifier = &btpb.ColumnRange_EndQualifierOpen{EndQualifierOpen: r.End.Value}
	}
	return out
}

func valueRangeFromProto(r *btpb.ValueRange) litetable.ByteRange {
	var out litetable.ByteRange
	switch s := r.GetStartValue().(type) {
	case *btpb.ValueRange_StartValueClosed:
		out.Start = litetable.ClosedBound(s.StartValueClosed)
	case *btpb.ValueRange_StartValueOpen:
		out.Start = litetable.OpenBound(s.StartValueOpen)
	}
	switch e := r.GetEndValue().(type) {
	case *btpb.ValueRange_EndValueClosed:
		out.End = litetable.ClosedBound(e.EndValueClosed)
	case *btpb.ValueRange_EndValueOpen:
		out.End = litetable.OpenBound(e.EndValueOpen)
	}
	return out
}

func valueRangeToProto(r litetable.ByteRange) *btpb.ValueRange {
	out := &btpb.ValueRange{}
	switch r.Start.Kind {
	case litetable.Closed:
		out.StartValue = &btpb.ValueRange_StartValueClosed{StartValueClosed: r.Start.Value}
	case litetable.Open:
		out.StartValue = &btpb.ValueRange_StartValueOpen{StartValueOpen: r.Start.Value}
	}
	switch r.End.Kind {
	case litetable.Closed:
		out.EndValue = &btpb.ValueRange_EndValueClosed{EndValueClosed: r.End.Value}
	case litetable.Open:
		out.EndValue = &btpb.ValueRange_EndValueOpen{EndValueOpen: r.End.Value}
	}
	return out
}

func timestampRangeFromProto(r *btpb.TimestampRange) litetable.TimestampRange {
	return litetable.TimestampRange{
		StartMicros: r.GetStartTimestampMicros(),
		EndMicros:   r.GetEndTimestampMicros(),
	}
}

func timestampRangeToProto(r litetable.TimestampRange) *btpb.TimestampRange {
	return &btpb.TimestampRange{
		StartTimestampMicros: r.StartMicros,
		EndTimestampMicros:   r.EndMicros,
	}
}
