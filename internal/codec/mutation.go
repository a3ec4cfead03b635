package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// MutationFromProto converts a single wire mutation.
func MutationFromProto(m *btpb.Mutation) (litetable.Mutation, error) {
	switch v := m.GetMutation().(type) {
	case *btpb.Mutation_SetCell_:
		return &litetable.SetCell{
			Family:          v.SetCell.GetFamilyName(),
			Qualifier:       v.SetCell.GetColumnQualifier(),
			TimestampMicros: v.SetCell.GetTimestampMicros(),
			Value:           v.SetCell.GetValue(),
		}, nil
	case *btpb.Mutation_DeleteFromColumn_:
		return &litetable.DeleteFromColumn{
			Family:    v.DeleteFromColumn.GetFamilyName(),
			Qualifier: v.DeleteFromColumn.GetColumnQualifier(),
			Range:     timestampRangeFromProto(v.DeleteFromColumn.GetTimeRange()),
		}, nil
	case *btpb.Mutation_DeleteFromFamily_:
		return &litetable.DeleteFromFamily{Family: v.DeleteFromFamily.GetFamilyName()}, nil
	case *btpb.Mutation_DeleteFromRow_:
		return &litetable.DeleteFromRow{}, nil
	case nil:
		return nil, litetable.NewError(litetable.ErrInvalidMutation, "mutation has no variant set")
	}
	return nil, litetable.NewError(litetable.ErrInvalidMutation, "unsupported mutation %T",
		m.GetMutation())
}

// MutationsFromProto converts a mutation list, stopping at the first unsupported entry.
func MutationsFromProto(ms []*btpb.Mutation) ([]litetable.Mutation, error) {
	out := make([]litetable.Mutation, 0, len(ms))
	for i, m := range ms {
		mut, err := MutationFromProto(m)
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
		out = append(out, mut)
	}
	return out, nil
}

// MutationToProto converts a mutation to its wire form.
func MutationToProto(m litetable.Mutation) (*btpb.Mutation, error) {
	switch m := m.(type) {
	case *litetable.SetCell:
		return &btpb.Mutation{Mutation: &btpb.Mutation_SetCell_{SetCell: &btpb.Mutation_SetCell{
			FamilyName:      m.Family,
			ColumnQualifier: m.Qualifier,
			TimestampMicros: m.TimestampMicros,
			Value:           m.Value,
		}}}, nil
	case *litetable.DeleteFromColumn:
		return &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromColumn_{
			DeleteFromColumn: &btpb.Mutation_DeleteFromColumn{
				FamilyName:      m.Family,
				ColumnQualifier: m.Qualifier,
				TimeRange:       timestampRangeToProto(m.Range),
			},
		}}, nil
	case *litetable.DeleteFromFamily:
		return &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromFamily_{
			DeleteFromFamily: &btpb.Mutation_DeleteFromFamily{FamilyName: m.Family},
		}}, nil
	case *litetable.DeleteFromRow:
		return &btpb.Mutation{Mutation: &btpb.Mutation_DeleteFromRow_{
			DeleteFromRow: &btpb.Mutation_DeleteFromRow{},
		}}, nil
	}
	return nil, litetable.NewError(litetable.ErrInvalidMutation, "unsupported mutation %T", m)
}

// MutationsToProto converts a mutation list to its wire form.
func MutationsToProto(ms []litetable.Mutation) ([]*btpb.Mutation, error) {
	out := make([]*btpb.Mutation, 0, len(ms))
	for _, m := range ms {
		pm, err := MutationToProto(m)
		if err != nil {
			return nil, err
		}
		out = append(out, pm)
	}
	return out, nil
}
