package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// RuleFromProto converts a single read-modify-write rule.
func RuleFromProto(r *btpb.ReadModifyWriteRule) (litetable.ReadModifyWriteRule, error) {
	switch v := r.GetRule().(type) {
	case *btpb.ReadModifyWriteRule_AppendValue:
		return &litetable.AppendValue{
			Family:    r.GetFamilyName(),
			Qualifier: r.GetColumnQualifier(),
			Value:     v.AppendValue,
		}, nil
	case *btpb.ReadModifyWriteRule_IncrementAmount:
		return &litetable.IncrementAmount{
			Family:    r.GetFamilyName(),
			Qualifier: r.GetColumnQualifier(),
			Amount:    v.IncrementAmount,
		}, nil
	case nil:
		return nil, litetable.NewError(litetable.ErrInvalidMutation, "rule has no variant set")
	}
	return nil, litetable.NewError(litetable.ErrInvalidMutation, "unsupported rule %T", r.GetRule())
}

// RulesFromProto converts a rule list, stopping at the first unsupported entry.
func RulesFromProto(rs []*btpb.ReadModifyWriteRule) ([]litetable.ReadModifyWriteRule, error) {
	out := make([]litetable.ReadModifyWriteRule, 0, len(rs))
	for i, r := range rs {
		rule, err := RuleFromProto(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

// RuleToProto converts a rule to its wire form.
func RuleToProto(r litetable.ReadModifyWriteRule) (*btpb.ReadModifyWriteRule, error) {
	switch r := r.(type) {
	case *litetable.AppendValue:
		return &btpb.ReadModifyWriteRule{
			FamilyName:      r.Family,
			ColumnQualifier: r.Qualifier,
			Rule:            &btpb.ReadModifyWriteRule_AppendValue{AppendValue: r.Value},
		}, nil
	case *litetable.IncrementAmount:
		return &btpb.ReadModifyWriteRule{
			FamilyName:      r.Family,
			ColumnQualifier: r.Qualifier,
			Rule:            &btpb.ReadModifyWriteRule_IncrementAmount{IncrementAmount: r.Amount},
		}, nil
	}
	return nil, litetable.NewError(litetable.ErrInvalidMutation, "unsupported rule %T", r)
}

// RulesToProto converts a rule list to its wire form.
func RulesToProto(rs []litetable.ReadModifyWriteRule) ([]*btpb.ReadModifyWriteRule, error) {
	out := make([]*btpb.ReadModifyWriteRule, 0, len(rs))
	for i, r := range rs {
		pr, err := RuleToProto(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, pr)
	}
	return out, nil
}
