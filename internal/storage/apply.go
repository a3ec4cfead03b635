package storage

import (
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"slices"
)

// Apply atomically applies muts to the row at key. Either every mutation is applied or none is.
//
// The returned list holds the mutations as applied: SetCell mutations that asked for a server
// timestamp carry the timestamp that was assigned.
func (m *Manager) Apply(tableName string, key []byte, muts []litetable.Mutation) ([]litetable.Mutation, error) {
	if len(key) == 0 {
		return nil, litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if err := litetable.ValidateMutations(muts); err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	return m.apply(t, key, muts)
}

// CheckAndApply evaluates predicate against the current contents of the row at key and applies
// trueMuts when at least one cell survives, falseMuts otherwise. A nil predicate matches any row
// that has cells. The check and the write happen atomically.
func (m *Manager) CheckAndApply(tableName string, key []byte, predicate *filter.Program,
	trueMuts, falseMuts []litetable.Mutation) (bool, []litetable.Mutation, error) {
	if len(key) == 0 {
		return false, nil, litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if len(trueMuts) == 0 && len(falseMuts) == 0 {
		return false, nil, litetable.NewError(litetable.ErrInvalidMutation,
			"no mutations provided for either branch")
	}
	for _, muts := range [][]litetable.Mutation{trueMuts, falseMuts} {
		if len(muts) == 0 {
			continue
		}
		if err := litetable.ValidateMutations(muts); err != nil {
			return false, nil, err
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return false, nil, err
	}

	matched := false
	if r, ok := t.rows.Get(&row{key: key}); ok {
		matched = predicate.Matches(r.snapshot())
	}

	muts := falseMuts
	if matched {
		muts = trueMuts
	}
	if len(muts) == 0 {
		return matched, nil, nil
	}

	applied, err := m.apply(t, key, muts)
	return matched, applied, err
}

// ReadModifyWrite applies rules in order to the latest cells of the row at key and returns a row
// holding only the cells written, together with the equivalent SetCell mutations. A later rule on
// the same column sees the result of an earlier one. Either every rule is applied or none is.
func (m *Manager) ReadModifyWrite(tableName string, key []byte,
	rules []litetable.ReadModifyWriteRule) (*litetable.Row, []litetable.Mutation, error) {
	if len(key) == 0 {
		return nil, nil, litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if err := litetable.ValidateRules(rules); err != nil {
		return nil, nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, nil, err
	}
	for i, r := range rules {
		family, _ := litetable.RuleColumn(r)
		if _, ok := t.families[family]; !ok {
			return nil, nil, litetable.NewError(litetable.ErrFamilyNotFound, "rule %d: %s in table %s",
				i, family, t.name)
		}
	}

	var cells []litetable.RowCell
	if existing, ok := t.rows.Get(&row{key: key}); ok {
		cells = slices.Clone(existing.cells)
	}

	now := m.clock().UnixMilli() * 1000
	applied := make([]litetable.Mutation, 0, len(rules))
	written := make([]litetable.RowCell, 0, len(rules))
	for _, r := range rules {
		family, qualifier := litetable.RuleColumn(r)

		ts := now
		var prev []byte
		if latest, ok := latestCell(cells, family, qualifier); ok {
			prev = latest.Value
			if prev == nil {
				prev = []byte{}
			}
			// a cell written with a future timestamp must stay the latest version
			ts = max(ts, latest.TimestampMicros)
		}

		value, err := litetable.ApplyRule(r, prev)
		if err != nil {
			return nil, nil, err
		}

		set := &litetable.SetCell{Family: family, Qualifier: bytes.Clone(qualifier), TimestampMicros: ts, Value: value}
		cells = applyMutation(cells, set)
		applied = append(applied, set)

		c := litetable.RowCell{Family: family, Qualifier: set.Qualifier,
			Cell: litetable.Cell{TimestampMicros: ts, Value: value}}
		written = slices.DeleteFunc(written, func(w litetable.RowCell) bool {
			return w.Family == family && bytes.Equal(w.Qualifier, qualifier)
		})
		written = append(written, c)
	}

	t.rows.ReplaceOrInsert(&row{key: bytes.Clone(key), cells: cells})

	slices.SortFunc(written, func(a, b litetable.RowCell) int {
		return litetable.CompareCells(&a, &b)
	})
	return litetable.NewRow(bytes.Clone(key), written), applied, nil
}

// latestCell returns the newest cell of a column. Cells are in canonical order, so it is the
// first one found.
func latestCell(cells []litetable.RowCell, family string, qualifier []byte) (litetable.Cell, bool) {
	for _, c := range cells {
		if c.Family == family && bytes.Equal(c.Qualifier, qualifier) {
			return c.Cell, true
		}
	}
	return litetable.Cell{}, false
}

// apply must be called with the write lock held.
func (m *Manager) apply(t *table, key []byte, muts []litetable.Mutation) ([]litetable.Mutation, error) {
	for i, mut := range muts {
		family := ""
		switch mut := mut.(type) {
		case *litetable.SetCell:
			family = mut.Family
		case *litetable.DeleteFromColumn:
			family = mut.Family
		case *litetable.DeleteFromFamily:
			family = mut.Family
		}
		if family == "" {
			continue
		}
		if _, ok := t.families[family]; !ok {
			return nil, litetable.NewError(litetable.ErrFamilyNotFound, "mutation %d: %s in table %s",
				i, family, t.name)
		}
	}

	var cells []litetable.RowCell
	existing, ok := t.rows.Get(&row{key: key})
	if ok {
		cells = slices.Clone(existing.cells)
	}

	// every server timestamp in one request is the same, at millisecond granularity
	now := m.clock().UnixMilli() * 1000

	applied := make([]litetable.Mutation, 0, len(muts))
	for _, mut := range muts {
		if set, ok := mut.(*litetable.SetCell); ok && set.TimestampMicros == litetable.ServerTimestamp {
			resolved := *set
			resolved.TimestampMicros = now
			mut = &resolved
		}
		cells = applyMutation(cells, mut)
		applied = append(applied, mut)
	}

	if len(cells) == 0 {
		t.rows.Delete(&row{key: key})
		return applied, nil
	}
	t.rows.ReplaceOrInsert(&row{key: bytes.Clone(key), cells: cells})
	return applied, nil
}

func applyMutation(cells []litetable.RowCell, mut litetable.Mutation) []litetable.RowCell {
	switch mut := mut.(type) {
	case *litetable.SetCell:
		c := litetable.RowCell{
			Family:    mut.Family,
			Qualifier: bytes.Clone(mut.Qualifier),
			Cell: litetable.Cell{
				TimestampMicros: mut.TimestampMicros,
				Value:           bytes.Clone(mut.Value),
			},
		}
		i, found := slices.BinarySearchFunc(cells, c, func(a, b litetable.RowCell) int {
			return litetable.CompareCells(&a, &b)
		})
		if found {
			cells[i] = c
			return cells
		}
		return slices.Insert(cells, i, c)

	case *litetable.DeleteFromColumn:
		return slices.DeleteFunc(cells, func(c litetable.RowCell) bool {
			return c.Family == mut.Family && bytes.Equal(c.Qualifier, mut.Qualifier) &&
				mut.Range.Contains(c.TimestampMicros)
		})

	case *litetable.DeleteFromFamily:
		return slices.DeleteFunc(cells, func(c litetable.RowCell) bool {
			return c.Family == mut.Family
		})

	case *litetable.DeleteFromRow:
		return nil
	}
	return cells
}
