package storage

import (
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// ReadRow returns the row at key, or nil when it has no cells.
func (m *Manager) ReadRow(tableName string, key []byte) (*litetable.Row, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	r, ok := t.rows.Get(&row{key: key})
	if !ok {
		return nil, nil
	}
	return r.snapshot(), nil
}

// Scan calls fn for every row selected by set, in key order, until fn returns false. An empty set
// selects every row.
//
// The rows are copied out under the read lock before fn is called, so fn may block without
// holding up writers.
func (m *Manager) Scan(tableName string, set litetable.RowSet, fn func(*litetable.Row) bool) error {
	if err := set.Validate(); err != nil {
		return err
	}

	rows, err := m.collect(tableName, set)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if !fn(r) {
			return nil
		}
	}
	return nil
}

func (m *Manager) collect(tableName string, set litetable.RowSet) ([]*litetable.Row, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, err
	}

	var out []*litetable.Row
	hi := upper(set)
	visit := func(r *row) bool {
		if !set.Contains(r.key) {
			// rows past the last selected key end the scan
			return hi == nil || bytes.Compare(r.key, hi) <= 0
		}
		out = append(out, r.snapshot())
		return true
	}

	if lo := lower(set); lo != nil {
		t.rows.AscendGreaterOrEqual(&row{key: lo}, visit)
	} else {
		t.rows.Ascend(visit)
	}
	return out, nil
}

// lower returns the smallest key the set may select, or nil when it is unbounded below.
func lower(set litetable.RowSet) []byte {
	if set.IsEmpty() {
		return nil
	}
	var lo []byte
	first := true
	consider := func(k []byte) {
		if first || bytes.Compare(k, lo) < 0 {
			lo = k
		}
		first = false
	}
	for _, k := range set.Keys {
		consider(k)
	}
	for _, r := range set.Ranges {
		if r.Start.IsUnbounded() || len(r.Start.Value) == 0 {
			return nil
		}
		consider(r.Start.Value)
	}
	return lo
}

// upper returns the greatest key the set may select, or nil when it is unbounded above.
func upper(set litetable.RowSet) []byte {
	if set.IsEmpty() {
		return nil
	}
	var hi []byte
	for _, r := range set.Ranges {
		if r.End.IsUnbounded() {
			return nil
		}
		if bytes.Compare(r.End.Value, hi) > 0 {
			hi = r.End.Value
		}
	}
	for _, k := range set.Keys {
		if bytes.Compare(k, hi) > 0 {
			hi = k
		}
	}
	return hi
}
