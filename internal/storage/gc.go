package storage

import (
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// GarbageCollect drops the versions each family's policy no longer keeps and returns the number
// of cells removed.
func (m *Manager) GarbageCollect() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for _, t := range m.tables {
		removed += t.collect()
	}
	return removed
}

func (t *table) collect() int {
	bounded := false
	for _, limit := range t.families {
		if limit > 0 {
			bounded = true
			break
		}
	}
	if !bounded {
		return 0
	}

	removed := 0
	var replace []*row
	t.rows.Ascend(func(r *row) bool {
		kept := t.keepVersions(r.cells)
		if len(kept) != len(r.cells) {
			removed += len(r.cells) - len(kept)
			replace = append(replace, &row{key: r.key, cells: kept})
		}
		return true
	})

	// the tree must not be modified while it is being walked
	for _, r := range replace {
		t.rows.ReplaceOrInsert(r)
	}
	return removed
}

// keepVersions returns the cells that survive the version limits. Cells of a column are adjacent
// and newest first.
func (t *table) keepVersions(cells []litetable.RowCell) []litetable.RowCell {
	out := make([]litetable.RowCell, 0, len(cells))
	count := 0
	for i, c := range cells {
		if i == 0 || c.Family != cells[i-1].Family || !bytes.Equal(c.Qualifier, cells[i-1].Qualifier) {
			count = 0
		}
		count++
		if limit := t.families[c.Family]; limit > 0 && count > limit {
			continue
		}
		out = append(out, c)
	}
	return out
}
