package storage

import (
	"bytes"
	"fmt"
)

// KeySample is a row key with the approximate number of bytes stored in the rows before it.
type KeySample struct {
	Key         []byte
	OffsetBytes int64
}

// SampleKeys walks a table in key order and returns every stride-th row key and always the last
// one, so callers can split a scan into chunks of similar size. The total size of the table is
// returned alongside.
func (m *Manager) SampleKeys(tableName string, stride int) ([]KeySample, int64, error) {
	if stride <= 0 {
		return nil, 0, fmt.Errorf("sample stride must be greater than 0")
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, 0, err
	}

	var (
		out    []KeySample
		offset int64
		i      int
	)
	last := t.rows.Len() - 1
	t.rows.Ascend(func(r *row) bool {
		if (i+1)%stride == 0 || i == last {
			out = append(out, KeySample{Key: bytes.Clone(r.key), OffsetBytes: offset})
		}
		offset += r.size()
		i++
		return true
	})
	return out, offset, nil
}

// size approximates the bytes a row occupies: its key plus every cell's coordinates and value.
func (r *row) size() int64 {
	n := int64(len(r.key))
	for _, c := range r.cells {
		n += int64(len(c.Family) + len(c.Qualifier) + len(c.Value) + 8)
	}
	return n
}
