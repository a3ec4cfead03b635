// Package storage keeps emulated Bigtable tables in memory.
//
// Each table holds its rows in a B-tree ordered by row key. A row is stored as a flat list of
// cells in canonical order so it can be handed to the filter language and the chunker without
// conversion. Mutations to a single row are atomic.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/google/btree"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/rs/zerolog/log"
	"slices"
	"sort"
	"sync"
	"time"
)

// btreeDegree is the B-tree node fan-out used for every table.
const btreeDegree = 32

type row struct {
	key   []byte
	cells []litetable.RowCell
}

func rowLess(a, b *row) bool {
	return bytes.Compare(a.key, b.key) < 0
}

type table struct {
	name string
	// families maps each declared family to the number of versions kept per column, zero
	// meaning every version.
	families map[string]int
	rows     *btree.BTreeG[*row]
}

// TableConfig declares a table and its column families.
type TableConfig struct {
	Name        string
	Families    []string
	MaxVersions int
}

func (c *TableConfig) validate() error {
	var errGrp []error
	if c.Name == "" {
		errGrp = append(errGrp, fmt.Errorf("table name required"))
	}
	for _, f := range c.Families {
		if !litetable.ValidFamilyName(f) {
			errGrp = append(errGrp, fmt.Errorf("invalid family name %q", f))
		}
	}
	if c.MaxVersions < 0 {
		errGrp = append(errGrp, fmt.Errorf("max versions must not be negative"))
	}
	return errors.Join(errGrp...)
}

type Config struct {
	Tables []TableConfig
	// Clock supplies server timestamps. Defaults to time.Now.
	Clock func() time.Time
}

func (c *Config) validate() error {
	var errGrp []error
	seen := make(map[string]struct{}, len(c.Tables))
	for i := range c.Tables {
		if err := c.Tables[i].validate(); err != nil {
			errGrp = append(errGrp, fmt.Errorf("table %d: %w", i, err))
		}
		if _, ok := seen[c.Tables[i].Name]; ok {
			errGrp = append(errGrp, fmt.Errorf("duplicate table %q", c.Tables[i].Name))
		}
		seen[c.Tables[i].Name] = struct{}{}
	}
	return errors.Join(errGrp...)
}

// Manager owns every table.
type Manager struct {
	mutex  sync.RWMutex
	tables map[string]*table
	clock  func() time.Time
}

// New creates the configured tables.
func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		tables: make(map[string]*table, len(cfg.Tables)),
		clock:  cfg.Clock,
	}
	if m.clock == nil {
		m.clock = time.Now
	}

	for _, t := range cfg.Tables {
		if err := m.CreateTable(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CreateTable adds an empty table.
func (m *Manager) CreateTable(cfg TableConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.tables[cfg.Name]; ok {
		return litetable.NewError(litetable.ErrTableExists, "%s", cfg.Name)
	}

	t := &table{
		name:     cfg.Name,
		families: make(map[string]int, len(cfg.Families)),
		rows:     btree.NewG(btreeDegree, rowLess),
	}
	for _, f := range cfg.Families {
		t.families[f] = cfg.MaxVersions
	}
	m.tables[cfg.Name] = t

	log.Debug().Str("table", cfg.Name).Strs("families", cfg.Families).Msg("table created")
	return nil
}

// UpdateFamilies declares additional families on an existing table. Families that already exist
// are left untouched.
func (m *Manager) UpdateFamilies(tableName string, families []string, maxVersions int) error {
	for _, f := range families {
		if !litetable.ValidFamilyName(f) {
			return fmt.Errorf("invalid family name %q", f)
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return err
	}
	for _, f := range families {
		if _, ok := t.families[f]; !ok {
			t.families[f] = maxVersions
		}
	}
	return nil
}

// GetFamilies returns the families of a table in name order.
func (m *Manager) GetFamilies(tableName string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t.families))
	for f := range t.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// Tables returns the table names in order.
func (m *Manager) Tables() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]string, 0, len(m.tables))
	for name := range m.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RowCount returns the number of rows in a table.
func (m *Manager) RowCount(tableName string) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return 0, err
	}
	return t.rows.Len(), nil
}

// table must be called with the mutex held.
func (m *Manager) table(name string) (*table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, litetable.NewError(litetable.ErrTableNotFound, "%s", name)
	}
	return t, nil
}

// snapshot returns a row that shares no cell list with the store.
func (r *row) snapshot() *litetable.Row {
	return litetable.NewRow(bytes.Clone(r.key), slices.Clone(r.cells))
}
