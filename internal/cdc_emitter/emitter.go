package cdc_emitter

import (
	"bytes"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/rs/zerolog/log"
	"time"
)

const (
	MutationSetCell          = "set_cell"
	MutationDeleteFromColumn = "delete_from_column"
	MutationDeleteFromFamily = "delete_from_family"
	MutationDeleteFromRow    = "delete_from_row"
)

// Event describes one mutation list applied atomically to a single row.
type Event struct {
	ID        string     `json:"id"`
	Table     string     `json:"table"`
	RowKey    []byte     `json:"row_key"`
	Mutations []Mutation `json:"mutations"`
	Time      time.Time  `json:"time"`
}

// Mutation is the wire form of an applied mutation. Server timestamps are already resolved.
type Mutation struct {
	Type            string `json:"type"`
	Family          string `json:"family,omitempty"`
	Qualifier       []byte `json:"qualifier,omitempty"`
	TimestampMicros int64  `json:"timestamp_micros,omitempty"`
	Value           []byte `json:"value,omitempty"`
	StartMicros     int64  `json:"start_micros,omitempty"`
	EndMicros       int64  `json:"end_micros,omitempty"`
}

// NewEvent builds the change event for muts applied to the row at key.
func NewEvent(table string, key []byte, muts []litetable.Mutation) *Event {
	e := &Event{
		ID:        uuid.NewString(),
		Table:     table,
		RowKey:    bytes.Clone(key),
		Mutations: make([]Mutation, 0, len(muts)),
		Time:      time.Now().UTC(),
	}
	for _, m := range muts {
		switch m := m.(type) {
		case *litetable.SetCell:
			e.Mutations = append(e.Mutations, Mutation{
				Type:            MutationSetCell,
				Family:          m.Family,
				Qualifier:       m.Qualifier,
				TimestampMicros: m.TimestampMicros,
				Value:           m.Value,
			})
		case *litetable.DeleteFromColumn:
			e.Mutations = append(e.Mutations, Mutation{
				Type:        MutationDeleteFromColumn,
				Family:      m.Family,
				Qualifier:   m.Qualifier,
				StartMicros: m.Range.StartMicros,
				EndMicros:   m.Range.EndMicros,
			})
		case *litetable.DeleteFromFamily:
			e.Mutations = append(e.Mutations, Mutation{Type: MutationDeleteFromFamily, Family: m.Family})
		case *litetable.DeleteFromRow:
			e.Mutations = append(e.Mutations, Mutation{Type: MutationDeleteFromRow})
		}
	}
	return e
}

// Emit queues a change event for every subscriber. When the queue is full the event is
// dropped rather than stalling the write path.
func (m *Manager) Emit(table string, key []byte, muts []litetable.Mutation) {
	e := NewEvent(table, key, muts)
	select {
	case m.emitChan <- e:
	default:
		log.Warn().Str("id", e.ID).Str("table", table).Msg("CDC queue full, event dropped")
	}
}

// raiseCDCEvent writes the event to all connected clients.
func (m *Manager) raiseCDCEvent(e *Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal CDC event")
		return
	}

	// newline delimited framing
	message := append(data, '\n')

	// no new clients while writing
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	for client := range m.clients {
		// a slow subscriber is dropped rather than waited for
		_ = client.SetWriteDeadline(time.Now().Add(100 * time.Millisecond))
		_, err = client.Write(message)
		if err != nil {
			_ = client.Close()
			delete(m.clients, client)
		}
	}
}
