// Package cdc_emitter broadcasts every applied mutation list to TCP subscribers as a stream of
// newline delimited JSON change events.
package cdc_emitter

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"io"
	"net"
	"sync"
)

// defaultBuffer is the number of events held while the broadcaster catches up.
const defaultBuffer = 100000

type Config struct {
	Port    int
	Address string
	// Buffer bounds the queue of events waiting to be broadcast. Defaults to 100000.
	Buffer int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Port <= 0 {
		errGrp = append(errGrp, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("invalid address: %s", c.Address))
	}
	if c.Buffer < 0 {
		errGrp = append(errGrp, fmt.Errorf("invalid buffer: %d", c.Buffer))
	}
	return errors.Join(errGrp...)
}

type Manager struct {
	port     int
	address  string
	listener net.Listener

	emitChan   chan *Event
	procCtx    context.Context
	procCancel context.CancelFunc

	clients    map[net.Conn]bool
	clientsMux sync.Mutex
}

func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	addrString := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	listener, err := net.Listen("tcp", addrString)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addrString, err)
	}

	buffer := cfg.Buffer
	if buffer == 0 {
		buffer = defaultBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		listener:   listener,
		port:       cfg.Port,
		address:    cfg.Address,
		emitChan:   make(chan *Event, buffer),
		procCtx:    ctx,
		procCancel: cancel,

		clients:    make(map[net.Conn]bool),
		clientsMux: sync.Mutex{},
	}, nil
}

// Addr returns the address subscribers connect to.
func (m *Manager) Addr() net.Addr {
	return m.listener.Addr()
}

func (m *Manager) Start() error {
	log.Info().Msgf("CDC emitter listening at %s", m.listener.Addr())

	go func() {
		for {
			select {
			case <-m.procCtx.Done():
				return
			case e := <-m.emitChan:
				m.raiseCDCEvent(e)
			}
		}
	}()

	go func() {
		for {
			conn, err := m.listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) || m.procCtx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("failed to accept CDC subscriber")
				continue
			}

			go m.handle(conn)
		}
	}()

	return nil
}

func (m *Manager) Stop() error {
	if m.procCancel != nil {
		m.procCancel()
	}

	if m.listener != nil {
		err := m.listener.Close()
		if err != nil {
			return fmt.Errorf("failed to close listener: %w", err)
		}
	}

	m.clientsMux.Lock()
	for conn := range m.clients {
		_ = conn.Close()
		delete(m.clients, conn)
	}
	m.clientsMux.Unlock()

	return nil
}

func (m *Manager) Name() string {
	return "CDC Emitter"
}

// Subscribers returns the number of connected subscribers.
func (m *Manager) Subscribers() int {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()
	return len(m.clients)
}

func (m *Manager) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()

		m.clientsMux.Lock()
		delete(m.clients, conn)
		m.clientsMux.Unlock()
	}()

	m.clientsMux.Lock()
	m.clients[conn] = true
	m.clientsMux.Unlock()

	log.Debug().Msgf("CDC subscriber connected: %s", conn.RemoteAddr())

	// subscribers never send anything; reading only detects the disconnect
	buffer := make([]byte, 4096)
	for {
		_, err := conn.Read(buffer)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Msgf("CDC subscriber disconnected: %s", conn.RemoteAddr())
			} else {
				log.Debug().Err(err).Msgf("CDC subscriber %s dropped", conn.RemoteAddr())
			}
			return
		}
	}
}
