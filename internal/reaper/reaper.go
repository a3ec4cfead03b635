// Package reaper periodically drops the cell versions that exceed each column family's
// max_versions policy.
package reaper

import (
	"context"
	"errors"
	"sync"
	"time"
)

//go:generate mockgen -destination=./reaper_mock.go -package=reaper -source=reaper.go

type storage interface {
	GarbageCollect() int
}

type Reaper struct {
	storage storage

	mutex        sync.Mutex
	reapInterval time.Duration

	procCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

type Config struct {
	Storage storage
	// GCInterval is the number of seconds between collections.
	GCInterval int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Storage == nil {
		errGrp = append(errGrp, errors.New("storage cannot be nil"))
	}
	if c.GCInterval <= 0 {
		errGrp = append(errGrp, errors.New("GCInterval must be greater than 0"))
	}
	return errors.Join(errGrp...)
}

// New creates a new Reaper.
func New(cfg *Config) (*Reaper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reaper{
		storage:      cfg.Storage,
		reapInterval: time.Duration(cfg.GCInterval) * time.Second,
		procCtx:      ctx,
		cancel:       cancel,
	}, nil
}

func (r *Reaper) Start() error {
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.procCtx.Done():
				return
			case <-ticker.C:
				r.Collect()
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}

	// a collection already in progress finishes first
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return nil
}

func (r *Reaper) Name() string {
	return "Reaper"
}
