package main

import (
	"context"
	"github.com/litetable/litetable-bigtable/internal/app"
	"github.com/litetable/litetable-bigtable/internal/cdc_emitter"
	"github.com/litetable/litetable-bigtable/internal/config"
	"github.com/litetable/litetable-bigtable/internal/reaper"
	btserver "github.com/litetable/litetable-bigtable/internal/server/grpc"
	"github.com/litetable/litetable-bigtable/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"time"
)

func main() {
	application, err := initialize()
	if err != nil {
		panic(err)
	}

	if err = application.Run(context.Background()); err != nil {
		panic(err)
	}
}

func initialize() (*app.App, error) {
	var deps []app.Dependency

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	tables := make([]storage.TableConfig, len(cfg.Tables))
	for i, t := range cfg.Tables {
		tables[i] = storage.TableConfig{
			Name:        t.Name,
			Families:    t.Families,
			MaxVersions: t.MaxVersions,
		}
	}
	memStorage, err := storage.New(&storage.Config{Tables: tables})
	if err != nil {
		return nil, err
	}

	// create a new Reaper (aka Garbage Collector)
	reaperGC, err := reaper.New(&reaper.Config{
		Storage:    memStorage,
		GCInterval: cfg.GarbageCollectionTimer,
	})
	if err != nil {
		return nil, err
	}
	deps = append(deps, reaperGC)

	srvCfg := &btserver.Config{
		Address:           cfg.ServerAddress,
		Port:              cfg.ServerPort,
		Storage:           memStorage,
		MaxChunkValueSize: cfg.MaxChunkValueSize,
	}

	if cfg.CDCEnabled {
		cdcEmitter, err := cdc_emitter.New(&cdc_emitter.Config{
			Port:    cfg.CDCPort,
			Address: cfg.CDCAddress,
		})
		if err != nil {
			return nil, err
		}
		deps = append(deps, cdcEmitter)
		srvCfg.Emitter = cdcEmitter
	}

	// create the Bigtable gRPC server
	srv, err := btserver.NewServer(srvCfg)
	if err != nil {
		return nil, err
	}
	deps = append(deps, srv)

	application, err := app.CreateApp(&app.Config{
		ServiceName: "LiteTable Bigtable Emulator",
		StopTimeout: 10 * time.Second,
	}, deps...)
	if err != nil {
		return nil, err
	}

	return application, nil
}
