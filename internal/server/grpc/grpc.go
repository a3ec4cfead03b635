// Package grpc serves the Bigtable v2 data API over the in-memory store.
package grpc

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"errors"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/chunker"
	"github.com/rs/zerolog/log"
	grpc2 "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"net"
	"time"
)

//go:generate mockgen -destination=./grpc_mock.go -package=grpc -source=grpc.go

const (
	// maxMessageSize matches the largest cell value Bigtable accepts.
	maxMessageSize = 256 << 20
	// serveGrace is how long Start waits for Serve to fail before reporting the server as up.
	serveGrace = 500 * time.Millisecond
)

type grpcServer interface {
	Serve(lis net.Listener) error
	GracefulStop()
}

// Server runs the Bigtable emulator as an app.Dependency.
type Server struct {
	server   grpcServer
	listener net.Listener
}

type Config struct {
	Address string
	// Port 0 picks a free port; Addr reports the one chosen.
	Port    int
	Storage store
	// Emitter receives every applied mutation list. Optional.
	Emitter emitter
	// MaxChunkValueSize caps the value bytes of one ReadRows chunk. Zero uses the chunker default.
	MaxChunkValueSize int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Address == "" {
		errGrp = append(errGrp, fmt.Errorf("address required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errGrp = append(errGrp, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.Storage == nil {
		errGrp = append(errGrp, fmt.Errorf("storage required"))
	}
	if c.MaxChunkValueSize < 0 {
		errGrp = append(errGrp, fmt.Errorf("max chunk value size must not be negative"))
	}

	return errors.Join(errGrp...)
}

// NewServer binds the listener and registers the Bigtable service. Nothing is served until Start.
func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Address, fmt.Sprint(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on port %d: %w", cfg.Port, err)
	}

	return &Server{
		server:   newGRPCServer(cfg),
		listener: lis,
	}, nil
}

func newGRPCServer(cfg *Config) *grpc2.Server {
	srv := grpc2.NewServer(
		grpc2.MaxRecvMsgSize(maxMessageSize),
		grpc2.MaxSendMsgSize(maxMessageSize),
		grpc2.ChainUnaryInterceptor(logUnary),
		grpc2.ChainStreamInterceptor(logStream),
	)
	btpb.RegisterBigtableServer(srv, newEmulator(cfg.Storage, cfg.Emitter, chunker.Options{
		MaxValueSize: cfg.MaxChunkValueSize,
	}))
	reflection.Register(srv)
	return srv
}

// Addr is the address the server accepts connections on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Start() error {
	log.Info().Msgf("Bigtable emulator listening at %s", s.listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		err := s.server.Serve(s.listener)
		if err != nil && !errors.Is(err, grpc2.ErrServerStopped) {
			log.Error().Err(err).Msg("gRPC server failed")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Serve only returns early on failure
	select {
	case err := <-errCh:
		return err
	case <-time.After(serveGrace):
		return nil
	}
}

func (s *Server) Stop() error {
	log.Info().Msg("Stopping Bigtable emulator")
	s.server.GracefulStop()
	return nil
}

func (s *Server) Name() string {
	return "gRPC Server"
}
