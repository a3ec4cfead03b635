package grpc

import (
	"context"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	grpc2 "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"time"
)

func logUnary(ctx context.Context, req any, info *grpc2.UnaryServerInfo, handler grpc2.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	callEvent(err).
		Str("method", info.FullMethod).
		Dur("elapsed", time.Since(start)).
		Msg("unary call")
	return resp, err
}

func logStream(srv any, ss grpc2.ServerStream, info *grpc2.StreamServerInfo, handler grpc2.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	callEvent(err).
		Str("method", info.FullMethod).
		Dur("elapsed", time.Since(start)).
		Msg("stream call")
	return err
}

// callEvent logs client mistakes at debug and server faults at error.
func callEvent(err error) *zerolog.Event {
	code := status.Code(err)
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return log.Error().Err(err).Str("code", code.String())
	default:
		return log.Debug().Str("code", code.String())
	}
}
