package grpc

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"errors"
	"github.com/litetable/litetable-bigtable/internal/chunker"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/litetable/litetable-bigtable/internal/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"strings"
)

//go:generate mockgen -destination=./bigtable_mock.go -package=grpc -source=bigtable.go

type store interface {
	Apply(table string, key []byte, muts []litetable.Mutation) ([]litetable.Mutation, error)
	CheckAndApply(table string, key []byte, predicate *filter.Program, trueMuts,
		falseMuts []litetable.Mutation) (bool, []litetable.Mutation, error)
	Scan(table string, set litetable.RowSet, fn func(*litetable.Row) bool) error
	ReadModifyWrite(table string, key []byte, rules []litetable.ReadModifyWriteRule) (*litetable.Row,
		[]litetable.Mutation, error)
	SampleKeys(table string, stride int) ([]storage.KeySample, int64, error)
}

type emitter interface {
	Emit(table string, key []byte, muts []litetable.Mutation)
}

type emulator struct {
	btpb.UnimplementedBigtableServer
	storage   store
	emitter   emitter
	chunkOpts chunker.Options
}

func newEmulator(storage store, emitter emitter, opts chunker.Options) *emulator {
	return &emulator{
		storage:   storage,
		emitter:   emitter,
		chunkOpts: opts,
	}
}

func (e *emulator) emit(table string, key []byte, applied []litetable.Mutation) {
	if e.emitter == nil || len(applied) == 0 {
		return
	}
	e.emitter.Emit(table, key, applied)
}

// tableID extracts the table id from a projects/{p}/instances/{i}/tables/{t} resource name.
func tableID(name string) (string, error) {
	parts := strings.Split(name, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "instances" || parts[4] != "tables" {
		return "", status.Errorf(codes.InvalidArgument, "invalid table name %q", name)
	}
	for _, p := range []string{parts[1], parts[3], parts[5]} {
		if p == "" {
			return "", status.Errorf(codes.InvalidArgument, "invalid table name %q", name)
		}
	}
	return parts[5], nil
}

// toStatus maps domain errors onto gRPC status codes. Status errors pass through unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, litetable.ErrInvalidFilterTree),
		errors.Is(err, litetable.ErrInvalidMutation),
		errors.Is(err, litetable.ErrInvalidRowSet):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, litetable.ErrTableNotFound),
		errors.Is(err, litetable.ErrFamilyNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
