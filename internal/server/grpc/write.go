package grpc

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"context"
	"github.com/litetable/litetable-bigtable/internal/codec"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/rs/zerolog/log"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (e *emulator) MutateRow(ctx context.Context, req *btpb.MutateRowRequest) (*btpb.MutateRowResponse,
	error) {
	table, err := tableID(req.GetTableName())
	if err != nil {
		return nil, err
	}
	if err := e.mutate(table, req.GetRowKey(), req.GetMutations()); err != nil {
		return nil, toStatus(err)
	}
	return &btpb.MutateRowResponse{}, nil
}

// MutateRows applies every entry independently and reports a status per entry. Only a bad
// request as a whole fails the call.
func (e *emulator) MutateRows(req *btpb.MutateRowsRequest, stream btpb.Bigtable_MutateRowsServer) error {
	table, err := tableID(req.GetTableName())
	if err != nil {
		return err
	}
	if len(req.GetEntries()) == 0 {
		return status.Errorf(codes.InvalidArgument, "no entries provided")
	}

	resp := &btpb.MutateRowsResponse{
		Entries: make([]*btpb.MutateRowsResponse_Entry, len(req.GetEntries())),
	}
	failed := 0
	for i, entry := range req.GetEntries() {
		err := e.mutate(table, entry.GetRowKey(), entry.GetMutations())
		if err != nil {
			failed++
		}
		resp.Entries[i] = &btpb.MutateRowsResponse_Entry{
			Index:  int64(i),
			Status: entryStatus(err),
		}
	}

	log.Debug().Str("table", table).Int("entries", len(resp.Entries)).Int("failed", failed).
		Msg("MutateRows applied")
	return stream.Send(resp)
}

func (e *emulator) CheckAndMutateRow(ctx context.Context,
	req *btpb.CheckAndMutateRowRequest) (*btpb.CheckAndMutateRowResponse, error) {
	table, err := tableID(req.GetTableName())
	if err != nil {
		return nil, err
	}

	f, err := codec.FilterFromProto(req.GetPredicateFilter())
	if err != nil {
		return nil, toStatus(err)
	}
	predicate, err := filter.Compile(f)
	if err != nil {
		return nil, toStatus(err)
	}
	trueMuts, err := codec.MutationsFromProto(req.GetTrueMutations())
	if err != nil {
		return nil, toStatus(err)
	}
	falseMuts, err := codec.MutationsFromProto(req.GetFalseMutations())
	if err != nil {
		return nil, toStatus(err)
	}

	matched, applied, err := e.storage.CheckAndApply(table, req.GetRowKey(), predicate, trueMuts,
		falseMuts)
	if err != nil {
		return nil, toStatus(err)
	}
	e.emit(table, req.GetRowKey(), applied)

	return &btpb.CheckAndMutateRowResponse{PredicateMatched: matched}, nil
}

// ReadModifyWriteRow applies the rules atomically and returns the new contents of every cell they
// wrote.
func (e *emulator) ReadModifyWriteRow(ctx context.Context,
	req *btpb.ReadModifyWriteRowRequest) (*btpb.ReadModifyWriteRowResponse, error) {
	table, err := tableID(req.GetTableName())
	if err != nil {
		return nil, err
	}

	rules, err := codec.RulesFromProto(req.GetRules())
	if err != nil {
		return nil, toStatus(err)
	}
	row, applied, err := e.storage.ReadModifyWrite(table, req.GetRowKey(), rules)
	if err != nil {
		return nil, toStatus(err)
	}
	e.emit(table, req.GetRowKey(), applied)

	return &btpb.ReadModifyWriteRowResponse{Row: codec.RowToProto(row)}, nil
}

func (e *emulator) mutate(table string, key []byte, ms []*btpb.Mutation) error {
	muts, err := codec.MutationsFromProto(ms)
	if err != nil {
		return err
	}
	applied, err := e.storage.Apply(table, key, muts)
	if err != nil {
		return err
	}
	e.emit(table, key, applied)
	return nil
}

func entryStatus(err error) *rpcstatus.Status {
	if err == nil {
		return &rpcstatus.Status{Code: int32(codes.OK)}
	}
	return status.Convert(toStatus(err)).Proto()
}
