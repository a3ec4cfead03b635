package grpc

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"bytes"
	"github.com/litetable/litetable-bigtable/internal/chunker"
	"github.com/litetable/litetable-bigtable/internal/codec"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"time"
)

// ReadRows streams the rows selected by the request, one committed row per response. When the
// scan ends on rows the filter removed entirely, a final response carries the last scanned key
// so a resuming client does not scan them again.
func (e *emulator) ReadRows(req *btpb.ReadRowsRequest, stream btpb.Bigtable_ReadRowsServer) error {
	now := time.Now()
	table, err := tableID(req.GetTableName())
	if err != nil {
		return err
	}
	if req.GetReversed() {
		return status.Errorf(codes.Unimplemented, "reversed scans are not supported")
	}
	limit := req.GetRowsLimit()
	if limit < 0 {
		return status.Errorf(codes.InvalidArgument, "rows limit must not be negative")
	}

	f, err := codec.FilterFromProto(req.GetFilter())
	if err != nil {
		return toStatus(err)
	}
	prog, err := filter.Compile(f)
	if err != nil {
		return toStatus(err)
	}

	ctx := stream.Context()
	var (
		sent        int64
		lastSent    []byte
		lastScanned []byte
		sendErr     error
	)
	err = e.storage.Scan(table, codec.RowSetFromProto(req.GetRows()), func(row *litetable.Row) bool {
		if ctx.Err() != nil {
			sendErr = status.FromContextError(ctx.Err()).Err()
			return false
		}
		lastScanned = row.Key

		out := prog.Apply(row)
		if out == nil {
			return true
		}
		resp, err := codec.ResponseToProto(&litetable.ReadRowsResponse{
			Chunks: chunker.Split(out, e.chunkOpts),
		})
		if err != nil {
			sendErr = toStatus(err)
			return false
		}
		if err := stream.Send(resp); err != nil {
			sendErr = err
			return false
		}

		sent++
		lastSent = row.Key
		return limit == 0 || sent < limit
	})
	if err != nil {
		return toStatus(err)
	}
	if sendErr != nil {
		return sendErr
	}

	if lastScanned != nil && !bytes.Equal(lastScanned, lastSent) {
		if err := stream.Send(&btpb.ReadRowsResponse{LastScannedRowKey: lastScanned}); err != nil {
			return err
		}
	}

	log.Debug().Str("table", table).Int64("rows", sent).Msgf("ReadRows latency: %v", time.Since(now))
	return nil
}
