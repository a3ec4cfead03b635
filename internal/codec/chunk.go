// Package codec converts between the Bigtable v2 wire messages and the litetable domain types.
package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ChunkFromProto converts a wire chunk. Presence of the family and qualifier wrappers is kept.
func ChunkFromProto(c *btpb.ReadRowsResponse_CellChunk) *litetable.CellChunk {
	if c == nil {
		return nil
	}
	out := &litetable.CellChunk{
		RowKey:          c.GetRowKey(),
		TimestampMicros: c.GetTimestampMicros(),
		Labels:          c.GetLabels(),
		Value:           c.GetValue(),
		ValueSize:       c.GetValueSize(),
		ResetRow:        c.GetResetRow(),
		CommitRow:       c.GetCommitRow(),
	}
	if c.FamilyName != nil {
		out.FamilyName = litetable.Ptr(c.FamilyName.GetValue())
	}
	if c.Qualifier != nil {
		out.Qualifier = litetable.Ptr(c.Qualifier.GetValue())
	}
	return out
}

// ChunkToProto converts a chunk to its wire form. Reset and commit share a oneof on the wire, so
// a chunk carrying both cannot be encoded.
func ChunkToProto(c *litetable.CellChunk) (*btpb.ReadRowsResponse_CellChunk, error) {
	if c == nil {
		return nil, litetable.NewError(litetable.ErrMalformedChunk, "nil chunk")
	}
	if c.ResetRow && c.CommitRow {
		return nil, litetable.NewError(litetable.ErrMalformedChunk,
			"reset and commit are mutually exclusive")
	}

	out := &btpb.ReadRowsResponse_CellChunk{
		RowKey:          c.RowKey,
		TimestampMicros: c.TimestampMicros,
		Labels:          c.Labels,
		Value:           c.Value,
		ValueSize:       c.ValueSize,
	}
	if c.FamilyName != nil {
		out.FamilyName = wrapperspb.String(*c.FamilyName)
	}
	if c.Qualifier != nil {
		out.Qualifier = wrapperspb.Bytes(*c.Qualifier)
	}
	switch {
	case c.ResetRow:
		out.RowStatus = &btpb.ReadRowsResponse_CellChunk_ResetRow{ResetRow: true}
	case c.CommitRow:
		out.RowStatus = &btpb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true}
	}
	return out, nil
}

// ResponseFromProto converts one ReadRows response frame.
func ResponseFromProto(r *btpb.ReadRowsResponse) *litetable.ReadRowsResponse {
	out := &litetable.ReadRowsResponse{
		LastScannedRowKey: r.GetLastScannedRowKey(),
	}
	for _, c := range r.GetChunks() {
		out.Chunks = append(out.Chunks, ChunkFromProto(c))
	}
	return out
}

// ResponseToProto converts one ReadRows response frame to its wire form.
func ResponseToProto(r *litetable.ReadRowsResponse) (*btpb.ReadRowsResponse, error) {
	out := &btpb.ReadRowsResponse{
		LastScannedRowKey: r.LastScannedRowKey,
		Chunks:            make([]*btpb.ReadRowsResponse_CellChunk, 0, len(r.Chunks)),
	}
	for i, c := range r.Chunks {
		pc, err := ChunkToProto(c)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		out.Chunks = append(out.Chunks, pc)
	}
	return out, nil
}

// MarshalResponse encodes a response frame into its protobuf byte form.
func MarshalResponse(r *litetable.ReadRowsResponse) ([]byte, error) {
	pr, err := ResponseToProto(r)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pr)
}

// UnmarshalResponse decodes a response frame from its protobuf byte form.
func UnmarshalResponse(b []byte) (*litetable.ReadRowsResponse, error) {
	var pr btpb.ReadRowsResponse
	if err := proto.Unmarshal(b, &pr); err != nil {
		return nil, fmt.Errorf("failed to decode read rows response: %w", err)
	}
	return ResponseFromProto(&pr), nil
}
