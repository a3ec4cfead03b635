package grpc

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
)

// sampleStride is the number of rows between two sampled keys.
const sampleStride = 100

// SampleRowKeys streams a key every sampleStride rows with the bytes stored before it. The last
// response carries an empty key and the size of the whole table.
func (e *emulator) SampleRowKeys(req *btpb.SampleRowKeysRequest, stream btpb.Bigtable_SampleRowKeysServer) error {
	table, err := tableID(req.GetTableName())
	if err != nil {
		return err
	}

	samples, total, err := e.storage.SampleKeys(table, sampleStride)
	if err != nil {
		return toStatus(err)
	}
	for _, s := range samples {
		if err := stream.Send(&btpb.SampleRowKeysResponse{RowKey: s.Key, OffsetBytes: s.OffsetBytes}); err != nil {
			return err
		}
	}
	return stream.Send(&btpb.SampleRowKeysResponse{RowKey: []byte{}, OffsetBytes: total})
}
