// Package client issues Bigtable v2 data requests and assembles the streamed rows.
package client

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"context"
	"errors"
	"fmt"
	"github.com/litetable/litetable-bigtable/internal/codec"
	"github.com/litetable/litetable-bigtable/internal/filter"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/litetable/litetable-bigtable/internal/reader"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"io"
)

type Config struct {
	Conn       grpc.ClientConnInterface
	Project    string
	Instance   string
	AppProfile string
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Conn == nil {
		errGrp = append(errGrp, fmt.Errorf("connection required"))
	}
	if c.Project == "" {
		errGrp = append(errGrp, fmt.Errorf("project required"))
	}
	if c.Instance == "" {
		errGrp = append(errGrp, fmt.Errorf("instance required"))
	}
	return errors.Join(errGrp...)
}

// Client talks to one Bigtable instance. Filters and mutations are validated locally so a
// malformed request never reaches the server.
type Client struct {
	api        btpb.BigtableClient
	instance   string
	appProfile string
}

func New(cfg *Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		api:        btpb.NewBigtableClient(cfg.Conn),
		instance:   fmt.Sprintf("projects/%s/instances/%s", cfg.Project, cfg.Instance),
		appProfile: cfg.AppProfile,
	}, nil
}

func (c *Client) tableName(table string) string {
	return c.instance + "/tables/" + table
}

// ReadRequest selects the rows of a read. An empty RowSet reads the whole table.
type ReadRequest struct {
	Table     string
	RowSet    litetable.RowSet
	Filter    filter.Filter
	RowsLimit int64
}

// ReadRows starts a read. The returned stream owns the call; Close it to cancel the read early.
func (c *Client) ReadRows(ctx context.Context, req ReadRequest) (*reader.Stream, error) {
	if req.Table == "" {
		return nil, fmt.Errorf("table required")
	}
	if req.RowsLimit < 0 {
		return nil, fmt.Errorf("rows limit must not be negative")
	}
	if err := req.RowSet.Validate(); err != nil {
		return nil, err
	}
	if _, err := filter.Compile(req.Filter); err != nil {
		return nil, err
	}
	pf, err := codec.FilterToProto(req.Filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.api.ReadRows(ctx, &btpb.ReadRowsRequest{
		TableName:    c.tableName(req.Table),
		AppProfileId: c.appProfile,
		Rows:         codec.RowSetToProto(req.RowSet),
		Filter:       pf,
		RowsLimit:    req.RowsLimit,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	return reader.New(&reader.Config{
		Source:    &source{stream: stream},
		RowSet:    req.RowSet,
		RowsLimit: req.RowsLimit,
		Cancel:    cancel,
	})
}

// ReadRow reads a single row. It returns nil when the row does not exist or f removes every
// cell.
func (c *Client) ReadRow(ctx context.Context, table string, key []byte, f filter.Filter) (*litetable.Row,
	error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("row key required")
	}
	stream, err := c.ReadRows(ctx, ReadRequest{
		Table:     table,
		RowSet:    litetable.RowSet{Keys: [][]byte{key}},
		Filter:    f,
		RowsLimit: 1,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	rows, err := stream.ReadAll(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// MutateRow applies muts to the row at key atomically.
func (c *Client) MutateRow(ctx context.Context, table string, key []byte, muts []litetable.Mutation) error {
	if len(key) == 0 {
		return litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if err := litetable.ValidateMutations(muts); err != nil {
		return err
	}
	pm, err := codec.MutationsToProto(muts)
	if err != nil {
		return err
	}

	_, err = c.api.MutateRow(ctx, &btpb.MutateRowRequest{
		TableName:    c.tableName(table),
		AppProfileId: c.appProfile,
		RowKey:       key,
		Mutations:    pm,
	})
	return err
}

// Entry is one row of a bulk mutation.
type Entry struct {
	Key       []byte
	Mutations []litetable.Mutation
}

// MutateRows applies each entry independently. The returned slice holds one error per entry,
// nil for the entries that were applied; the error return reports a failure of the call itself.
func (c *Client) MutateRows(ctx context.Context, table string, entries []Entry) ([]error, error) {
	if len(entries) == 0 {
		return nil, litetable.NewError(litetable.ErrInvalidMutation, "no entries provided")
	}

	req := &btpb.MutateRowsRequest{
		TableName:    c.tableName(table),
		AppProfileId: c.appProfile,
		Entries:      make([]*btpb.MutateRowsRequest_Entry, 0, len(entries)),
	}
	for i, e := range entries {
		if len(e.Key) == 0 {
			return nil, litetable.NewError(litetable.ErrInvalidMutation, "entry %d: row key required", i)
		}
		if err := litetable.ValidateMutations(e.Mutations); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		pm, err := codec.MutationsToProto(e.Mutations)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		req.Entries = append(req.Entries, &btpb.MutateRowsRequest_Entry{RowKey: e.Key, Mutations: pm})
	}

	stream, err := c.api.MutateRows(ctx, req)
	if err != nil {
		return nil, err
	}

	errs := make([]error, len(entries))
	seen := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errs, err
		}
		for _, e := range resp.GetEntries() {
			i := e.GetIndex()
			if i < 0 || i >= int64(len(entries)) {
				return errs, fmt.Errorf("server returned status for unknown entry %d", i)
			}
			if st := e.GetStatus(); st != nil {
				errs[i] = status.ErrorProto(st)
			}
			seen++
		}
	}
	if seen < len(entries) {
		return errs, fmt.Errorf("server reported %d of %d entries", seen, len(entries))
	}
	return errs, nil
}

// CheckAndMutateRow applies trueMuts when predicate leaves any cell of the row, falseMuts
// otherwise, and reports which branch ran. A nil predicate matches any row with cells.
func (c *Client) CheckAndMutateRow(ctx context.Context, table string, key []byte, predicate filter.Filter,
	trueMuts, falseMuts []litetable.Mutation) (bool, error) {
	if len(key) == 0 {
		return false, litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if len(trueMuts) == 0 && len(falseMuts) == 0 {
		return false, litetable.NewError(litetable.ErrInvalidMutation, "no mutations provided")
	}
	if _, err := filter.Compile(predicate); err != nil {
		return false, err
	}
	pf, err := codec.FilterToProto(predicate)
	if err != nil {
		return false, err
	}

	req := &btpb.CheckAndMutateRowRequest{
		TableName:       c.tableName(table),
		AppProfileId:    c.appProfile,
		RowKey:          key,
		PredicateFilter: pf,
	}
	if len(trueMuts) > 0 {
		if err := litetable.ValidateMutations(trueMuts); err != nil {
			return false, err
		}
		if req.TrueMutations, err = codec.MutationsToProto(trueMuts); err != nil {
			return false, err
		}
	}
	if len(falseMuts) > 0 {
		if err := litetable.ValidateMutations(falseMuts); err != nil {
			return false, err
		}
		if req.FalseMutations, err = codec.MutationsToProto(falseMuts); err != nil {
			return false, err
		}
	}

	resp, err := c.api.CheckAndMutateRow(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.GetPredicateMatched(), nil
}

// source adapts a ReadRows call to reader.Source.
type source struct {
	stream btpb.Bigtable_ReadRowsClient
}

func (s *source) Recv() (*litetable.ReadRowsResponse, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return codec.ResponseFromProto(resp), nil
}

// ReadModifyWriteRow applies increment and append rules to a row atomically and returns the new
// contents of the cells the rules wrote.
func (c *Client) ReadModifyWriteRow(ctx context.Context, table string, key []byte,
	rules []litetable.ReadModifyWriteRule) (*litetable.Row, error) {
	if len(key) == 0 {
		return nil, litetable.NewError(litetable.ErrInvalidMutation, "row key required")
	}
	if err := litetable.ValidateRules(rules); err != nil {
		return nil, err
	}
	pr, err := codec.RulesToProto(rules)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.ReadModifyWriteRow(ctx, &btpb.ReadModifyWriteRowRequest{
		TableName:    c.tableName(table),
		AppProfileId: c.appProfile,
		RowKey:       key,
		Rules:        pr,
	})
	if err != nil {
		return nil, err
	}
	row := codec.RowFromProto(resp.GetRow())
	if row == nil {
		return &litetable.Row{Key: key}, nil
	}
	return row, nil
}

// KeySample is a row key that splits a table, with the approximate bytes stored before it. The
// final sample of a table has an empty key and the size of the whole table.
type KeySample struct {
	Key         []byte
	OffsetBytes int64
}

// SampleRowKeys returns keys spread evenly over a table, useful to split a full scan into
// parallel reads.
func (c *Client) SampleRowKeys(ctx context.Context, table string) ([]KeySample, error) {
	stream, err := c.api.SampleRowKeys(ctx, &btpb.SampleRowKeysRequest{
		TableName:    c.tableName(table),
		AppProfileId: c.appProfile,
	})
	if err != nil {
		return nil, err
	}

	var out []KeySample
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, KeySample{Key: resp.GetRowKey(), OffsetBytes: resp.GetOffsetBytes()})
	}
}
