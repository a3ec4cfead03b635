package reaper

import (
	"github.com/litetable/litetable-bigtable/internal/litetable"
	ltstorage "github.com/litetable/litetable-bigtable/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := map[string]struct {
		cfg   *Config
		error string
	}{
		"invalid config": {
			cfg:   &Config{},
			error: "storage cannot be nil\nGCInterval must be greater than 0",
		},
		"valid config": {
			cfg: &Config{Storage: NewMockstorage(ctrl), GCInterval: 30},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := New(test.cfg)
			if test.error != "" {
				req.Error(err)
				req.Nil(got)
				req.Equal(test.error, err.Error())
				return
			}
			req.NoError(err)
			req.Equal(30*time.Second, got.reapInterval)
			req.Equal("Reaper", got.Name())
		})
	}
}

func TestReaper_Ticks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var calls atomic.Int32
	mockStorage := NewMockstorage(ctrl)
	mockStorage.EXPECT().GarbageCollect().DoAndReturn(func() int {
		calls.Add(1)
		return 1
	}).MinTimes(2)

	r, err := New(&Config{Storage: mockStorage, GCInterval: 1})
	require.NoError(t, err)
	r.reapInterval = 10 * time.Millisecond

	require.NoError(t, r.Start())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())

	// no collection runs once stopped
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stopped, calls.Load())
}

func TestReaper_StopBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r, err := New(&Config{Storage: NewMockstorage(ctrl), GCInterval: 1})
	require.NoError(t, err)
	require.NoError(t, r.Stop())
}

func TestReaper_Collect(t *testing.T) {
	req := require.New(t)
	store, err := ltstorage.New(&ltstorage.Config{
		Tables: []ltstorage.TableConfig{{Name: "t", Families: []string{"cf"}, MaxVersions: 1}},
	})
	req.NoError(err)

	_, err = store.Apply("t", []byte("r"), []litetable.Mutation{
		&litetable.SetCell{Family: "cf", Qualifier: []byte("q"), TimestampMicros: 1, Value: []byte("a")},
		&litetable.SetCell{Family: "cf", Qualifier: []byte("q"), TimestampMicros: 2, Value: []byte("b")},
	})
	req.NoError(err)

	r, err := New(&Config{Storage: store, GCInterval: 60})
	req.NoError(err)
	req.Equal(1, r.Collect())
	req.Zero(r.Collect())

	row, err := store.ReadRow("t", []byte("r"))
	req.NoError(err)
	req.Equal(1, row.CellCount())
	req.Equal([]byte("b"), row.Families[0].Columns[0].Cells[0].Value)
}
