package app

import (
	"context"
	"errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"sync"
	"testing"
	"time"
)

func TestCreateApp(t *testing.T) {
	tests := map[string]struct {
		cfg   *Config
		error string
	}{
		"invalid config": {
			cfg:   &Config{},
			error: "service name is required\nstop timeout is required",
		},
		"valid config": {
			cfg: &Config{ServiceName: "test", StopTimeout: time.Second},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := CreateApp(test.cfg)
			if test.error != "" {
				req.Error(err)
				req.Nil(got)
				req.Equal(test.error, err.Error())
				return
			}
			req.NoError(err)
			req.NotNil(got)
		})
	}
}

// startedDeps returns mocks whose Start signals wg.
func startedDeps(ctrl *gomock.Controller, wg *sync.WaitGroup, names ...string) []*MockDependency {
	deps := make([]*MockDependency, len(names))
	for i, name := range names {
		d := NewMockDependency(ctrl)
		d.EXPECT().Name().Return(name).AnyTimes()
		wg.Add(1)
		d.EXPECT().Start().DoAndReturn(func() error {
			wg.Done()
			return nil
		})
		deps[i] = d
	}
	return deps
}

func TestApp_Run(t *testing.T) {
	t.Run("context cancel stops in reverse order", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var wg sync.WaitGroup
		deps := startedDeps(ctrl, &wg, "storage", "server")
		gomock.InOrder(
			deps[1].EXPECT().Stop().Return(nil),
			deps[0].EXPECT().Stop().Return(nil),
		)

		a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: time.Second}, deps[0], deps[1])
		req.NoError(err)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			wg.Wait()
			cancel()
		}()

		req.NoError(a.Run(ctx))
		req.EqualError(a.Run(ctx), "run has already been called")
		req.EqualError(a.stop(), "stop has already been called")
	})

	t.Run("start failure shuts down", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var wg sync.WaitGroup
		ok := startedDeps(ctrl, &wg, "ok")[0]
		ok.EXPECT().Stop().Return(nil)

		bad := NewMockDependency(ctrl)
		bad.EXPECT().Name().Return("bad").AnyTimes()
		bad.EXPECT().Start().Return(errors.New("port in use"))
		bad.EXPECT().Stop().Return(errors.New("not running"))

		a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: time.Second}, ok, bad)
		req.NoError(err)

		err = a.Run(context.Background())
		req.Error(err)
		req.Contains(err.Error(), "failure in Start() for dependency bad: port in use")
		req.Contains(err.Error(), "failure in Stop() for dependency bad: not running")
		wg.Wait()
	})

	t.Run("panic in start", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		d := NewMockDependency(ctrl)
		d.EXPECT().Name().Return("panics").AnyTimes()
		d.EXPECT().Start().DoAndReturn(func() error { panic("boom") })
		d.EXPECT().Stop().Return(nil)

		a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: time.Second}, d)
		req.NoError(err)
		req.EqualError(a.Run(context.Background()), "panic in Start() for dependency panics: boom")
	})

	t.Run("stop timeout", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var wg sync.WaitGroup
		d := startedDeps(ctrl, &wg, "slow")[0]
		release := make(chan struct{})
		defer close(release)
		d.EXPECT().Stop().DoAndReturn(func() error {
			<-release
			return nil
		})

		a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: 20 * time.Millisecond}, d)
		req.NoError(err)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			wg.Wait()
			cancel()
		}()

		err = a.Run(ctx)
		req.ErrorIs(err, context.DeadlineExceeded)
	})
}
