package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/config"
	"github.com/aihubhq/aihub/internal/app"
	"github.com/aihubhq/aihub/pkg/logger"
)

// fakeApp overrides the lifecycle methods runServer drives
type fakeApp struct {
	app.AppInterface

	initErr  error
	startErr error
	stopped  chan struct{}

	shutdownCalls   int32
	shutdownTimeout time.Duration
}

func newFakeApp() *fakeApp {
	return &fakeApp{stopped: make(chan struct{})}
}

func (f *fakeApp) Initialize() error { return f.initErr }

func (f *fakeApp) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeApp) Shutdown(ctx context.Context) error {
	if atomic.AddInt32(&f.shutdownCalls, 1) == 1 {
		close(f.stopped)
	}
	return nil
}

func (f *fakeApp) SetShutdownTimeout(timeout time.Duration) { f.shutdownTimeout = timeout }

func (f *fakeApp) GetActiveRequestCount() int64 { return 0 }

func factory(f *fakeApp) NewAppFunc {
	return func(cfg *config.Config, opts ...app.AppOption) app.AppInterface {
		return f
	}
}

func withSignals(t *testing.T, notify func(c chan<- os.Signal, sig ...os.Signal)) {
	t.Helper()
	original := signalNotify
	signalNotify = notify
	t.Cleanup(func() { signalNotify = original })
}

func TestRunServer_InitializeError(t *testing.T) {
	f := newFakeApp()
	f.initErr = errors.New("database unreachable")

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	assert.EqualError(t, err, "database unreachable")
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.shutdownCalls))
}

func TestRunServer_StartError(t *testing.T) {
	withSignals(t, func(c chan<- os.Signal, sig ...os.Signal) {})

	f := newFakeApp()
	f.startErr = errors.New("address already in use")

	err := runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	assert.EqualError(t, err, "address already in use")
}

func TestRunServer_GracefulShutdownOnSignal(t *testing.T) {
	var calls int32
	withSignals(t, func(c chan<- os.Signal, sig ...os.Signal) {
		// only the first registration receives a signal; the force channel stays quiet
		if atomic.AddInt32(&calls, 1) == 1 {
			c <- syscall.SIGTERM
		}
	})

	f := newFakeApp()
	done := make(chan error, 1)
	go func() {
		done <- runServer(&config.Config{}, logger.NewTestLogger(t), factory(f))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after shutdown signal")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.shutdownCalls))
	assert.Equal(t, appShutdownTimeout, f.shutdownTimeout)
}

func TestConfigLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
