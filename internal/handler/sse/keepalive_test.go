package sse

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeepAliveWriter struct {
	calls int32
	err   error
}

func (f *fakeKeepAliveWriter) WriteKeepAlive() error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickerKeepAlive_WritesPeriodically(t *testing.T) {
	k := NewTickerKeepAlive(10 * time.Millisecond)
	w := &fakeKeepAliveWriter{}

	stopped := k.Start(w, testLogger())
	defer k.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&w.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	select {
	case <-stopped:
		t.Fatal("keep-alive should still be running")
	default:
	}
}

func TestTickerKeepAlive_StopsOnWriteError(t *testing.T) {
	k := NewTickerKeepAlive(10 * time.Millisecond)
	w := &fakeKeepAliveWriter{err: errors.New("connection closed")}

	stopped := k.Start(w, testLogger())

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop after a write error")
	}
}

func TestTickerKeepAlive_StopIsIdempotent(t *testing.T) {
	k := NewTickerKeepAlive(time.Hour)
	w := &fakeKeepAliveWriter{}
	k.Start(w, testLogger())

	assert.NotPanics(t, func() {
		k.Stop()
		k.Stop()
	})
}
