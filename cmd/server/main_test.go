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
)

func TestServeWaitsForTracingFlush(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	var flushed atomic.Bool

	start := func() error {
		sigChan <- syscall.SIGTERM
		<-stopped
		return nil
	}
	stop := func(context.Context) error {
		close(stopped)
		return nil
	}
	flush := func(context.Context) error {
		time.Sleep(50 * time.Millisecond)
		flushed.Store(true)
		return nil
	}

	require.NoError(t, serve(start, stop, flush, sigChan))
	assert.True(t, flushed.Load(), "serve returned before tracing was flushed")
}

func TestServeReturnsStartError(t *testing.T) {
	boom := errors.New("listen failed")
	err := serve(func() error { return boom },
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
		make(chan os.Signal))
	assert.ErrorIs(t, err, boom)
}
