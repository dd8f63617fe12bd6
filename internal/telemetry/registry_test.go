package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExporter struct {
	name  string
	count int64
	wg    *sync.WaitGroup
}

func (c *countingExporter) Name() string { return c.name }

func (c *countingExporter) Export(_ context.Context, _ RequestMetrics) error {
	atomic.AddInt64(&c.count, 1)
	c.wg.Done()
	return nil
}

func TestRegistry_RecordIsNonBlockingAndFansOut(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)

	a := &countingExporter{name: "a", wg: &wg}
	b := &countingExporter{name: "b", wg: &wg}

	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	reg.Record(RequestMetrics{ID: "req-1"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("exporters did not run in time")
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&a.count))
	assert.Equal(t, int64(1), atomic.LoadInt64(&b.count))

	reg.Close()
}

type erroringExporter struct{}

func (erroringExporter) Name() string                                        { return "erroring" }
func (erroringExporter) Export(_ context.Context, _ RequestMetrics) error { return assertErr }

var assertErr = &exportError{"boom"}

type exportError struct{ msg string }

func (e *exportError) Error() string { return e.msg }

func TestRegistry_ExporterErrorDoesNotPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(erroringExporter{})

	require.NotPanics(t, func() {
		reg.Record(RequestMetrics{ID: "req-2"})
		reg.Close()
	})
}
