package content

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type recordingMeter struct {
	noop.Meter

	mu       sync.Mutex
	counters map[string]*recordingCounter
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]*recordingCounter{}
	}
	c, ok := m.counters[name]
	if !ok {
		c = &recordingCounter{}
		m.counters[name] = c
	}
	return c, nil
}

func (m *recordingMeter) total(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type recordingCounter struct {
	noop.Int64Counter

	mu sync.Mutex
	n  int64
}

func (c *recordingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.mu.Lock()
	c.n += incr
	c.mu.Unlock()
}

func TestLoadCountsFallbacks(t *testing.T) {
	meter := &recordingMeter{}
	ok := serveDocument(t, http.StatusOK, sampleDocument)
	broken := serveDocument(t, http.StatusInternalServerError, "boom")
	ctx := context.Background()

	require.NoError(t, NewStore(NewSource(ok.URL, ok.Client()), WithMeter(meter)).Load(ctx))
	require.NoError(t, NewStore(NewSource(broken.URL, broken.Client()), WithMeter(meter)).Load(ctx))
	require.NoError(t, NewUpdateFeed(nil, WithMeter(meter)).Load(ctx))

	require.EqualValues(t, 3, meter.total("content.load.count"))
	require.EqualValues(t, 2, meter.total("content.load.fallbacks"))
}
