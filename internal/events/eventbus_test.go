package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/logger"
)

type mockConsumer struct {
	name    string
	fail    bool
	panics  bool
	mu      sync.Mutex
	events  []RecordEvent
	handled atomic.Int32
}

func (m *mockConsumer) Name() string { return m.name }

func (m *mockConsumer) ProcessEvent(event RecordEvent) error {
	defer m.handled.Add(1)
	if m.panics {
		panic("boom")
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mock error")
	}
	return nil
}

func (m *mockConsumer) received() []RecordEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordEvent(nil), m.events...)
}

func testConfig() *Config {
	return &Config{
		BufferSize:    16,
		Workers:       2,
		Deduplication: &DeduplicationConfig{Enabled: true, TTL: time.Minute},
	}
}

func camera(id string) entity.Camera {
	return entity.Camera{CameraID: id, Date: "2024-01-01"}
}

func TestPublishWithoutConsumersIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := New(testConfig(), logger.NewNopLogger())
	assert.False(t, eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera("A1"))))
	require.NoError(t, eb.Shutdown(time.Second))
}

func TestEventsReachEveryConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := New(testConfig(), logger.NewNopLogger())
	first := &mockConsumer{name: "first"}
	second := &mockConsumer{name: "second"}
	require.NoError(t, eb.RegisterConsumer(first))
	require.NoError(t, eb.RegisterConsumer(second))
	require.Error(t, eb.RegisterConsumer(&mockConsumer{name: "first"}))

	require.True(t, eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera("A1"))))
	require.True(t, eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera("B2"))))

	require.Eventually(t, func() bool {
		return first.handled.Load() == 2 && second.handled.Load() == 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, eb.Shutdown(time.Second))

	refs := []string{first.received()[0].Ref.String(), first.received()[1].Ref.String()}
	assert.ElementsMatch(t, []string{"Camera-A1-2024-01-01", "Camera-B2-2024-01-01"}, refs)
	assert.Equal(t, uint64(4), eb.GetStats().EventsProcessed)
}

func TestConsumerFailuresAreContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := New(testConfig(), logger.NewNopLogger())
	failing := &mockConsumer{name: "failing", fail: true}
	panicking := &mockConsumer{name: "panicking", panics: true}
	healthy := &mockConsumer{name: "healthy"}
	for _, c := range []Consumer{failing, panicking, healthy} {
		require.NoError(t, eb.RegisterConsumer(c))
	}

	require.True(t, eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera("A1"))))
	require.Eventually(t, func() bool { return healthy.handled.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, eb.Shutdown(time.Second))

	stats := eb.GetStats()
	assert.Equal(t, uint64(2), stats.ConsumerErrors)
	assert.Equal(t, uint64(1), stats.EventsProcessed)
}

func TestDuplicateEventsAreSuppressed(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := New(testConfig(), logger.NewNopLogger())
	require.NoError(t, eb.RegisterConsumer(&mockConsumer{name: "sink"}))

	status := func(s string) RecordEvent {
		ev := NewRecordEvent(TypeStatusUpdated, "map", camera("A1"))
		ev.Metadata = map[string]any{"status": s}
		return ev
	}
	assert.True(t, eb.TryPublish(status("pull,3")))
	assert.False(t, eb.TryPublish(status("pull,3")))
	assert.True(t, eb.TryPublish(status("pull,4")))

	require.NoError(t, eb.Shutdown(time.Second))
	assert.Equal(t, uint64(1), eb.GetStats().EventsSuppressed)
}

func TestPublishAfterShutdownIsRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	eb := New(testConfig(), logger.NewNopLogger())
	sink := &mockConsumer{name: "sink"}
	require.NoError(t, eb.RegisterConsumer(sink))
	require.NoError(t, eb.Shutdown(time.Second))

	assert.False(t, eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera("A1"))))
	assert.Empty(t, sink.received())
}

func TestFullBufferDropsEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := make(chan struct{})
	eb := New(&Config{BufferSize: 1, Workers: 1}, logger.NewNopLogger())
	require.NoError(t, eb.RegisterConsumer(blockingConsumer(block)))

	accepted := 0
	for i := range 10 {
		if eb.TryPublish(NewRecordEvent(TypeRecordCreated, "map", camera(fmt.Sprintf("C%d", i)))) {
			accepted++
		}
	}
	close(block)
	require.NoError(t, eb.Shutdown(time.Second))

	assert.Less(t, accepted, 10)
	assert.Equal(t, uint64(10-accepted), eb.GetStats().EventsDropped)
}

type blockingConsumer chan struct{}

func (blockingConsumer) Name() string { return "blocking" }

func (b blockingConsumer) ProcessEvent(RecordEvent) error {
	<-b
	return nil
}

func TestDeduplicatorDisabled(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator(&DeduplicationConfig{Enabled: false})
	ev := NewRecordEvent(TypeRecordCreated, "map", camera("A1"))
	assert.True(t, d.ShouldProcess(ev))
	assert.True(t, d.ShouldProcess(ev))

	var nilDedup *Deduplicator
	assert.True(t, nilDedup.ShouldProcess(ev))
}
