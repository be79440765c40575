package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/events"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
)

type fakeClient struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	connects   int
	published  map[string][]byte
}

func (f *fakeClient) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		f.published = make(map[string][]byte)
	}
	f.published[topic] = payload
	return nil
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Disconnect() {}

func TestPublisherForwardsRecordEvents(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	p := NewPublisher(fc, "fieldmap/records", logger.NewNopLogger())

	cam := entity.Camera{CameraID: "A1", Date: "2024-01-01", Site: "North Ridge"}
	ev := events.NewRecordEvent(events.TypeRecordCreated, "map", cam)
	require.NoError(t, p.ProcessEvent(ev))
	require.NoError(t, p.ProcessEvent(ev))
	assert.Equal(t, 1, fc.connects)

	payload := fc.published["fieldmap/records/camera"]
	require.NotNil(t, payload)

	var dto map[string]any
	require.NoError(t, json.Unmarshal(payload, &dto))
	assert.Equal(t, "record.created", dto["event"])
	assert.Equal(t, "Camera-A1-2024-01-01", dto["mode"])
	assert.Equal(t, "North Ridge", dto["record"].(map[string]any)["site"])
}

func TestPublisherReportsConnectFailure(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{connectErr: errors.Newf("refused").Category(errors.CategoryNetwork).Build()}
	p := NewPublisher(fc, "fieldmap/records", logger.NewNopLogger())

	err := p.ProcessEvent(events.NewRecordEvent(events.TypeRecordCreated, "map", entity.GeoArea{Name: "Eaton"}))
	require.Error(t, err)
	assert.Empty(t, fc.published)
}

func TestPublisherAsBusConsumer(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	bus := events.New(&events.Config{BufferSize: 4, Workers: 1}, logger.NewNopLogger())
	require.NoError(t, bus.RegisterConsumer(NewPublisher(fc, "t", logger.NewNopLogger())))

	require.True(t, bus.TryPublish(events.NewRecordEvent(events.TypeCommunityJoined, "community", entity.Community{Code: "abc"})))
	require.NoError(t, bus.Shutdown(time.Second))

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Contains(t, fc.published, "t/community")
}

func TestNewClientValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Broker: "localhost"}, nil, logger.NewNopLogger())
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = NewClient(Config{Broker: "tcp://localhost:1883", QoS: 3}, nil, logger.NewNopLogger())
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestClientConnectRefused(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewMQTTMetrics(registry)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Broker = "tcp://127.0.0.1:1"
	cfg.ConnectTimeout = 2 * time.Second
	c, err := NewClient(cfg, m, logger.NewNopLogger())
	require.NoError(t, err)

	err = c.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, c.IsConnected())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("connect")), 0)

	err = c.Connect(context.Background())
	require.Error(t, err, "second attempt inside the cooldown is refused")
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("connect")), 0)

	err = c.Publish(context.Background(), "t", []byte("x"))
	assert.True(t, errors.IsCategory(err, errors.CategoryPublish))
	c.Disconnect()
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{MQTT: conf.MQTTSettings{Broker: "tcp://b:1883", QoS: 2, Retain: true}}
	cfg := ConfigFromSettings(s)
	assert.Equal(t, "tcp://b:1883", cfg.Broker)
	assert.Equal(t, "fieldmap", cfg.ClientID)
	assert.Equal(t, "fieldmap/records", cfg.Topic)
	assert.Equal(t, byte(2), cfg.QoS)
	assert.True(t, cfg.Retain)
}
