package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldAPIMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewFieldAPIMetrics(reg)
	require.NoError(t, err)

	m.RecordOperation(OpMembers, StatusSuccess)
	m.RecordOperation(OpMembers, StatusSuccess)
	m.RecordError(OpCreate, "network")
	m.RecordDuration(OpCreate, 0.25)
	m.RecordCacheResult(CacheHit)

	assert.InDelta(t, 2, testutil.ToFloat64(m.requestsTotal.WithLabelValues(OpMembers, StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues(OpCreate, "network")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.membersCache.WithLabelValues(CacheHit)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	_, err = NewFieldAPIMetrics(reg)
	require.Error(t, err, "second registration on the same registry fails")
}

func TestSessionMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewSessionMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetCollectionSize("map", "camera", 4)
	m.SetCollectionSize("map", "camera", 5)
	m.RecordTransition("submit_succeeded", false)
	m.RecordSubmission("area", StatusStale)

	assert.InDelta(t, 5, testutil.ToFloat64(m.collectionSize.WithLabelValues("map", "camera")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("submit_succeeded", "rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.submissions.WithLabelValues("area", StatusStale)), 0)
}

func TestMQTTMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.Positive(t, testutil.ToFloat64(m.LastConnectTime))
	m.UpdateConnectionStatus(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ConnectionStatus), 0)

	m.ObservePublish(512, 20*time.Millisecond)
	m.IncrementErrors("publish")
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesDelivered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("publish")), 0)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewHTTPMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordRequest("GET", "/api/v1/directive", 200, 0.01, 120)
	m.RecordRequest("GET", "/api/v1/directive", 200, 0.02, -1)
	assert.InDelta(t, 2, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/directive", "200")), 0)
}

func TestTestRecorder(t *testing.T) {
	t.Parallel()

	r := NewTestRecorder()
	r.RecordOperation(OpJoinCommunity, StatusRejected)
	r.RecordError(OpJoinCommunity, "application-rejected")
	r.RecordDuration(OpJoinCommunity, 0.5)

	assert.Equal(t, 1, r.OperationCount(OpJoinCommunity, StatusRejected))
	assert.Equal(t, 0, r.OperationCount(OpMembers, StatusSuccess))
	assert.Equal(t, 1, r.ErrorCount(OpJoinCommunity, "application-rejected"))
	assert.Equal(t, []float64{0.5}, r.Durations(OpJoinCommunity))

	var noop Recorder = NoOpRecorder{}
	noop.RecordOperation("x", "y")
}
