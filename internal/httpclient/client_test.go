package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(client.Close)
	return client
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp == nil || resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		t.Logf("failed to close response body: %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	client := New(&Config{})
	assert.Equal(t, DefaultTimeout, client.defaultTimeout)
	assert.Equal(t, defaultUserAgent, client.userAgent)

	client = New(nil)
	assert.Equal(t, DefaultTimeout, client.defaultTimeout)

	client = New(&Config{DefaultTimeout: 5 * time.Second, UserAgent: "fieldmap-test/1.0"})
	assert.Equal(t, 5*time.Second, client.defaultTimeout)
	assert.Equal(t, "fieldmap-test/1.0", client.userAgent)
}

func TestGetSendsUserAgentAndHeaders(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "fieldmap-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"cameras":[]}`))
	})

	client := newTestClient(t, &Config{UserAgent: "fieldmap-test/1.0"})

	resp, err := client.Get(t.Context(), server.URL+"/get-markers", http.Header{"Authorization": {"Bearer tok"}})
	require.NoError(t, err)
	defer closeBody(t, resp)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cameras":[]}`, string(body))
}

func TestPostMarshalsJSON(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"set,5"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	client := newTestClient(t, nil)

	resp, err := client.Post(t.Context(), server.URL, "", map[string]string{"status": "set,5"}, nil)
	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDoHonoursCancellation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})
	client := newTestClient(t, nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	resp, err := client.Get(ctx, server.URL, nil)
	defer closeBody(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoAppliesDefaultTimeout(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client := newTestClient(t, &Config{DefaultTimeout: 30 * time.Millisecond})

	resp, err := client.Get(t.Context(), server.URL, nil)
	defer closeBody(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBodyReadableAfterDoReturns(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("late body"))
	})
	client := newTestClient(t, &Config{DefaultTimeout: time.Second})

	resp, err := client.Get(t.Context(), server.URL, nil)
	require.NoError(t, err)
	defer closeBody(t, resp)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "late body", string(body))
}

func TestHooksObserveRequests(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, "https://api.example.org/get-markers",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	client := newTestClient(t, &Config{Transport: transport})

	var before, after atomic.Int32
	client.SetBeforeRequestHook(func(r *http.Request) {
		before.Add(1)
		r.Header.Set("X-Request-ID", "abcd1234")
	})
	client.SetAfterResponseHook(func(r *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		after.Add(1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "abcd1234", r.Header.Get("X-Request-ID"))
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	})

	resp, err := client.Get(t.Context(), "https://api.example.org/get-markers", nil)
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, int32(1), before.Load())
	assert.Equal(t, int32(1), after.Load())
	assert.Equal(t, 1, transport.GetTotalCallCount())
}
