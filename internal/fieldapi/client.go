package fieldapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/httpclient"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
)

const (
	// RequestIDHeader carries the short id that also tags log lines.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes  = 16 << 20
	maxPreviewLength  = 500
	cacheCleanupRatio = 2
)

// Client talks to the collaborator API. It is safe for concurrent use.
type Client struct {
	baseURL string
	uid     string
	token   string
	http    *httpclient.Client
	log     logger.Logger
	metrics metrics.Recorder

	members      *cache.Cache
	membersTTL   time.Duration
	membersGroup singleflight.Group
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("collaborator API base URL %q is not absolute", cfg.BaseURL).
			Category(errors.CategoryConfiguration).
			Component("fieldapi").
			Build()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MembersCacheTTL < 0 {
		cfg.MembersCacheTTL = 0
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		uid:        cfg.UID,
		token:      cfg.Token,
		http:       cfg.HTTP,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
		members:    cache.New(cfg.MembersCacheTTL, cfg.MembersCacheTTL*cacheCleanupRatio),
		membersTTL: cfg.MembersCacheTTL,
	}
	if c.http == nil {
		c.http = httpclient.New(&httpclient.Config{DefaultTimeout: cfg.Timeout})
	}
	if c.log == nil {
		c.log = logger.Global().Module("fieldapi")
	}
	if c.metrics == nil {
		c.metrics = metrics.NoOpRecorder{}
	}

	c.log.Info("collaborator API client initialized",
		logger.String("base_url", c.baseURL),
		logger.Duration("members_cache_ttl", cfg.MembersCacheTTL),
		logger.Bool("token_configured", c.token != ""),
		logger.Bool("uid_configured", c.uid != ""))

	return c, nil
}

// UID returns the user id sent with uid-scoped requests.
func (c *Client) UID() string { return c.uid }

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

// request describes one call.
type request struct {
	op             string
	method         string
	path           string
	contentType    string
	body           any
	noAuth         bool
	requireSuccess bool // a 2xx body without "success": true is rejected
}

func newRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// do sends req and decodes a successful body into out. Transport failures
// come back as CategoryNetwork, non-2xx and success:false as
// CategoryRejected.
func (c *Client) do(ctx context.Context, req request, out any) error {
	requestID := newRequestID()
	ctx = logger.WithTraceID(ctx, requestID)
	log := c.log.WithContext(ctx).With(
		logger.String("operation", req.op),
		logger.String("request_id", requestID))

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set(RequestIDHeader, requestID)
	if !req.noAuth && c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	target := c.baseURL + req.path
	start := time.Now()

	var (
		resp *http.Response
		err  error
	)
	if req.method == http.MethodGet {
		resp, err = c.http.Get(ctx, target, header)
	} else {
		resp, err = c.http.Post(ctx, target, req.contentType, req.body, header)
	}
	elapsed := time.Since(start)
	c.metrics.RecordDuration(req.op, elapsed.Seconds())

	if err != nil {
		ee := transportError(err, req, target, elapsed)
		c.recordFailure(req.op, ee)
		log.Warn("collaborator API request failed",
			logger.Error(err),
			logger.Duration("elapsed", elapsed))
		return ee
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug("failed to close response body", logger.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		ee := errors.New(fmt.Errorf("read response body: %w", err)).
			Category(errors.CategoryNetwork).
			Component("fieldapi").
			RequestContext(req.op, req.method, target).
			Context("status_code", resp.StatusCode).
			Build()
		c.recordFailure(req.op, ee)
		return ee
	}

	var env envelope
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ee := errors.Newf("collaborator API returned status %d: %s", resp.StatusCode, messageOrPreview(env, body)).
			Category(errors.CategoryRejected).
			Component("fieldapi").
			RequestContext(req.op, req.method, target).
			Context("status_code", resp.StatusCode).
			Context("request_id", requestID).
			Build()
		c.recordFailure(req.op, ee)
		log.Warn("collaborator API rejected request",
			logger.Int("status_code", resp.StatusCode),
			logger.String("message", env.Message))
		return ee
	}

	if env.rejected(req.requireSuccess) {
		ee := errors.Newf("collaborator API rejected %s: %s", req.op, messageOrPreview(env, body)).
			Category(errors.CategoryRejected).
			Component("fieldapi").
			RequestContext(req.op, req.method, target).
			Context("status_code", resp.StatusCode).
			Context("request_id", requestID).
			Build()
		c.recordFailure(req.op, ee)
		log.Warn("collaborator API reported failure", logger.String("message", env.Message))
		return ee
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			ee := errors.New(fmt.Errorf("decode %s response: %w", req.op, err)).
				Category(errors.CategoryFileParsing).
				Component("fieldapi").
				RequestContext(req.op, req.method, target).
				Context("response_size", len(body)).
				Build()
			c.recordFailure(req.op, ee)
			log.Error("failed to parse collaborator API response",
				logger.Error(err),
				logger.String("response_preview", preview(body)))
			return ee
		}
	}

	c.metrics.RecordOperation(req.op, metrics.StatusSuccess)
	log.Debug("collaborator API request completed",
		logger.Int("status_code", resp.StatusCode),
		logger.Duration("elapsed", elapsed),
		logger.Int("response_size", len(body)))
	return nil
}

func transportError(err error, req request, target string, elapsed time.Duration) *errors.EnhancedError {
	category := errors.CategoryNetwork
	switch {
	case errors.Is(err, context.Canceled):
		category = errors.CategoryCancellation
	case errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryTimeout
	}
	return errors.New(err).
		Category(category).
		Component("fieldapi").
		RequestContext(req.op, req.method, target).
		Timing(req.op, elapsed).
		Build()
}

func (c *Client) recordFailure(op string, ee *errors.EnhancedError) {
	status := metrics.StatusError
	if ee.Category == errors.CategoryRejected {
		status = metrics.StatusRejected
	}
	c.metrics.RecordOperation(op, status)
	c.metrics.RecordError(op, string(ee.Category))
}

func messageOrPreview(env envelope, body []byte) string {
	if env.Message != "" {
		return env.Message
	}
	return preview(body)
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxPreviewLength {
		return s[:maxPreviewLength] + "..."
	}
	return s
}

func pathSegment(s string) string {
	return "/" + url.PathEscape(s)
}
