// Package session implements the page containers. A container owns the
// store and the sidebar machine of one page and is the only writer of
// either; everything else gets the read side or a single-purpose method.
package session

import (
	"context"
	"sync"

	"github.com/afcommunity/fieldmap/internal/camstatus"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/events"
	"github.com/afcommunity/fieldmap/internal/fieldapi"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/sidebar"
	"github.com/afcommunity/fieldmap/internal/store"
)

// API is the part of the collaborator client a container calls.
type API interface {
	LoadMarkers(ctx context.Context) (entity.Markers, error)
	LoadCommunities(ctx context.Context) ([]entity.Community, error)
	Create(ctx context.Context, kind entity.Kind, sub entity.Submission) (*fieldapi.CreateResult, error)
	UpdateCameraStatus(ctx context.Context, cameraKey, status string) error
	JoinCommunity(ctx context.Context, code string) (*fieldapi.JoinResult, error)
	Members(ctx context.Context, code string) ([]entity.Member, error)
	UploadPhotos(ctx context.Context, files []entity.File) (string, error)
}

// Metrics receives container measurements. *metrics.SessionMetrics
// implements it.
type Metrics interface {
	SetCollectionSize(page, kind string, n int)
	RecordTransition(event string, accepted bool)
	RecordSubmission(kind, status string)
}

type noopMetrics struct{}

func (noopMetrics) SetCollectionSize(string, string, int) {}
func (noopMetrics) RecordTransition(string, bool)         {}
func (noopMetrics) RecordSubmission(string, string)       {}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the container logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPublisher sends record events to p.
func WithPublisher(p events.Publisher) Option {
	return func(c *Container) { c.bus = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Container) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithEditPolicy sets the policy of status editors handed out by the
// container. The default is camstatus.OptimisticNonReverting.
func WithEditPolicy(p camstatus.EditPolicy) Option {
	return func(c *Container) { c.policy = p }
}

// Container is the top-level owner of one page's state. mu serializes
// compound state changes and is never held across a network call.
type Container struct {
	api     API
	store   *store.Store
	machine *sidebar.Machine
	bus     events.Publisher
	metrics Metrics
	policy  camstatus.EditPolicy
	log     logger.Logger

	mu      sync.Mutex
	loaded  bool
	editors map[string]*camstatus.Editor
}

// NewMapPage returns the container of the map page: cameras, sightings and
// areas.
func NewMapPage(api API, opts ...Option) *Container {
	return newContainer(store.PageMap, api, opts...)
}

// NewCommunityPage returns the container of the community page.
func NewCommunityPage(api API, opts ...Option) *Container {
	return newContainer(store.PageCommunity, api, opts...)
}

func newContainer(page store.Page, api API, opts ...Option) *Container {
	c := &Container{
		api:     api,
		metrics: noopMetrics{},
		policy:  camstatus.OptimisticNonReverting,
		editors: make(map[string]*camstatus.Editor),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Global().Module("session")
	}
	c.log = c.log.With(logger.String("page", page.String()))
	c.store = store.New(page, store.WithLogger(c.log))
	c.machine = sidebar.NewMachine(c.log)
	return c
}

// Page returns the page this container serves.
func (c *Container) Page() store.Page { return c.store.Page() }

// Reader returns the read side of the page store.
func (c *Container) Reader() store.Reader { return c.store }

// Mode returns the current sidebar mode.
func (c *Container) Mode() sidebar.Mode { return c.machine.Mode() }

// Directive renders the current mode.
func (c *Container) Directive() sidebar.Directive {
	return sidebar.Render(c.machine.Mode(), c.store)
}

// Subscribe registers a sidebar listener.
func (c *Container) Subscribe(l sidebar.Listener) func() {
	return c.machine.Subscribe(l)
}

// Fire applies a user event to the sidebar.
func (c *Container) Fire(ev sidebar.Event) (sidebar.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fireLocked(ev)
}

func (c *Container) fireLocked(ev sidebar.Event) (sidebar.Mode, error) {
	mode, err := c.machine.Fire(ev)
	c.metrics.RecordTransition(ev.Type.String(), err == nil)
	return mode, err
}

func (c *Container) reportSizes() {
	page := c.store.Page()
	for kind, n := range c.store.Counts() {
		c.metrics.SetCollectionSize(page.String(), kind.String(), n)
	}
}

func (c *Container) publish(t events.Type, rec entity.Record, metadata map[string]any) {
	if c.bus == nil {
		return
	}
	ev := events.NewRecordEvent(t, c.store.Page().String(), rec)
	ev.Metadata = metadata
	if !c.bus.TryPublish(ev) {
		c.log.Debug("record event not published",
			logger.String("type", string(t)),
			logger.String("ref", ev.Ref.String()))
	}
}
