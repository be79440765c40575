// Package app assembles the collaborator client, page containers, event bus
// and optional MQTT publisher from the settings. Every CLI command builds
// one App and closes it on exit.
package app

import (
	"context"
	"time"

	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/events"
	"github.com/afcommunity/fieldmap/internal/fieldapi"
	"github.com/afcommunity/fieldmap/internal/httpclient"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/mqtt"
	"github.com/afcommunity/fieldmap/internal/observability"
	"github.com/afcommunity/fieldmap/internal/panel"
	"github.com/afcommunity/fieldmap/internal/session"
)

const busShutdownTimeout = 5 * time.Second

// App holds the wired components.
type App struct {
	Settings      *conf.Settings
	Metrics       *observability.Metrics
	Client        *fieldapi.Client
	Bus           *events.EventBus
	MapPage       *session.Container
	CommunityPage *session.Container
	Renderer      *panel.Renderer

	mqttClient mqtt.Client
	log        logger.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	http   *httpclient.Client
	mqtt   mqtt.Client
	logger logger.Logger
}

// WithHTTPClient replaces the collaborator HTTP client.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(o *options) { o.http = c }
}

// WithMQTTClient replaces the broker client built from the settings.
func WithMQTTClient(c mqtt.Client) Option {
	return func(o *options) { o.mqtt = c }
}

// WithLogger sets the base logger; module loggers are derived from it.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New wires the application. The pages are not loaded.
func New(settings *conf.Settings, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	module := func(name string) logger.Logger {
		if o.logger != nil {
			return o.logger.Module(name)
		}
		return logger.Global().Module(name)
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	httpClient := o.http
	if httpClient == nil {
		httpClient = httpclient.New(&httpclient.Config{
			DefaultTimeout: settings.API.Timeout,
			UserAgent:      settings.API.UserAgent,
		})
	}

	client, err := fieldapi.NewClient(fieldapi.Config{
		BaseURL:         settings.API.BaseURL,
		UID:             settings.API.UID,
		Token:           settings.API.Token,
		Timeout:         settings.API.Timeout,
		MembersCacheTTL: settings.API.MembersCacheTTL,
		HTTP:            httpClient,
		Logger:          module("fieldapi"),
		Metrics:         m.FieldAPI,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings: settings,
		Metrics:  m,
		Client:   client,
		Bus:      events.New(events.DefaultConfig(), module("events")),
		Renderer: panel.New(settings.Location()),
		log:      module("app"),
	}

	if err := a.Bus.RegisterConsumer(newActivityLog(module("activity"))); err != nil {
		return nil, err
	}
	if err := a.initMQTT(o.mqtt, module("mqtt")); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	sessionOpts := []session.Option{
		session.WithPublisher(a.Bus),
		session.WithMetrics(m.Session),
	}
	a.MapPage = session.NewMapPage(client,
		append(sessionOpts, session.WithLogger(module("map")))...)
	a.CommunityPage = session.NewCommunityPage(client,
		append(sessionOpts, session.WithLogger(module("community")))...)

	return a, nil
}

func (a *App) initMQTT(client mqtt.Client, log logger.Logger) error {
	if !a.Settings.MQTT.Enabled {
		return nil
	}
	cfg := mqtt.ConfigFromSettings(a.Settings)
	if client == nil {
		var err error
		if client, err = mqtt.NewClient(cfg, a.Metrics.MQTT, log); err != nil {
			return err
		}
	}
	a.mqttClient = client
	log.Info("publishing record events",
		logger.String("broker", cfg.Broker),
		logger.String("topic", cfg.Topic))
	return a.Bus.RegisterConsumer(mqtt.NewPublisher(client, cfg.Topic, log))
}

// Close drains the event bus, disconnects from the broker and releases idle
// connections.
func (a *App) Close(ctx context.Context) {
	timeout := busShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if a.Bus != nil {
		if err := a.Bus.Shutdown(timeout); err != nil {
			a.log.Warn("event bus did not drain", logger.Error(err))
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	if a.Client != nil {
		a.Client.Close()
	}
}

// activityLog writes one line per record event.
type activityLog struct {
	log logger.Logger
}

func newActivityLog(log logger.Logger) *activityLog {
	return &activityLog{log: log}
}

func (l *activityLog) Name() string { return "activity-log" }

func (l *activityLog) ProcessEvent(ev events.RecordEvent) error {
	fields := []logger.Field{
		logger.String("event", string(ev.Type)),
		logger.String("page", ev.Page),
		logger.String("ref", ev.Ref.String()),
	}
	if status, ok := ev.Metadata["status"].(string); ok {
		fields = append(fields, logger.String("status", status))
	}
	l.log.Info("record activity", fields...)
	return nil
}
