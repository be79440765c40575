package mqtt

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
	"github.com/afcommunity/fieldmap/internal/privacy"
)

// client implements Client on top of paho.
type client struct {
	config          Config
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         *metrics.MQTTMetrics
	log             logger.Logger
}

// NewClient creates an MQTT client. m may be nil.
func NewClient(cfg Config, m *metrics.MQTTMetrics, log logger.Logger) (Client, error) {
	u, err := url.Parse(cfg.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid broker URL %q", cfg.Broker).
			Category(errors.CategoryConfiguration).
			Component("mqtt").
			Build()
	}
	if cfg.QoS > 2 {
		return nil, errors.Newf("invalid qos %d", cfg.QoS).
			Category(errors.CategoryConfiguration).
			Component("mqtt").
			Build()
	}
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &client{
		config:  cfg,
		metrics: m,
		log:     log.With(logger.String("broker", privacy.RedactURL(cfg.Broker))),
	}, nil
}

func (c *client) options() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)
	return opts
}

// Connect attempts to establish a connection to the MQTT broker. Attempts
// closer together than the reconnect cooldown are refused.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", since.Round(time.Millisecond)).
			Category(errors.CategoryNetwork).
			Component("mqtt").
			Build()
	}
	c.lastConnAttempt = time.Now()

	if c.internalClient == nil {
		c.internalClient = paho.NewClient(c.options())
	}

	token := c.internalClient.Connect()
	if err := c.wait(ctx, token, c.config.ConnectTimeout); err != nil {
		c.incrementErrors("connect")
		return errors.New(fmt.Errorf("connect: %w", err)).
			Category(errors.CategoryNetwork).
			Component("mqtt").
			Build()
	}
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil || !c.internalClient.IsConnected() {
		c.incrementErrors("publish")
		return errors.Newf("not connected to MQTT broker").
			Category(errors.CategoryPublish).
			Component("mqtt").
			Context("topic", topic).
			Build()
	}

	start := time.Now()
	token := c.internalClient.Publish(topic, c.config.QoS, c.config.Retain, payload)
	if err := c.wait(ctx, token, c.config.PublishTimeout); err != nil {
		c.incrementErrors("publish")
		return errors.New(fmt.Errorf("publish: %w", err)).
			Category(errors.CategoryPublish).
			Component("mqtt").
			Context("topic", topic).
			Build()
	}

	if c.metrics != nil {
		c.metrics.ObservePublish(len(payload), time.Since(start))
	}
	c.log.Debug("published record event",
		logger.String("topic", topic),
		logger.Int("size", len(payload)))
	return nil
}

// wait blocks until token completes, ctx ends or timeout passes.
func (c *client) wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %v", timeout)
	}
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient != nil && c.internalClient.IsConnectionOpen() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		c.log.Info("disconnected from MQTT broker")
	}
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
}

func (c *client) onConnect(paho.Client) {
	c.log.Info("connected to MQTT broker")
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(true)
	}
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	c.log.Warn("connection to MQTT broker lost", logger.Error(err))
	if c.metrics != nil {
		c.metrics.UpdateConnectionStatus(false)
	}
	c.incrementErrors("connection_lost")
}

func (c *client) onReconnecting(paho.Client, *paho.ClientOptions) {
	c.log.Debug("reconnecting to MQTT broker")
	if c.metrics != nil {
		c.metrics.Reconnects.Inc()
	}
}

func (c *client) incrementErrors(stage string) {
	if c.metrics != nil {
		c.metrics.IncrementErrors(stage)
	}
}
