// Package tracker follows the rider's live position over MQTT.
//
// The broker publishes one scalar per topic under a common prefix, the way
// TeslaMate and OwnTracks bridges do:
//
//	<prefix>/latitude   decimal degrees
//	<prefix>/longitude  decimal degrees
//	<prefix>/speed      km/h
//	<prefix>/heading    degrees from north
//
// A position becomes available once both coordinates have been received.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ridewise/internal/config"
	"ridewise/internal/types"
)

const (
	connectTimeout       = 10 * time.Second
	defaultRetryInterval = 15 * time.Second
	disconnectQuiesce = 250 // milliseconds
	subscribeQoS      = byte(0)
)

// Topic suffixes below the configured prefix.
const (
	TopicLatitude  = "latitude"
	TopicLongitude = "longitude"
	TopicSpeed     = "speed"
	TopicHeading   = "heading"
)

// Tracker keeps the latest fix. It is safe for concurrent use; the MQTT
// callback goroutine writes while HTTP handlers read.
type Tracker struct {
	prefix string
	clock  types.Clock
	logger *slog.Logger

	mu        sync.RWMutex
	lat, lon  *float64
	speed     *float64
	heading   *float64
	updatedAt time.Time

	client mqtt.Client
}

// New creates a Tracker for topics under prefix. It does not connect.
func New(prefix string, clock types.Clock, logger *slog.Logger) *Tracker {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Tracker{
		prefix: strings.TrimSuffix(prefix, "/"),
		clock:  clock,
		logger: logger,
	}
}

// Topics returns the subscription filter for every tracked value.
func (t *Tracker) Topics() map[string]byte {
	topics := make(map[string]byte, 4)
	for _, suffix := range []string{TopicLatitude, TopicLongitude, TopicSpeed, TopicHeading} {
		topics[t.prefix+"/"+suffix] = subscribeQoS
	}
	return topics
}

// Connect dials the broker and subscribes. Subscriptions are re-established
// on every reconnect. A broker that is down keeps being retried in the
// background; Connect then gives up waiting after connectTimeout or when ctx
// ends and reports the pending connection as an error.
func (t *Tracker) Connect(ctx context.Context, cfg config.MQTTConfig) error {
	t.client = mqtt.NewClient(t.clientOptions(cfg))
	token := t.client.Connect()

	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("tracker connect: %w (retrying in background)", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("tracker connect: broker %s not reachable after %s (retrying in background)", cfg.BrokerURL, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("tracker connect: %w", err)
	}
	return nil
}

func (t *Tracker) clientOptions(cfg config.MQTTConfig) *mqtt.ClientOptions {
	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = defaultRetryInterval
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password.Unmask())
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(retry)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retry)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.SubscribeMultiple(t.Topics(), t.onMessage)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			t.logger.Error("tracker subscribe failed", "error", token.Error())
			return
		}
		t.logger.Info("tracker subscribed", "prefix", t.prefix)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		t.logger.Warn("tracker connection lost", "error", err)
	})
	return opts
}

// Close disconnects from the broker and stops any pending connect retries.
func (t *Tracker) Close() error {
	if t.client != nil {
		t.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

// Ping reports whether the broker connection is up. It serves as a health
// probe.
func (t *Tracker) Ping(_ context.Context) error {
	if t.client == nil || !t.client.IsConnectionOpen() {
		return fmt.Errorf("tracker not connected")
	}
	return nil
}

func (t *Tracker) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := t.Handle(msg.Topic(), msg.Payload()); err != nil {
		t.logger.Debug("tracker message ignored", "topic", msg.Topic(), "error", err)
	}
}

// Handle applies one message. Unknown topics and unparseable or non-finite
// payloads are rejected and leave the state untouched.
func (t *Tracker) Handle(topic string, payload []byte) error {
	suffix, ok := strings.CutPrefix(topic, t.prefix+"/")
	if !ok {
		return fmt.Errorf("topic %q outside prefix %q", topic, t.prefix)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", suffix, err)
	}
	if !isFinite(v) {
		return fmt.Errorf("parse %s: non-finite value", suffix)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch suffix {
	case TopicLatitude:
		if v < types.MinLat || v > types.MaxLat {
			return fmt.Errorf("latitude %v out of range", v)
		}
		t.lat = &v
		t.updatedAt = t.clock.Now()
	case TopicLongitude:
		if v < types.MinLon || v > types.MaxLon {
			return fmt.Errorf("longitude %v out of range", v)
		}
		t.lon = &v
		t.updatedAt = t.clock.Now()
	case TopicSpeed:
		t.speed = &v
	case TopicHeading:
		t.heading = &v
	default:
		return fmt.Errorf("unknown topic %q", topic)
	}
	return nil
}

// Position returns the latest fix, or not_found_position before both
// coordinates have arrived.
func (t *Tracker) Position(_ context.Context) (*types.Position, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.lat == nil || t.lon == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundPosition, "no position reported yet", nil)
	}
	return &types.Position{
		Location:   types.Location{Lat: *t.lat, Lon: *t.lon},
		SpeedKmh:   copyFloat(t.speed),
		Heading:    copyFloat(t.heading),
		ReceivedAt: t.updatedAt,
	}, nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
