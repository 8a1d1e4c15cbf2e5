/*
 * Copyright (c) 2021 IBM Corp and others.
 *
 * All rights reserved. This program and the accompanying materials
 * are made available under the terms of the Eclipse Public License v2.0
 * and Eclipse Distribution License v1.0 which accompany this distribution.
 *
 * The Eclipse Public License is available at
 *    https://www.eclipse.org/legal/epl-2.0/
 * and the Eclipse Distribution License is available at
 *   http://www.eclipse.org/org/documents/edl-v10.php.
 *
 * Contributors:
 *    Seth Hoenig
 *    Allan Stockdill-Mander
 *    Mike Robertson
 */

// Package mqttlink carries flock messages over an MQTT broker. The node
// subscribes to its own identity and publishes to each message's recipient.
package mqttlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"flock-camera-sensor/flockapi"
	"flock-camera-sensor/pipeline"
)

var ErrPublishTimeout = errors.New("mqttlink: publish timed out")

// Events buffered between paho's router and intake. Overflow is dropped.
const eventBuffer = 64

type Config struct {
	// Broker is a paho broker URL, e.g. tcp://192.168.1.57:1883.
	Broker string
	// ClientID is the node identity. It doubles as the inbound topic.
	ClientID string
	QoS      byte

	KeepAlive            time.Duration
	PingTimeout          time.Duration
	ConnectTimeout       time.Duration
	PublishTimeout       time.Duration
	MaxReconnectInterval time.Duration

	// ReconnectInterval is the pause between failed initial connects.
	ReconnectInterval time.Duration
	// MaxConnectAttempts bounds the initial connect. 0 means unlimited.
	MaxConnectAttempts int
}

func DefaultConfig() Config {
	return Config{
		QoS:                  0,
		KeepAlive:            2 * time.Second,
		PingTimeout:          1 * time.Second,
		ConnectTimeout:       10 * time.Second,
		PublishTimeout:       5 * time.Second,
		MaxReconnectInterval: 30 * time.Second,
		ReconnectInterval:    2 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

// Link implements pipeline.Inbound and pipeline.Outbound.
type Link struct {
	cfg    Config
	log    *slog.Logger
	client mqtt.Client

	events  chan pipeline.Event
	dropped atomic.Uint64

	stopped   chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
}

func newLink(cfg Config, log *slog.Logger) *Link {
	if log == nil {
		log = slog.Default()
	}
	return &Link{
		cfg:    cfg,
		log:    log.With("component", "mqtt", "broker", cfg.Broker),
		events:  make(chan pipeline.Event, eventBuffer),
		stopped: make(chan struct{}),
	}
}

// Dial connects to the broker, retrying every ReconnectInterval until it
// succeeds, ctx ends or MaxConnectAttempts is reached. Once connected, paho
// reconnects on its own and each (re)connect re-subscribes and emits
// pipeline.EventConnected.
func Dial(ctx context.Context, cfg Config, log *slog.Logger) (*Link, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}
	l := newLink(cfg, log)

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetPingTimeout(cfg.PingTimeout)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	opts.SetDefaultPublishHandler(l.onMessage)
	opts.SetOnConnectHandler(l.onConnect)
	opts.SetConnectionLostHandler(l.onConnectionLost)
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		l.log.Info("reconnecting to broker")
	})
	l.client = mqtt.NewClient(opts)

	attempts := 0
	for {
		l.log.Info("connecting to broker", "client_id", cfg.ClientID)
		token := l.client.Connect()
		if token.Wait() && token.Error() == nil {
			return l, nil
		}
		err := token.Error()

		attempts++
		if cfg.MaxConnectAttempts > 0 && attempts >= cfg.MaxConnectAttempts {
			return nil, fmt.Errorf("max connect attempts (%d) reached: %w", cfg.MaxConnectAttempts, err)
		}
		l.log.Warn("broker connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", cfg.ReconnectInterval,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.ReconnectInterval):
		}
	}
}

func (l *Link) onConnect(client mqtt.Client) {
	select {
	case <-l.stopped:
		return
	default:
	}
	l.log.Info("subscribing", "topic", l.cfg.ClientID)
	token := client.Subscribe(l.cfg.ClientID, l.cfg.QoS, l.onMessage)
	if token.Wait() && token.Error() != nil {
		l.push(pipeline.Event{Kind: pipeline.EventError, Err: fmt.Errorf("subscribe %s: %w", l.cfg.ClientID, token.Error())})
		return
	}
	l.push(pipeline.Event{Kind: pipeline.EventConnected})
}

func (l *Link) onConnectionLost(_ mqtt.Client, err error) {
	l.log.Warn("connection lost", "error", err)
	l.push(pipeline.Event{Kind: pipeline.EventDisconnected, Err: err})
}

func (l *Link) onMessage(_ mqtt.Client, msg mqtt.Message) {
	l.log.Debug("message received", "topic", msg.Topic(), "size", len(msg.Payload()))
	l.push(pipeline.Decode(msg.Payload()))
}

// push runs on paho's router goroutine and must not block it.
func (l *Link) push(ev pipeline.Event) {
	select {
	case <-l.stopped:
		return
	default:
	}
	select {
	case l.events <- ev:
	default:
		n := l.dropped.Add(1)
		l.log.Warn("intake backlog full, dropping event", "kind", ev.Kind.String(), "dropped", n)
	}
}

// Dropped counts events discarded because intake fell behind.
func (l *Link) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *Link) Next() (pipeline.Event, error) {
	select {
	case <-l.stopped:
		return pipeline.Event{}, pipeline.ErrInboundClosed
	default:
	}
	select {
	case ev := <-l.events:
		return ev, nil
	case <-l.stopped:
		return pipeline.Event{}, pipeline.ErrInboundClosed
	}
}

// Stop unsubscribes and unblocks Next. The connection stays up so Publish
// keeps working until Close.
func (l *Link) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopped)
		if l.client == nil || !l.client.IsConnectionOpen() {
			return
		}
		token := l.client.Unsubscribe(l.cfg.ClientID)
		if !token.WaitTimeout(l.cfg.PublishTimeout) {
			err = fmt.Errorf("unsubscribe %s: timed out", l.cfg.ClientID)
			return
		}
		if terr := token.Error(); terr != nil {
			err = fmt.Errorf("unsubscribe %s: %w", l.cfg.ClientID, terr)
		}
	})
	return err
}

// Publish encodes msg and publishes it to msg.Destination. It does not retry.
func (l *Link) Publish(msg flockapi.Message) error {
	data, err := flockapi.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	token := l.client.Publish(msg.Destination, l.cfg.QoS, false, data)
	if !token.WaitTimeout(l.cfg.PublishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Destination, err)
	}
	return nil
}

// Close stops receiving and disconnects. It is safe to call more than once.
func (l *Link) Close() error {
	err := l.Stop()
	l.closeOnce.Do(func() {
		if l.client != nil {
			l.client.Disconnect(250)
		}
	})
	return err
}
