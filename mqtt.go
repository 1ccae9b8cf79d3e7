package main

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/genmon-tools/ha-bridge/discovery"
)

const (
	connectRetryDelay = 5 * time.Second
	publishTimeout    = 5 * time.Second

	// haStatusTopic carries Home Assistant's birth/will messages. A birth
	// payload means HA restarted and lost non-retained runtime state, so the
	// bridge re-announces everything it has registered.
	haStatusTopic   = "homeassistant/status"
	haOnlinePayload = "online"
)

// MQTTListener owns the broker connection: it subscribes to the genmon
// topic tree, feeds every message to the registry, and is the Publisher the
// registry emits descriptors through.
type MQTTListener struct {
	cfg      *MQTTSettings
	topic    string
	client   mqtt.Client
	registry *discovery.Registry
	events   *eventStream
	log      *slog.Logger
}

func NewMQTTListener(cfg *MQTTSettings, topic string, events *eventStream, log *slog.Logger) *MQTTListener {
	return &MQTTListener{
		cfg:    cfg,
		topic:  topic,
		events: events,
		log:    log.With("component", "mqtt"),
	}
}

// Start connects to the broker and blocks until the first connection
// succeeds, retrying on failure. Subscriptions and the command buttons are
// (re)established by the OnConnect handler, so they survive reconnects.
//
// paho delivers messages to handlers in order on a single router goroutine
// (Order is true by default), which is what lets the registry process one
// message to completion before the next arrives.
func (l *MQTTListener) Start(registry *discovery.Registry) {
	l.registry = registry

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", l.cfg.Host, l.cfg.Port))
	opts.SetClientID(l.cfg.ClientID)
	opts.SetUsername(l.cfg.Username)
	opts.SetPassword(l.cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		l.onConnected(c)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		l.log.Warn("connection lost", "error", err)
	})

	l.client = mqtt.NewClient(opts)
	for {
		tok := l.client.Connect()
		if !tok.WaitTimeout(connectRetryDelay) {
			l.log.Warn("timeout connecting to MQTT broker, retrying")
			continue
		}
		if err := tok.Error(); err != nil {
			l.log.Error("error connecting to MQTT broker", "error", err)
			time.Sleep(connectRetryDelay)
			continue
		}
		break
	}
	l.log.Info("connected to MQTT broker", "host", l.cfg.Host, "port", l.cfg.Port)
}

func (l *MQTTListener) onConnected(c mqtt.Client) {
	c.Subscribe(l.topic, 0, func(_ mqtt.Client, m mqtt.Message) {
		l.handleMessage(m.Topic(), string(m.Payload()))
	})
	l.log.Info("subscribed", "topic", l.topic)

	c.Subscribe(haStatusTopic, 0, func(_ mqtt.Client, m mqtt.Message) {
		if string(m.Payload()) == haOnlinePayload {
			l.log.Info("home assistant came online, republishing descriptors")
			l.registry.RepublishAll()
		}
	})

	if err := l.registry.RegisterButtons(); err != nil {
		l.log.Error("button registration failed", "error", err)
	}
}

func (l *MQTTListener) handleMessage(topic, payload string) {
	l.log.Debug("message received", "topic", topic, "payload", payload)

	ev := l.registry.HandleMessage(topic, payload)
	recordEvent(ev)
	l.events.Broadcast(ev)
}

// PublishRetained implements discovery.Publisher. Retention matters:
// descriptors must outlive both this process and the platform on the
// broker.
func (l *MQTTListener) PublishRetained(topic string, payload []byte) error {
	tok := l.client.Publish(topic, 1, true, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout after %v", topic, publishTimeout)
	}
	return tok.Error()
}

func (l *MQTTListener) Stop() {
	if l.client != nil && l.client.IsConnected() {
		l.client.Disconnect(250)
	}
}
