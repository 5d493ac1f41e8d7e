// Package telemetry provides an optional, off-by-default MQTT
// diagnostics publisher: modem health, signal quality, and input state,
// for an operator's dashboard. It never drives control-plane decisions
// — SMS remains the sole command channel (spec.md §1 Non-goals) — and
// the control loop's behaviour is identical whether or not telemetry
// is enabled.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/alarmdiald/internal/config"
	"github.com/daemonp/alarmdiald/internal/log"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"
)

// MQTT publishes diagnostics to a broker per config.MQTTConfig.
type MQTT struct {
	cfg    *config.MQTTConfig
	log    *log.Logger
	client mqtt.Client
	topics *Topics
	mu     sync.Mutex
}

// New creates an MQTT telemetry publisher. Connect must be called
// before Publish has any effect.
func New(cfg *config.MQTTConfig, logger *log.Logger) *MQTT {
	return &MQTT{
		cfg:    cfg,
		log:    logger,
		topics: NewTopics(cfg.Prefix),
	}
}

// Topics returns the topic namer this publisher uses.
func (m *MQTT) Topics() *Topics {
	return m.topics
}

// Connect dials the configured broker and announces this daemon online.
func (m *MQTT) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", m.cfg.Host, m.cfg.Port))
	opts.SetClientID(m.cfg.ClientID)
	opts.SetUsername(m.cfg.Username)
	opts.SetPassword(m.cfg.Password)
	opts.SetCleanSession(m.cfg.Clean)
	opts.SetKeepAlive(time.Duration(m.cfg.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(m.onDisconnect)
	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.cfg.QOS), m.cfg.Retain)

	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("telemetry: connect to MQTT broker: %w", token.Error())
	}

	m.log.Info("connected to telemetry broker %s:%d", m.cfg.Host, m.cfg.Port)
	m.Publish(m.topics.Status(), onlinePayload, true)
	return nil
}

func (m *MQTT) onDisconnect(_ mqtt.Client, err error) {
	m.log.Error("telemetry broker connection lost: %v", err)
}

// Publish sends payload (marshalled as a plain string via fmt) to
// topic.
func (m *MQTT) Publish(topic string, payload interface{}, retain bool) {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return
	}

	token := client.Publish(topic, byte(m.cfg.QOS), retain, fmt.Sprintf("%v", payload))
	if token.Wait() && token.Error() != nil {
		m.log.Error("telemetry: publish to %s: %v", topic, token.Error())
	}
}

// Close announces this daemon offline and disconnects.
func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.Publish(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}
