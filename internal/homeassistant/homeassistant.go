// Package homeassistant publishes MQTT discovery configs so Home
// Assistant can surface each contact input as a binary_sensor and the
// modem link as a diagnostic sensor, using the topics the telemetry
// package already publishes state to. Like telemetry, this is purely
// observational and has no command_topic: SMS remains the only way to
// reconfigure or control the system (spec.md §1 Non-goals).
package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/alarmdiald/internal/config"
	"github.com/daemonp/alarmdiald/internal/log"
	"github.com/daemonp/alarmdiald/internal/telemetry"
)

// HomeAssistant publishes discovery configs to a telemetry.Publisher.
type HomeAssistant struct {
	cfg    *config.HomeAssistantConfig
	mqtt   telemetry.Publisher
	log    *log.Logger
	inputs int
}

// New creates a HomeAssistant discovery publisher for numInputs contact
// inputs.
func New(cfg *config.HomeAssistantConfig, mqttClient telemetry.Publisher, numInputs int, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{cfg: cfg, mqtt: mqttClient, inputs: numInputs, log: logger}
}

// Start publishes discovery configs for every input and the modem
// health sensor. Intended to be called once, after the MQTT connection
// is established.
func (ha *HomeAssistant) Start() {
	if !ha.cfg.Discovery {
		return
	}
	ha.log.Info("publishing Home Assistant discovery configs")
	ha.publishModemHealthConfig()
	for i := 0; i < ha.inputs; i++ {
		ha.publishInputConfig(i)
	}
}

func (ha *HomeAssistant) publishModemHealthConfig() {
	cfg := map[string]interface{}{
		"name":                "Alarm dialler modem",
		"unique_id":           "alarmdiald_modem_health",
		"state_topic":         ha.mqtt.Topics().ModemHealth(),
		"entity_category":     "diagnostic",
		"json_attributes_topic": ha.mqtt.Topics().SignalQuality(),
	}
	ha.publishConfig("sensor", "modem_health", "", cfg)
}

func (ha *HomeAssistant) publishInputConfig(i int) {
	cfg := map[string]interface{}{
		"name":         fmt.Sprintf("Alarm input %d", i+1),
		"unique_id":    fmt.Sprintf("alarmdiald_input_%d", i),
		"state_topic":  ha.mqtt.Topics().Input(i),
		"payload_on":   "activated",
		"payload_off":  "deactivated",
		"device_class": "safety",
	}
	ha.publishConfig("binary_sensor", fmt.Sprintf("input_%d", i), "", cfg)
}

func (ha *HomeAssistant) publishConfig(component, objectID, deviceClass string, cfg map[string]interface{}) {
	topic := fmt.Sprintf("%s/%s/alarmdiald/%s/config", ha.cfg.Prefix, component, objectID)
	if deviceClass != "" {
		cfg["device_class"] = deviceClass
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		ha.log.Error("marshal Home Assistant config: %v", err)
		return
	}
	ha.mqtt.Publish(topic, string(payload), true)
}
