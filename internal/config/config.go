// Package config loads the daemon's own YAML configuration: serial
// transport parameters, GPIO pin assignments and ambient integrations.
// This is distinct from internal/settings, which is the persisted,
// SMS-mutable alarm configuration record.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Serial        SerialConfig        `yaml:"serial"`
	GPIO          GPIOConfig          `yaml:"gpio"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Log           string              `yaml:"log"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// GPIOConfig assigns physical pins. Inputs has one entry per alarm
// contact input (default 3, matching settings.NumInputs).
type GPIOConfig struct {
	Inputs        []int `yaml:"inputs"`
	PasswordReset int   `yaml:"password_reset"`
	HeartbeatLED  int   `yaml:"heartbeat_led"`
	WatchdogFeed  int   `yaml:"watchdog_feed"`
}

type PersistenceConfig struct {
	Path string `yaml:"path"`
}

type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Serial.Port == "" {
		cfg.Serial.Port = "/dev/ttyUSB0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	if len(cfg.GPIO.Inputs) == 0 {
		cfg.GPIO.Inputs = []int{2, 3, 4}
	}
	if cfg.GPIO.PasswordReset == 0 {
		cfg.GPIO.PasswordReset = 5
	}
	if cfg.GPIO.HeartbeatLED == 0 {
		cfg.GPIO.HeartbeatLED = 25
	}
	if cfg.Persistence.Path == "" {
		cfg.Persistence.Path = "/var/lib/alarmdiald/settings.bin"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "alarmdiald"
	}
	if cfg.MQTT.Host == "" {
		cfg.MQTT.Host = "localhost"
	}
	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = 1883
	}
	if cfg.MQTT.Keepalive == 0 {
		cfg.MQTT.Keepalive = 60
	}
	if cfg.MQTT.Prefix == "" {
		cfg.MQTT.Prefix = "alarmdiald"
	}
	if cfg.HomeAssistant.Prefix == "" {
		cfg.HomeAssistant.Prefix = "homeassistant"
	}
	if cfg.Log == "" {
		cfg.Log = "info"
	}
}
