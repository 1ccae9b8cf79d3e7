package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type MQTTSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
}

type BridgeSettings struct {
	// DiscoveryPrefix is the Home Assistant discovery namespace.
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	// GenmonTopic is the upstream subscription filter, e.g. "generator/#".
	// Its first segment doubles as the command-topic prefix.
	GenmonTopic string `yaml:"genmon_topic"`

	// Listen is the address serving /metrics and /ws.
	Listen string `yaml:"listen"`
}

type DeviceSettings struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
}

type OriginSettings struct {
	Name       string `yaml:"name"`
	SWVersion  string `yaml:"sw_version"`
	SupportURL string `yaml:"support_url"`
}

type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	MQTT    MQTTSettings    `yaml:"mqtt"`
	Bridge  BridgeSettings  `yaml:"bridge"`
	Device  DeviceSettings  `yaml:"device"`
	Origin  OriginSettings  `yaml:"origin"`
	Logging LoggingSettings `yaml:"logging"`
}

// LoadConfig reads the YAML config at path. A missing file is not an error:
// the bridge runs against a local broker with the stock genmon topology out
// of the box.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MQTT.Host == "" {
		c.MQTT.Host = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "genmon-ha-bridge"
	}
	if c.Bridge.DiscoveryPrefix == "" {
		c.Bridge.DiscoveryPrefix = "homeassistant"
	}
	if c.Bridge.GenmonTopic == "" {
		c.Bridge.GenmonTopic = "generator/#"
	}
	if c.Bridge.Listen == "" {
		c.Bridge.Listen = ":8080"
	}
	if c.Device.ID == "" {
		c.Device.ID = "Genmon_Generator"
	}
	if c.Device.Name == "" {
		c.Device.Name = "Generator"
	}
	if c.Device.Manufacturer == "" {
		c.Device.Manufacturer = "GenMon"
	}
	if c.Device.Model == "" {
		c.Device.Model = "Generator Monitor"
	}
	if c.Origin.Name == "" {
		c.Origin.Name = "Generator Monitor"
	}
	if c.Origin.SWVersion == "" {
		c.Origin.SWVersion = "Undefined"
	}
	if c.Origin.SupportURL == "" {
		c.Origin.SupportURL = "https://github.com/jgyates/genmon"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("invalid mqtt port %d", c.MQTT.Port)
	}
	if prefix := c.GenmonPrefix(); prefix == "" || prefix == "#" || prefix == "+" {
		return errors.New("genmon_topic must carry a namespace prefix")
	}
	return nil
}

// GenmonPrefix returns the first segment of the subscription filter, used
// to build the remote command topic.
func (c *Config) GenmonPrefix() string {
	prefix, _, _ := strings.Cut(c.Bridge.GenmonTopic, "/")
	return prefix
}
