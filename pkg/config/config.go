package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/markus-lassfolk/rfwatch/pkg/mqtt"
	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
)

// Config is the rfwatchd daemon configuration.
type Config struct {
	ListenAddr          string          `json:"listen_addr" mapstructure:"listen_addr"`
	LogLevel            string          `json:"log_level" mapstructure:"log_level"`
	PIDFile             string          `json:"pid_file" mapstructure:"pid_file"`
	SessionDBPath       string          `json:"session_db_path" mapstructure:"session_db_path"`
	HeatmapGridSize     int             `json:"heatmap_grid_size" mapstructure:"heatmap_grid_size"`
	ClusterBandwidthMHz float64         `json:"cluster_bandwidth_mhz" mapstructure:"cluster_bandwidth_mhz"`
	PathLoss            pathloss.Config `json:"path_loss" mapstructure:"path_loss"`
	MQTT                mqtt.Config     `json:"mqtt" mapstructure:"mqtt"`
}

// Default configuration values.
const (
	DefaultListenAddr      = ":8087"
	DefaultLogLevel        = "info"
	DefaultPIDFile         = "/tmp/rfwatchd.pid"
	DefaultSessionDBPath   = "/var/lib/rfwatch/sessions.db"
	DefaultHeatmapGridSize = 50
)

// Load reads the configuration from a YAML or JSON file. A missing file is
// not an error: defaults apply, so the daemon runs unconfigured.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			// File absent: fall through to defaults.
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("pid_file", DefaultPIDFile)
	v.SetDefault("session_db_path", DefaultSessionDBPath)
	v.SetDefault("heatmap_grid_size", DefaultHeatmapGridSize)
	v.SetDefault("cluster_bandwidth_mhz", 20.0)

	defaults := pathloss.DefaultConfig()
	v.SetDefault("path_loss.path_loss_exponent", defaults.Exponent)
	v.SetDefault("path_loss.reference_distance", defaults.ReferenceDistance)
	v.SetDefault("path_loss.reference_rssi", defaults.ReferenceRSSI)

	mqttDefaults := mqtt.DefaultConfig()
	v.SetDefault("mqtt.enabled", mqttDefaults.Enabled)
	v.SetDefault("mqtt.broker", mqttDefaults.Broker)
	v.SetDefault("mqtt.port", mqttDefaults.Port)
	v.SetDefault("mqtt.client_id", mqttDefaults.ClientID)
	v.SetDefault("mqtt.topic_prefix", mqttDefaults.TopicPrefix)
	v.SetDefault("mqtt.qos", mqttDefaults.QoS)
	v.SetDefault("mqtt.retain", mqttDefaults.Retain)
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if err := c.PathLoss.Validate(); err != nil {
		return err
	}
	if c.HeatmapGridSize < 1 || c.HeatmapGridSize > 500 {
		return fmt.Errorf("heatmap_grid_size must be between 1 and 500, got %d", c.HeatmapGridSize)
	}
	if c.ClusterBandwidthMHz <= 0 {
		return fmt.Errorf("cluster_bandwidth_mhz must be positive, got %g", c.ClusterBandwidthMHz)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when MQTT is enabled")
	}
	return nil
}
