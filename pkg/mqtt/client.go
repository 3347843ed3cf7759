package mqtt

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/markus-lassfolk/rfwatch/pkg/interference"
	"github.com/markus-lassfolk/rfwatch/pkg/logx"
)

// Config holds MQTT publisher configuration.
type Config struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	Broker      string `json:"broker" mapstructure:"broker"`
	Port        int    `json:"port" mapstructure:"port"`
	ClientID    string `json:"client_id" mapstructure:"client_id"`
	Username    string `json:"username" mapstructure:"username"`
	Password    string `json:"password" mapstructure:"password"`
	TopicPrefix string `json:"topic_prefix" mapstructure:"topic_prefix"`
	QoS         int    `json:"qos" mapstructure:"qos"`
	Retain      bool   `json:"retain" mapstructure:"retain"`
}

// DefaultConfig returns a disabled localhost publisher configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		Broker:      "localhost",
		Port:        1883,
		ClientID:    "rfwatchd",
		TopicPrefix: "rfwatch",
		QoS:         1,
		Retain:      false,
	}
}

// Publisher mirrors detection results to an MQTT broker so dashboards and
// home-automation systems can react to interference events.
type Publisher struct {
	client      MQTT.Client
	logger      *logx.Logger
	config      *Config
	lastPublish time.Time

	// connected is flipped from paho's callback goroutines and read from
	// request handlers, so it needs atomic access.
	connected atomic.Bool
}

// NewPublisher creates an MQTT publisher. Call Connect before publishing.
func NewPublisher(config *Config, logger *logx.Logger) *Publisher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Publisher{
		logger: logger,
		config: config,
	}
}

// Connect establishes the broker connection. A disabled publisher connects
// to nothing and all publishes become no-ops.
func (p *Publisher) Connect() error {
	if !p.config.Enabled {
		p.logger.Debug("MQTT publisher disabled")
		return nil
	}

	opts := MQTT.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", p.config.Broker, p.config.Port))
	opts.SetClientID(p.config.ClientID)

	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetOnConnectHandler(p.onConnect)
	opts.SetConnectionLostHandler(p.onConnectionLost)

	p.client = MQTT.NewClient(opts)

	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	p.logger.Info("MQTT publisher connected",
		"broker", p.config.Broker,
		"port", p.config.Port)

	return nil
}

// Disconnect closes the broker connection.
func (p *Publisher) Disconnect() error {
	if p.client != nil && p.connected.Load() {
		p.client.Disconnect(250)
		p.connected.Store(false)
		p.logger.Info("MQTT publisher disconnected")
	}
	return nil
}

// IsConnected reports whether the publisher is connected to the broker.
func (p *Publisher) IsConnected() bool {
	return p.connected.Load() && p.client != nil && p.client.IsConnected()
}

// PublishReport publishes a full detection report to <prefix>/report.
func (p *Publisher) PublishReport(doc *interference.ExportDocument) error {
	if !p.config.Enabled || !p.connected.Load() {
		return nil
	}
	return p.publishJSON(fmt.Sprintf("%s/report", p.config.TopicPrefix), doc)
}

// PublishSources publishes the detected source list to <prefix>/sources.
func (p *Publisher) PublishSources(sources []*interference.Source) error {
	if !p.config.Enabled || !p.connected.Load() {
		return nil
	}

	payload := map[string]interface{}{
		"timestamp": time.Now().Unix(),
		"count":     len(sources),
		"sources":   sources,
	}

	return p.publishJSON(fmt.Sprintf("%s/sources", p.config.TopicPrefix), payload)
}

// PublishStatus publishes daemon status to <prefix>/status.
func (p *Publisher) PublishStatus(status map[string]interface{}) error {
	if !p.config.Enabled || !p.connected.Load() {
		return nil
	}

	payload := map[string]interface{}{
		"timestamp": time.Now().Unix(),
		"status":    status,
	}

	return p.publishJSON(fmt.Sprintf("%s/status", p.config.TopicPrefix), payload)
}

func (p *Publisher) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := p.client.Publish(topic, byte(p.config.QoS), p.config.Retain, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	p.lastPublish = time.Now()
	p.logger.Debug("MQTT message published", "topic", topic, "size", len(data))

	return nil
}

func (p *Publisher) onConnect(client MQTT.Client) {
	p.connected.Store(true)
	p.logger.Info("MQTT connection established")
}

func (p *Publisher) onConnectionLost(client MQTT.Client, err error) {
	p.connected.Store(false)
	p.logger.Error("MQTT connection lost", "error", err.Error())
}
