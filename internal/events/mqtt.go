package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"netusage/internal/config"
	"netusage/internal/log"
)

const (
	mqttQoS        = 1
	publishTimeout = 5 * time.Second
	connectTimeout = 15 * time.Second
)

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes JSON messages to <prefix>/dataset_loaded.
type MQTT struct {
	client mqttClient
	topic  string
	logger *log.Logger
}

// NewMQTT connects to the broker.
func NewMQTT(cfg config.MQTTConfig, logger *log.Logger) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "netusage"
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if err := awaitConnect(client.Connect(), connectTimeout, cfg.Broker, logger); err != nil {
		return nil, err
	}

	return newMQTT(client, cfg.TopicPrefix, logger), nil
}

// awaitConnect fails on a connect error. A timeout only warns, since the
// client keeps retrying in the background.
func awaitConnect(token mqtt.Token, timeout time.Duration, broker string, logger *log.Logger) error {
	if !token.WaitTimeout(timeout) {
		logger.Warn("MQTT connect timed out, retrying in background",
			"broker", broker,
			log.FieldDuration, timeout.Milliseconds(),
		)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	return nil
}

func newMQTT(client mqttClient, prefix string, logger *log.Logger) *MQTT {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "netusage"
	}
	return &MQTT{client: client, topic: prefix + "/dataset_loaded", logger: logger}
}

// Topic is where messages go.
func (m *MQTT) Topic() string { return m.topic }

func (m *MQTT) PublishDatasetLoaded(ctx context.Context, msg DatasetLoaded) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	token := m.client.Publish(m.topic, mqttQoS, false, body)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish to %s: timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}

	m.logger.InfoContext(ctx, "Published dataset loaded event",
		log.FieldSessionID, msg.SessionID,
		"topic", m.topic)
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
