package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"package-tracking/internal/logger"
	pkgmqtt "package-tracking/pkg/mqtt"
)

// MQTTIngestionConfig describes the topic and MQTT connection parameters.
type MQTTIngestionConfig struct {
	ClientConfig  *pkgmqtt.Config
	LocationTopic string
	QoS           byte
}

// Subscriber is the part of the MQTT client the ingestion side uses.
type Subscriber interface {
	Connect() error
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	Disconnect()
}

// MQTTIngestionClient wires MQTT messages into the location processor.
type MQTTIngestionClient struct {
	cfg       *MQTTIngestionConfig
	client    Subscriber
	processor *Processor

	mu      sync.Mutex
	started bool
}

func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, processor *Processor) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	return newMQTTIngestionClient(cfg, pkgmqtt.NewClient(cfg.ClientConfig), processor)
}

func newMQTTIngestionClient(cfg *MQTTIngestionConfig, client Subscriber, processor *Processor) (*MQTTIngestionClient, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.LocationTopic == "" {
		return nil, errors.New("no MQTT location topic configured")
	}
	return &MQTTIngestionClient{
		cfg:       cfg,
		client:    client,
		processor: processor,
	}, nil
}

// Start connects to the broker and subscribes to the location topic.
func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	if err := c.client.Subscribe(c.cfg.LocationTopic, c.cfg.QoS, c.handleLocationMessage); err != nil {
		c.client.Disconnect()
		return fmt.Errorf("subscribe failed for topic %s: %w", c.cfg.LocationTopic, err)
	}

	logger.Info("Listening for device locations", zap.String("topic", c.cfg.LocationTopic))
	c.started = true
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}

	if err := c.client.Unsubscribe(c.cfg.LocationTopic); err != nil {
		logger.Warn("Failed to unsubscribe from MQTT topic", zap.Error(err))
	}

	c.client.Disconnect()
	c.started = false
}

func (c *MQTTIngestionClient) handleLocationMessage(topic string, payload []byte) {
	msg, err := ParseLocationMessage(topic, payload)
	if err != nil {
		logger.Warn("Invalid location payload", zap.String("topic", topic), zap.Error(err))
		c.processor.Metrics().Update(func(m *IngestMetrics) { m.MessagesFailed++ })
		return
	}

	if err := ValidateLocationMessage(msg); err != nil {
		logger.Warn("Rejected location report", zap.String("topic", topic), zap.Error(err))
		c.processor.Metrics().Update(func(m *IngestMetrics) { m.MessagesFailed++ })
		return
	}

	c.processor.Enqueue(msg)
}
