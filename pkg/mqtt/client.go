// Package mqtt is a thin wrapper around the Paho client.
package mqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"package-tracking/internal/logger"
)

type Config struct {
	Broker               string
	ClientID             string
	Username             string
	Password             string
	CleanSession         bool
	KeepAlive            time.Duration
	ConnectTimeout       time.Duration
	AutoReconnect        bool
	MaxReconnectInterval time.Duration
}

// DefaultConfig fills in keepalive and reconnect settings for broker.
func DefaultConfig(broker, clientID string) *Config {
	return &Config{
		Broker:               broker,
		ClientID:             clientID,
		CleanSession:         true,
		KeepAlive:            30 * time.Second,
		ConnectTimeout:       10 * time.Second,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	}
}

type Client struct {
	client mqtt.Client
	config *Config
	log    *zap.Logger
}

type MessageHandler func(topic string, payload []byte)

func NewClient(config *Config) *Client {
	log := logger.Named("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(config.CleanSession)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetConnectTimeout(config.ConnectTimeout)
	opts.SetAutoReconnect(config.AutoReconnect)
	opts.SetMaxReconnectInterval(config.MaxReconnectInterval)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("MQTT client connected", zap.String("broker", config.Broker))
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", zap.Error(err))
	})

	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Info("Reconnecting to MQTT broker")
	})

	return &Client{
		client: mqtt.NewClient(opts),
		config: config,
		log:    log,
	}
}

// Connect establishes a connection to the MQTT broker
func (c *Client) Connect() error {
	c.log.Info("Connecting to MQTT broker", zap.String("broker", c.config.Broker))

	token := c.client.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", c.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return nil
}

// Subscribe subscribes to a topic with handler
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	c.log.Info("Subscribed to topic", zap.String("topic", topic), zap.Uint8("qos", qos))
	return nil
}

// Publish publishes a message to a topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

// Disconnect waits up to 250ms for in-flight work before closing.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.log.Info("Disconnected from MQTT broker")
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
