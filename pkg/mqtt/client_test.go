package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("tcp://localhost:1883", "package-tracking")

	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.Equal(t, "package-tracking", cfg.ClientID)
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, 30*time.Second, cfg.KeepAlive)
}

func TestNewClient_NotConnected(t *testing.T) {
	c := NewClient(DefaultConfig("tcp://localhost:1883", "test"))
	assert.False(t, c.IsConnected())
}
