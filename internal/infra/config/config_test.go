package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("BROKER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, BrokerNone, cfg.Broker)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxInterval)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadRequiresBrokerSettings(t *testing.T) {
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "")

	_, err := Load()
	assert.ErrorContains(t, err, "KAFKA_BROKERS")
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("STORE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("STORE", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown STORE")
}
