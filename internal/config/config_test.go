package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_TIMEOUT_SECONDS", "")
	t.Setenv("KAFKA_WRITE_TIMEOUT_SECONDS", "")

	cfg := Load()

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "cubaclick", cfg.DBName)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 5*time.Second, cfg.KafkaWriteTimeout)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("DB_TIMEOUT_SECONDS", "-3")
	t.Setenv("KAFKA_WRITE_TIMEOUT_SECONDS", "abc")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 5*time.Second, cfg.KafkaWriteTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", " 9090 ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_WRITE_TIMEOUT_SECONDS", "2")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "k1:9092,k2:9092", cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.KafkaWriteTimeout)
}
