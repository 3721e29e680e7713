package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	MongoURI          string
	DBName            string
	JWTSecret         string
	Port              string
	DBTimeout         time.Duration
	KafkaBrokers      string
	KafkaOrderTopic   string
	KafkaWriteTimeout time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Info(".env not loaded")
	}
	return Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "cubaclick"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		Port:              getEnvOrDefault("PORT", "8080"),
		DBTimeout:         getDurationEnv("DB_TIMEOUT_SECONDS", 5, time.Second),
		KafkaBrokers:      getEnvOrDefault("KAFKA_BROKERS", ""),
		KafkaOrderTopic:   getEnvOrDefault("KAFKA_ORDER_TOPIC", "orders.placed"),
		KafkaWriteTimeout: getDurationEnv("KAFKA_WRITE_TIMEOUT_SECONDS", 5, time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue)) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
