package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port      string
	JWTSecret string

	// Redis (coordination store)
	RedisAddr     string
	RedisPassword string

	// Kafka
	KafkaBrokers       []string
	KafkaConsumerGroup string
	DeviceDataTopic    string

	// Token issuance
	TokenTTLSeconds int

	// Topic provisioning defaults, used when a tenant has no profile.
	DefaultPartitions  int
	DefaultReplication int
}

func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "databridge-socketio"),
		DeviceDataTopic:    getEnv("DEVICE_DATA_TOPIC", "device-data"),

		TokenTTLSeconds: getEnvInt("TOKEN_TTL_SECONDS", 60),

		DefaultPartitions:  getEnvInt("DEFAULT_PARTITIONS", 1),
		DefaultReplication: getEnvInt("DEFAULT_REPLICATION", 1),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
