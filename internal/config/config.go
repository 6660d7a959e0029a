package config

import (
	"os"
	"strconv"
	"time"

	"vasafe/backend/internal/domain"
)

type Config struct {
	// HTTP
	HTTPPort string

	// MQTT broker
	MQTTHost      string
	MQTTPort      string
	MQTTNamespace string

	// TimescaleDB
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ingestion
	ReconnectDelay  time.Duration
	ViolationPolicy domain.ViolationPolicy
	AlertChanSize   int
	AlertDedupTTL   time.Duration

	// Query window
	LookbackHours int
	WindowLimit   int
	QueryTimeout  time.Duration

	// Auth
	AdminUser       string
	AdminPassword   string
	SessionTokenTTL time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8000"),
		MQTTHost:        getEnv("MQTT_BROKER", "mosquitto"),
		MQTTPort:        getEnv("MQTT_PORT", "1883"),
		MQTTNamespace:   getEnv("MQTT_NAMESPACE", "vasafe"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "vasafe_user"),
		DBPassword:      getEnv("DB_PASSWORD", "vasafe_password"),
		DBName:          getEnv("DB_NAME", "vasafe"),
		DBMaxConns:      int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		ReconnectDelay:  time.Duration(getEnvInt("MQTT_RECONNECT_SECONDS", 5)) * time.Second,
		ViolationPolicy: policyFromEnv(),
		AlertChanSize:   getEnvInt("ALERT_CHANNEL_SIZE", 1000),
		AlertDedupTTL:   time.Duration(getEnvInt("ALERT_DEDUP_SECONDS", 300)) * time.Second,
		LookbackHours:   getEnvInt("LOOKBACK_HOURS", 24),
		WindowLimit:     getEnvInt("WINDOW_LIMIT", 50),
		QueryTimeout:    time.Duration(getEnvInt("QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		AdminUser:       getEnv("ADMIN_USER", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin"),
		SessionTokenTTL: time.Duration(getEnvInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
	}
}

func policyFromEnv() domain.ViolationPolicy {
	if getEnv("VIOLATION_POLICY", "") == string(domain.PolicyThreshold) {
		return domain.PolicyThreshold
	}
	return domain.PolicyExplicitAlert
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
