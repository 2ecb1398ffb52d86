package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/oerazoo/orders-service/internal/messaging/kafka"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса заказов.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	Kafka        kafka.Config
	ReserveTopic string
}

// DefaultConfig возвращает конфигурацию dev-режима: HTTP на 8080,
// метрики на 9090, хранилище в памяти, публикация саги выключена.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		ReserveTopic:        kafka.DefaultReserveTopic,
	}
}

// LoadConfig читает конфигурацию из окружения поверх значений по
// умолчанию. Заданный ORDERS_POSTGRES_DSN автоматически переключает
// драйвер на postgres, если драйвер не указан явно.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("ORDERS_HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ORDERS_METRICS_ADDR")); v != "" {
		cfg.MetricsAddr = v
	}

	if v := strings.TrimSpace(os.Getenv("ORDERS_POSTGRES_DSN")); v != "" {
		cfg.PostgresDSN = v
		cfg.StorageDriver = StorageDriverPostgres
	}
	if v := strings.TrimSpace(os.Getenv("ORDERS_STORAGE_DRIVER")); v != "" {
		cfg.StorageDriver = v
	}
	if v := strings.TrimSpace(os.Getenv("ORDERS_POSTGRES_AUTO_MIGRATE")); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.PostgresAutoMigrate = parsed
		}
	}

	if v := strings.TrimSpace(os.Getenv("ORDERS_KAFKA_BROKERS")); v != "" {
		cfg.Kafka.Brokers = splitBrokers(v)
	}
	cfg.Kafka.ClientID = strings.TrimSpace(os.Getenv("ORDERS_KAFKA_CLIENT_ID"))
	cfg.Kafka.Username = strings.TrimSpace(os.Getenv("ORDERS_KAFKA_USERNAME"))
	cfg.Kafka.Password = os.Getenv("ORDERS_KAFKA_PASSWORD")

	if v := strings.TrimSpace(os.Getenv("ORDERS_RESERVE_TOPIC")); v != "" {
		cfg.ReserveTopic = v
	}

	return cfg
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
