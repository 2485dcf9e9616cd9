package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPPort         int
	MetricsPort      int
	DatabaseURL      string
	KafkaBrokers     []string
	OrderEventsTopic string
	DelayedTopic     string
	OTLPEndpoint     string
	ServiceName      string

	// Commerce platform the order snapshots are fetched from.
	CommerceAPIURL string
	CommerceAPIKey string

	// Store identity used in rendered messages and admin links.
	SiteName     string
	AdminBaseURL string

	// Root of external file storage; the delivery log lives at a
	// fixed subpath beneath it.
	StorageDir string

	TelegramAPIBase  string
	EncryptionSecret string
}

func LoadConfig(service string) (*Config, error) {
	cfg := &Config{ServiceName: service}

	httpPort, err := getEnvInt("HTTP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.HTTPPort = httpPort

	metricsPort, err := getEnvInt("METRICS_PORT", httpPort+1000)
	if err != nil {
		return nil, err
	}
	cfg.MetricsPort = metricsPort

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	} else {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.OrderEventsTopic = getEnv("ORDER_EVENTS_TOPIC", "orders.events")
	cfg.DelayedTopic = getEnv("DELAYED_SENDS_TOPIC", "orders.delayed")

	cfg.CommerceAPIURL = getEnv("COMMERCE_API_URL", "http://localhost:8090")
	cfg.CommerceAPIKey = os.Getenv("COMMERCE_API_KEY")

	cfg.SiteName = getEnv("SITE_NAME", "Shop")
	cfg.AdminBaseURL = getEnv("ADMIN_BASE_URL", "http://localhost:8090/admin")

	cfg.StorageDir = getEnv("STORAGE_DIR", "/var/lib/telegram-order-notify")
	cfg.TelegramAPIBase = getEnv("TELEGRAM_API_BASE", "https://api.telegram.org")
	cfg.EncryptionSecret = os.Getenv("ENCRYPTION_SECRET")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return parsed, nil
	}
	return fallback, nil
}
