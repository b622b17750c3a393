package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionHours = 1000

type Config struct {
	AppAddr     string
	SQLitePath  string
	DatabaseURL string
	AssetsDir   string
	SessionTTL  time.Duration
	Kafka       string
	ESURL       string
	ESUser      string
	ESPassword  string
	LogLevel    string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		AppAddr:     getDefault("APP_ADDR", ":8080"),
		SQLitePath:  getDefault("SQLITE_PATH", "giftlist.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AssetsDir:   getDefault("ASSETS_DIR", "assets"),
		SessionTTL:  sessionTTL(),
		Kafka:       os.Getenv("KAFKA_ADDRESS"),
		ESURL:       os.Getenv("ES_URL"),
		ESUser:      os.Getenv("ES_USER"),
		ESPassword:  os.Getenv("ES_PASSWORD"),
		LogLevel:    getDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func sessionTTL() time.Duration {
	hours := defaultSessionHours
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			hours = parsed
		} else {
			log.Printf("Notice: invalid SESSION_TTL %q, using %d hours", v, defaultSessionHours)
		}
	}
	return time.Duration(hours) * time.Hour
}
